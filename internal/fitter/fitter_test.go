package fitter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/png"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
)

// pngBytes encodes img as PNG so tests can feed the fitter realistic input.
func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// noiseImage builds a high-entropy raster that resists JPEG compression.
func noiseImage(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*img.Stride+x*4+3] = 255
		}
	}
	return img
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("output format: got %q, want jpeg", format)
	}
	return img
}

func TestFit_SolidColorFitsFirstQuality(t *testing.T) {
	src := imaging.New(1920, 1080, color.NRGBA{R: 40, G: 90, B: 200, A: 255})
	raw := pngBytes(t, src)

	res, err := Fit(raw, TargetSpec{Width: 1920, Height: 1080, ByteBudget: 950_000})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if res.Quality != 95 {
		t.Errorf("quality: got %d, want 95 (first ladder step)", res.Quality)
	}
	if res.ScaleRound != 0 {
		t.Errorf("scale round: got %d, want 0", res.ScaleRound)
	}
	if res.Width != 1920 || res.Height != 1080 {
		t.Errorf("dimensions: got %dx%d", res.Width, res.Height)
	}
	if len(res.Data) > 950_000 {
		t.Errorf("size %d exceeds budget", len(res.Data))
	}

	out := decodeJPEG(t, res.Data)
	if out.Bounds().Dx() != 1920 || out.Bounds().Dy() != 1080 {
		t.Errorf("decoded dimensions: got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestFit_ResizesToExactTarget(t *testing.T) {
	// Source dimensions differ from every target; distortion is accepted.
	src := imaging.New(640, 480, color.NRGBA{R: 10, G: 200, B: 10, A: 255})
	raw := pngBytes(t, src)

	targets := []struct{ w, h int }{
		{1920, 1080}, {1280, 720}, {1024, 768},
		{600, 800}, {800, 600}, {800, 800}, {1600, 900},
	}
	for _, tc := range targets {
		res, err := Fit(raw, TargetSpec{Width: tc.w, Height: tc.h, ByteBudget: 950_000})
		if err != nil {
			t.Fatalf("fit %dx%d: %v", tc.w, tc.h, err)
		}
		if res.Width != tc.w || res.Height != tc.h {
			t.Errorf("%dx%d: result reports %dx%d", tc.w, tc.h, res.Width, res.Height)
		}
		out := decodeJPEG(t, res.Data)
		if out.Bounds().Dx() != tc.w || out.Bounds().Dy() != tc.h {
			t.Errorf("%dx%d: decoded %dx%d", tc.w, tc.h, out.Bounds().Dx(), out.Bounds().Dy())
		}
	}
}

func TestFit_NormalizesColorModes(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 120, 90))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 256)
	}

	paletted := image.NewPaletted(image.Rect(0, 0, 120, 90), palette.Plan9)
	for i := range paletted.Pix {
		paletted.Pix[i] = uint8(i % len(palette.Plan9))
	}

	rgba := image.NewNRGBA(image.Rect(0, 0, 120, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			rgba.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 77, A: 100})
		}
	}

	cases := []struct {
		name string
		img  image.Image
	}{
		{"grayscale", gray},
		{"paletted", paletted},
		{"transparent-nrgba", rgba},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Fit(pngBytes(t, tc.img), TargetSpec{Width: 100, Height: 100, ByteBudget: 950_000})
			if err != nil {
				t.Fatalf("fit: %v", err)
			}
			out := decodeJPEG(t, res.Data)
			if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
				t.Errorf("decoded dimensions: got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
			}
		})
	}
}

func TestFit_DecodeError(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"garbage", []byte("definitely not an image")},
		{"empty", nil},
		{"truncated-png", pngBytes(t, imaging.New(64, 64, color.NRGBA{A: 255}))[:12]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fit(tc.raw, TargetSpec{Width: 100, Height: 100, ByteBudget: 950_000})
			if !errors.Is(err, ErrDecode) {
				t.Errorf("got %v, want ErrDecode", err)
			}
		})
	}
}

func TestFit_NoiseForcesScaleRound(t *testing.T) {
	noise := noiseImage(800, 800, 1)
	raw := pngBytes(t, noise)

	// Pin the budget just below the smallest full-resolution encoding, so
	// the whole primary ladder fails and the fallback must engage.
	floor, err := encodeJPEG(imaging.Clone(noise), 50)
	if err != nil {
		t.Fatalf("encode floor: %v", err)
	}
	budget := len(floor) - 1

	res, err := Fit(raw, TargetSpec{Width: 800, Height: 800, ByteBudget: budget})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if res.ScaleRound < 1 {
		t.Fatalf("scale round: got %d, want >= 1", res.ScaleRound)
	}
	if len(res.Data) > budget {
		t.Errorf("size %d exceeds budget %d", len(res.Data), budget)
	}

	wantW, wantH := scaledDims(800, 800, 0.9, res.ScaleRound)
	if res.Width != wantW || res.Height != wantH {
		t.Errorf("dimensions: got %dx%d, want %dx%d for round %d",
			res.Width, res.Height, wantW, wantH, res.ScaleRound)
	}
	out := decodeJPEG(t, res.Data)
	if out.Bounds().Dx() != wantW || out.Bounds().Dy() != wantH {
		t.Errorf("decoded dimensions: got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestFit_BudgetExhausted(t *testing.T) {
	raw := pngBytes(t, noiseImage(64, 64, 2))

	_, err := Fit(raw, TargetSpec{Width: 64, Height: 64, ByteBudget: 10})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("got %v, want ErrBudgetExhausted", err)
	}
}

func TestFit_Deterministic(t *testing.T) {
	raw := pngBytes(t, noiseImage(160, 120, 3))
	spec := TargetSpec{Width: 160, Height: 120, ByteBudget: 950_000}

	a, err := Fit(raw, spec)
	if err != nil {
		t.Fatalf("first fit: %v", err)
	}
	b, err := Fit(raw, spec)
	if err != nil {
		t.Fatalf("second fit: %v", err)
	}
	if a.Quality != b.Quality {
		t.Errorf("quality differs: %d vs %d", a.Quality, b.Quality)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Error("repeated runs produced different bytes")
	}
}

func TestFit_InvalidSpec(t *testing.T) {
	raw := pngBytes(t, imaging.New(10, 10, color.NRGBA{A: 255}))

	cases := []struct {
		name string
		spec TargetSpec
	}{
		{"zero-width", TargetSpec{Width: 0, Height: 100, ByteBudget: 1000}},
		{"negative-height", TargetSpec{Width: 100, Height: -1, ByteBudget: 1000}},
		{"zero-budget", TargetSpec{Width: 100, Height: 100, ByteBudget: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Fit(raw, tc.spec); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScaledDims(t *testing.T) {
	cases := []struct {
		w, h, round  int
		wantW, wantH int
	}{
		{1920, 1080, 1, 1728, 972},
		{1920, 1080, 2, 1555, 875},
		{1920, 1080, 3, 1400, 787},
		{1920, 1080, 4, 1260, 709},
		{1920, 1080, 5, 1134, 638},
		{800, 800, 1, 720, 720},
		{1, 1, 5, 1, 1}, // clamped to the 1×1 minimum
	}
	for _, tc := range cases {
		gotW, gotH := scaledDims(tc.w, tc.h, 0.9, tc.round)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Errorf("scaledDims(%d, %d, round %d): got %dx%d, want %dx%d",
				tc.w, tc.h, tc.round, gotW, gotH, tc.wantW, tc.wantH)
		}
	}
}
