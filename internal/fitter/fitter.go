// Package fitter converts arbitrary source images into JPEGs that satisfy
// an exact pixel-dimension target and a hard upper bound on encoded size.
//
// The search is greedy highest-quality-first: a descending quality ladder
// at full target resolution, then a bounded scale-down fallback for
// high-entropy images where no quality level fits the budget.
package fitter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode reports that the source bytes are not a decodable image.
	ErrDecode = errors.New("undecodable image data")

	// ErrBudgetExhausted reports that no quality level at any scale round
	// produced an encoding within the byte budget.
	ErrBudgetExhausted = errors.New("no encoding met the byte budget")
)

// TargetSpec describes the requested output: exact pixel dimensions and a
// byte budget the encoded JPEG must not exceed.
type TargetSpec struct {
	Width      int
	Height     int
	ByteBudget int
}

// Config holds the search tables. The tables are injected values rather
// than package globals so callers can narrow or widen the search.
type Config struct {
	// QualityLadder is tried highest-first at full target resolution.
	QualityLadder []int
	// FallbackLadder is the shorter ladder used during scale-down rounds.
	FallbackLadder []int
	// ScaleStep compounds once per round against the original target
	// dimensions: round k resizes to step^k of the target.
	ScaleStep float64
	// MaxScaleRounds bounds the scale-down fallback.
	MaxScaleRounds int
}

// DefaultConfig returns the standard search tables.
func DefaultConfig() Config {
	return Config{
		QualityLadder:  []int{95, 92, 90, 88, 85, 82, 80, 78, 75, 72, 70, 65, 60, 55, 50},
		FallbackLadder: []int{80, 75, 70, 65, 60, 55},
		ScaleStep:      0.9,
		MaxScaleRounds: 5,
	}
}

// Result is a fitted JPEG plus the search outcome that produced it.
type Result struct {
	Data       []byte
	Width      int
	Height     int
	Quality    int
	ScaleRound int // 0 = full target resolution
}

// Fit converts raw image bytes into an RGB JPEG of exactly
// spec.Width×spec.Height pixels — or a uniformly downscaled variant if no
// full-resolution encoding fits — whose size is at most spec.ByteBudget.
//
// The returned error wraps ErrDecode for unparseable input and
// ErrBudgetExhausted when the full search fails; there is no partial output.
func Fit(raw []byte, spec TargetSpec) (*Result, error) {
	return FitWith(raw, spec, DefaultConfig())
}

// FitWith is Fit with explicit search tables.
func FitWith(raw []byte, spec TargetSpec, cfg Config) (*Result, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", spec.Width, spec.Height)
	}
	if spec.ByteBudget <= 0 {
		return nil, fmt.Errorf("invalid byte budget %d", spec.ByteBudget)
	}

	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Cloning normalizes any source mode (palette, grayscale, alpha) to an
	// RGB-ordered raster; the full re-encode also strips all source
	// metadata, which is intentional.
	full := normalize(src)

	// Target dimensions are authoritative: no aspect-ratio preservation.
	if full.Bounds().Dx() != spec.Width || full.Bounds().Dy() != spec.Height {
		full = imaging.Resize(full, spec.Width, spec.Height, imaging.Lanczos)
	}

	for _, q := range cfg.QualityLadder {
		data, err := encodeJPEG(full, q)
		if err != nil {
			return nil, fmt.Errorf("encode quality %d: %w", q, err)
		}
		if len(data) <= spec.ByteBudget {
			return &Result{Data: data, Width: spec.Width, Height: spec.Height, Quality: q}, nil
		}
	}

	// Scale-down fallback: trade resolution, never aspect ratio. Each round
	// recomputes dimensions from the original target with a compounding
	// factor and resizes from the full-size raster, not the previous round.
	for round := 1; round <= cfg.MaxScaleRounds; round++ {
		w, h := scaledDims(spec.Width, spec.Height, cfg.ScaleStep, round)
		shrunk := imaging.Resize(full, w, h, imaging.Lanczos)

		for _, q := range cfg.FallbackLadder {
			data, err := encodeJPEG(shrunk, q)
			if err != nil {
				return nil, fmt.Errorf("encode %dx%d quality %d: %w", w, h, q, err)
			}
			if len(data) <= spec.ByteBudget {
				return &Result{Data: data, Width: w, Height: h, Quality: q, ScaleRound: round}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %dx%d within %d bytes after %d scale rounds",
		ErrBudgetExhausted, spec.Width, spec.Height, spec.ByteBudget, cfg.MaxScaleRounds)
}

// normalize returns an NRGBA copy of img.
func normalize(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// scaledDims computes the round-k fallback dimensions: the original target
// multiplied by step^round, rounded, never below 1×1.
func scaledDims(width, height int, step float64, round int) (int, int) {
	factor := math.Pow(step, float64(round))
	w := int(math.Round(float64(width) * factor))
	h := int(math.Round(float64(height) * factor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(256 * 1024) // pre-alloc — avoids repeated grow across ladder steps

	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
