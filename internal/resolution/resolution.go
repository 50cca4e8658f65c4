// Package resolution holds the fixed catalog of common aspect-ratio
// resolutions the poster picks from.
package resolution

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Resolution is one width×height pair from the catalog.
type Resolution struct {
	Width  int
	Height int
}

// catalog is the fixed set of supported resolutions. Enforcement that a
// target comes from here is a caller concern; the fitter accepts any
// positive dimensions.
var catalog = []Resolution{
	{1920, 1080}, // 16:9 (FHD)
	{1280, 720},  // 16:9 (HD)
	{1024, 768},  // 4:3
	{600, 800},   // 3:4 (portrait)
	{800, 600},   // 4:3 (landscape)
	{800, 800},   // 1:1 (square)
	{1600, 900},  // 16:9
}

// Catalog returns a copy of the fixed resolution list.
func Catalog() []Resolution {
	out := make([]Resolution, len(catalog))
	copy(out, catalog)
	return out
}

// Pick returns a random catalog entry drawn from rng.
func Pick(rng *rand.Rand) Resolution {
	return catalog[rng.Intn(len(catalog))]
}

// Parse reads a "WxH" string, as accepted by the --resolution flag.
func Parse(s string) (Resolution, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("invalid resolution %q: want WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return Resolution{}, fmt.Errorf("invalid resolution %q: dimensions must be positive", s)
	}
	return Resolution{Width: w, Height: h}, nil
}

// String returns "WxH".
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Aspect returns the reduced aspect ratio, e.g. "16:9".
func (r Resolution) Aspect() string {
	d := gcd(r.Width, r.Height)
	if d == 0 {
		return "0:0"
	}
	return fmt.Sprintf("%d:%d", r.Width/d, r.Height/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
