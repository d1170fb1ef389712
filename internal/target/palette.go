package target

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultRingWidth is the radial width of one ring in plane-local units.
const DefaultRingWidth = 1.0 / 5

// ErrInvalidPalette is returned for palettes without colors or with a
// non-positive ring width.
var ErrInvalidPalette = errors.New("invalid palette")

// Standard face colors, normalized RGB.
var (
	Yellow = colorful.Color{R: 1, G: 0.81, B: 0}
	Red    = colorful.Color{R: 1, G: 0.12, B: 0}
	Blue   = colorful.Color{R: 0.25, G: 0.75, B: 1}
	Black  = colorful.Color{R: 0.1, G: 0.1, B: 0.1}
	White  = colorful.Color{R: 1, G: 1, B: 1}
	// Miss covers the face outside the scoring rings.
	Miss = colorful.Color{R: 1, G: 1, B: 1}
)

// Palette maps ring indices to colors. Ring i covers distances
// [i·RingWidth, (i+1)·RingWidth) from the face center; the last color is a
// catch-all for everything farther out but still on the square face.
type Palette struct {
	Colors    []colorful.Color
	RingWidth float64
}

// DefaultPalette returns the standard five ring face plus the miss color.
func DefaultPalette() Palette {
	return Palette{
		Colors:    []colorful.Color{Yellow, Red, Blue, Black, White, Miss},
		RingWidth: DefaultRingWidth,
	}
}

// ParsePalette builds a palette from hex color strings ("#rrggbb").
func ParsePalette(hexColors []string, ringWidth float64) (Palette, error) {
	colors := make([]colorful.Color, 0, len(hexColors))
	for i, h := range hexColors {
		c, err := colorful.Hex(h)
		if err != nil {
			return Palette{}, fmt.Errorf("palette color %d %q: %w", i, h, err)
		}
		colors = append(colors, c)
	}
	p := Palette{Colors: colors, RingWidth: ringWidth}
	if err := p.Validate(); err != nil {
		return Palette{}, err
	}
	return p, nil
}

// Validate checks that the palette can color a face.
func (p Palette) Validate() error {
	if len(p.Colors) == 0 {
		return fmt.Errorf("%w: no colors", ErrInvalidPalette)
	}
	if !(p.RingWidth > 0) || math.IsInf(p.RingWidth, 0) {
		return fmt.Errorf("%w: ring width %v", ErrInvalidPalette, p.RingWidth)
	}
	return nil
}

// OnFace reports whether a plane-local point lies strictly inside the square.
func OnFace(p r2.Point) bool {
	return p.X > -1 && p.X < 1 && p.Y > -1 && p.Y < 1
}

// Section returns the unclamped ring index of p, or false when p is off the face.
func (p Palette) Section(pt r2.Point) (int, bool) {
	if !OnFace(pt) {
		return 0, false
	}
	return int(pt.Norm() / p.RingWidth), true
}

// ColorAt returns the face color at a plane-local point. Points off the
// square face have no color.
func (p Palette) ColorAt(pt r2.Point) (colorful.Color, bool) {
	section, ok := p.Section(pt)
	if !ok {
		return colorful.Color{}, false
	}
	return p.Colors[p.clamp(section)], true
}

// Boundaries returns the radii where the visible color changes between
// consecutive rings and the ring still fits on the face.
func (p Palette) Boundaries() []float64 {
	var radii []float64
	for i := 1; i < len(p.Colors); i++ {
		r := float64(i) * p.RingWidth
		if r >= 1 {
			break
		}
		if p.Colors[i-1] != p.Colors[i] {
			radii = append(radii, r)
		}
	}
	return radii
}

func (p Palette) clamp(section int) int {
	if last := len(p.Colors) - 1; section > last {
		return last
	}
	return section
}
