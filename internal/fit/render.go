package fit

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/target-fit-mcp/internal/imaging"
)

// DefaultRectifiedSize is the side of a rectified face image.
const DefaultRectifiedSize = 256

// ErrNotVisible is returned when the located face cannot be projected into
// the photo.
var ErrNotVisible = errors.New("fit: target not visible")

// Overlay draws the located target onto img. An empty label is replaced by
// a cost and status summary.
func Overlay(img image.Image, res *Result, label string) (*image.RGBA, error) {
	outline, ok := res.Outline()
	if !ok {
		return nil, ErrNotVisible
	}
	opts := imaging.DefaultOverlayOptions()
	opts.Label = label
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("cost %.4f %s", res.Cost, res.Status)
	}
	return imaging.DrawOverlay(img, outline, opts), nil
}

// Crop cuts the axis-aligned square around the projected face from img,
// grown by margin and resized to size×size when size is positive.
func Crop(img image.Image, res *Result, margin float64, size int) (*image.NRGBA, error) {
	corners, ok := res.Projection().Corners()
	if !ok {
		return nil, ErrNotVisible
	}
	out, err := imaging.CropSquare(img, corners[:], margin, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotVisible, err)
	}
	return out, nil
}

// Rectify resamples the face into a size×size image as if viewed head on.
// Output pixel (i, j) shows the face point ((i+0.5)/size·2−1, (j+0.5)/size·2−1).
// Points that project outside the photo are transparent.
func Rectify(img image.Image, res *Result, size int) (*image.NRGBA, error) {
	if size <= 0 {
		size = DefaultRectifiedSize
	}
	if _, ok := res.Projection().Corners(); !ok {
		return nil, ErrNotVisible
	}
	proj := res.Projection()
	src := imaging.ToNRGBA(img)
	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			model := r2.Point{
				X: (float64(i)+0.5)/float64(size)*2 - 1,
				Y: (float64(j)+0.5)/float64(size)*2 - 1,
			}
			p, ok := proj.Project(model)
			if !ok {
				continue
			}
			if c, ok := bilinear(src, p); ok {
				out.SetNRGBA(i, j, c)
			}
		}
	}
	return out, nil
}

// bilinear samples src at p with pixel centres on integer coordinates.
func bilinear(src *image.NRGBA, p r2.Point) (color.NRGBA, bool) {
	b := src.Bounds()
	x0f, y0f := math.Floor(p.X), math.Floor(p.Y)
	if math.IsNaN(x0f) || math.IsNaN(y0f) {
		return color.NRGBA{}, false
	}
	x0, y0 := int(x0f), int(y0f)
	if x0 < b.Min.X || y0 < b.Min.Y || x0+1 >= b.Max.X || y0+1 >= b.Max.Y {
		return color.NRGBA{}, false
	}
	fx, fy := p.X-x0f, p.Y-y0f
	c00 := src.NRGBAAt(x0, y0)
	c10 := src.NRGBAAt(x0+1, y0)
	c01 := src.NRGBAAt(x0, y0+1)
	c11 := src.NRGBAAt(x0+1, y0+1)
	mix := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-fx) + float64(b)*fx
		bottom := float64(c)*(1-fx) + float64(d)*fx
		return uint8(math.Round(top*(1-fy) + bottom*fy))
	}
	return color.NRGBA{
		R: mix(c00.R, c10.R, c01.R, c11.R),
		G: mix(c00.G, c10.G, c01.G, c11.G),
		B: mix(c00.B, c10.B, c01.B, c11.B),
		A: mix(c00.A, c10.A, c01.A, c11.A),
	}, true
}
