package cost

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
)

// ColorImage is a normalized float RGB raster.
type ColorImage struct {
	Width  int
	Height int
	pix    []float64
}

// NewColorImage converts img once so sampling does no color model work.
// Fully transparent pixels read as black.
func NewColorImage(img image.Image) *ColorImage {
	b := img.Bounds()
	ci := &ColorImage{Width: b.Dx(), Height: b.Dy(), pix: make([]float64, 3*b.Dx()*b.Dy())}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if ok {
				ci.pix[i], ci.pix[i+1], ci.pix[i+2] = c.R, c.G, c.B
			}
			i += 3
		}
	}
	return ci
}

// At returns the pixel color at integer coordinates. Callers check bounds.
func (ci *ColorImage) At(x, y int) colorful.Color {
	i := 3 * (y*ci.Width + x)
	return colorful.Color{R: ci.pix[i], G: ci.pix[i+1], B: ci.pix[i+2]}
}

// Sample reads the pixel nearest to p.
func (ci *ColorImage) Sample(p r2.Point) (colorful.Color, bool) {
	x, y, ok := nearest(p, ci.Width, ci.Height)
	if !ok {
		return colorful.Color{}, false
	}
	return ci.At(x, y), true
}

// EdgeMap is a single channel raster in [0, 1]; higher means a stronger edge.
type EdgeMap struct {
	Width  int
	Height int
	pix    []float64
}

// NewEdgeMap takes the luminance of img as edge strength.
func NewEdgeMap(img image.Image) *EdgeMap {
	b := img.Bounds()
	em := &EdgeMap{Width: b.Dx(), Height: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			em.pix[i] = float64(g.Y) / 0xffff
			i++
		}
	}
	return em
}

// At returns the edge strength at integer coordinates. Callers check bounds.
func (em *EdgeMap) At(x, y int) float64 {
	return em.pix[y*em.Width+x]
}

// Sample reads the edge strength nearest to p.
func (em *EdgeMap) Sample(p r2.Point) (float64, bool) {
	x, y, ok := nearest(p, em.Width, em.Height)
	if !ok {
		return 0, false
	}
	return em.At(x, y), true
}

func nearest(p r2.Point, width, height int) (int, int, bool) {
	fx, fy := math.Round(p.X), math.Round(p.Y)
	if !(fx >= 0 && fy >= 0 && fx < float64(width) && fy < float64(height)) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

func squaredDistance(a, b colorful.Color) float64 {
	dr, dg, db := a.R-b.R, a.G-b.G, a.B-b.B
	return dr*dr + dg*dg + db*db
}
