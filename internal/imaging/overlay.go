package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Outline is a located target in photo pixel coordinates.
type Outline struct {
	// Corners in drawing order; consecutive corners are joined.
	Corners [4]r2.Point
	Center  r2.Point
	// Rings are optional closed polylines drawn inside the outline.
	Rings [][]r2.Point
}

// OverlayOptions styles DrawOverlay.
type OverlayOptions struct {
	LineColor  color.RGBA
	RingColor  color.RGBA
	LineWidth  int
	Label      string
	LabelColor color.RGBA
	LabelBG    color.RGBA
}

// DefaultOverlayOptions draws a 2 px green outline, thin cyan rings and a
// white-on-black label.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		LineColor:  color.RGBA{0, 255, 0, 255},
		RingColor:  color.RGBA{0, 200, 255, 200},
		LineWidth:  2,
		LabelColor: color.RGBA{255, 255, 255, 255},
		LabelBG:    color.RGBA{0, 0, 0, 180},
	}
}

// DrawOverlay copies img and draws the outline, the rings, a cross at the
// centre and the label on top. Parts outside the image are clipped.
func DrawOverlay(img image.Image, outline Outline, opts OverlayOptions) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	width := opts.LineWidth
	if width < 1 {
		width = 1
	}

	for _, ring := range outline.Rings {
		for i := range ring {
			drawLine(result, ring[i], ring[(i+1)%len(ring)], 1, opts.RingColor)
		}
	}
	for i := range outline.Corners {
		drawLine(result, outline.Corners[i], outline.Corners[(i+1)%4], width, opts.LineColor)
	}

	const arm = 6
	c := outline.Center
	drawLine(result, r2.Point{X: c.X - arm, Y: c.Y}, r2.Point{X: c.X + arm, Y: c.Y}, width, opts.LineColor)
	drawLine(result, r2.Point{X: c.X, Y: c.Y - arm}, r2.Point{X: c.X, Y: c.Y + arm}, width, opts.LineColor)

	if opts.Label != "" {
		drawLabel(result, 4, 4, opts.Label, opts.LabelColor, opts.LabelBG)
	}
	return result
}

// drawLine rasterizes a segment with a square brush of the given width.
func drawLine(img *image.RGBA, a, b r2.Point, width int, c color.RGBA) {
	if !finitePoint(a) || !finitePoint(b) {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	// Segments far outside the canvas are not worth walking.
	if steps > 4*(img.Bounds().Dx()+img.Bounds().Dy()) {
		return
	}
	src := image.NewUniform(c)
	half := width / 2
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := int(math.Round(a.X + t*(b.X-a.X)))
		y := int(math.Round(a.Y + t*(b.Y-a.Y)))
		r := image.Rect(x-half, y-half, x-half+width, y-half+width).Intersect(img.Bounds())
		if !r.Empty() {
			draw.Draw(img, r, src, image.Point{}, draw.Over)
		}
	}
}

func finitePoint(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// drawLabel writes text with basicfont over a filled background box whose
// top-left corner is (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	advance := d.MeasureString(text).Ceil()
	box := image.Rect(x, y, x+advance+4, y+face.Height+2).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{X: fixed.I(x + 2), Y: fixed.I(y + 1 + face.Ascent)}
	d.DrawString(text)
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	alpha := uint8(255)
	switch len(hex) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:7]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length: %q", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}
