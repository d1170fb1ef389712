package target

import (
	"image"
	"image/color"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
)

// Render draws the target as the camera would see it on a plain background
// by casting one ray per pixel. The result is the synthetic image the cost
// functions compare against when a pose is exactly right.
func Render(t *Target, cam Camera, width, height int, background colorful.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	bg := toNRGBA(background)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			origin, dir := cam.Ray(r2.Point{X: float64(x), Y: float64(y)})
			c, ok := t.CastRayColor(origin, dir)
			if !ok {
				img.SetNRGBA(x, y, bg)
				continue
			}
			img.SetNRGBA(x, y, toNRGBA(c))
		}
	}
	return img
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
