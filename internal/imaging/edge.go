package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// Default Canny thresholds on the 0-255 gradient scale.
const (
	DefaultEdgeLow  = 50
	DefaultEdgeHigh = 150
)

// cannySmoothing is the Gaussian radius applied before the Sobel pass.
const cannySmoothing = 1.4

// Canny runs Canny edge detection and returns a binary map where edge
// pixels are 255 and everything else is 0. The result has the same bounds
// as img.
//
// # Algorithm
//
//  1. Grayscale conversion and Gaussian smoothing (bild).
//  2. Sobel gradients, magnitude sqrt(Gx² + Gy²).
//  3. Non-maximum suppression along the quantized gradient direction.
//  4. Hysteresis: pixels at or above high seed edges, which then grow
//     through 8-connected pixels at or above low.
//
// Thresholds are on the 0-255 scale and compared against the gradient of
// the [0,1] normalized intensity. Typical values are 50 and 150.
func Canny(img image.Image, low, high int) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)
	if width == 0 || height == 0 {
		return out
	}

	// Grayscale keeps R=G=B, so red is the luminance.
	smoothed := effect.Grayscale(blur.Gaussian(img, cannySmoothing))
	sb := smoothed.Bounds()
	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lum[y*width+x] = float64(smoothed.RGBAAt(x+sb.Min.X, y+sb.Min.Y).R) / 255.0
		}
	}

	at := func(buf []float64, x, y int) float64 {
		return buf[clamp(y, 0, height-1)*width+clamp(x, 0, width-1)]
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(lum, x-1, y-1) + at(lum, x+1, y-1) -
				2*at(lum, x-1, y) + 2*at(lum, x+1, y) -
				at(lum, x-1, y+1) + at(lum, x+1, y+1)
			gy := -at(lum, x-1, y-1) - 2*at(lum, x, y-1) - at(lum, x+1, y-1) +
				at(lum, x-1, y+1) + 2*at(lum, x, y+1) + at(lum, x+1, y+1)
			magnitude[y*width+x] = math.Hypot(gx, gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			dx, dy := quantizeDirection(direction[i])
			mag := magnitude[i]
			if mag >= magnitude[(y+dy)*width+x+dx] && mag >= magnitude[(y-dy)*width+x-dx] {
				suppressed[i] = mag
			}
		}
	}

	lowThresh := float64(low) / 255.0
	highThresh := float64(high) / 255.0

	// Grow from strong pixels with an explicit stack.
	var stack []int
	mark := func(i int) {
		out.Pix[(i/width)*out.Stride+i%width] = 255
		stack = append(stack, i)
	}
	for i, v := range suppressed {
		if v >= highThresh && v > 0 && out.Pix[(i/width)*out.Stride+i%width] == 0 {
			mark(i)
			for len(stack) > 0 {
				j := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				jx, jy := j%width, j/width
				for ny := jy - 1; ny <= jy+1; ny++ {
					for nx := jx - 1; nx <= jx+1; nx++ {
						if nx < 0 || ny < 0 || nx >= width || ny >= height {
							continue
						}
						k := ny*width + nx
						if suppressed[k] >= lowThresh && suppressed[k] > 0 && out.Pix[ny*out.Stride+nx] == 0 {
							mark(k)
						}
					}
				}
			}
		}
	}
	return out
}

// quantizeDirection maps a gradient angle to one of four neighbour offsets.
func quantizeDirection(angle float64) (dx, dy int) {
	if angle < 0 {
		angle += math.Pi
	}
	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return 1, 0
	case angle < 3*math.Pi/8:
		return 1, 1
	case angle < 5*math.Pi/8:
		return 0, 1
	default:
		return -1, 1
	}
}

// EdgeDetect runs Canny and returns the edge map as a base64 PNG.
func EdgeDetect(img image.Image, low, high int) (*EncodedImage, error) {
	return Encode(Canny(img, low, high), FormatPNG, 0)
}

// SoftenEdges blurs a binary edge map so the cost function sees a smooth
// falloff around each edge. A radius of 0 returns a copy.
func SoftenEdges(edges *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		out := image.NewGray(edges.Bounds())
		copy(out.Pix, edges.Pix)
		return out
	}
	return toGray(blur.Gaussian(edges, radius))
}

// toGray keeps the red channel; inputs are already gray.
func toGray(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: img.RGBAAt(x, y).R})
		}
	}
	return out
}

// clamp constrains val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
