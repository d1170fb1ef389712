package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
)

// Crop extracts rect from img and optionally scales it.
func Crop(img image.Image, rect image.Rectangle, scale float64) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", rect, bounds)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region %v", rect)
	}

	cropped := imaging.Crop(img, rect)
	if scale != 1.0 && scale > 0 {
		w := int(math.Max(1, math.Round(float64(cropped.Bounds().Dx())*scale)))
		h := int(math.Max(1, math.Round(float64(cropped.Bounds().Dy())*scale)))
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return cropped, nil
}

// SquareAround returns the square that contains every point, grown by
// margin (a fraction of the side) and clipped to bounds. The result may be
// non-square after clipping, or empty when the points lie outside bounds.
func SquareAround(points []r2.Point, margin float64, bounds image.Rectangle) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}
	rect := r2.RectFromPoints(points...)
	if !finitePoint(rect.Lo()) || !finitePoint(rect.Hi()) {
		return image.Rectangle{}
	}
	side := math.Max(rect.X.Length(), rect.Y.Length()) * (1 + margin)
	c := rect.Center()
	half := side / 2
	sq := image.Rect(
		int(math.Floor(c.X-half)), int(math.Floor(c.Y-half)),
		int(math.Ceil(c.X+half)), int(math.Ceil(c.Y+half)),
	)
	return sq.Intersect(bounds)
}

// CropSquare crops the square around points and resizes it to size×size
// when size is positive.
func CropSquare(img image.Image, points []r2.Point, margin float64, size int) (*image.NRGBA, error) {
	rect := SquareAround(points, margin, img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("target region does not overlap the image")
	}
	cropped, err := Crop(img, rect, 1)
	if err != nil {
		return nil, err
	}
	if size > 0 {
		cropped = imaging.Resize(cropped, size, size, imaging.Lanczos)
	}
	return cropped, nil
}
