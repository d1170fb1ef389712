package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Preprocessing defaults.
const (
	DefaultWorkingWidth   = 256
	DefaultBlurRadius     = 5.0
	DefaultEdgeBlurRadius = 2.0
)

var (
	// ErrEmptyImage is returned when an image has no pixels.
	ErrEmptyImage = errors.New("image has no pixels")

	// ErrInvalidPrepareOptions is returned by PrepareOptions.Validate.
	ErrInvalidPrepareOptions = errors.New("invalid preprocessing options")
)

// PrepareOptions controls how a photo is reduced before fitting.
type PrepareOptions struct {
	// WorkingWidth caps the width the fit runs at. Wider photos are scaled
	// down keeping the aspect ratio. 0 disables resizing.
	WorkingWidth int `yaml:"working_width" json:"working_width"`
	// BlurRadius is the box blur radius applied to the colour image.
	BlurRadius float64 `yaml:"blur_radius" json:"blur_radius"`
	// EdgeLow and EdgeHigh are the Canny hysteresis thresholds (0-255).
	EdgeLow  int `yaml:"edge_low" json:"edge_low"`
	EdgeHigh int `yaml:"edge_high" json:"edge_high"`
	// EdgeBlurRadius softens the binary edge map.
	EdgeBlurRadius float64 `yaml:"edge_blur_radius" json:"edge_blur_radius"`
}

// DefaultPrepareOptions returns the defaults used by the fit.
func DefaultPrepareOptions() PrepareOptions {
	return PrepareOptions{
		WorkingWidth:   DefaultWorkingWidth,
		BlurRadius:     DefaultBlurRadius,
		EdgeLow:        DefaultEdgeLow,
		EdgeHigh:       DefaultEdgeHigh,
		EdgeBlurRadius: DefaultEdgeBlurRadius,
	}
}

// Validate checks the options.
func (o PrepareOptions) Validate() error {
	switch {
	case o.WorkingWidth < 0:
		return fmt.Errorf("%w: working width %d", ErrInvalidPrepareOptions, o.WorkingWidth)
	case !(o.BlurRadius >= 0):
		return fmt.Errorf("%w: blur radius %v", ErrInvalidPrepareOptions, o.BlurRadius)
	case !(o.EdgeBlurRadius >= 0):
		return fmt.Errorf("%w: edge blur radius %v", ErrInvalidPrepareOptions, o.EdgeBlurRadius)
	case o.EdgeLow < 0 || o.EdgeHigh > 255 || o.EdgeLow > o.EdgeHigh:
		return fmt.Errorf("%w: edge thresholds %d/%d", ErrInvalidPrepareOptions, o.EdgeLow, o.EdgeHigh)
	}
	return nil
}

// Prepared holds the rasters a fit scores against.
type Prepared struct {
	// Working is the photo at working resolution, origin at (0,0).
	Working *image.NRGBA
	// Blurred is Working after the box blur.
	Blurred *image.RGBA
	// Edges is the softened Canny edge map of Working.
	Edges *image.Gray
	// Scale is source width divided by working width. Multiply working
	// pixel coordinates by it to get source coordinates.
	Scale float64
}

// WorkingSize returns the size a w×h photo is reduced to for the given
// working width. It matches the rounding of imaging.Resize.
func WorkingSize(w, h, workingWidth int) (int, int) {
	if workingWidth <= 0 || w <= workingWidth || w == 0 {
		return w, h
	}
	nh := int(math.Max(1, math.Floor(float64(workingWidth)*float64(h)/float64(w)+0.5)))
	return workingWidth, nh
}

// Prepare resizes, blurs and edge-detects img.
func Prepare(img image.Image, o PrepareOptions) (*Prepared, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	var working *image.NRGBA
	if w, _ := WorkingSize(b.Dx(), b.Dy(), o.WorkingWidth); w != b.Dx() {
		working = imaging.Resize(img, w, 0, imaging.Lanczos)
	} else {
		working = imaging.Clone(img)
	}

	var blurred *image.RGBA
	if o.BlurRadius > 0 {
		blurred = blur.Box(working, o.BlurRadius)
	} else {
		blurred = image.NewRGBA(working.Bounds())
		draw.Draw(blurred, blurred.Bounds(), working, image.Point{}, draw.Src)
	}

	edges := SoftenEdges(Canny(working, o.EdgeLow, o.EdgeHigh), o.EdgeBlurRadius)

	return &Prepared{
		Working: working,
		Blurred: blurred,
		Edges:   edges,
		Scale:   float64(b.Dx()) / float64(working.Bounds().Dx()),
	}, nil
}

// ToNRGBA copies img into an NRGBA image with its origin at (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}
