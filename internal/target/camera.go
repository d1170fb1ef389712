package target

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/ironsheep/target-fit-mcp/internal/geometry"
)

// Default camera constants. They are empirical and only meaningful together
// with DefaultBase and the default working width.
const (
	DefaultObjectDistance = 26.0
	DefaultScale          = 10.0
)

// minDepth is the smallest depth a projected point may have.
const minDepth = 1e-9

// Camera projects model space to pixels: p' = M·p, pixel = (p'.x/p'.z, p'.y/p'.z)
// with M = [[d·s, 0, sx], [0, d·s, sy], [0, 0, 1]].
type Camera struct {
	objectDistance float64
	scale          float64
	shift          r2.Point
	matrix         geometry.Mat3
}

// NewCamera builds a camera from the object distance, scale and pixel shift
// (usually the image center).
func NewCamera(objectDistance, scale float64, shift r2.Point) Camera {
	f := objectDistance * scale
	return Camera{
		objectDistance: objectDistance,
		scale:          scale,
		shift:          shift,
		matrix: geometry.Mat3{
			f, 0, shift.X,
			0, f, shift.Y,
			0, 0, 1,
		},
	}
}

// CenteredCamera returns a camera shifted to the center of a width×height image.
func CenteredCamera(objectDistance, scale float64, width, height int) Camera {
	return NewCamera(objectDistance, scale, r2.Point{X: float64(width) / 2, Y: float64(height) / 2})
}

// Matrix returns the projection matrix.
func (c Camera) Matrix() geometry.Mat3 { return c.matrix }

// Shift returns the principal point in pixels.
func (c Camera) Shift() r2.Point { return c.shift }

// Focal returns objectDistance·scale.
func (c Camera) Focal() float64 { return c.objectDistance * c.scale }

// Scaled returns the camera that sees the same scene in an image k times
// larger in both dimensions.
func (c Camera) Scaled(k float64) Camera {
	return NewCamera(c.objectDistance, c.scale*k, c.shift.Mul(k))
}

// ProjectPoint maps a model-space point to pixel coordinates. Points at zero
// depth or behind the camera have no projection.
func (c Camera) ProjectPoint(p r3.Vector) (r2.Point, bool) {
	q := c.matrix.MulVec(p)
	if !(q.Z > minDepth) {
		return r2.Point{}, false
	}
	return r2.Point{X: q.X / q.Z, Y: q.Y / q.Z}, true
}

// Ray returns the camera ray through a pixel. The origin is the camera center.
func (c Camera) Ray(pixel r2.Point) (origin, direction r3.Vector) {
	f := c.Focal()
	return r3.Vector{}, r3.Vector{
		X: (pixel.X - c.shift.X) / f,
		Y: (pixel.Y - c.shift.Y) / f,
		Z: 1,
	}
}

// Projection projects plane-local target coordinates through a camera.
type Projection struct {
	Camera Camera
	Target *Target
}

// Project maps a plane-local point to pixel coordinates.
func (p Projection) Project(model r2.Point) (r2.Point, bool) {
	return p.Camera.ProjectPoint(p.Target.PointInSpace(model))
}

// Corners projects the four face corners. ok is false if any corner is
// behind the camera.
func (p Projection) Corners() (corners [4]r2.Point, ok bool) {
	for i, c := range p.Target.Corners() {
		px, visible := p.Camera.ProjectPoint(c)
		if !visible {
			return corners, false
		}
		corners[i] = px
	}
	return corners, true
}
