package target

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/target-fit-mcp/internal/geometry"
)

// DefaultBase is the half extent of the target face in model units.
const DefaultBase = 120.0

// PoseDims is the length of a pose vector.
const PoseDims = 6

var (
	// ErrInvalidBase is returned for a non-positive or non-finite half extent.
	ErrInvalidBase = errors.New("target base must be positive and finite")

	// ErrInvalidPose is returned when a pose contains NaN or Inf, or a pose
	// vector has the wrong length.
	ErrInvalidPose = errors.New("invalid target pose")
)

// Pose places a target: Center in model space, Angles as Euler angles in
// radians applied as Rz·Ry·Rx.
type Pose struct {
	Center r3.Vector `json:"center" yaml:"center"`
	Angles r3.Vector `json:"angles" yaml:"angles"`
}

// Vector flattens the pose to (cx, cy, cz, rx, ry, rz).
func (p Pose) Vector() []float64 {
	return []float64{p.Center.X, p.Center.Y, p.Center.Z, p.Angles.X, p.Angles.Y, p.Angles.Z}
}

// PoseFromVector is the inverse of Pose.Vector.
func PoseFromVector(v []float64) (Pose, error) {
	if len(v) != PoseDims {
		return Pose{}, fmt.Errorf("%w: want %d values, got %d", ErrInvalidPose, PoseDims, len(v))
	}
	return Pose{
		Center: r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		Angles: r3.Vector{X: v[3], Y: v[4], Z: v[5]},
	}, nil
}

func (p Pose) finite() bool {
	for _, v := range p.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Target is an oriented square face with concentric rings.
type Target struct {
	pose    Pose
	base    float64
	basis   geometry.Basis
	palette Palette
}

// New builds a target. The basis is derived from the pose angles and never
// changes afterwards.
func New(pose Pose, base float64, palette Palette) (*Target, error) {
	if !(base > 0) || math.IsInf(base, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase, base)
	}
	if !pose.finite() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidPose, pose)
	}
	if err := palette.Validate(); err != nil {
		return nil, err
	}
	basis, err := geometry.PlaneBasis(geometry.EulerToRotation(pose.Angles))
	if err != nil {
		return nil, fmt.Errorf("target basis: %w", err)
	}
	return &Target{pose: pose, base: base, basis: basis, palette: palette}, nil
}

// Pose returns the pose the target was built from.
func (t *Target) Pose() Pose { return t.pose }

// Center returns the plane origin.
func (t *Target) Center() r3.Vector { return t.pose.Center }

// Base returns the half extent of the face.
func (t *Target) Base() float64 { return t.base }

// Basis returns the plane frame.
func (t *Target) Basis() geometry.Basis { return t.basis }

// Palette returns the ring colors.
func (t *Target) Palette() Palette { return t.palette }

// PointInSpace maps a plane-local point to model space.
func (t *Target) PointInSpace(p r2.Point) r3.Vector {
	return geometry.ModelPointToPlane(t.pose.Center, t.basis, t.base, p)
}

// ColorAt returns the face color at a plane-local point.
func (t *Target) ColorAt(p r2.Point) (colorful.Color, bool) {
	return t.palette.ColorAt(p)
}

// PlaneCoords intersects a ray with the target plane and returns the
// plane-local coordinates of the hit. Hits behind the ray origin are rejected.
func (t *Target) PlaneCoords(origin, direction r3.Vector) (r2.Point, bool) {
	hit, ok := geometry.RayPlaneIntersection(t.pose.Center, t.basis.Normal, origin, direction)
	if !ok || hit.Sub(origin).Dot(direction) <= 0 {
		return r2.Point{}, false
	}
	d := hit.Sub(t.pose.Center)
	return r2.Point{X: d.Dot(t.basis.Binormal) / t.base, Y: d.Dot(t.basis.Up) / t.base}, true
}

// CastRayColor returns the face color seen along a ray.
func (t *Target) CastRayColor(origin, direction r3.Vector) (colorful.Color, bool) {
	p, ok := t.PlaneCoords(origin, direction)
	if !ok {
		return colorful.Color{}, false
	}
	return t.palette.ColorAt(p)
}

// CastRaySection returns the unclamped ring index seen along a ray.
func (t *Target) CastRaySection(origin, direction r3.Vector) (int, bool) {
	p, ok := t.PlaneCoords(origin, direction)
	if !ok {
		return 0, false
	}
	return t.palette.Section(p)
}

// Corners returns the face corners in model space, counter-clockwise from
// the (-1, -1) corner.
func (t *Target) Corners() [4]r3.Vector {
	return [4]r3.Vector{
		t.PointInSpace(r2.Point{X: -1, Y: -1}),
		t.PointInSpace(r2.Point{X: 1, Y: -1}),
		t.PointInSpace(r2.Point{X: 1, Y: 1}),
		t.PointInSpace(r2.Point{X: -1, Y: 1}),
	}
}
