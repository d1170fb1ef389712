package geometry

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// parallelEpsilon bounds |direction·normal| below which a ray counts as
// parallel to a plane. It also bounds the cross product norm of a basis.
const parallelEpsilon = 1e-9

// ErrDegenerateBasis is returned when the plane normal and up direction are
// parallel (or not finite), so no binormal can be derived.
var ErrDegenerateBasis = errors.New("degenerate plane basis: normal parallel to up")

var (
	// modelNormal is the plane normal before rotation; it faces the camera.
	modelNormal = r3.Vector{X: 0, Y: 0, Z: -1}
	modelUp     = r3.Vector{X: 0, Y: 1, Z: 0}
)

// Basis is the orthonormal frame of a target plane.
type Basis struct {
	Normal   r3.Vector
	Up       r3.Vector
	Binormal r3.Vector
}

// PlaneBasis rotates the reference frame by rot. Binormal = normalize(Normal × Up).
func PlaneBasis(rot Mat3) (Basis, error) {
	normal := rot.MulVec(modelNormal)
	up := rot.MulVec(modelUp)
	cross := normal.Cross(up)
	n := cross.Norm()
	if !finite(n) || n < parallelEpsilon {
		return Basis{}, ErrDegenerateBasis
	}
	return Basis{Normal: normal, Up: up, Binormal: cross.Mul(1 / n)}, nil
}

// NewBasis builds a basis from an explicit normal and up direction. Up is
// re-orthogonalized against the normal so the result is orthonormal even
// when the inputs are only roughly perpendicular.
func NewBasis(normal, up r3.Vector) (Basis, error) {
	nn := normal.Norm()
	if !finite(nn) || nn < parallelEpsilon {
		return Basis{}, ErrDegenerateBasis
	}
	normal = normal.Mul(1 / nn)
	up = up.Sub(normal.Mul(up.Dot(normal)))
	un := up.Norm()
	if !finite(un) || un < parallelEpsilon {
		return Basis{}, ErrDegenerateBasis
	}
	up = up.Mul(1 / un)
	return Basis{Normal: normal, Up: up, Binormal: normal.Cross(up).Normalize()}, nil
}

// ModelPointToPlane maps a plane-local point to 3D:
// center + Binormal·p.X·base + Up·p.Y·base.
func ModelPointToPlane(center r3.Vector, b Basis, base float64, p r2.Point) r3.Vector {
	return center.Add(b.Binormal.Mul(p.X * base)).Add(b.Up.Mul(p.Y * base))
}

// RayPlaneIntersection solves normal·(origin + t·direction − center) = 0.
// It reports false when the ray is parallel to the plane.
func RayPlaneIntersection(center, normal, origin, direction r3.Vector) (r3.Vector, bool) {
	denom := direction.Dot(normal)
	if !finite(denom) || math.Abs(denom) < parallelEpsilon {
		return r3.Vector{}, false
	}
	t := normal.Dot(center.Sub(origin)) / denom
	return origin.Add(direction.Mul(t)), true
}

// PlaneCoordsComposed intersects the ray with the plane and projects the hit
// onto the plane basis, giving plane-local coordinates.
func PlaneCoordsComposed(center r3.Vector, b Basis, base float64, origin, direction r3.Vector) (r2.Point, bool) {
	if base == 0 {
		return r2.Point{}, false
	}
	hit, ok := RayPlaneIntersection(center, b.Normal, origin, direction)
	if !ok {
		return r2.Point{}, false
	}
	d := hit.Sub(center)
	return r2.Point{X: d.Dot(b.Binormal) / base, Y: d.Dot(b.Up) / base}, true
}

// PlaneCoordsDirect computes the same coordinates as PlaneCoordsComposed by
// solving origin + t·direction = center + u·base·Binormal + v·base·Up as one
// 3×3 linear system in (u, v, t).
func PlaneCoordsDirect(center r3.Vector, b Basis, base float64, origin, direction r3.Vector) (r2.Point, bool) {
	bx := b.Binormal.Mul(base)
	uy := b.Up.Mul(base)
	a := mat.NewDense(3, 3, []float64{
		bx.X, uy.X, -direction.X,
		bx.Y, uy.Y, -direction.Y,
		bx.Z, uy.Z, -direction.Z,
	})
	rhs := origin.Sub(center)
	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(3, []float64{rhs.X, rhs.Y, rhs.Z})); err != nil {
		return r2.Point{}, false
	}
	p := r2.Point{X: x.AtVec(0), Y: x.AtVec(1)}
	if !finite(p.X) || !finite(p.Y) {
		return r2.Point{}, false
	}
	return p, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
