// Package geometry is the math kernel of the target fitter.
//
// It turns Euler angles into rotations, builds the orthonormal basis of the
// target plane, maps plane-local 2D coordinates into 3D and intersects camera
// rays with the plane. Nothing here holds state or does I/O.
//
// # Conventions
//
// Model space is right handed with the camera at the origin looking down +Z.
// A target plane is described by its center and a basis (Normal, Up,
// Binormal). Plane-local coordinates are normalized so that the target face
// spans [-1, 1] on both axes; base is the half extent in model units.
//
// Degenerate inputs (a ray parallel to the plane, a collapsed basis) are
// reported through a false ok value or ErrDegenerateBasis. Nothing in this
// package panics on bad geometry.
package geometry
