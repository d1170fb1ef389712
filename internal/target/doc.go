// Package target models the physical archery face and the camera that
// looks at it.
//
// A Target is an oriented square plane with concentric colored rings. It is
// built from a Pose (center plus Euler angles) and a fixed half extent, is
// immutable once built and is cheap enough to construct for every candidate
// the optimizer proposes.
//
// The Camera is a minimal pinhole: a 3×3 matrix holding focal scale and pixel
// shift, followed by perspective division. Projection ties the two together
// and maps plane-local coordinates to pixels.
package target
