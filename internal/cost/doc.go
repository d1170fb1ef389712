// Package cost scores a candidate target pose against an image.
//
// Scoring works on two read-only rasters built once per fit: a normalized
// float RGB copy of the (usually blurred) photo and an optional single
// channel edge map. Samplers walk plane-local coordinates of the target,
// project them through the camera and read the nearest pixel.
//
// Two strategies share the Strategy interface:
//
//   - AreaEdge (the default) subtracts a weighted edge alignment score from
//     the mean squared color error over the whole face.
//   - FullImage scans image pixels instead, casting one ray per pixel into
//     the model. It predates AreaEdge and is kept for experiments.
//
// Lower cost is better for both. Strategies never fail: degenerate
// projections become penalized or empty samples.
package cost
