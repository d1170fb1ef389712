// Package fit locates a concentric-ring target in a photo.
//
// Fit reduces the photo to working resolution, builds the colour and edge
// rasters, and lets the Nelder–Mead minimizer search the six pose
// parameters of the target for the lowest cost. The result carries the
// pose, the final cost, the optimizer status and cameras that project the
// located target into both the working image and the source photo.
//
// All tunables live in Config, which can be loaded from YAML with
// LoadConfig.
package fit
