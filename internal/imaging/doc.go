// Package imaging holds the raster plumbing around a target fit: loading
// and caching photos, reducing them to working resolution, Canny edge
// maps, result overlays, crops and output encoding.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X to the
// right and Y down. Rectangles are half-open: Min inclusive, Max exclusive.
// Outlines and points are r2.Point values in the same frame and may be
// fractional.
//
// # Formats
//
// The loader decodes PNG, JPEG, GIF, WebP and TGA. Encode and Save write
// PNG, JPEG or lossless WebP.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function is stateless
// and never modifies its input image.
package imaging
