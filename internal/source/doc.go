// Package source turns the three kinds of stereo input into a left/right
// pair of rasters with property bags: multi-picture (MPO) files holding two
// concatenated JPEG streams, side-by-side composites split down the middle,
// and explicit left/right image pairs.
package source
