// Package geometry derives pinhole camera parameters for stereo output images.
//
// Users supply at most a horizontal field of view, or a sensor width plus lens
// focal length, and the package turns that into a field of view, a focal length
// in pixels for a given image width, and the 3×3 intrinsics matrix attached to
// each view. Missing inputs fall back to per-mode defaults supplied by the
// caller. Lens distortion is not modeled.
package geometry
