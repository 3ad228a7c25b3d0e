// Package metadata models the per-image property bag carried from a decoded
// source into the output container, and the transformations applied to it on
// the way: the vendor repair pass that fixes known camera quirks, and the
// stereo block that tags each view with its role and camera parameters.
//
// Bags are ordered so that serialized output is stable. Callers own the bag
// they pass in; every transformation either mutates an owned bag in place
// (Repairer.Repair) or returns a fresh clone (BuildStereo), never both.
package metadata
