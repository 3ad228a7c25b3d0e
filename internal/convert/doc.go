// Package convert orchestrates stereo conversions: it splits a source into
// two views, resolves camera geometry, repairs vendor metadata, attaches the
// stereo metadata block to each view, and writes the spatial container.
//
// Failures are tagged with one of the sentinel markers in errors.go so the
// CLI can report them by category. A batch keeps going after a failed job;
// only an odd pair count aborts it before any work starts.
package convert
