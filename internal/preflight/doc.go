// Package preflight checks that inputs are readable and output directories
// are writable before any conversion work starts.
//
// The batch runner calls Inputs once per job so a missing or unreadable file
// fails fast with a clear message, and the CLI "check" command renders the
// same results as a table without converting anything.
package preflight
