// Package logging assembles structured slog loggers and formatting helpers
// used across spatialphoto.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so conversion code can tag log lines
// with the job ID, source mode, and input file. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
