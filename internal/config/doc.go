// Package config loads, normalizes, and validates spatialphoto configuration.
//
// It supplies the per-mode geometry defaults, output naming, logging, and
// metadata repair settings, reading them from a TOML file when one exists.
// Command-line flags are layered on top by the CLI after Load returns.
package config
