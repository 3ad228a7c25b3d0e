package preflight

import (
	"errors"
	"fmt"
	"path/filepath"

	"spatialphoto/internal/config"
	"spatialphoto/internal/fileutil"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Err converts a failed result into an error. Passing results return nil.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	return fmt.Errorf("%s: %s", r.Name, r.Detail)
}

// Inputs checks one job: every input must be a readable file and the
// directory the output lands in must be writable.
func Inputs(cfg *config.Config, inputs ...string) []Result {
	results := make([]Result, 0, len(inputs)+1)
	for _, path := range inputs {
		results = append(results, CheckFileReadable("Input "+filepath.Base(path), path))
	}
	if len(inputs) > 0 {
		dir := outputDir(cfg, inputs[0])
		results = append(results, CheckDirectoryAccess("Output directory", dir))
	}
	return results
}

// RunAll checks a whole batch. Output directories are checked once each.
func RunAll(cfg *config.Config, inputs []string) []Result {
	results := make([]Result, 0, len(inputs)+1)
	seen := make(map[string]bool)
	for _, path := range inputs {
		results = append(results, CheckFileReadable("Input "+filepath.Base(path), path))
		dir := outputDir(cfg, path)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		results = append(results, CheckDirectoryAccess("Output directory", dir))
	}
	return results
}

// FirstError returns the first failed result as an error, joined with any
// later failures.
func FirstError(results []Result) error {
	var errs []error
	for _, r := range results {
		if err := r.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func outputDir(cfg *config.Config, input string) string {
	ext, dir := ".heic", ""
	if cfg != nil {
		ext, dir = cfg.Output.Extension, cfg.Output.Dir
	}
	return filepath.Dir(fileutil.OutputPath(input, dir, ext))
}
