package convert

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"spatialphoto/internal/geometry"
	"spatialphoto/internal/source"
)

// Job is one conversion: the sources that make up a stereo pair and the
// container they are written to. Pair is filled once the sources are split.
type Job struct {
	ID      string
	Mode    source.Mode
	Sources []string
	Output  string
	Params  geometry.Params
	Pair    *source.Pair
}

// Name is the first source's base name, used to label the job.
func (j Job) Name() string {
	if len(j.Sources) == 0 {
		return ""
	}
	return filepath.Base(j.Sources[0])
}

// Status is the outcome of a job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result reports what a job produced.
type Result struct {
	JobID          string          `json:"job_id"`
	Mode           source.Mode     `json:"mode"`
	Sources        []string        `json:"sources"`
	Output         string          `json:"output,omitempty"`
	Status         Status          `json:"status"`
	Width          int             `json:"width,omitempty"`
	Height         int             `json:"height,omitempty"`
	HFOVDegrees    float64         `json:"hfov_degrees,omitempty"`
	HFOVSource     geometry.Source `json:"hfov_source,omitempty"`
	BaselineMeters float64         `json:"baseline_m,omitempty"`
	Disparity      int64           `json:"disparity,omitempty"`
	Bytes          int64           `json:"output_bytes,omitempty"`
	Vendor         string          `json:"repaired_vendor,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
	Elapsed        time.Duration   `json:"elapsed_ns"`
	Err            error           `json:"-"`
	ErrorMessage   string          `json:"error,omitempty"`
	ErrorCategory  string          `json:"error_category,omitempty"`
}

func (r *Result) fail(err error) {
	r.Status = StatusFailed
	r.Err = err
	r.ErrorMessage = err.Error()
	r.ErrorCategory = Category(err)
}

// Summary collects the results of a batch.
type Summary struct {
	Results   []Result      `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// OK reports whether every job succeeded.
func (s Summary) OK() bool {
	return s.Failed == 0
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	if r.Status == StatusSucceeded {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

func newJobID() string {
	return uuid.NewString()
}
