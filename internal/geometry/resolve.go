package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Params holds the optional geometry inputs supplied by the user. A nil field
// means the value was not provided.
type Params struct {
	HFOVDegrees         *float64
	SensorWidthMM       *float64
	FocalLengthMM       *float64
	DisparityAdjustment *float64
	BaselineMM          *float64
}

// Defaults are the per-mode fallback values used when Params leaves a value unset.
type Defaults struct {
	HFOVDegrees float64
	BaselineMM  float64
}

// Warning codes surfaced by ResolveHFOV.
const (
	WarnHFOVOverridesFocal = "hfov_overrides_focal_length"
	WarnIncompletePair     = "incomplete_sensor_focal_pair"
)

// Warning describes a non-fatal geometry input problem.
type Warning struct {
	Code    string
	Message string
}

// Source labels where the resolved field of view came from.
type Source string

const (
	SourceExplicit Source = "hfov"
	SourceSensor   Source = "sensor_focal"
	SourceDefault  Source = "default"
)

// Resolved is the complete geometry for one output image size.
type Resolved struct {
	HFOVDegrees         float64
	HFOVSource          Source
	FocalLengthPixels   float64
	Intrinsics          *mat.Dense
	BaselineMeters      float64
	DisparityFixedPoint int64
	Width               int
	Height              int
}

// ResolveHFOV picks the horizontal field of view. An explicit value wins over
// a sensor/focal pair, a complete pair wins over the default, and a pair with
// only one half is ignored.
func ResolveHFOV(p Params, defaults Defaults) (float64, Source, []Warning) {
	var warnings []Warning
	hasSensor := p.SensorWidthMM != nil
	hasFocal := p.FocalLengthMM != nil

	if p.HFOVDegrees != nil && (hasSensor || hasFocal) {
		warnings = append(warnings, Warning{
			Code:    WarnHFOVOverridesFocal,
			Message: "using hfov, not sensor width/focal length",
		})
	}
	if hasSensor != hasFocal {
		warnings = append(warnings, Warning{
			Code:    WarnIncompletePair,
			Message: "sensor width and focal length must both be specified, ignoring",
		})
	}

	switch {
	case p.HFOVDegrees != nil:
		return *p.HFOVDegrees, SourceExplicit, warnings
	case hasSensor && hasFocal:
		return HFOVFromSensor(*p.SensorWidthMM, *p.FocalLengthMM), SourceSensor, warnings
	default:
		return defaults.HFOVDegrees, SourceDefault, warnings
	}
}

// Resolve computes the full geometry for an image of the given size.
func Resolve(p Params, defaults Defaults, width, height int) (Resolved, []Warning) {
	hfov, source, warnings := ResolveHFOV(p, defaults)

	baseline := defaults.BaselineMM
	if p.BaselineMM != nil {
		baseline = *p.BaselineMM
	}
	var disparity float64
	if p.DisparityAdjustment != nil {
		disparity = *p.DisparityAdjustment
	}

	focal := FocalLengthPixels(width, hfov)
	return Resolved{
		HFOVDegrees:         hfov,
		HFOVSource:          source,
		FocalLengthPixels:   focal,
		Intrinsics:          Intrinsics(focal, width, height),
		BaselineMeters:      baseline / 1000.0,
		DisparityFixedPoint: EncodeDisparity(disparity),
		Width:               width,
		Height:              height,
	}, warnings
}

// String renders a short summary for logs.
func (r Resolved) String() string {
	return fmt.Sprintf("hfov=%.4g° f=%.2fpx baseline=%.4gm", r.HFOVDegrees, r.FocalLengthPixels, r.BaselineMeters)
}

// Float returns a pointer to v; convenient for populating Params.
func Float(v float64) *float64 {
	return &v
}
