package geometry_test

import (
	"math"
	"testing"

	"spatialphoto/internal/geometry"
)

func approxEqual(a, b, relTol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}

func TestHFOVFromSensorFullFrame24mm(t *testing.T) {
	got := geometry.HFOVFromSensor(36, 24)
	want := 2 * math.Atan(36.0/48.0) * (180 / math.Pi)
	if !approxEqual(got, want, 1e-12) {
		t.Fatalf("hfov: got %v want %v", got, want)
	}
	if math.Abs(got-73.74) > 0.01 {
		t.Fatalf("expected hfov near 73.74°, got %v", got)
	}
}

func TestFocalLengthPixelsRoundTrip(t *testing.T) {
	hfov := geometry.HFOVFromSensor(36, 24)
	got := geometry.FocalLengthPixels(4032, hfov)
	want := 0.5 * 4032 / math.Tan(0.5*hfov*math.Pi/180)
	if !approxEqual(got, want, 1e-6) {
		t.Fatalf("focal pixels: got %v want %v", got, want)
	}
	// tan(hfov/2) = 36/48, so f = 0.5*4032*48/36 exactly.
	if !approxEqual(got, 2688, 1e-6) {
		t.Fatalf("expected focal length of 2688px, got %v", got)
	}
}

func TestIntrinsicsLayout(t *testing.T) {
	m := geometry.Intrinsics(1000, 4000, 3000)
	want := []float64{1000, 0, 2000, 0, 1000, 1500, 0, 0, 1}
	got := geometry.RowMajor(m)
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("intrinsics[%d]: got %v want %v (all=%v)", i, got[i], want[i], got)
		}
	}
}

func TestResolveHFOVPrecedence(t *testing.T) {
	defaults := geometry.Defaults{HFOVDegrees: 48, BaselineMM: 75}
	tests := []struct {
		name     string
		params   geometry.Params
		want     float64
		source   geometry.Source
		warnings []string
	}{
		{
			name:   "default when nothing set",
			want:   48,
			source: geometry.SourceDefault,
		},
		{
			name:   "explicit hfov",
			params: geometry.Params{HFOVDegrees: geometry.Float(60)},
			want:   60,
			source: geometry.SourceExplicit,
		},
		{
			name:   "sensor and focal",
			params: geometry.Params{SensorWidthMM: geometry.Float(36), FocalLengthMM: geometry.Float(24)},
			want:   geometry.HFOVFromSensor(36, 24),
			source: geometry.SourceSensor,
		},
		{
			name:     "hfov wins over pair",
			params:   geometry.Params{HFOVDegrees: geometry.Float(50), SensorWidthMM: geometry.Float(36), FocalLengthMM: geometry.Float(24)},
			want:     50,
			source:   geometry.SourceExplicit,
			warnings: []string{geometry.WarnHFOVOverridesFocal},
		},
		{
			name:     "sensor without focal ignored",
			params:   geometry.Params{SensorWidthMM: geometry.Float(23.5)},
			want:     48,
			source:   geometry.SourceDefault,
			warnings: []string{geometry.WarnIncompletePair},
		},
		{
			name:     "focal without sensor ignored",
			params:   geometry.Params{FocalLengthMM: geometry.Float(35)},
			want:     48,
			source:   geometry.SourceDefault,
			warnings: []string{geometry.WarnIncompletePair},
		},
		{
			name:     "hfov with half pair warns twice",
			params:   geometry.Params{HFOVDegrees: geometry.Float(70), FocalLengthMM: geometry.Float(35)},
			want:     70,
			source:   geometry.SourceExplicit,
			warnings: []string{geometry.WarnHFOVOverridesFocal, geometry.WarnIncompletePair},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source, warnings := geometry.ResolveHFOV(tt.params, defaults)
			if !approxEqual(got, tt.want, 1e-12) {
				t.Fatalf("hfov: got %v want %v", got, tt.want)
			}
			if source != tt.source {
				t.Fatalf("source: got %q want %q", source, tt.source)
			}
			if len(warnings) != len(tt.warnings) {
				t.Fatalf("warnings: got %+v want codes %v", warnings, tt.warnings)
			}
			for i, code := range tt.warnings {
				if warnings[i].Code != code {
					t.Fatalf("warning %d: got %q want %q", i, warnings[i].Code, code)
				}
			}
		})
	}
}

func TestResolveUsesDefaultsAndOverrides(t *testing.T) {
	defaults := geometry.Defaults{HFOVDegrees: 66, BaselineMM: 65}

	r, warnings := geometry.Resolve(geometry.Params{}, defaults, 1920, 1080)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if r.BaselineMeters != 0.065 {
		t.Fatalf("baseline: got %v want 0.065", r.BaselineMeters)
	}
	if r.DisparityFixedPoint != 0 {
		t.Fatalf("disparity: got %d want 0", r.DisparityFixedPoint)
	}
	if !approxEqual(r.FocalLengthPixels, geometry.FocalLengthPixels(1920, 66), 1e-12) {
		t.Fatalf("focal: got %v", r.FocalLengthPixels)
	}
	if r.Intrinsics.At(0, 2) != 960 || r.Intrinsics.At(1, 2) != 540 {
		t.Fatalf("principal point: got (%v, %v)", r.Intrinsics.At(0, 2), r.Intrinsics.At(1, 2))
	}

	r, _ = geometry.Resolve(geometry.Params{
		BaselineMM:          geometry.Float(120),
		DisparityAdjustment: geometry.Float(-0.25),
	}, defaults, 100, 100)
	if r.BaselineMeters != 0.12 {
		t.Fatalf("baseline override: got %v", r.BaselineMeters)
	}
	if r.DisparityFixedPoint != -2500 {
		t.Fatalf("disparity override: got %d", r.DisparityFixedPoint)
	}
}

func TestDisparityRoundTrip(t *testing.T) {
	for i := -1000; i <= 1000; i++ {
		d := float64(i) / 1000
		got := geometry.DecodeDisparity(geometry.EncodeDisparity(d))
		want := math.Round(d*10000) / 10000
		if math.Abs(got-want) > 1e-4 {
			t.Fatalf("d=%v: got %v want %v", d, got, want)
		}
	}
	samples := []float64{-1, -0.33333, -0.00005, 0, 0.00004, 0.123456, 0.99999, 1}
	for _, d := range samples {
		got := geometry.DecodeDisparity(geometry.EncodeDisparity(d))
		if math.Abs(got-d) > 1e-4 {
			t.Fatalf("d=%v decoded to %v", d, got)
		}
		if geometry.EncodeDisparity(-d) != -geometry.EncodeDisparity(d) {
			t.Fatalf("encoding not symmetric for %v", d)
		}
	}
}

func TestEncodeDisparityClamps(t *testing.T) {
	if got := geometry.EncodeDisparity(3); got != 10000 {
		t.Fatalf("expected clamp to 10000, got %d", got)
	}
	if got := geometry.EncodeDisparity(-7); got != -10000 {
		t.Fatalf("expected clamp to -10000, got %d", got)
	}
	if got := geometry.EncodeDisparity(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to encode as 0, got %d", got)
	}
}
