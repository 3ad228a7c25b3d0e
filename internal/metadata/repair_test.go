package metadata_test

import (
	"slices"
	"testing"
	"time"

	"spatialphoto/internal/metadata"
)

func qooCamBag() *metadata.Bag {
	b := metadata.NewBag()
	exif := b.EnsureSub(metadata.KeyExif)
	exif.Set(metadata.ExifUserComment, "QooCam+EGO firmware 1.2")
	exif.Set(metadata.ExifDateTimeOriginal, "2024:01:15 12:00:00")
	exif.Set(metadata.ExifDateTimeDigitized, "2024:01:15 12:00:01")
	return b
}

func TestRepairQooCamInjectsMakeModelAndShiftsTimestamps(t *testing.T) {
	r := metadata.NewRepairer(time.FixedZone("UTC-5", -5*3600))
	b := qooCamBag()

	report := r.Repair(b)
	if !report.Repaired || report.Vendor != metadata.QooCamEGO.Name {
		t.Fatalf("unexpected report: %+v", report)
	}

	tiff := b.Sub(metadata.KeyTIFF)
	if tiff == nil {
		t.Fatal("expected {TIFF} to be created")
	}
	if got, _ := tiff.String(metadata.TIFFMake); got != "Kandao" {
		t.Fatalf("make: got %q want %q", got, "Kandao")
	}
	if got, _ := tiff.String(metadata.TIFFModel); got != "QooCam EGO" {
		t.Fatalf("model: got %q want %q", got, "QooCam EGO")
	}
	exif := b.Sub(metadata.KeyExif)
	if got, _ := exif.String(metadata.ExifDateTimeOriginal); got != "2024:01:15 07:00:00" {
		t.Fatalf("original: got %q want %q", got, "2024:01:15 07:00:00")
	}
	if got, _ := exif.String(metadata.ExifDateTimeDigitized); got != "2024:01:15 07:00:01" {
		t.Fatalf("digitized: got %q want %q", got, "2024:01:15 07:00:01")
	}
	if slices.Contains(report.Fields, metadata.KeyTIFF+"."+metadata.TIFFDateTime) {
		t.Fatalf("absent DateTime should not be reported: %v", report.Fields)
	}
}

func TestRepairCorrectsExistingTIFFDateTime(t *testing.T) {
	r := metadata.NewRepairer(time.FixedZone("UTC+2", 2*3600))
	b := qooCamBag()
	tiff := b.EnsureSub(metadata.KeyTIFF)
	tiff.Set(metadata.TIFFMake, "Unknown")
	tiff.Set(metadata.TIFFDateTime, "2024:06:30 23:00:00")

	report := r.Repair(b)
	if got, _ := tiff.String(metadata.TIFFDateTime); got != "2024:07:01 01:00:00" {
		t.Fatalf("datetime: got %q want %q", got, "2024:07:01 01:00:00")
	}
	if got, _ := tiff.String(metadata.TIFFMake); got != "Kandao" {
		t.Fatalf("make: got %q want %q", got, "Kandao")
	}
	if !slices.Contains(report.Fields, metadata.KeyTIFF+"."+metadata.TIFFDateTime) {
		t.Fatalf("expected DateTime in report fields: %v", report.Fields)
	}
}

func TestRepairLeavesOtherBagsUnchanged(t *testing.T) {
	r := metadata.NewRepairer(time.UTC)
	tests := []struct {
		name string
		bag  func() *metadata.Bag
	}{
		{name: "empty", bag: metadata.NewBag},
		{name: "other comment", bag: func() *metadata.Bag {
			b := qooCamBag()
			b.Sub(metadata.KeyExif).Set(metadata.ExifUserComment, "Taken with something else")
			return b
		}},
		{name: "prefix not at start", bag: func() *metadata.Bag {
			b := qooCamBag()
			b.Sub(metadata.KeyExif).Set(metadata.ExifUserComment, "x QooCam+EGO")
			return b
		}},
		{name: "no comment", bag: func() *metadata.Bag {
			b := qooCamBag()
			b.Sub(metadata.KeyExif).Delete(metadata.ExifUserComment)
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.bag()
			before := b.Clone()
			report := r.Repair(b)
			if report.Repaired {
				t.Fatalf("unexpected repair: %+v", report)
			}
			if !b.Equal(before) {
				t.Fatal("bag was modified")
			}
		})
	}
}

func TestRepairCustomVendor(t *testing.T) {
	custom := metadata.Vendor{Name: "Rig", Prefix: "RIG-", Make: "Acme", Model: "Twin"}
	r := metadata.NewRepairer(time.UTC, custom)

	b := metadata.NewBag()
	b.EnsureSub(metadata.KeyExif).Set(metadata.ExifUserComment, "RIG-7")
	if report := r.Repair(b); report.Vendor != "Rig" {
		t.Fatalf("vendor: got %q want %q", report.Vendor, "Rig")
	}
	if got, _ := b.Sub(metadata.KeyTIFF).String(metadata.TIFFModel); got != "Twin" {
		t.Fatalf("model: got %q want %q", got, "Twin")
	}

	if _, ok := r.Match(qooCamBag()); ok {
		t.Fatal("default profile should not apply when vendors are configured")
	}
}
