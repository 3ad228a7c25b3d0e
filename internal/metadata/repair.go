package metadata

import (
	"strings"
	"time"
)

// Vendor identifies a camera whose files need metadata repair. Files are
// matched on the {Exif}.UserComment prefix.
type Vendor struct {
	Name   string
	Prefix string
	Make   string
	Model  string
}

// QooCamEGO is the built-in profile for the Kandao QooCam EGO, which writes
// UTC timestamps and leaves Make/Model empty.
var QooCamEGO = Vendor{
	Name:   "QooCam EGO",
	Prefix: "QooCam+EGO",
	Make:   "Kandao",
	Model:  "QooCam EGO",
}

// RepairReport describes what a repair pass changed.
type RepairReport struct {
	Repaired bool
	Vendor   string
	Fields   []string
}

// Repairer applies vendor fixes to property bags.
type Repairer struct {
	vendors  []Vendor
	location *time.Location
}

// NewRepairer builds a repairer for the given vendors, correcting timestamps
// into loc. With no vendors the QooCam EGO profile is used.
func NewRepairer(loc *time.Location, vendors ...Vendor) *Repairer {
	if len(vendors) == 0 {
		vendors = []Vendor{QooCamEGO}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Repairer{vendors: vendors, location: loc}
}

// Match returns the first vendor whose prefix starts the bag's user comment.
func (r *Repairer) Match(b *Bag) (Vendor, bool) {
	comment, ok := b.Sub(KeyExif).String(ExifUserComment)
	if !ok {
		return Vendor{}, false
	}
	for _, v := range r.vendors {
		if v.Prefix != "" && strings.HasPrefix(comment, v.Prefix) {
			return v, true
		}
	}
	return Vendor{}, false
}

// Repair mutates b in place. Callers pass a bag they own; bags that match no
// vendor are left untouched.
func (r *Repairer) Repair(b *Bag) RepairReport {
	vendor, ok := r.Match(b)
	if !ok {
		return RepairReport{}
	}
	report := RepairReport{Repaired: true, Vendor: vendor.Name}

	tiff := b.EnsureSub(KeyTIFF)
	tiff.Set(TIFFMake, vendor.Make)
	tiff.Set(TIFFModel, vendor.Model)
	report.Fields = append(report.Fields, KeyTIFF+"."+TIFFMake, KeyTIFF+"."+TIFFModel)

	if r.correct(tiff, TIFFDateTime) {
		report.Fields = append(report.Fields, KeyTIFF+"."+TIFFDateTime)
	}
	exif := b.Sub(KeyExif)
	for _, key := range []string{ExifDateTimeOriginal, ExifDateTimeDigitized} {
		if r.correct(exif, key) {
			report.Fields = append(report.Fields, KeyExif+"."+key)
		}
	}
	return report
}

func (r *Repairer) correct(b *Bag, key string) bool {
	value, ok := b.String(key)
	if !ok {
		return false
	}
	b.Set(key, CorrectTimestamp(value, r.location))
	return true
}
