package codec

import (
	"bytes"
	"sort"
	"strings"
	"unicode"

	jseg "github.com/garyhouston/jpegsegs"
	tiff66 "github.com/garyhouston/tiff66"
	"github.com/rwcarlsen/goexif/exif"
	exiftiff "github.com/rwcarlsen/goexif/tiff"
	xunicode "golang.org/x/text/encoding/unicode"

	"spatialphoto/internal/metadata"
)

// maxArrayValues bounds how many values of a multi-valued tag are copied.
const maxArrayValues = 64

var exifHeader = []byte("Exif\x00\x00")

// readProperties builds the property bag for a decoded image. Missing or
// unreadable metadata yields a bag with no EXIF dictionaries.
func readProperties(format string, data []byte) *metadata.Bag {
	props := metadata.NewBag()
	switch format {
	case "jpeg":
		exifBlock, mpf := scanJPEG(data)
		if exifBlock != nil {
			addExif(props, exifBlock)
			props.Set(metadata.KeyExifBlock, exifBlock)
		}
		if mpf != nil {
			props.Set(metadata.KeyMPF, mpf)
		}
	case "tiff":
		// The whole file is the TIFF structure, strips included, so only
		// the dictionaries are kept.
		addExif(props, data)
	}
	return props
}

// scanJPEG walks the marker segments before the first scan and returns the
// TIFF-structured EXIF payload of the APP1 segment and a summary of the
// APP2 multi-picture index, when present.
func scanJPEG(data []byte) ([]byte, *metadata.Bag) {
	segments, err := jseg.ReadSegments(bytes.NewReader(data))
	if err != nil && len(segments) == 0 {
		return nil, nil
	}
	var exifBlock []byte
	var mpf *metadata.Bag
	for _, seg := range segments {
		switch seg.Marker {
		case jseg.APP0 + 1:
			if exifBlock == nil && bytes.HasPrefix(seg.Data, exifHeader) {
				exifBlock = seg.Data[len(exifHeader):]
			}
		case jseg.APP0 + 2:
			if isMPF, next := jseg.GetMPFHeader(seg.Data); isMPF && mpf == nil {
				mpf = readMPF(seg.Data[next:])
			}
		}
	}
	return exifBlock, mpf
}

func readMPF(buf []byte) *metadata.Bag {
	bag := metadata.NewBag()
	bag.Set(metadata.MPFPresent, true)
	tree, err := jseg.GetMPFTree(buf)
	if err != nil || tree.Space != tiff66.MPFIndexSpace {
		return bag
	}
	for _, f := range tree.Fields {
		if f.Tag == jseg.MPFNumberOfImages {
			bag.Set(metadata.MPFNumberOfImages, int64(f.Long(0, tree.Order)))
		}
	}
	return bag
}

type exifField struct {
	dict  string
	id    uint16
	name  string
	value any
}

type exifCollector struct {
	fields []exifField
}

var skippedFields = map[exif.FieldName]bool{
	exif.ExifIFDPointer:                   true,
	exif.GPSInfoIFDPointer:                true,
	exif.InteroperabilityIFDPointer:       true,
	exif.InteroperabilityIndex:            true,
	exif.ThumbJPEGInterchangeFormat:       true,
	exif.ThumbJPEGInterchangeFormatLength: true,
	exif.MakerNote:                        true,
}

func (c *exifCollector) Walk(name exif.FieldName, tag *exiftiff.Tag) error {
	if skippedFields[name] || tag == nil {
		return nil
	}
	value, ok := tagValue(name, tag)
	if !ok {
		return nil
	}
	c.fields = append(c.fields, exifField{
		dict:  dictionaryFor(string(name), tag.Id),
		id:    tag.Id,
		name:  string(name),
		value: value,
	})
	return nil
}

// dictionaryFor sorts a field into {GPS}, {TIFF} (IFD0 baseline tags, which
// all sit at or below Copyright) or {Exif}.
func dictionaryFor(name string, id uint16) string {
	switch {
	case strings.HasPrefix(name, "GPS"):
		return metadata.KeyGPS
	case id <= 0x8298:
		return metadata.KeyTIFF
	default:
		return metadata.KeyExif
	}
}

func addExif(props *metadata.Bag, block []byte) {
	x, err := exif.Decode(bytes.NewReader(block))
	if err != nil && x == nil {
		return
	}
	var c exifCollector
	if err := x.Walk(&c); err != nil {
		return
	}
	sort.SliceStable(c.fields, func(i, j int) bool { return c.fields[i].id < c.fields[j].id })
	for _, dict := range []string{metadata.KeyTIFF, metadata.KeyExif, metadata.KeyGPS} {
		for _, f := range c.fields {
			if f.dict == dict {
				props.EnsureSub(dict).Set(f.name, f.value)
			}
		}
	}
}

func tagValue(name exif.FieldName, tag *exiftiff.Tag) (any, bool) {
	count := int(tag.Count)
	switch tag.Format() {
	case exiftiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil, false
		}
		return strings.TrimRight(s, "\x00 "), true
	case exiftiff.IntVal:
		return collect(count, func(i int) (any, error) { return tag.Int64(i) })
	case exiftiff.RatVal:
		return collect(count, func(i int) (any, error) {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil, err
			}
			if den == 0 {
				return float64(0), nil
			}
			return float64(num) / float64(den), nil
		})
	case exiftiff.FloatVal:
		return collect(count, func(i int) (any, error) { return tag.Float(i) })
	case exiftiff.UndefVal:
		if name == exif.UserComment {
			return decodeUserComment(tag.Val), true
		}
		if printable(tag.Val) {
			return string(tag.Val), true
		}
	}
	return nil, false
}

func collect(count int, at func(int) (any, error)) (any, bool) {
	if count <= 0 {
		return nil, false
	}
	if count == 1 {
		v, err := at(0)
		return v, err == nil
	}
	n := min(count, maxArrayValues)
	out := make([]any, 0, n)
	for i := range n {
		v, err := at(i)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// decodeUserComment strips the 8-byte character code that prefixes an EXIF
// user comment. UCS-2 comments without a byte order mark are read big-endian.
func decodeUserComment(raw []byte) string {
	if len(raw) < 8 {
		return strings.TrimRight(string(raw), "\x00 ")
	}
	code, body := string(raw[:8]), raw[8:]
	switch {
	case strings.HasPrefix(code, "UNICODE"):
		decoded, err := xunicode.UTF16(xunicode.BigEndian, xunicode.UseBOM).NewDecoder().Bytes(body)
		if err == nil {
			body = decoded
		}
	case strings.HasPrefix(code, "ASCII"), code == "\x00\x00\x00\x00\x00\x00\x00\x00", strings.HasPrefix(code, "JIS"):
	default:
		body = raw
	}
	return strings.TrimRight(string(body), "\x00 ")
}

func printable(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	for _, b := range bytes.TrimRight(p, "\x00") {
		if b >= 0x80 || !unicode.IsPrint(rune(b)) {
			return false
		}
	}
	return true
}
