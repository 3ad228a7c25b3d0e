package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	jseg "github.com/garyhouston/jpegsegs"
	tiff66 "github.com/garyhouston/tiff66"

	"spatialphoto/internal/codec"
	"spatialphoto/internal/metadata"
)

// Fill colors used by the synthetic fixtures. They are far enough apart to
// survive JPEG compression.
var (
	Red  = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	Blue = color.RGBA{R: 20, G: 20, B: 220, A: 255}
)

// ImageOption customizes a synthetic JPEG.
type ImageOption func(*imageSpec)

type imageSpec struct {
	exif      *metadata.Bag
	exifBlock []byte
	mpf       bool
	left      color.Color
	right     color.Color
}

// WithExif embeds props as an APP1 Exif segment.
func WithExif(props *metadata.Bag) ImageOption {
	return func(s *imageSpec) {
		s.exif = props
	}
}

// WithExifBlock embeds a prebuilt TIFF-structured block as the APP1 Exif
// segment.
func WithExifBlock(block []byte) ImageOption {
	return func(s *imageSpec) {
		s.exifBlock = block
	}
}

// WithMPF adds an APP2 multi-picture index announcing two images.
func WithMPF() ImageOption {
	return func(s *imageSpec) {
		s.mpf = true
	}
}

// WithFill paints the whole image c.
func WithFill(c color.Color) ImageOption {
	return func(s *imageSpec) {
		s.left, s.right = c, c
	}
}

// WithHalves paints the left and right halves different colors.
func WithHalves(left, right color.Color) ImageOption {
	return func(s *imageSpec) {
		s.left, s.right = left, right
	}
}

// JPEG encodes a width×height image. Without options it is plain grey with
// no metadata segments.
func JPEG(t testing.TB, width, height int, opts ...ImageOption) []byte {
	t.Helper()

	spec := imageSpec{left: color.Gray{Y: 128}, right: color.Gray{Y: 128}}
	for _, opt := range opts {
		opt(&spec)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := spec.left
			if x >= width/2 {
				c = spec.right
			}
			img.Set(x, y, c)
		}
	}
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	var segments []jseg.Segment
	block := spec.exifBlock
	if spec.exif != nil {
		var err error
		block, err = codec.EncodeExif(spec.exif)
		if err != nil {
			t.Fatalf("encode exif: %v", err)
		}
		if block == nil {
			t.Fatalf("exif bag has no encodable fields")
		}
	}
	if block != nil {
		segments = append(segments, jseg.Segment{Marker: jseg.APP0 + 1, Data: append([]byte("Exif\x00\x00"), block...)})
	}
	if spec.mpf {
		segments = append(segments, jseg.Segment{Marker: jseg.APP0 + 2, Data: mpfIndex(2)})
	}
	if len(segments) == 0 {
		return encoded.Bytes()
	}

	var out bytes.Buffer
	if err := jseg.WriteSegments(&out, segments); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	// WriteSegments emits its own SOI.
	out.Write(encoded.Bytes()[2:])
	return out.Bytes()
}

// mpfIndex builds an MPF APP2 payload whose index IFD holds only the image
// count.
func mpfIndex(count uint32) []byte {
	return []byte{
		'M', 'P', 'F', 0,
		'M', 'M', 0, 42, 0, 0, 0, 8,
		0, 1,
		0xB0, 0x01, 0, 4, 0, 0, 0, 1, byte(count >> 24), byte(count >> 16), byte(count >> 8), byte(count),
		0, 0, 0, 0,
	}
}

// CameraExif returns a minimal bag naming make and model.
func CameraExif(cameraMake, model string) *metadata.Bag {
	b := metadata.NewBag()
	tiff := b.EnsureSub(metadata.KeyTIFF)
	tiff.Set(metadata.TIFFMake, cameraMake)
	tiff.Set(metadata.TIFFModel, model)
	return b
}

// QooCamExif returns a bag carrying the QooCam EGO user comment and UTC
// capture timestamps.
func QooCamExif(capturedUTC string) *metadata.Bag {
	b := metadata.NewBag()
	b.EnsureSub(metadata.KeyTIFF).Set(metadata.TIFFDateTime, capturedUTC)
	exif := b.EnsureSub(metadata.KeyExif)
	exif.Set(metadata.ExifDateTimeOriginal, capturedUTC)
	exif.Set(metadata.ExifDateTimeDigitized, capturedUTC)
	exif.Set(metadata.ExifUserComment, "QooCam+EGO")
	return b
}

// SecondSegmentMake is the camera make written into the second image of
// an MPO fixture. Conversions must never surface it.
const SecondSegmentMake = "SecondSegment"

// MPO concatenates two JPEGs the way a stereo camera writes them: the left
// view first with the MPF index, each view starting with an Exif segment.
// The second segment's Exif differs from exif in its make.
func MPO(t testing.TB, width, height int, exif *metadata.Bag) []byte {
	t.Helper()
	if exif == nil {
		exif = CameraExif("Fujifilm", "FinePix REAL 3D W3")
	}
	second := exif.Clone()
	second.EnsureSub(metadata.KeyTIFF).Set(metadata.TIFFMake, SecondSegmentMake)
	left := JPEG(t, width, height, WithExif(exif), WithMPF(), WithFill(Red))
	right := JPEG(t, width, height, WithExif(second), WithFill(Blue))
	return append(left, right...)
}

// Values carried by GPSExifBlock.
const (
	GPSLatitude  = 52.0 + 30.0/60 + 12.34/3600
	GPSLongitude = 13.0 + 24.0/60
	FNumberNum   = 28
	FNumberDen   = 10
)

// GPSExifBlock builds a little-endian Exif block with a GPS position and an
// FNumber rational, fields the property dictionaries never rewrite.
func GPSExifBlock(t testing.TB, cameraMake string) []byte {
	t.Helper()
	order := binary.LittleEndian
	ascii := func(tag tiff66.Tag, s string) tiff66.Field {
		data := append([]byte(s), 0)
		return tiff66.Field{Tag: tag, Type: tiff66.ASCII, Count: uint32(len(data)), Data: data}
	}
	rational := func(tag tiff66.Tag, pairs ...uint32) tiff66.Field {
		data := make([]byte, 4*len(pairs))
		for i, v := range pairs {
			order.PutUint32(data[4*i:], v)
		}
		return tiff66.Field{Tag: tag, Type: tiff66.RATIONAL, Count: uint32(len(pairs) / 2), Data: data}
	}
	pointer := func(tag tiff66.Tag) tiff66.Field {
		return tiff66.Field{Tag: tag, Type: tiff66.LONG, Count: 1, Data: make([]byte, 4)}
	}

	gps := &tiff66.IFDNode{Space: tiff66.GPSSpace}
	gps.Order = order
	gps.Fields = []tiff66.Field{
		ascii(0x0001, "N"),
		rational(0x0002, 52, 1, 30, 1, 1234, 100),
		ascii(0x0003, "E"),
		rational(0x0004, 13, 1, 24, 1, 0, 1),
	}
	exifIFD := &tiff66.IFDNode{Space: tiff66.ExifSpace}
	exifIFD.Order = order
	exifIFD.Fields = []tiff66.Field{rational(0x829D, FNumberNum, FNumberDen)}

	root := &tiff66.IFDNode{Space: tiff66.TIFFSpace}
	root.Order = order
	root.Fields = []tiff66.Field{ascii(0x010F, cameraMake), pointer(0x8769), pointer(0x8825)}
	root.SubIFDs = []tiff66.SubIFD{{Tag: 0x8769, Node: exifIFD}, {Tag: 0x8825, Node: gps}}
	root.Fix()

	buf := make([]byte, tiff66.HeaderSize+root.TreeSize())
	tiff66.PutHeader(buf, order, tiff66.HeaderSize)
	end, err := root.PutIFDTree(buf, tiff66.HeaderSize)
	if err != nil {
		t.Fatalf("build exif block: %v", err)
	}
	return buf[:end]
}

// Near reports whether c is within tol of want on every channel.
func Near(c color.Color, want color.RGBA, tol int) bool {
	r, g, b, _ := c.RGBA()
	diff := func(a uint32, w uint8) bool {
		d := int(a>>8) - int(w)
		return d <= tol && d >= -tol
	}
	return diff(r, want.R) && diff(g, want.G) && diff(b, want.B)
}
