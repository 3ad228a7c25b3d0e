package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"spatialphoto/internal/heif"
	"spatialphoto/internal/metadata"
)

var (
	// ErrUnsupportedFormat is returned for data no registered decoder accepts.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmpty is returned for zero-length input.
	ErrEmpty = errors.New("empty image data")
)

// Frame is one decoded image with its properties.
type Frame struct {
	Raster     Raster
	Properties *metadata.Bag
}

// Codec decodes source images and creates output destinations.
type Codec struct {
	// JPEGQuality is used when encoding views into the container (1-100).
	JPEGQuality int
}

// DefaultJPEGQuality applies when Codec.JPEGQuality is unset.
const DefaultJPEGQuality = 95

// New returns a codec encoding at quality.
func New(quality int) *Codec {
	return &Codec{JPEGQuality: quality}
}

func (c *Codec) quality() int {
	if c == nil || c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return DefaultJPEGQuality
	}
	return c.JPEGQuality
}

// DecodeFile reads and decodes path.
func (c *Codec) DecodeFile(path string) ([]Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.Decode(data)
}

// Decode returns every image contained in data. Most formats yield exactly
// one frame; animated GIFs yield one per frame and HEIF files one per
// visible JPEG-coded item.
func (c *Codec) Decode(data []byte) ([]Frame, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if brand, ok := heifBrand(data); ok {
		return decodeHEIF(data, brand)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("decode %s: %w", formatName(data), err)
	}

	if format == "gif" {
		return decodeGIF(data)
	}

	props := readProperties(format, data)
	setPixelSize(props, img.Bounds())
	return []Frame{{Raster: NewRaster(img), Properties: props}}, nil
}

func decodeGIF(data []byte) ([]Frame, error) {
	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	frames := make([]Frame, 0, len(anim.Image))
	for _, p := range anim.Image {
		props := metadata.NewBag()
		setPixelSize(props, p.Bounds())
		frames = append(frames, Frame{Raster: NewRaster(p), Properties: props})
	}
	return frames, nil
}

// decodeHEIF decodes the visible JPEG-coded image items of a HEIF file,
// primary item first. HEVC and other codings are not supported.
func decodeHEIF(data []byte, brand string) ([]Frame, error) {
	f, err := heif.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: HEIF brand %q: %v", ErrUnsupportedFormat, brand, err)
	}
	var frames []Frame
	var unsupported string
	for _, item := range f.Items {
		if item.Hidden || item.Type == "Exif" || item.Type == "mime" {
			continue
		}
		if item.Type != "jpeg" {
			unsupported = item.Type
			continue
		}
		img, err := jpeg.Decode(bytes.NewReader(item.Data))
		if err != nil {
			return nil, fmt.Errorf("decode heif item %d: %w", item.ID, err)
		}
		props := metadata.NewBag()
		if block := exifFor(f, item.ID); block != nil {
			addExif(props, block)
			props.Set(metadata.KeyExifBlock, block)
		}
		setPixelSize(props, img.Bounds())
		frame := Frame{Raster: NewRaster(img), Properties: props}
		if item.ID == f.Primary {
			frames = append([]Frame{frame}, frames...)
		} else {
			frames = append(frames, frame)
		}
	}
	if len(frames) == 0 {
		if unsupported == "" {
			unsupported = "none"
		}
		return nil, fmt.Errorf("%w: HEIF brand %q has no JPEG-coded image (coding %q)", ErrUnsupportedFormat, brand, unsupported)
	}
	return frames, nil
}

// exifFor returns the TIFF structure of the Exif item describing id. Exif
// item payloads start with the offset to the TIFF header.
func exifFor(f *heif.File, id uint32) []byte {
	for _, item := range f.Items {
		if item.Type != "Exif" || len(item.Data) < 4 {
			continue
		}
		for _, target := range item.References["cdsc"] {
			if target != id {
				continue
			}
			start := 4 + uint64(binary.BigEndian.Uint32(item.Data))
			if start >= uint64(len(item.Data)) {
				return nil
			}
			return item.Data[start:]
		}
	}
	return nil
}

func setPixelSize(props *metadata.Bag, bounds image.Rectangle) {
	props.Set(metadata.KeyPixelWidth, int64(bounds.Dx()))
	props.Set(metadata.KeyPixelHeight, int64(bounds.Dy()))
}

// heifBrand reports whether data starts with an ISOBMFF ftyp box naming a
// HEIF or HEIC brand.
func heifBrand(data []byte) (string, bool) {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return "", false
	}
	brand := string(data[8:12])
	switch brand {
	case "heic", "heix", "heim", "heis", "hevc", "hevx", "mif1", "msf1", "avif":
		return brand, true
	}
	return "", false
}

func formatName(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format == "" {
		return "image"
	}
	return format
}
