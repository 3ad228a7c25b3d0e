package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spatialphoto/internal/codec"
	"spatialphoto/internal/metadata"
)

// Mode selects how a source is split into views.
type Mode string

const (
	ModeUnknown Mode = ""
	ModeMPO     Mode = "mpo"
	ModeSBS     Mode = "sbs"
	ModePair    Mode = "pair"
)

var (
	// ErrRead marks failures reading a source file.
	ErrRead = errors.New("read source")
	// ErrDecode marks data the codec could not decode.
	ErrDecode = errors.New("decode source")
	// ErrNoMarkers is returned when an MPO stream has no image start markers.
	ErrNoMarkers = errors.New("could not find images")
	// ErrImageCount is returned when a source holds the wrong number of images.
	ErrImageCount = errors.New("unexpected number of images")
	// ErrTooNarrow is returned for side-by-side images narrower than two pixels.
	ErrTooNarrow = errors.New("image too narrow to split")
	// ErrOddPairCount is returned when pair mode is given an odd number of files.
	ErrOddPairCount = errors.New("files are not pairs of images")
	// ErrPathCount is returned when a splitter receives the wrong number of paths.
	ErrPathCount = errors.New("wrong number of source paths")
)

// Decoder turns encoded bytes into frames. *codec.Codec implements it.
type Decoder interface {
	Decode(data []byte) ([]codec.Frame, error)
}

// View is one eye's image.
type View struct {
	Raster     codec.Raster
	Properties *metadata.Bag
	Source     string
}

// Pair is the normalized result of splitting a source.
type Pair struct {
	Mode  Mode
	Left  View
	Right View
}

// Splitter produces a Pair from one or more source files.
type Splitter interface {
	Split(ctx context.Context, paths ...string) (*Pair, error)
}

// ModeForPath picks the splitter for a single input file by extension.
func ModeForPath(path string) Mode {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mpo":
		return ModeMPO
	case ".jpg", ".jpeg", ".png", ".heic":
		return ModeSBS
	default:
		return ModeUnknown
	}
}

// Pairs groups files into consecutive (left, right) tuples. An odd count is
// rejected before any pair is produced.
func Pairs(files []string) ([][2]string, error) {
	if len(files)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d files", ErrOddPairCount, len(files))
	}
	pairs := make([][2]string, 0, len(files)/2)
	for i := 0; i < len(files); i += 2 {
		pairs = append(pairs, [2]string{files[i], files[i+1]})
	}
	return pairs, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return data, nil
}

// decodeSingle decodes data and requires exactly one frame.
func decodeSingle(dec Decoder, data []byte, name string) (codec.Frame, error) {
	frames, err := dec.Decode(data)
	if err != nil {
		return codec.Frame{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	if len(frames) != 1 {
		return codec.Frame{}, fmt.Errorf("%w in %s: %d", ErrImageCount, name, len(frames))
	}
	return frames[0], nil
}

func properties(b *metadata.Bag) *metadata.Bag {
	if b == nil {
		return metadata.NewBag()
	}
	return b.Clone()
}
