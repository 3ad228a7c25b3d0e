package source

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
)

// mpoMarker is SOI followed by an APP1 marker, the start of each embedded
// image in a multi-picture file.
var mpoMarker = []byte{0xFF, 0xD8, 0xFF, 0xE1}

// ScanMarkers returns the offsets of every non-overlapping image start
// marker in data, in ascending order.
func ScanMarkers(data []byte) []int {
	var offsets []int
	for pos := 0; pos+len(mpoMarker) <= len(data); {
		i := bytes.Index(data[pos:], mpoMarker)
		if i < 0 {
			break
		}
		offsets = append(offsets, pos+i)
		pos += i + len(mpoMarker)
	}
	return offsets
}

// Segments partitions data at offsets. Segment i spans offsets[i] up to the
// next offset, the last running to the end of data.
func Segments(data []byte, offsets []int) [][]byte {
	segments := make([][]byte, 0, len(offsets))
	for i, start := range offsets {
		end := len(data)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		segments = append(segments, data[start:end])
	}
	return segments
}

// MPOSplitter reads the two views of a multi-picture file.
type MPOSplitter struct {
	Decoder Decoder
}

// Split reads a single MPO file.
func (s MPOSplitter) Split(ctx context.Context, paths ...string) (*Pair, error) {
	if len(paths) != 1 {
		return nil, fmt.Errorf("%w: mpo takes 1, got %d", ErrPathCount, len(paths))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readFile(paths[0])
	if err != nil {
		return nil, err
	}
	return s.SplitBytes(data, filepath.Base(paths[0]))
}

// SplitBytes splits an in-memory MPO stream. Each embedded stream must
// decode to exactly one image and there must be exactly two. Both views carry
// a copy of the first image's properties.
func (s MPOSplitter) SplitBytes(data []byte, name string) (*Pair, error) {
	offsets := ScanMarkers(data)
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMarkers, name)
	}

	var views []View
	for i, segment := range Segments(data, offsets) {
		frame, err := decodeSingle(s.Decoder, segment, fmt.Sprintf("%s[%d]", name, i))
		if err != nil {
			return nil, err
		}
		views = append(views, View{Raster: frame.Raster, Properties: frame.Properties, Source: name})
	}
	if len(views) != 2 {
		return nil, fmt.Errorf("%w in %s: %d", ErrImageCount, name, len(views))
	}

	shared := views[0].Properties
	views[0].Properties = properties(shared)
	views[1].Properties = properties(shared)
	return &Pair{Mode: ModeMPO, Left: views[0], Right: views[1]}, nil
}
