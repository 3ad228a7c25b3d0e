package source

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
)

// SBSSplitter cuts a side-by-side composite into its left and right halves.
type SBSSplitter struct {
	Decoder Decoder
}

// Split reads a single side-by-side image. For odd widths the last column
// is dropped so both halves have the same size.
func (s SBSSplitter) Split(ctx context.Context, paths ...string) (*Pair, error) {
	if len(paths) != 1 {
		return nil, fmt.Errorf("%w: side-by-side takes 1, got %d", ErrPathCount, len(paths))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readFile(paths[0])
	if err != nil {
		return nil, err
	}
	name := filepath.Base(paths[0])
	frame, err := decodeSingle(s.Decoder, data, name)
	if err != nil {
		return nil, err
	}

	w, h := frame.Raster.Width(), frame.Raster.Height()
	half := w / 2
	if half < 1 {
		return nil, fmt.Errorf("%w: %s is %d pixels wide", ErrTooNarrow, name, w)
	}
	left, err := frame.Raster.Crop(image.Rect(0, 0, half, h))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	right, err := frame.Raster.Crop(image.Rect(half, 0, 2*half, h))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}

	return &Pair{
		Mode:  ModeSBS,
		Left:  View{Raster: left, Properties: properties(frame.Properties), Source: name},
		Right: View{Raster: right, Properties: properties(frame.Properties), Source: name},
	}, nil
}
