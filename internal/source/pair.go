package source

import (
	"context"
	"fmt"
	"path/filepath"
)

// PairLoader reads explicit left and right images. Each keeps its own
// properties.
type PairLoader struct {
	Decoder Decoder
}

// Split reads paths[0] as the left view and paths[1] as the right.
func (l PairLoader) Split(ctx context.Context, paths ...string) (*Pair, error) {
	if len(paths) != 2 {
		return nil, fmt.Errorf("%w: pair takes 2, got %d", ErrPathCount, len(paths))
	}
	var views [2]View
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		frame, err := decodeSingle(l.Decoder, data, name)
		if err != nil {
			return nil, err
		}
		views[i] = View{Raster: frame.Raster, Properties: properties(frame.Properties), Source: name}
	}
	return &Pair{Mode: ModePair, Left: views[0], Right: views[1]}, nil
}
