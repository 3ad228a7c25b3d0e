package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"spatialphoto/internal/codec"
	"spatialphoto/internal/source"
)

var (
	ErrInput     = errors.New("input error")
	ErrDecode    = errors.New("decode error")
	ErrStructure = errors.New("structure error")
	ErrGeometry  = errors.New("geometry error")
	ErrEncode    = errors.New("encode error")
)

// Wrap builds an error message that names the file and operation while
// tagging it with marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, file, operation, message string, err error) error {
	detail := buildDetail(file, operation, message)
	if marker == nil {
		marker = ErrEncode
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the marker for err. Errors from the source and codec
// packages are mapped onto the conversion taxonomy; anything else returns nil.
func Classify(err error) error {
	for _, marker := range []error{ErrInput, ErrDecode, ErrStructure, ErrGeometry, ErrEncode} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, source.ErrRead), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ErrInput
	case errors.Is(err, source.ErrNoMarkers),
		errors.Is(err, source.ErrImageCount),
		errors.Is(err, source.ErrTooNarrow),
		errors.Is(err, source.ErrOddPairCount),
		errors.Is(err, source.ErrPathCount):
		return ErrStructure
	case errors.Is(err, source.ErrDecode),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, codec.ErrEmpty):
		return ErrDecode
	}
	return nil
}

// Category is a short lowercase label for err's marker, used in summaries.
func Category(err error) string {
	switch Classify(err) {
	case ErrInput:
		return "input"
	case ErrDecode:
		return "decode"
	case ErrStructure:
		return "structure"
	case ErrGeometry:
		return "geometry"
	case ErrEncode:
		return "encode"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "unknown"
}

// hint suggests a next step for the user based on err's category.
func hint(err error) string {
	switch Classify(err) {
	case ErrInput:
		return "check the path exists and is readable"
	case ErrDecode:
		return "only JPEG, PNG, GIF, BMP, TIFF, WebP and MPO inputs are supported"
	case ErrStructure:
		return "check the file holds exactly two views, or pass pairs with --pairs"
	case ErrGeometry:
		return "left and right images must have the same dimensions"
	case ErrEncode:
		return "check free space and permissions in the output directory"
	}
	return "check logs for details"
}

func buildDetail(file, operation, message string) string {
	parts := make([]string, 0, 3)
	if file = strings.TrimSpace(file); file != "" {
		parts = append(parts, file)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "conversion failure"
	}
	return strings.Join(parts, ": ")
}
