package convert_test

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"spatialphoto/internal/codec"
	"spatialphoto/internal/convert"
	"spatialphoto/internal/source"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := convert.Wrap(convert.ErrEncode, "IMG_1.mpo", "write container", "failed", base)
	if !errors.Is(err, convert.ErrEncode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	if got, want := err.Error(), "encode error: IMG_1.mpo: write container: failed: boom"; got != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", got, want)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := convert.Wrap(convert.ErrGeometry, "", "", "", nil)
	if !errors.Is(err, convert.ErrGeometry) {
		t.Fatalf("expected geometry marker, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), "conversion failure") {
		t.Fatalf("expected default detail, got %q", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"marker passes through", convert.Wrap(convert.ErrGeometry, "a", "b", "", nil), convert.ErrGeometry},
		{"read", fmt.Errorf("%w: %w", source.ErrRead, fs.ErrNotExist), convert.ErrInput},
		{"no markers", fmt.Errorf("%w in x.mpo", source.ErrNoMarkers), convert.ErrStructure},
		{"image count", source.ErrImageCount, convert.ErrStructure},
		{"odd pairs", source.ErrOddPairCount, convert.ErrStructure},
		{"too narrow", source.ErrTooNarrow, convert.ErrStructure},
		{"decode", fmt.Errorf("%w: x: %w", source.ErrDecode, codec.ErrUnsupportedFormat), convert.ErrDecode},
		{"unsupported", codec.ErrUnsupportedFormat, convert.ErrDecode},
		{"unknown", errors.New("other"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convert.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCategory(t *testing.T) {
	if got := convert.Category(convert.Wrap(convert.ErrDecode, "", "", "", nil)); got != "decode" {
		t.Fatalf("Category = %q, want decode", got)
	}
	if got := convert.Category(errors.New("other")); got != "unknown" {
		t.Fatalf("Category = %q, want unknown", got)
	}
}
