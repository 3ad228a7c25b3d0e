package source_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"spatialphoto/internal/codec"
	"spatialphoto/internal/metadata"
	"spatialphoto/internal/source"
	"spatialphoto/internal/testsupport"
)

func TestScanMarkers(t *testing.T) {
	m := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	cat := func(parts ...[]byte) []byte { return bytes.Join(parts, nil) }
	tests := []struct {
		name string
		data []byte
		want []int
	}{
		{name: "empty", data: nil, want: nil},
		{name: "no marker", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2}, want: nil},
		{name: "single at start", data: cat(m, []byte{1, 2, 3}), want: []int{0}},
		{name: "two", data: cat(m, []byte{9, 9}, m, []byte{7}), want: []int{0, 6}},
		{name: "adjacent", data: cat(m, m), want: []int{0, 4}},
		{name: "marker at end", data: cat([]byte{1}, m), want: []int{1}},
		{name: "partial marker at end", data: cat(m, m[:3]), want: []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := source.ScanMarkers(tt.data); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentsPartitionData(t *testing.T) {
	data := []byte("aaaBBBBcc")
	segs := source.Segments(data, []int{0, 3, 7})
	want := []string{"aaa", "BBBB", "cc"}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments want %d", len(segs), len(want))
	}
	for i := range want {
		if string(segs[i]) != want[i] {
			t.Fatalf("segment %d: got %q want %q", i, segs[i], want[i])
		}
	}
	if got := source.Segments(data, []int{4}); len(got) != 1 || string(got[0]) != "BBBcc" {
		t.Fatalf("leading bytes before the first marker should be skipped, got %q", got)
	}
}

func TestMPOSplitterSplitsTwoViews(t *testing.T) {
	dir := t.TempDir()
	exif := testsupport.CameraExif("Fujifilm", "W3")
	path := testsupport.WriteImage(t, dir, "DSCF0001.MPO", testsupport.MPO(t, 48, 32, exif))

	s := source.MPOSplitter{Decoder: codec.New(0)}
	pair, err := s.Split(context.Background(), path)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if pair.Mode != source.ModeMPO {
		t.Fatalf("mode: got %q", pair.Mode)
	}
	if pair.Left.Raster.Width() != 48 || pair.Right.Raster.Height() != 32 {
		t.Fatalf("sizes: left %dx%d right %dx%d", pair.Left.Raster.Width(), pair.Left.Raster.Height(), pair.Right.Raster.Width(), pair.Right.Raster.Height())
	}
	if c := pair.Left.Raster.Image().At(10, 10); !testsupport.Near(c, testsupport.Red, 40) {
		t.Fatalf("left view should be the first image, got color %v", c)
	}
	if c := pair.Right.Raster.Image().At(10, 10); !testsupport.Near(c, testsupport.Blue, 40) {
		t.Fatalf("right view should be the second image, got color %v", c)
	}

	for name, v := range map[string]source.View{"left": pair.Left, "right": pair.Right} {
		if got, _ := v.Properties.Sub(metadata.KeyTIFF).String(metadata.TIFFMake); got != "Fujifilm" {
			t.Fatalf("%s view should carry the first image's properties, got make %q (second segment has %q)", name, got, testsupport.SecondSegmentMake)
		}
	}
	pair.Left.Properties.Sub(metadata.KeyTIFF).Set(metadata.TIFFMake, "changed")
	if v, _ := pair.Right.Properties.Sub(metadata.KeyTIFF).String(metadata.TIFFMake); v != "Fujifilm" {
		t.Fatal("left and right properties must not be shared")
	}
}

func TestMPOSplitterStructuralErrors(t *testing.T) {
	exif := testsupport.CameraExif("Acme", "One")
	single := testsupport.JPEG(t, 8, 8, testsupport.WithExif(exif))
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "no markers", data: testsupport.JPEG(t, 8, 8), want: source.ErrNoMarkers},
		{name: "one image", data: single, want: source.ErrImageCount},
		{name: "three images", data: bytes.Repeat(single, 3), want: source.ErrImageCount},
		{name: "garbage after marker", data: append(slices.Clone(single), 0xFF, 0xD8, 0xFF, 0xE1, 0, 0), want: source.ErrDecode},
	}
	s := source.MPOSplitter{Decoder: codec.New(0)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SplitBytes(tt.data, "x.mpo"); !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
		})
	}
}

type multiFrameDecoder struct{ frames int }

func (d multiFrameDecoder) Decode([]byte) ([]codec.Frame, error) {
	return make([]codec.Frame, d.frames), nil
}

func TestMPOSplitterRejectsMultiFrameSegments(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE1, 1, 0xFF, 0xD8, 0xFF, 0xE1, 2}
	s := source.MPOSplitter{Decoder: multiFrameDecoder{frames: 2}}
	if _, err := s.SplitBytes(data, "x.mpo"); !errors.Is(err, source.ErrImageCount) {
		t.Fatalf("expected ErrImageCount, got %v", err)
	}
}

func TestMPOSplitterMissingFile(t *testing.T) {
	s := source.MPOSplitter{Decoder: codec.New(0)}
	if _, err := s.Split(context.Background(), "/nonexistent/file.mpo"); !errors.Is(err, source.ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
	if _, err := s.Split(context.Background()); !errors.Is(err, source.ErrPathCount) {
		t.Fatalf("expected ErrPathCount, got %v", err)
	}
}
