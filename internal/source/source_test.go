package source_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"

	"spatialphoto/internal/codec"
	"spatialphoto/internal/heif"
	"spatialphoto/internal/metadata"
	"spatialphoto/internal/source"
	"spatialphoto/internal/testsupport"
)

func TestModeForPath(t *testing.T) {
	tests := []struct {
		path string
		want source.Mode
	}{
		{path: "a.mpo", want: source.ModeMPO},
		{path: "/x/B.MPO", want: source.ModeMPO},
		{path: "c.jpg", want: source.ModeSBS},
		{path: "c.JPEG", want: source.ModeSBS},
		{path: "d.png", want: source.ModeSBS},
		{path: "e.heic", want: source.ModeSBS},
		{path: "f.tiff", want: source.ModeUnknown},
		{path: "noext", want: source.ModeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := source.ModeForPath(tt.path); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestPairs(t *testing.T) {
	pairs, err := source.Pairs([]string{"l1", "r1", "l2", "r2"})
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	want := [][2]string{{"l1", "r1"}, {"l2", "r2"}}
	if len(pairs) != len(want) || pairs[0] != want[0] || pairs[1] != want[1] {
		t.Fatalf("got %v want %v", pairs, want)
	}

	if pairs, err := source.Pairs(nil); err != nil || len(pairs) != 0 {
		t.Fatalf("empty input: got %v, %v", pairs, err)
	}
	if _, err := source.Pairs([]string{"a", "b", "c"}); !errors.Is(err, source.ErrOddPairCount) {
		t.Fatalf("expected ErrOddPairCount, got %v", err)
	}
}

func TestSBSSplitterHalves(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		wantWidth int
	}{
		{name: "even width", width: 64, wantWidth: 32},
		{name: "odd width drops last column", width: 65, wantWidth: 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			data := testsupport.JPEG(t, tt.width, 24,
				testsupport.WithHalves(testsupport.Red, testsupport.Blue),
				testsupport.WithExif(testsupport.CameraExif("Acme", "SBS")))
			path := testsupport.WriteImage(t, dir, "sbs.jpg", data)

			pair, err := source.SBSSplitter{Decoder: codec.New(0)}.Split(context.Background(), path)
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if pair.Mode != source.ModeSBS {
				t.Fatalf("mode: got %q", pair.Mode)
			}
			for _, v := range []source.View{pair.Left, pair.Right} {
				if v.Raster.Width() != tt.wantWidth || v.Raster.Height() != 24 {
					t.Fatalf("view size: got %dx%d want %dx24", v.Raster.Width(), v.Raster.Height(), tt.wantWidth)
				}
				if v.Source != "sbs.jpg" {
					t.Fatalf("source: got %q", v.Source)
				}
			}
			if c := pair.Left.Raster.Image().At(8, 12); !testsupport.Near(c, testsupport.Red, 40) {
				t.Fatalf("left color: got %v", c)
			}
			if c := pair.Right.Raster.Image().At(tt.wantWidth-8, 12); !testsupport.Near(c, testsupport.Blue, 40) {
				t.Fatalf("right color: got %v", c)
			}
			if pair.Left.Properties == pair.Right.Properties {
				t.Fatal("views must own separate property bags")
			}
			if !pair.Left.Properties.Equal(pair.Right.Properties) {
				t.Fatal("views should start with identical properties")
			}
		})
	}
}

func TestSBSSplitterHalvesMatchDecodedRaster(t *testing.T) {
	for _, width := range []int{64, 65} {
		dir := t.TempDir()
		data := testsupport.JPEG(t, width, 20, testsupport.WithHalves(testsupport.Red, testsupport.Blue))
		path := testsupport.WriteImage(t, dir, "sbs.jpg", data)

		frames, err := codec.New(0).Decode(data)
		if err != nil {
			t.Fatal(err)
		}
		full := frames[0].Raster.Image()
		pair, err := source.SBSSplitter{Decoder: codec.New(0)}.Split(context.Background(), path)
		if err != nil {
			t.Fatalf("split: %v", err)
		}

		half := width / 2
		left, right := pair.Left.Raster.Image(), pair.Right.Raster.Image()
		for y := 0; y < 20; y++ {
			for x := 0; x < half; x++ {
				if got, want := rgba(left.At(x, y)), rgba(full.At(x, y)); got != want {
					t.Fatalf("width %d: left (%d,%d) got %v want %v", width, x, y, got, want)
				}
				if got, want := rgba(right.At(x, y)), rgba(full.At(half+x, y)); got != want {
					t.Fatalf("width %d: right (%d,%d) got %v want %v", width, x, y, got, want)
				}
			}
		}
	}
}

func TestSBSSplitterReadsJPEGCodedHEIF(t *testing.T) {
	jpegData := testsupport.JPEG(t, 30, 10, testsupport.WithHalves(testsupport.Red, testsupport.Blue))
	var w heif.Writer
	if err := w.Add(heif.Image{Width: 30, Height: 10, JPEG: jpegData}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	path := testsupport.WriteImage(t, t.TempDir(), "sbs.heic", buf.Bytes())

	pair, err := source.SBSSplitter{Decoder: codec.New(0)}.Split(context.Background(), path)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if pair.Left.Raster.Width() != 15 || pair.Right.Raster.Height() != 10 {
		t.Fatalf("view sizes: left %dx%d right %dx%d", pair.Left.Raster.Width(), pair.Left.Raster.Height(), pair.Right.Raster.Width(), pair.Right.Raster.Height())
	}
	if c := pair.Right.Raster.Image().At(10, 5); !testsupport.Near(c, testsupport.Blue, 40) {
		t.Fatalf("right color: got %v", c)
	}
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestSBSSplitterTooNarrow(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteImage(t, dir, "thin.jpg", testsupport.JPEG(t, 1, 10))
	if _, err := (source.SBSSplitter{Decoder: codec.New(0)}).Split(context.Background(), path); !errors.Is(err, source.ErrTooNarrow) {
		t.Fatalf("expected ErrTooNarrow, got %v", err)
	}
}

func TestPairLoaderKeepsIndependentProperties(t *testing.T) {
	dir := t.TempDir()
	left := testsupport.WriteImage(t, dir, "L.jpg", testsupport.JPEG(t, 20, 10, testsupport.WithExif(testsupport.CameraExif("Left", "Cam"))))
	right := testsupport.WriteImage(t, dir, "R.jpg", testsupport.JPEG(t, 20, 10, testsupport.WithExif(testsupport.CameraExif("Right", "Cam"))))

	pair, err := source.PairLoader{Decoder: codec.New(0)}.Split(context.Background(), left, right)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if pair.Mode != source.ModePair {
		t.Fatalf("mode: got %q", pair.Mode)
	}
	if v, _ := pair.Left.Properties.Sub(metadata.KeyTIFF).String(metadata.TIFFMake); v != "Left" {
		t.Fatalf("left make: got %q", v)
	}
	if v, _ := pair.Right.Properties.Sub(metadata.KeyTIFF).String(metadata.TIFFMake); v != "Right" {
		t.Fatalf("right make: got %q", v)
	}
	if pair.Left.Source != "L.jpg" || pair.Right.Source != "R.jpg" {
		t.Fatalf("sources: got %q %q", pair.Left.Source, pair.Right.Source)
	}
}

func TestPairLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	good := testsupport.WriteImage(t, dir, "good.jpg", testsupport.JPEG(t, 4, 4))
	bad := testsupport.WriteImage(t, dir, "bad.jpg", []byte("nope"))
	loader := source.PairLoader{Decoder: codec.New(0)}

	if _, err := loader.Split(context.Background(), good); !errors.Is(err, source.ErrPathCount) {
		t.Fatalf("expected ErrPathCount, got %v", err)
	}
	if _, err := loader.Split(context.Background(), good, bad); !errors.Is(err, source.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if _, err := loader.Split(context.Background(), good, dir+"/missing.jpg"); !errors.Is(err, source.ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.Split(ctx, good, good); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
