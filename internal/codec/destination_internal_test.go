package codec

import (
	"bytes"
	"strings"
	"testing"

	"spatialphoto/internal/heif"
)

func TestVerifyContainer(t *testing.T) {
	jpegItem := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	build := func(count int, stereo bool) []byte {
		t.Helper()
		var w heif.Writer
		for range count {
			if err := w.Add(heif.Image{Width: 2, Height: 2, JPEG: jpegItem}); err != nil {
				t.Fatal(err)
			}
		}
		var buf bytes.Buffer
		var err error
		if stereo {
			_, err = w.WriteStereo(&buf)
		} else {
			_, err = w.WriteTo(&buf)
		}
		if err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}
	pair := build(2, true)

	tests := []struct {
		name    string
		data    []byte
		count   int
		wantErr string
	}{
		{name: "stereo pair", data: pair, count: 2},
		{name: "single image", data: build(1, false), count: 1},
		{name: "truncated", data: pair[:len(pair)-1], count: 2, wantErr: "malformed"},
		{name: "image missing", data: build(1, false), count: 2, wantErr: "1 of 2 images"},
		{name: "no group", data: build(2, false), count: 2, wantErr: "stereo pair group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyContainer(tt.data, tt.count)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v want error containing %q", err, tt.wantErr)
			}
		})
	}
}
