package codec

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Raster is a decoded bitmap. It is never modified after decoding.
type Raster struct {
	img image.Image
}

// NewRaster wraps img.
func NewRaster(img image.Image) Raster {
	return Raster{img: img}
}

// Image returns the underlying image.
func (r Raster) Image() image.Image {
	return r.img
}

// Width returns the width in pixels.
func (r Raster) Width() int {
	if r.img == nil {
		return 0
	}
	return r.img.Bounds().Dx()
}

// Height returns the height in pixels.
func (r Raster) Height() int {
	if r.img == nil {
		return 0
	}
	return r.img.Bounds().Dy()
}

// Crop copies the region rect, given relative to the raster's top-left
// corner, into a new raster.
func (r Raster) Crop(rect image.Rectangle) (Raster, error) {
	if r.img == nil {
		return Raster{}, fmt.Errorf("crop: empty raster")
	}
	bounds := image.Rect(0, 0, r.Width(), r.Height())
	if rect.Empty() || !rect.In(bounds) {
		return Raster{}, fmt.Errorf("crop: region %v outside %v", rect, bounds)
	}
	src := rect.Add(r.img.Bounds().Min)
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Copy(dst, image.Point{}, r.img, src, xdraw.Src, nil)
	return Raster{img: dst}, nil
}
