package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"

	"spatialphoto/internal/fileutil"
	"spatialphoto/internal/heif"
	"spatialphoto/internal/metadata"
)

// ErrDestinationState is returned when a destination is used out of order.
var ErrDestinationState = errors.New("destination already finalized")

// Destination accumulates images for one output container. Nothing appears at
// the output path until Finalize succeeds.
type Destination struct {
	file     *fileutil.AtomicFile
	writer   heif.Writer
	quality  int
	expected int
	done     bool
}

// Create opens a destination at path that will hold count images. Exactly
// two images produce a stereo pair group.
func (c *Codec) Create(path string, count int) (*Destination, error) {
	if count < 1 {
		return nil, fmt.Errorf("create %s: image count %d", path, count)
	}
	file, err := fileutil.CreateAtomic(path)
	if err != nil {
		return nil, err
	}
	return &Destination{file: file, quality: c.quality(), expected: count}, nil
}

// Path returns the final output path.
func (d *Destination) Path() string {
	return d.file.Target()
}

// Add encodes r and attaches props. Stereo camera parameters found in props
// become container properties; the Exif block rendered by EncodeExif becomes
// the image's Exif item.
func (d *Destination) Add(r Raster, props *metadata.Bag) error {
	if d.done {
		return ErrDestinationState
	}
	if d.writer.Len() >= d.expected {
		return fmt.Errorf("destination expects %d images", d.expected)
	}
	if r.Image() == nil {
		return errors.New("add: empty raster")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, r.Image(), &jpeg.Options{Quality: d.quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	exifBlock, err := EncodeExif(props)
	if err != nil {
		return err
	}
	img := heif.Image{
		Width:  r.Width(),
		Height: r.Height(),
		JPEG:   buf.Bytes(),
		Exif:   exifBlock,
	}

	stereo, err := metadata.ParseStereo(props)
	switch {
	case err == nil:
		in := stereo.Intrinsics
		img.Intrinsics = &heif.Intrinsics{
			FocalLengthX:   in[0],
			Skew:           in[1],
			PrincipalPoint: [2]float64{in[2], in[5]},
			FocalLengthY:   in[4],
		}
		img.Extrinsics = &heif.Extrinsics{
			CoordinateSystemID: uint32(stereo.CoordinateSystemID),
			Position:           [3]float64{stereo.Position.X, stereo.Position.Y, stereo.Position.Z},
		}
		disparity := int32(stereo.DisparityFixedPoint)
		img.Disparity = &disparity
	case props.Sub(metadata.KeyGroups) != nil:
		return fmt.Errorf("stereo metadata: %w", err)
	}

	return d.writer.Add(img)
}

// Finalize writes the container and moves it into place. The serialized
// container is read back first; nothing is committed unless it parses with
// every image present.
func (d *Destination) Finalize() error {
	if d.done {
		return ErrDestinationState
	}
	if d.writer.Len() != d.expected {
		d.Abort()
		return fmt.Errorf("finalize: have %d of %d images", d.writer.Len(), d.expected)
	}
	var buf bytes.Buffer
	var err error
	if d.expected == 2 {
		_, err = d.writer.WriteStereo(&buf)
	} else {
		_, err = d.writer.WriteTo(&buf)
	}
	if err == nil {
		err = verifyContainer(buf.Bytes(), d.expected)
	}
	if err == nil {
		_, err = d.file.Write(buf.Bytes())
	}
	if err != nil {
		d.Abort()
		return fmt.Errorf("write container: %w", err)
	}
	d.done = true
	return d.file.Commit(0o644)
}

// verifyContainer checks that data parses and holds count coded images,
// grouped as a stereo pair when there are two.
func verifyContainer(data []byte, count int) error {
	f, err := heif.Parse(data)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	images := 0
	for _, item := range f.Items {
		if item.Type == "jpeg" && len(item.Data) > 0 {
			images++
		}
	}
	if images != count {
		return fmt.Errorf("verify: %d of %d images readable", images, count)
	}
	if count == 2 {
		if g, ok := f.Group("ster"); !ok || len(g.Entities) != 2 {
			return errors.New("verify: missing stereo pair group")
		}
	}
	return nil
}

// Abort discards the destination. It is safe to call after Finalize.
func (d *Destination) Abort() {
	d.done = true
	d.file.Abort()
}
