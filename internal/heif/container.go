package heif

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// Image is one coded picture to store in the container.
type Image struct {
	Width  int
	Height int
	// JPEG holds the complete JPEG bitstream for the item.
	JPEG []byte
	// Exif holds a TIFF-structured Exif block, starting at the byte order
	// mark. It is stored as a separate item describing the image.
	Exif       []byte
	Intrinsics *Intrinsics
	Extrinsics *Extrinsics
	// Disparity is the stereo disparity adjustment in units of 1e-4 of the
	// image width. It is written as a 'dadj' property when set.
	Disparity *int32
}

// Writer collects images and serializes them as a HEIF file.
type Writer struct {
	images []Image
}

var (
	// ErrNoImages is returned when a container is written with nothing in it.
	ErrNoImages = errors.New("heif: no images")
	// ErrStereoCount is returned when a stereo container does not hold exactly
	// two images.
	ErrStereoCount = errors.New("heif: stereo group needs exactly two images")
)

// Add appends an image. The first image added becomes the primary item.
func (w *Writer) Add(img Image) error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("heif: invalid image size %dx%d", img.Width, img.Height)
	}
	if len(img.JPEG) == 0 {
		return errors.New("heif: empty image data")
	}
	w.images = append(w.images, img)
	return nil
}

// Len reports how many images have been added.
func (w *Writer) Len() int {
	return len(w.images)
}

type layout struct {
	imageIDs []uint16
	exifIDs  []uint16
	groupID  uint32
	// payloads in mdat order, keyed by item ID.
	order []uint16
	data  map[uint16][]byte
}

func (w *Writer) plan() layout {
	l := layout{data: make(map[uint16][]byte)}
	next := uint16(1)
	for _, img := range w.images {
		l.imageIDs = append(l.imageIDs, next)
		l.order = append(l.order, next)
		l.data[next] = img.JPEG
		next++
	}
	for _, img := range w.images {
		if len(img.Exif) == 0 {
			l.exifIDs = append(l.exifIDs, 0)
			continue
		}
		l.exifIDs = append(l.exifIDs, next)
		l.order = append(l.order, next)
		// Exif items start with the offset to the TIFF header.
		payload := make([]byte, 4, 4+len(img.Exif))
		l.data[next] = append(payload, img.Exif...)
		next++
	}
	l.groupID = uint32(next)
	return l
}

// WriteStereo writes the container with a 'ster' group over the two images,
// the first being the left view.
func (w *Writer) WriteStereo(out io.Writer) (int64, error) {
	if len(w.images) != 2 {
		return 0, fmt.Errorf("%w: have %d", ErrStereoCount, len(w.images))
	}
	return w.write(out, true)
}

// WriteTo writes the container without any entity group.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	return w.write(out, false)
}

func (w *Writer) write(out io.Writer, stereo bool) (int64, error) {
	if len(w.images) == 0 {
		return 0, ErrNoImages
	}
	l := w.plan()

	ftyp := ftypBox().bytes()
	// iloc uses fixed-width fields, so the meta size does not depend on the
	// offsets written into it.
	meta := w.metaBox(l, stereo, 0).bytes()
	mdatStart := uint32(len(ftyp) + len(meta) + 8)
	meta = w.metaBox(l, stereo, mdatStart).bytes()

	var mdatLen uint64
	for _, id := range l.order {
		mdatLen += uint64(len(l.data[id]))
	}
	if uint64(mdatStart)+mdatLen > math.MaxUint32 {
		return 0, errors.New("heif: container exceeds 4 GiB")
	}

	var total int64
	write := func(p []byte) error {
		n, err := out.Write(p)
		total += int64(n)
		return err
	}
	if err := write(ftyp); err != nil {
		return total, err
	}
	if err := write(meta); err != nil {
		return total, err
	}
	header := []byte{0, 0, 0, 0, 'm', 'd', 'a', 't'}
	putSize(header, uint32(8+mdatLen))
	if err := write(header); err != nil {
		return total, err
	}
	for _, id := range l.order {
		if err := write(l.data[id]); err != nil {
			return total, err
		}
	}
	return total, nil
}

func putSize(header []byte, size uint32) {
	header[0] = byte(size >> 24)
	header[1] = byte(size >> 16)
	header[2] = byte(size >> 8)
	header[3] = byte(size)
}

func ftypBox() *box {
	b := newBox("ftyp")
	b.fourCC("mif1")
	b.u32(0)
	for _, brand := range []string{"mif1", "jpeg", "heic"} {
		b.fourCC(brand)
	}
	return b
}

func (w *Writer) metaBox(l layout, stereo bool, mdatStart uint32) *box {
	meta := newFullBox("meta", 0, 0)

	hdlr := newFullBox("hdlr", 0, 0)
	hdlr.u32(0)
	hdlr.fourCC("pict")
	hdlr.u32(0)
	hdlr.u32(0)
	hdlr.u32(0)
	hdlr.cstring("")
	meta.child(hdlr)

	pitm := newFullBox("pitm", 0, 0)
	pitm.u16(l.imageIDs[0])
	meta.child(pitm)

	meta.child(iinfBox(l))
	if ref := irefBox(l); ref != nil {
		meta.child(ref)
	}
	meta.child(w.iprpBox(l))
	if stereo {
		grpl := newBox("grpl")
		ster := newFullBox("ster", 0, 0)
		ster.u32(l.groupID)
		ster.u32(uint32(len(l.imageIDs)))
		for _, id := range l.imageIDs {
			ster.u32(uint32(id))
		}
		grpl.child(ster)
		meta.child(grpl)
	}
	meta.child(ilocBox(l, mdatStart))
	return meta
}

func infeBox(id uint16, itemType string, hidden bool) *box {
	var flags uint32
	if hidden {
		flags = 1
	}
	b := newFullBox("infe", 2, flags)
	b.u16(id)
	b.u16(0)
	b.fourCC(itemType)
	b.cstring("")
	return b
}

func iinfBox(l layout) *box {
	b := newFullBox("iinf", 0, 0)
	b.u16(uint16(len(l.order)))
	for _, id := range l.imageIDs {
		b.child(infeBox(id, "jpeg", false))
	}
	for _, id := range l.exifIDs {
		if id != 0 {
			b.child(infeBox(id, "Exif", true))
		}
	}
	return b
}

func irefBox(l layout) *box {
	b := newFullBox("iref", 0, 0)
	found := false
	for i, id := range l.exifIDs {
		if id == 0 {
			continue
		}
		found = true
		ref := newBox("cdsc")
		ref.u16(id)
		ref.u16(1)
		ref.u16(l.imageIDs[i])
		b.child(ref)
	}
	if !found {
		return nil
	}
	return b
}

func (w *Writer) iprpBox(l layout) *box {
	ipco := newBox("ipco")
	assoc := make([][]uint8, len(w.images))
	index := uint8(0)
	// Associations are 1-based ipco indices; none are marked essential.
	add := func(i int, p *box) {
		ipco.child(p)
		index++
		assoc[i] = append(assoc[i], index)
	}
	for i, img := range w.images {
		ispe := newFullBox("ispe", 0, 0)
		ispe.u32(uint32(img.Width))
		ispe.u32(uint32(img.Height))
		add(i, ispe)
		if img.Intrinsics != nil {
			add(i, cminBox(*img.Intrinsics, img.Width, img.Height))
		}
		if img.Extrinsics != nil {
			add(i, cmexBox(*img.Extrinsics))
		}
		if img.Disparity != nil {
			add(i, disparityBox(*img.Disparity))
		}
	}

	ipma := newFullBox("ipma", 0, 0)
	ipma.u32(uint32(len(l.imageIDs)))
	for i, id := range l.imageIDs {
		ipma.u16(id)
		ipma.u8(uint8(len(assoc[i])))
		for _, a := range assoc[i] {
			ipma.u8(a)
		}
	}

	iprp := newBox("iprp")
	iprp.child(ipco)
	iprp.child(ipma)
	return iprp
}

// disparityBox holds the horizontal disparity adjustment shared by the views
// of a stereo group.
func disparityBox(value int32) *box {
	b := newFullBox("dadj", 0, 0)
	b.u32(uint32(value))
	return b
}

func ilocBox(l layout, mdatStart uint32) *box {
	b := newFullBox("iloc", 0, 0)
	// offset_size=4, length_size=4, base_offset_size=0.
	b.u8(0x44)
	b.u8(0x00)
	b.u16(uint16(len(l.order)))
	offset := mdatStart
	for _, id := range l.order {
		b.u16(id)
		b.u16(0)
		b.u16(1)
		b.u32(offset)
		b.u32(uint32(len(l.data[id])))
		offset += uint32(len(l.data[id]))
	}
	return b
}
