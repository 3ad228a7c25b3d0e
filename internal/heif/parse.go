package heif

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

// File is the parsed structure of a container produced by Writer.
type File struct {
	MajorBrand string
	Compatible []string
	Primary    uint32
	Items      []Item
	Groups     []Group
}

// Item is one entry of the item information box with its resolved data and
// associated properties.
type Item struct {
	ID         uint32
	Type       string
	Hidden     bool
	Data       []byte
	Width      uint32
	Height     uint32
	Properties []string
	// References maps a reference type to the items this item points at.
	References map[string][]uint32
	Intrinsics *Intrinsics
	Extrinsics *Extrinsics
	Disparity  *int32
}

// Group is an entity group such as 'ster'.
type Group struct {
	Type     string
	ID       uint32
	Entities []uint32
}

// ErrMalformed is returned for truncated or inconsistent containers.
var ErrMalformed = errors.New("heif: malformed container")

// Item returns the item with the given ID.
func (f *File) Item(id uint32) (*Item, bool) {
	for i := range f.Items {
		if f.Items[i].ID == id {
			return &f.Items[i], true
		}
	}
	return nil, false
}

// Group returns the first group of the given type.
func (f *File) Group(typ string) (*Group, bool) {
	for i := range f.Groups {
		if f.Groups[i].Type == typ {
			return &f.Groups[i], true
		}
	}
	return nil, false
}

type rawBox struct {
	typ     string
	payload []byte
}

func readBoxes(data []byte) ([]rawBox, error) {
	var boxes []rawBox
	for len(data) > 0 {
		if len(data) < 8 {
			return nil, fmt.Errorf("%w: short box header", ErrMalformed)
		}
		size := binary.BigEndian.Uint32(data)
		if size < 8 || int(size) > len(data) {
			return nil, fmt.Errorf("%w: box %q size %d", ErrMalformed, data[4:8], size)
		}
		boxes = append(boxes, rawBox{typ: string(data[4:8]), payload: data[8:size]})
		data = data[size:]
	}
	return boxes, nil
}

// reader walks a payload with bounds checking; the first failure sticks.
type reader struct {
	p   []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.p) {
		r.err = fmt.Errorf("%w: truncated payload", ErrMalformed)
		return nil
	}
	out := r.p[:n]
	r.p = r.p[n:]
	return out
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) sized(n int) uint64 {
	switch n {
	case 0:
		return 0
	case 4:
		return uint64(r.u32())
	case 8:
		b := r.take(8)
		if b == nil {
			return 0
		}
		return binary.BigEndian.Uint64(b)
	default:
		r.err = fmt.Errorf("%w: unsupported field size %d", ErrMalformed, n)
		return 0
	}
}

func (r *reader) fullHeader() (uint8, uint32) {
	v := r.u32()
	return uint8(v >> 24), v & 0xFFFFFF
}

func (r *reader) cstring() string {
	if r.err != nil {
		return ""
	}
	i := slices.Index(r.p, 0)
	if i < 0 {
		r.err = fmt.Errorf("%w: unterminated string", ErrMalformed)
		return ""
	}
	s := string(r.p[:i])
	r.p = r.p[i+1:]
	return s
}

// Parse reads a container back into its items and groups.
func Parse(data []byte) (*File, error) {
	top, err := readBoxes(data)
	if err != nil {
		return nil, err
	}
	f := &File{}
	var meta []byte
	for _, b := range top {
		switch b.typ {
		case "ftyp":
			r := &reader{p: b.payload}
			f.MajorBrand = string(r.take(4))
			r.u32()
			for len(r.p) >= 4 {
				f.Compatible = append(f.Compatible, string(r.take(4)))
			}
			if r.err != nil {
				return nil, r.err
			}
		case "meta":
			meta = b.payload
		}
	}
	if f.MajorBrand == "" {
		return nil, fmt.Errorf("%w: missing ftyp", ErrMalformed)
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: missing meta", ErrMalformed)
	}
	if len(meta) < 4 {
		return nil, fmt.Errorf("%w: short meta", ErrMalformed)
	}
	children, err := readBoxes(meta[4:])
	if err != nil {
		return nil, err
	}
	for _, b := range children {
		if err := f.parseMetaChild(b, data); err != nil {
			return nil, fmt.Errorf("%s: %w", b.typ, err)
		}
	}
	return f, nil
}

func (f *File) parseMetaChild(b rawBox, file []byte) error {
	r := &reader{p: b.payload}
	switch b.typ {
	case "pitm":
		r.fullHeader()
		f.Primary = uint32(r.u16())
	case "iinf":
		version, _ := r.fullHeader()
		if version == 0 {
			r.u16()
		} else {
			r.u32()
		}
		if r.err != nil {
			return r.err
		}
		entries, err := readBoxes(r.p)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.typ != "infe" {
				continue
			}
			er := &reader{p: e.payload}
			v, flags := er.fullHeader()
			if v < 2 {
				return fmt.Errorf("%w: infe version %d", ErrMalformed, v)
			}
			var id uint32
			if v == 2 {
				id = uint32(er.u16())
			} else {
				id = er.u32()
			}
			er.u16()
			typ := string(er.take(4))
			er.cstring()
			if er.err != nil {
				return er.err
			}
			f.Items = append(f.Items, Item{ID: id, Type: typ, Hidden: flags&1 == 1, References: map[string][]uint32{}})
		}
	case "iref":
		r.fullHeader()
		refs, err := readBoxes(r.p)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			rr := &reader{p: ref.payload}
			from := uint32(rr.u16())
			count := int(rr.u16())
			to := make([]uint32, 0, count)
			for range count {
				to = append(to, uint32(rr.u16()))
			}
			if rr.err != nil {
				return rr.err
			}
			if item, ok := f.Item(from); ok {
				item.References[ref.typ] = append(item.References[ref.typ], to...)
			}
		}
	case "iprp":
		return f.parseProperties(b.payload)
	case "grpl":
		groups, err := readBoxes(b.payload)
		if err != nil {
			return err
		}
		for _, g := range groups {
			gr := &reader{p: g.payload}
			gr.fullHeader()
			group := Group{Type: g.typ, ID: gr.u32()}
			n := int(gr.u32())
			for range n {
				group.Entities = append(group.Entities, gr.u32())
			}
			if gr.err != nil {
				return gr.err
			}
			f.Groups = append(f.Groups, group)
		}
	case "iloc":
		return f.parseLocations(r, file)
	}
	return r.err
}

type property struct {
	typ        string
	width      uint32
	height     uint32
	intrinsics *Intrinsics
	extrinsics *Extrinsics
	disparity  int32
}

func (f *File) parseProperties(payload []byte) error {
	boxes, err := readBoxes(payload)
	if err != nil {
		return err
	}
	var props []property
	for _, b := range boxes {
		switch b.typ {
		case "ipco":
			entries, err := readBoxes(b.payload)
			if err != nil {
				return err
			}
			for _, e := range entries {
				p, err := parseProperty(e)
				if err != nil {
					return err
				}
				props = append(props, p)
			}
		case "ipma":
			r := &reader{p: b.payload}
			version, flags := r.fullHeader()
			count := int(r.u32())
			for range count {
				var id uint32
				if version < 1 {
					id = uint32(r.u16())
				} else {
					id = r.u32()
				}
				n := int(r.u8())
				item, _ := f.Item(id)
				for range n {
					var index int
					if flags&1 == 1 {
						index = int(r.u16() & 0x7FFF)
					} else {
						index = int(r.u8() & 0x7F)
					}
					if r.err != nil {
						return r.err
					}
					if index == 0 || item == nil {
						continue
					}
					if index > len(props) {
						return fmt.Errorf("%w: property index %d out of range", ErrMalformed, index)
					}
					applyProperty(item, props[index-1])
				}
			}
			if r.err != nil {
				return r.err
			}
		}
	}
	return nil
}

func parseProperty(b rawBox) (property, error) {
	p := property{typ: b.typ}
	r := &reader{p: b.payload}
	switch b.typ {
	case "ispe":
		r.fullHeader()
		p.width = r.u32()
		p.height = r.u32()
	case "cmin":
		_, flags := r.fullHeader()
		den := float64(uint32(1) << ((flags >> 8) & 0x1F))
		skewDen := float64(uint32(1) << (flags & 0x1F))
		in := &Intrinsics{}
		// Relative values are resolved against ispe in applyProperty.
		in.FocalLengthX = float64(int32(r.u32())) / den
		in.PrincipalPoint[0] = float64(int32(r.u32())) / den
		in.PrincipalPoint[1] = float64(int32(r.u32())) / den
		if flags&cminFullMatrix != 0 {
			in.FocalLengthY = float64(int32(r.u32())) / den
			in.Skew = float64(int32(r.u32())) / skewDen
		} else {
			in.FocalLengthY = in.FocalLengthX
		}
		p.intrinsics = in
	case "cmex":
		_, flags := r.fullHeader()
		ex := &Extrinsics{}
		for i, bit := range []uint32{cmexPosX, cmexPosY, cmexPosZ} {
			if flags&bit != 0 {
				ex.Position[i] = float64(int32(r.u32())) / micrometersPerMeter
			}
		}
		if flags&0x08 != 0 {
			return p, fmt.Errorf("%w: cmex orientation not supported", ErrMalformed)
		}
		if flags&cmexIDPresent != 0 {
			ex.CoordinateSystemID = r.u32()
		}
		p.extrinsics = ex
	case "dadj":
		r.fullHeader()
		p.disparity = int32(r.u32())
	}
	return p, r.err
}

func applyProperty(item *Item, p property) {
	item.Properties = append(item.Properties, p.typ)
	switch p.typ {
	case "ispe":
		item.Width, item.Height = p.width, p.height
		if item.Intrinsics != nil {
			scaleIntrinsics(item.Intrinsics, item.Width, item.Height)
		}
	case "cmin":
		in := *p.intrinsics
		item.Intrinsics = &in
		if item.Width != 0 {
			scaleIntrinsics(item.Intrinsics, item.Width, item.Height)
		}
	case "cmex":
		ex := *p.extrinsics
		item.Extrinsics = &ex
	case "dadj":
		d := p.disparity
		item.Disparity = &d
	}
}

func scaleIntrinsics(in *Intrinsics, width, height uint32) {
	w, h := float64(width), float64(height)
	in.FocalLengthX *= w
	in.PrincipalPoint[0] *= w
	in.PrincipalPoint[1] *= h
	in.FocalLengthY *= h
}

func (f *File) parseLocations(r *reader, file []byte) error {
	version, _ := r.fullHeader()
	sizes := r.u8()
	offsetSize, lengthSize := int(sizes>>4), int(sizes&0x0F)
	baseSizes := r.u8()
	baseOffsetSize := int(baseSizes >> 4)
	indexSize := 0
	if version == 1 || version == 2 {
		indexSize = int(baseSizes & 0x0F)
	}
	var count int
	if version < 2 {
		count = int(r.u16())
	} else {
		count = int(r.u32())
	}
	for range count {
		var id uint32
		if version < 2 {
			id = uint32(r.u16())
		} else {
			id = r.u32()
		}
		if version == 1 || version == 2 {
			if method := r.u16() & 0x0F; method != 0 && r.err == nil {
				return fmt.Errorf("%w: construction method %d", ErrMalformed, method)
			}
		}
		r.u16()
		base := r.sized(baseOffsetSize)
		extents := int(r.u16())
		var data []byte
		for range extents {
			r.sized(indexSize)
			offset := base + r.sized(offsetSize)
			length := r.sized(lengthSize)
			if r.err != nil {
				return r.err
			}
			if offset+length > uint64(len(file)) {
				return fmt.Errorf("%w: item %d extent beyond end of file", ErrMalformed, id)
			}
			data = append(data, file[offset:offset+length]...)
		}
		if item, ok := f.Item(id); ok {
			item.Data = data
		}
	}
	return r.err
}
