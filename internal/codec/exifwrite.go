package codec

import (
	"encoding/binary"
	"fmt"
	"slices"

	tiff66 "github.com/garyhouston/tiff66"

	"spatialphoto/internal/metadata"
)

const (
	tagExifIFD   tiff66.Tag = 0x8769
	tagMakerNote tiff66.Tag = 0x927C
)

type exifTag struct {
	id  tiff66.Tag
	key string
	typ tiff66.Type
}

// Text fields that may differ from the source block after metadata repair.
// They are written over whatever the source held.
var (
	ifd0Tags = []exifTag{
		{0x010E, "ImageDescription", tiff66.ASCII},
		{0x010F, metadata.TIFFMake, tiff66.ASCII},
		{0x0110, metadata.TIFFModel, tiff66.ASCII},
		{0x0112, "Orientation", tiff66.SHORT},
		{0x0131, "Software", tiff66.ASCII},
		{0x0132, metadata.TIFFDateTime, tiff66.ASCII},
		{0x013B, "Artist", tiff66.ASCII},
		{0x8298, "Copyright", tiff66.ASCII},
	}
	exifIFDTags = []exifTag{
		{0x9003, metadata.ExifDateTimeOriginal, tiff66.ASCII},
		{0x9004, metadata.ExifDateTimeDigitized, tiff66.ASCII},
		{0x9010, "OffsetTime", tiff66.ASCII},
		{0x9011, "OffsetTimeOriginal", tiff66.ASCII},
		{0x9012, "OffsetTimeDigitized", tiff66.ASCII},
		{0x9286, metadata.ExifUserComment, tiff66.UNDEFINED},
		{0xA433, "LensMake", tiff66.ASCII},
		{0xA434, "LensModel", tiff66.ASCII},
	}
)

// EncodeExif renders the Exif block for props. The source block kept under
// metadata.KeyExifBlock is carried over whole, minus the maker note and the
// thumbnail IFD, with the {TIFF} and {Exif} text fields of props written on
// top. It returns nil when there is nothing to write.
func EncodeExif(props *metadata.Bag) ([]byte, error) {
	root := sourceTree(props)
	if root == nil {
		root = &tiff66.IFDNode{Space: tiff66.TIFFSpace}
		root.Order = binary.BigEndian
	}
	root.Next = nil

	patchFields(root, props.Sub(metadata.KeyTIFF), ifd0Tags)
	if fields := props.Sub(metadata.KeyExif); hasAny(fields, exifIFDTags) {
		patchFields(exifNode(root), fields, exifIFDTags)
	}
	if sub := findSubIFD(root, tagExifIFD); sub != nil {
		removeTag(sub, tagMakerNote)
	}
	if isEmpty(root) {
		return nil, nil
	}

	sortFields(root)
	root.Fix()
	buf := make([]byte, tiff66.HeaderSize+root.TreeSize())
	tiff66.PutHeader(buf, root.Order, tiff66.HeaderSize)
	end, err := root.PutIFDTree(buf, tiff66.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("encode exif: %w", err)
	}
	return buf[:end], nil
}

// sourceTree parses the block read from the source image. Unreadable blocks
// are treated as absent.
func sourceTree(props *metadata.Bag) *tiff66.IFDNode {
	v, ok := props.Get(metadata.KeyExifBlock)
	if !ok {
		return nil
	}
	block, ok := v.([]byte)
	if !ok || len(block) == 0 {
		return nil
	}
	// The tree points into its buffer; the bag keeps its own copy.
	buf := slices.Clone(block)
	valid, order, pos := tiff66.GetHeader(buf)
	if !valid {
		return nil
	}
	root, err := tiff66.GetIFDTree(buf, order, pos, tiff66.TIFFSpace)
	if err != nil {
		return nil
	}
	return root
}

func patchFields(node *tiff66.IFDNode, dict *metadata.Bag, tags []exifTag) {
	for _, t := range tags {
		field, ok := encodeField(node.Order, dict, t)
		if !ok {
			continue
		}
		if i := fieldIndex(node, t.id); i >= 0 {
			node.Fields[i] = field
		} else {
			node.Fields = append(node.Fields, field)
		}
	}
}

func encodeField(order binary.ByteOrder, dict *metadata.Bag, t exifTag) (tiff66.Field, bool) {
	v, ok := dict.Get(t.key)
	if !ok {
		return tiff66.Field{}, false
	}
	switch t.typ {
	case tiff66.ASCII:
		s, ok := v.(string)
		if !ok {
			return tiff66.Field{}, false
		}
		data := append([]byte(s), 0)
		return tiff66.Field{Tag: t.id, Type: tiff66.ASCII, Count: uint32(len(data)), Data: data}, true
	case tiff66.SHORT:
		n, ok := dict.Int(t.key)
		if !ok || n < 0 || n > 0xFFFF {
			return tiff66.Field{}, false
		}
		data := make([]byte, 2)
		order.PutUint16(data, uint16(n))
		return tiff66.Field{Tag: t.id, Type: tiff66.SHORT, Count: 1, Data: data}, true
	case tiff66.UNDEFINED:
		s, ok := v.(string)
		if !ok {
			return tiff66.Field{}, false
		}
		data := append([]byte("ASCII\x00\x00\x00"), s...)
		return tiff66.Field{Tag: t.id, Type: tiff66.UNDEFINED, Count: uint32(len(data)), Data: data}, true
	}
	return tiff66.Field{}, false
}

func hasAny(dict *metadata.Bag, tags []exifTag) bool {
	for _, t := range tags {
		if _, ok := dict.Get(t.key); ok {
			return true
		}
	}
	return false
}

// exifNode returns the Exif sub-IFD of root, adding an empty one when the
// source had none.
func exifNode(root *tiff66.IFDNode) *tiff66.IFDNode {
	if sub := findSubIFD(root, tagExifIFD); sub != nil {
		return sub
	}
	sub := &tiff66.IFDNode{Space: tiff66.ExifSpace}
	sub.Order = root.Order
	if fieldIndex(root, tagExifIFD) < 0 {
		root.Fields = append(root.Fields, tiff66.Field{Tag: tagExifIFD, Type: tiff66.LONG, Count: 1, Data: make([]byte, 4)})
	}
	root.SubIFDs = append(root.SubIFDs, tiff66.SubIFD{Tag: tagExifIFD, Node: sub})
	return sub
}

func findSubIFD(node *tiff66.IFDNode, tag tiff66.Tag) *tiff66.IFDNode {
	for _, sub := range node.SubIFDs {
		if sub.Tag == tag && sub.Node != nil {
			return sub.Node
		}
	}
	return nil
}

func fieldIndex(node *tiff66.IFDNode, tag tiff66.Tag) int {
	return slices.IndexFunc(node.Fields, func(f tiff66.Field) bool { return f.Tag == tag })
}

func removeTag(node *tiff66.IFDNode, tag tiff66.Tag) {
	node.Fields = slices.DeleteFunc(node.Fields, func(f tiff66.Field) bool { return f.Tag == tag })
	node.SubIFDs = slices.DeleteFunc(node.SubIFDs, func(s tiff66.SubIFD) bool { return s.Tag == tag })
}

func isEmpty(node *tiff66.IFDNode) bool {
	return len(node.Fields) == 0 && len(node.SubIFDs) == 0
}

// sortFields puts every IFD of the tree in ascending tag order, which
// appended fields may have broken.
func sortFields(node *tiff66.IFDNode) {
	slices.SortStableFunc(node.Fields, func(a, b tiff66.Field) int { return int(a.Tag) - int(b.Tag) })
	for _, sub := range node.SubIFDs {
		if sub.Node != nil {
			sortFields(sub.Node)
		}
	}
}
