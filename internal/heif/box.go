package heif

import (
	"bytes"
	"encoding/binary"
)

// box accumulates the payload of a single ISOBMFF box.
type box struct {
	typ string
	buf bytes.Buffer
}

func newBox(typ string) *box {
	return &box{typ: typ}
}

func newFullBox(typ string, version uint8, flags uint32) *box {
	b := newBox(typ)
	b.u32(uint32(version)<<24 | flags&0xFFFFFF)
	return b
}

func (b *box) u8(v uint8)   { b.buf.WriteByte(v) }
func (b *box) u16(v uint16) { b.buf.Write(binary.BigEndian.AppendUint16(nil, v)) }
func (b *box) u32(v uint32) { b.buf.Write(binary.BigEndian.AppendUint32(nil, v)) }
func (b *box) i32(v int32)  { b.u32(uint32(v)) }
func (b *box) fourCC(s string) {
	var cc [4]byte
	copy(cc[:], s)
	b.buf.Write(cc[:])
}
func (b *box) cstring(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
}
func (b *box) raw(p []byte) { b.buf.Write(p) }

func (b *box) child(c *box) { b.buf.Write(c.bytes()) }

// bytes returns the serialized box including its header.
func (b *box) bytes() []byte {
	out := make([]byte, 8, 8+b.buf.Len())
	binary.BigEndian.PutUint32(out, uint32(8+b.buf.Len()))
	copy(out[4:], b.typ)
	return append(out, b.buf.Bytes()...)
}
