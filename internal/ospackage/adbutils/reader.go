package adbutils

import (
	"encoding/binary"
	"encoding/hex"
	"unicode/utf8"
)

// Tag is a 32-bit self-describing value reference. The top nibble selects the
// type and the low 28 bits hold an inline value or a payload offset.
type Tag uint32

// Tag types.
const (
	TypeSpecial Tag = 0x00000000
	TypeInt     Tag = 0x10000000
	TypeInt32   Tag = 0x20000000
	TypeInt64   Tag = 0x30000000
	TypeBlob8   Tag = 0x80000000
	TypeBlob16  Tag = 0x90000000
	TypeBlob32  Tag = 0xa0000000
	TypeArray   Tag = 0xd0000000
	TypeObject  Tag = 0xe0000000
	TypeError   Tag = 0xf0000000

	TypeMask  Tag = 0xf0000000
	ValueMask Tag = 0x0fffffff
)

// Null is the special "no value" tag.
const Null Tag = 0

// Type returns the type nibble of t.
func (t Tag) Type() Tag { return t & TypeMask }

// Value returns the inline value or offset of t.
func (t Tag) Value() uint32 { return uint32(t & ValueMask) }

// IsNull reports whether t carries no value.
func (t Tag) IsNull() bool { return t == Null }

const payloadHeaderSize = 8

// Reader reads tagged values out of the payload of an ADB block. All offsets
// are relative to the start of the payload.
type Reader struct {
	buf []byte

	CompatVersion uint8
	Version       uint8
	Root          Tag
}

// NewReader parses the payload header: compat version, format version and the
// root tag at offset 4.
func NewReader(payload []byte) (*Reader, error) {
	if len(payload) < payloadHeaderSize {
		return nil, formatErr("out of bounds", "payload of %d bytes has no header", len(payload))
	}
	return &Reader{
		buf:           payload,
		CompatVersion: payload[0],
		Version:       payload[1],
		Root:          Tag(binary.LittleEndian.Uint32(payload[4:8])),
	}, nil
}

// deref returns n bytes at offset off of the payload.
func (r *Reader) deref(off, n uint64) ([]byte, error) {
	size := uint64(len(r.buf))
	if off > size || n > size-off {
		return nil, formatErr("out of bounds", "read of %d bytes at offset %d exceeds payload of %d bytes", n, off, size)
	}
	return r.buf[off : off+n], nil
}

// Int reads an integer. Null reads as 0.
func (r *Reader) Int(t Tag) (uint64, error) {
	switch t.Type() {
	case TypeSpecial:
		if t.IsNull() {
			return 0, nil
		}
	case TypeInt:
		return uint64(t.Value()), nil
	case TypeInt32:
		b, err := r.deref(uint64(t.Value()), 4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case TypeInt64:
		b, err := r.deref(uint64(t.Value()), 8)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b), nil
	}
	return 0, formatErr("tag type", "tag 0x%08x is not an integer", uint32(t))
}

// Blob reads a length-prefixed byte string. Null reads as nil. The returned
// slice aliases the payload.
func (r *Reader) Blob(t Tag) ([]byte, error) {
	var prefix uint64
	switch t.Type() {
	case TypeSpecial:
		if t.IsNull() {
			return nil, nil
		}
		return nil, formatErr("tag type", "tag 0x%08x is not a blob", uint32(t))
	case TypeBlob8:
		prefix = 1
	case TypeBlob16:
		prefix = 2
	case TypeBlob32:
		prefix = 4
	default:
		return nil, formatErr("tag type", "tag 0x%08x is not a blob", uint32(t))
	}

	off := uint64(t.Value())
	lb, err := r.deref(off, prefix)
	if err != nil {
		return nil, err
	}
	var n uint64
	switch prefix {
	case 1:
		n = uint64(lb[0])
	case 2:
		n = uint64(binary.LittleEndian.Uint16(lb))
	default:
		n = uint64(binary.LittleEndian.Uint32(lb))
	}
	return r.deref(off+prefix, n)
}

// String reads a blob as UTF-8 text. Invalid sequences are replaced.
func (r *Reader) String(t Tag) (string, error) {
	b, err := r.Blob(t)
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	return string([]rune(string(b))), nil
}

// Hex reads a blob and returns it as lowercase hex.
func (r *Reader) Hex(t Tag) (string, error) {
	b, err := r.Blob(t)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Slots reads the slot table of an array or object. Index 0 of the result is
// the raw slot count; elements live at 1..len-1. Null reads as an empty table.
func (r *Reader) Slots(t Tag) ([]Tag, error) {
	switch t.Type() {
	case TypeArray, TypeObject:
	case TypeSpecial:
		if t.IsNull() {
			return nil, nil
		}
		fallthrough
	default:
		return nil, formatErr("tag type", "tag 0x%08x is not an array or object", uint32(t))
	}

	off := uint64(t.Value())
	head, err := r.deref(off, 4)
	if err != nil {
		return nil, err
	}
	num := uint64(binary.LittleEndian.Uint32(head))
	if num == 0 {
		return []Tag{0}, nil
	}
	table, err := r.deref(off, num*4)
	if err != nil {
		return nil, err
	}
	slots := make([]Tag, num)
	for i := range slots {
		slots[i] = Tag(binary.LittleEndian.Uint32(table[i*4:]))
	}
	return slots, nil
}

// Object is a decoded slot table with field accessors.
type Object struct {
	r     *Reader
	slots []Tag
}

// Object reads the slot table at t.
func (r *Reader) Object(t Tag) (Object, error) {
	slots, err := r.Slots(t)
	if err != nil {
		return Object{}, err
	}
	return Object{r: r, slots: slots}, nil
}

// Len returns the number of element slots, not counting the count slot.
func (o Object) Len() int {
	if len(o.slots) == 0 {
		return 0
	}
	return len(o.slots) - 1
}

// Field returns the tag in slot i, or Null when the slot is absent.
func (o Object) Field(i int) Tag {
	if i <= 0 || i >= len(o.slots) {
		return Null
	}
	return o.slots[i]
}

// Has reports whether slot i holds a value.
func (o Object) Has(i int) bool { return !o.Field(i).IsNull() }

// Int reads slot i as an integer.
func (o Object) Int(i int) (uint64, error) { return o.r.Int(o.Field(i)) }

// String reads slot i as text.
func (o Object) String(i int) (string, error) { return o.r.String(o.Field(i)) }

// Hex reads slot i as lowercase hex.
func (o Object) Hex(i int) (string, error) { return o.r.Hex(o.Field(i)) }

// Object reads slot i as a nested object or array.
func (o Object) Object(i int) (Object, error) { return o.r.Object(o.Field(i)) }
