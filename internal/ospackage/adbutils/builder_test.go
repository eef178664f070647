package adbutils

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// adbBuilder lays out a payload the way apk writes one: an 8 byte header
// followed by values referenced through tags.
type adbBuilder struct {
	buf []byte
}

func newADBBuilder() *adbBuilder {
	return &adbBuilder{buf: make([]byte, payloadHeaderSize)}
}

func (b *adbBuilder) align(n int) {
	for len(b.buf)%n != 0 {
		b.buf = append(b.buf, 0)
	}
}

func (b *adbBuilder) blob(p []byte) Tag {
	off := len(b.buf)
	switch {
	case len(p) <= 0xff:
		b.buf = append(b.buf, byte(len(p)))
		b.buf = append(b.buf, p...)
		return TypeBlob8 | Tag(off)
	case len(p) <= 0xffff:
		b.align(2)
		off = len(b.buf)
		b.buf = binary.LittleEndian.AppendUint16(b.buf, uint16(len(p)))
		b.buf = append(b.buf, p...)
		return TypeBlob16 | Tag(off)
	default:
		b.align(4)
		off = len(b.buf)
		b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(p)))
		b.buf = append(b.buf, p...)
		return TypeBlob32 | Tag(off)
	}
}

func (b *adbBuilder) str(s string) Tag { return b.blob([]byte(s)) }

func (b *adbBuilder) int(v uint64) Tag {
	switch {
	case v <= uint64(ValueMask):
		return TypeInt | Tag(v)
	case v <= 0xffffffff:
		b.align(4)
		off := len(b.buf)
		b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(v))
		return TypeInt32 | Tag(off)
	default:
		b.align(8)
		off := len(b.buf)
		b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
		return TypeInt64 | Tag(off)
	}
}

func (b *adbBuilder) table(typ Tag, slots []Tag) Tag {
	b.align(4)
	off := len(b.buf)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(len(slots)+1))
	for _, s := range slots {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(s))
	}
	return typ | Tag(off)
}

// object takes slots 1..n in order; use Null for absent fields.
func (b *adbBuilder) object(slots ...Tag) Tag { return b.table(TypeObject, slots) }

func (b *adbBuilder) array(items ...Tag) Tag { return b.table(TypeArray, items) }

func (b *adbBuilder) dep(name, version string, match uint64, withMatch bool) Tag {
	v := Null
	if version != "" {
		v = b.str(version)
	}
	if !withMatch {
		return b.object(b.str(name), v)
	}
	return b.object(b.str(name), v, b.int(match))
}

func (b *adbBuilder) finish(root Tag) []byte {
	b.buf[0] = 1
	b.buf[1] = 1
	binary.LittleEndian.PutUint32(b.buf[4:], uint32(root))
	return b.buf
}

type testPkg struct {
	name, version, arch, hash string
	size, installed          uint64
	deps                     []Tag
}

func (b *adbBuilder) pkg(p testPkg) Tag {
	slots := make([]Tag, PiDepends)
	slots[PiName-1] = b.str(p.name)
	if p.version != "" {
		slots[PiVersion-1] = b.str(p.version)
	}
	if p.hash != "" {
		slots[PiHashes-1] = b.blob(mustHex(p.hash))
	}
	if p.arch != "" {
		slots[PiArch-1] = b.str(p.arch)
	}
	if p.installed != 0 {
		slots[PiInstalledSize-1] = b.int(p.installed)
	}
	if p.size != 0 {
		slots[PiFileSize-1] = b.int(p.size)
	}
	if len(p.deps) > 0 {
		slots[PiDepends-1] = b.array(p.deps...)
	} else {
		slots = slots[:PiDepends-1]
	}
	return b.object(slots...)
}

func mustHex(s string) []byte {
	out := make([]byte, len(s)/2)
	for i := range out {
		out[i] = unhex(s[2*i])<<4 | unhex(s[2*i+1])
	}
	return out
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	panic("bad hex digit")
}

type testBlock struct {
	typ      uint32
	payload  []byte
	extended bool
}

// container wraps blocks into a raw container with file header.
func container(schema uint32, blocks ...testBlock) []byte {
	out := binary.LittleEndian.AppendUint32(nil, Magic)
	out = binary.LittleEndian.AppendUint32(out, schema)
	for _, blk := range blocks {
		if blk.extended {
			out = binary.LittleEndian.AppendUint32(out, BlockExt<<30|blk.typ)
			out = binary.LittleEndian.AppendUint32(out, 0)
			out = binary.LittleEndian.AppendUint64(out, uint64(blockExtHeaderLen+len(blk.payload)))
		} else {
			out = binary.LittleEndian.AppendUint32(out, blk.typ<<30|uint32(blockHeaderSize+len(blk.payload)))
		}
		out = append(out, blk.payload...)
		for len(out)%blockAlignment != 0 {
			out = append(out, 0)
		}
	}
	return out
}

func deflateRaw(data []byte) []byte {
	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.BestCompression)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func deflateZlib(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}
