package adbutils

import (
	"encoding/binary"

	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// Magic is the little-endian "ADB." file magic.
const Magic uint32 = 0x2e424441

// Known container schemas.
const (
	SchemaIndex   uint32 = 0x78646e69 // "indx"
	SchemaPackage uint32 = 0x676b6370 // "pckg"
)

// Block types. BlockExt marks the 16 byte extended block header.
const (
	BlockADB  uint32 = 0
	BlockSig  uint32 = 1
	BlockData uint32 = 2
	BlockExt  uint32 = 3
)

const (
	fileHeaderSize    = 8
	blockHeaderSize   = 4
	blockExtHeaderLen = 16
	blockAlignment    = 8
	blockSizeMask     = 0x3fffffff
)

// ParseContainer validates the file header of a raw container and returns its
// schema together with the payload of the first ADB block. Later ADB blocks
// are ignored. The schema is not checked here.
func ParseContainer(data []byte) (uint32, []byte, error) {
	log := logger.Logger()

	if len(data) < fileHeaderSize {
		return 0, nil, formatErr("magic", "container of %d bytes has no file header", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != Magic {
		return 0, nil, formatErr("magic", "unexpected magic 0x%08x", magic)
	}
	schema := binary.LittleEndian.Uint32(data[4:8])

	size := uint64(len(data))
	for off := uint64(fileHeaderSize); off < size; {
		if size-off < blockHeaderSize {
			return 0, nil, formatErr("out of bounds", "truncated block header at offset %d", off)
		}
		word := binary.LittleEndian.Uint32(data[off:])
		blockType := word >> 30
		hdrSize := uint64(blockHeaderSize)
		rawSize := uint64(word & blockSizeMask)

		if blockType == BlockExt {
			if size-off < blockExtHeaderLen {
				return 0, nil, formatErr("out of bounds", "truncated extended block header at offset %d", off)
			}
			blockType = word & blockSizeMask
			hdrSize = blockExtHeaderLen
			rawSize = binary.LittleEndian.Uint64(data[off+8:])
		}

		if rawSize < hdrSize || rawSize > size-off {
			return 0, nil, formatErr("out of bounds", "block at offset %d has size %d", off, rawSize)
		}

		log.Debugf("adb block type=%d offset=%d size=%d", blockType, off, rawSize)

		if blockType == BlockADB {
			return schema, data[off+hdrSize : off+rawSize], nil
		}

		off += alignUp(rawSize, blockAlignment)
	}

	return 0, nil, formatErr("no payload block", "")
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
