package adbutils

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// Compression algorithms of the ADBc envelope.
const (
	CompressionNone    uint8 = 0
	CompressionDeflate uint8 = 1
)

var (
	envelopeDeflate = []byte("ADBd")
	envelopeCompat  = []byte("ADBc")
)

// Decompress strips the optional compression envelope of a binary index and
// returns the raw container. Buffers without a known envelope tag are
// returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, formatErr("envelope", "buffer of %d bytes is too short", len(data))
	}

	switch {
	case bytes.Equal(data[:4], envelopeDeflate):
		return inflate(data[4:])

	case bytes.Equal(data[:4], envelopeCompat):
		if len(data) < 6 {
			return nil, formatErr("envelope", "truncated ADBc header")
		}
		alg := data[4]
		// data[5] is the compression level, not needed to decode
		switch alg {
		case CompressionNone:
			return data[6:], nil
		case CompressionDeflate:
			return inflate(data[6:])
		default:
			return nil, &FormatError{Stage: "envelope", Err: &UnsupportedCompressionError{Algorithm: alg}}
		}

	default:
		return data, nil
	}
}

// inflate decodes a raw deflate stream, falling back to the zlib wrapped form.
func inflate(data []byte) ([]byte, error) {
	out, rawErr := io.ReadAll(flate.NewReader(bytes.NewReader(data)))
	if rawErr == nil {
		return out, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Stage: "envelope", Err: fmt.Errorf("inflate: %v", rawErr)}
	}
	defer zr.Close()

	out, err = io.ReadAll(zr)
	if err != nil {
		return nil, &FormatError{Stage: "envelope", Err: fmt.Errorf("zlib inflate: %w", err)}
	}
	return out, nil
}
