package adbutils

import "fmt"

// FormatError reports a malformed binary index. Stage names the decoding step
// that failed: "envelope", "magic", "schema", "no payload block",
// "out of bounds" or "tag type".
type FormatError struct {
	Stage string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adb format error (%s): %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("adb format error (%s)", e.Stage)
}

func (e *FormatError) Unwrap() error { return e.Err }

// UnsupportedCompressionError is returned for an ADBc envelope whose
// algorithm cannot be decoded locally.
type UnsupportedCompressionError struct {
	Algorithm uint8
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("unsupported adb compression algorithm %d", e.Algorithm)
}

func formatErr(stage string, format string, args ...any) error {
	if format == "" {
		return &FormatError{Stage: stage}
	}
	return &FormatError{Stage: stage, Err: fmt.Errorf(format, args...)}
}
