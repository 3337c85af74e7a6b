package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies plain field streams (ASCII: "FLDG").
	MagicNumber uint32 = 0x464C4447
	// Version is the current stream format version.
	Version uint16 = 1

	// FileHeaderSize is the encoded size of FileHeader.
	FileHeaderSize = 16
	// LayerHeaderSize is the encoded size of LayerHeader.
	LayerHeaderSize = 16

	// MaxDepth bounds the declared number of layers in a stream.
	MaxDepth = 64
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidDepth   = errors.New("invalid layer depth")
	ErrKindMismatch   = errors.New("layer kind mismatch")
	ErrPayloadSize    = errors.New("payload size mismatch")
	ErrInvalidWidth   = errors.New("invalid numeric width")
	ErrTrailingData   = errors.New("trailing data after last layer")
	ErrReservedBits   = errors.New("reserved header bits set")
)

// IsFormatError reports whether err describes malformed stream content, as
// opposed to a failure of the underlying byte stream.
func IsFormatError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidMagic),
		errors.Is(err, ErrInvalidVersion),
		errors.Is(err, ErrInvalidDepth),
		errors.Is(err, ErrKindMismatch),
		errors.Is(err, ErrPayloadSize),
		errors.Is(err, ErrInvalidWidth),
		errors.Is(err, ErrTrailingData),
		errors.Is(err, ErrReservedBits),
		errors.Is(err, ErrInvalidCompression),
		IsChecksumMismatch(err):
		return true
	}
	return false
}

// FileHeader is the 16-byte header at the start of every field stream.
type FileHeader struct {
	Magic    uint32
	Version  uint16
	Flags    uint16 // reserved, zero
	Depth    uint32 // number of layer records that follow
	Reserved uint32
}

// LayerHeader precedes every layer payload.
type LayerHeader struct {
	Kind     uint16
	Flags    uint16 // reserved, zero
	Checksum uint32 // CRC32 (IEEE) of the payload
	Size     uint64 // payload byte count
}

// LayerError attaches the position of the failing layer to an error.
type LayerError struct {
	Index int
	Kind  uint16
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %d (kind %d): %v", e.Index, e.Kind, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

// Width is the on-disk size in bytes of one stored scalar.
type Width uint8

const (
	// WidthNative selects the width of the in-memory scalar type.
	WidthNative  Width = 0
	WidthFloat16 Width = 2
	WidthFloat32 Width = 4
	WidthFloat64 Width = 8
)

// Valid reports whether w is a concrete width tag that may appear in a stream.
func (w Width) Valid() bool {
	return w == WidthFloat16 || w == WidthFloat32 || w == WidthFloat64
}

func (w Width) String() string {
	switch w {
	case WidthNative:
		return "native"
	case WidthFloat16:
		return "float16"
	case WidthFloat32:
		return "float32"
	case WidthFloat64:
		return "float64"
	default:
		return fmt.Sprintf("width(%d)", uint8(w))
	}
}

// ParseWidth parses the names produced by Width.String.
func ParseWidth(s string) (Width, error) {
	switch s {
	case "", "native":
		return WidthNative, nil
	case "float16", "f16", "half":
		return WidthFloat16, nil
	case "float32", "f32", "float":
		return WidthFloat32, nil
	case "float64", "f64", "double":
		return WidthFloat64, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWidth, s)
}
