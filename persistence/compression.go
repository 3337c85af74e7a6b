package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType identifies the algorithm of a compressed envelope.
type CompressionType uint8

const (
	// CompressionNone stores the plain stream inside the envelope.
	CompressionNone CompressionType = 0
	// CompressionLZ4 is fast and suits maps that are loaded often.
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD trades speed for a better ratio on archived maps.
	CompressionZSTD CompressionType = 2
)

// EnvelopeMagic identifies compressed field streams (ASCII: "FLDZ").
const EnvelopeMagic uint32 = 0x464C445A

const envelopeHeaderSize = 8

// ErrInvalidCompression is returned for unknown compression tags.
var ErrInvalidCompression = errors.New("invalid compression type")

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses the names produced by CompressionType.String.
func ParseCompression(s string) (CompressionType, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCompression, s)
}

// NewCompressedWriter writes the envelope header to w and returns a writer
// that compresses everything written to it as one frame. Close flushes the
// frame; it does not close w.
func NewCompressedWriter(w io.Writer, c CompressionType) (io.WriteCloser, error) {
	var hdr [envelopeHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], EnvelopeMagic)
	hdr[4] = byte(c)

	switch c {
	case CompressionNone, CompressionLZ4, CompressionZSTD:
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCompression, c)
	}
	if _, err := w.Write(hdr[:]); err != nil {
		return nil, err
	}

	switch c {
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZSTD:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewCompressedReader reads the envelope header from r and returns a reader
// of the decompressed stream.
func NewCompressedReader(r io.Reader) (io.ReadCloser, CompressionType, error) {
	var hdr [envelopeHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, err
	}
	if m := binary.LittleEndian.Uint32(hdr[0:]); m != EnvelopeMagic {
		return nil, 0, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, m)
	}
	if hdr[5] != 0 || hdr[6] != 0 || hdr[7] != 0 {
		return nil, 0, fmt.Errorf("%w: envelope header", ErrReservedBits)
	}
	return decompressor(r, CompressionType(hdr[4]))
}

func decompressor(r io.Reader, c CompressionType) (io.ReadCloser, CompressionType, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), c, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), c, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, c, err
		}
		return dec.IOReadCloser(), c, nil
	default:
		return nil, c, fmt.Errorf("%w: %d", ErrInvalidCompression, c)
	}
}

// OpenStream returns a reader of the plain field stream held in r, which may
// be either a plain stream or a compressed envelope. The reported type is
// CompressionNone for plain streams.
func OpenStream(r io.Reader) (io.ReadCloser, CompressionType, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(4)
	if err != nil {
		if len(peek) == 0 && errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		// Too short for either magic; let the stream decoder report it.
		return io.NopCloser(br), CompressionNone, nil
	}
	if binary.LittleEndian.Uint32(peek) == EnvelopeMagic {
		return NewCompressedReader(br)
	}
	return io.NopCloser(br), CompressionNone, nil
}
