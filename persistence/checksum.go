package persistence

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Payload checksums are CRC32 (IEEE) over the bytes a layer header announces.
// They catch accidental corruption of stored fields, not tampering.

// CRC32Table is the IEEE polynomial table for payload checksums.
var CRC32Table = crc32.MakeTable(crc32.IEEE)

// ChecksumWriter forwards writes to w and tracks the CRC32 and length of the
// bytes w accepted. With a nil w it only measures, which is how a payload is
// sized before its header is written.
type ChecksumWriter struct {
	w   io.Writer
	sum uint32
	n   uint64
}

// NewChecksumWriter returns a ChecksumWriter over w.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	if w == nil {
		w = io.Discard
	}
	return &ChecksumWriter{w: w}
}

func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.sum = crc32.Update(cw.sum, CRC32Table, p[:n])
	cw.n += uint64(n)
	return n, err
}

func (cw *ChecksumWriter) Sum() uint32   { return cw.sum }
func (cw *ChecksumWriter) Count() uint64 { return cw.n }

// Header returns the record header for a layer whose payload is everything
// written so far.
func (cw *ChecksumWriter) Header(kind uint16) LayerHeader {
	return LayerHeader{Kind: kind, Checksum: cw.sum, Size: cw.n}
}

// skipPayload consumes the payload announced by h from r and checks it
// against the recorded checksum. It returns the number of bytes consumed.
func skipPayload(r io.Reader, h LayerHeader) (int64, error) {
	var (
		buf  [32 << 10]byte
		sum  uint32
		read int64
	)
	for left := h.Size; left > 0; {
		chunk := buf[:min(left, uint64(len(buf)))]
		n, err := io.ReadFull(r, chunk)
		sum = crc32.Update(sum, CRC32Table, chunk[:n])
		read += int64(n)
		left -= uint64(n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return read, err
		}
	}
	return read, verifyChecksum(h.Checksum, sum)
}

func verifyChecksum(expected, actual uint32) error {
	if actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// ChecksumMismatchError is returned when a payload checksum does not match the
// value recorded in its layer header.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: header records 0x%08x, payload hashes to 0x%08x", e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err is or wraps a ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var cm *ChecksumMismatchError
	return errors.As(err, &cm)
}
