package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"math"

	"github.com/hupe1980/fieldgo/internal/conv"
)

// Writer writes the payload of a single layer.
//
// Errors are sticky: after the first failure every call is a no-op and Err
// reports the failure. Layers typically issue all their writes and return
// w.Err() at the end.
type Writer struct {
	w       io.Writer
	width   Width
	scratch [8]byte
	n       uint64
	err     error
}

func newWriter(w io.Writer, width Width) *Writer {
	return &Writer{w: w, width: width}
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Len returns the number of payload bytes written.
func (w *Writer) Len() uint64 { return w.n }

// ScalarWidth returns the width scalar blocks are written with. WidthNative
// means each block uses the width of its in-memory scalar type.
func (w *Writer) ScalarWidth() Width { return w.width }

// Fail records err unless an earlier error is already recorded.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Write implements io.Writer so that encoders of nested structures can
// stream into the payload.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	w.n += uint64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = err
	}
	return n, err
}

// Bytes writes p without a length prefix.
func (w *Writer) Bytes(p []byte) {
	_, _ = w.Write(p)
}

// Blob writes p prefixed with its length.
func (w *Writer) Blob(p []byte) {
	w.Uint64(uint64(len(p)))
	w.Bytes(p)
}

func (w *Writer) Uint8(v uint8) {
	w.scratch[0] = v
	w.Bytes(w.scratch[:1])
}

func (w *Writer) Uint16(v uint16) {
	binary.LittleEndian.PutUint16(w.scratch[:], v)
	w.Bytes(w.scratch[:2])
}

func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.scratch[:], v)
	w.Bytes(w.scratch[:4])
}

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.scratch[:], v)
	w.Bytes(w.scratch[:8])
}

func (w *Writer) Float64(v float64) {
	w.Uint64(math.Float64bits(v))
}

// Uint64s writes a length-prefixed uint64 slice.
func (w *Writer) Uint64s(vs []uint64) {
	w.Uint64(uint64(len(vs)))
	for _, v := range vs {
		w.Uint64(v)
	}
}

// Float64s writes a length-prefixed float64 slice.
func (w *Writer) Float64s(vs []float64) {
	w.Uint64(uint64(len(vs)))
	for _, v := range vs {
		w.Float64(v)
	}
}

// Reader reads the payload of a single layer. It never reads past the payload
// size declared in the layer header; asking for more is ErrPayloadSize.
//
// Like Writer, errors are sticky and reported by Err.
type Reader struct {
	src       io.Reader
	remaining uint64
	hash      hash.Hash32
	scratch   [8]byte
	err       error
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the number of payload bytes not yet consumed.
func (r *Reader) Remaining() uint64 { return r.remaining }

// Fail records err unless an earlier error is already recorded. Layers use it
// to report invalid decoded values.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Read implements io.Reader bounded to the remaining payload.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.remaining == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.src.Read(p)
	r.consume(p[:n])
	if errors.Is(err, io.EOF) && r.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		r.err = err
	}
	return n, err
}

func (r *Reader) consume(p []byte) {
	_, _ = r.hash.Write(p)
	r.remaining -= uint64(len(p))
}

func (r *Reader) full(p []byte) bool {
	if r.err != nil {
		return false
	}
	if uint64(len(p)) > r.remaining {
		r.err = fmt.Errorf("%w: need %d bytes, %d left in payload", ErrPayloadSize, len(p), r.remaining)
		return false
	}
	n, err := io.ReadFull(r.src, p)
	r.consume(p[:n])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return false
	}
	return true
}

// Bytes reads exactly n bytes.
func (r *Reader) Bytes(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.remaining {
		r.err = fmt.Errorf("%w: need %d bytes, %d left in payload", ErrPayloadSize, n, r.remaining)
		return nil
	}
	p := make([]byte, n)
	if !r.full(p) {
		return nil
	}
	return p
}

// Blob reads a length-prefixed byte slice written by Writer.Blob.
func (r *Reader) Blob() []byte {
	return r.Bytes(r.Uint64())
}

func (r *Reader) Uint8() uint8 {
	if !r.full(r.scratch[:1]) {
		return 0
	}
	return r.scratch[0]
}

func (r *Reader) Uint16() uint16 {
	if !r.full(r.scratch[:2]) {
		return 0
	}
	return binary.LittleEndian.Uint16(r.scratch[:])
}

func (r *Reader) Uint32() uint32 {
	if !r.full(r.scratch[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.scratch[:])
}

func (r *Reader) Uint64() uint64 {
	if !r.full(r.scratch[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.scratch[:])
}

func (r *Reader) Float64() float64 {
	return math.Float64frombits(r.Uint64())
}

// count reads a slice length and checks that elemSize*count bytes can still
// follow in the payload.
func (r *Reader) count(elemSize uint64) (int, bool) {
	n := r.Uint64()
	if r.err != nil {
		return 0, false
	}
	if n > r.remaining/elemSize {
		r.err = fmt.Errorf("%w: %d elements of %d bytes exceed %d remaining", ErrPayloadSize, n, elemSize, r.remaining)
		return 0, false
	}
	c, err := conv.Uint64ToInt(n)
	if err != nil {
		r.err = fmt.Errorf("%w: %w", ErrPayloadSize, err)
		return 0, false
	}
	return c, true
}

// Uint64s reads a length-prefixed uint64 slice.
func (r *Reader) Uint64s() []uint64 {
	n, ok := r.count(8)
	if !ok {
		return nil
	}
	vs := make([]uint64, n)
	for i := range vs {
		vs[i] = r.Uint64()
	}
	return vs
}

// Float64s reads a length-prefixed float64 slice.
func (r *Reader) Float64s() []float64 {
	n, ok := r.count(8)
	if !ok {
		return nil
	}
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = r.Float64()
	}
	return vs
}
