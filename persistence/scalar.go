package persistence

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/hupe1980/fieldgo/internal/conv"
	"github.com/hupe1980/fieldgo/internal/f16"
)

// Scalar is the set of element types storage layers hold.
type Scalar interface {
	~float32 | ~float64
}

// scalarChunk is the staging buffer size for width-converting reads and writes.
const scalarChunk = 32 * 1024

// ScalarBlockHeaderSize is the encoded size of the header preceding the values
// of a scalar block.
const ScalarBlockHeaderSize = 16

// WidthOf returns the width matching the in-memory size of S.
func WidthOf[S Scalar]() Width {
	var zero S
	if unsafe.Sizeof(zero) == 4 {
		return WidthFloat32
	}
	return WidthFloat64
}

// ScalarBlockSize returns the encoded size of a scalar block of n scalars.
func ScalarBlockSize(n uint64, width Width) uint64 {
	return ScalarBlockHeaderSize + n*uint64(width)
}

// WriteScalarBlock writes count elements of components scalars each:
//
//	count uint64, components uint32, width uint8, reserved [3]byte, values
//
// The values are written with w.ScalarWidth(), or the width of S when that is
// WidthNative. Narrowing to a smaller width rounds to nearest.
func WriteScalarBlock[S Scalar](w *Writer, count uint64, components uint32, values []S) {
	if w.err != nil {
		return
	}
	if uint64(len(values)) != count*uint64(components) {
		w.Fail(fmt.Errorf("%w: block holds %d scalars, header declares %dx%d", ErrPayloadSize, len(values), count, components))
		return
	}

	width := w.width
	if width == WidthNative {
		width = WidthOf[S]()
	}
	if !width.Valid() {
		w.Fail(fmt.Errorf("%w: %d", ErrInvalidWidth, width))
		return
	}

	w.Uint64(count)
	w.Uint32(components)
	w.Uint8(uint8(width))
	w.Bytes([]byte{0, 0, 0})

	if width == WidthOf[S]() && nativeLittleEndian {
		w.Bytes(scalarBytes(values))
		return
	}

	buf := make([]byte, 0, scalarChunk)
	for _, v := range values {
		buf = appendScalar(buf, v, width)
		if len(buf)+int(width) > cap(buf) {
			w.Bytes(buf)
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		w.Bytes(buf)
	}
}

// ReadScalarBlock reads a block written by WriteScalarBlock and converts its
// values to S element by element.
func ReadScalarBlock[S Scalar](r *Reader) (count uint64, components uint32, values []S) {
	count = r.Uint64()
	components = r.Uint32()
	width := Width(r.Uint8())
	var reserved [3]byte
	r.full(reserved[:])
	if r.err != nil {
		return 0, 0, nil
	}
	if reserved != [3]byte{} {
		r.Fail(fmt.Errorf("%w: scalar block", ErrReservedBits))
		return 0, 0, nil
	}
	if !width.Valid() {
		r.Fail(fmt.Errorf("%w: tag %d", ErrInvalidWidth, uint8(width)))
		return 0, 0, nil
	}

	total, err := conv.MulUint64(count, uint64(components))
	if err != nil {
		r.Fail(fmt.Errorf("%w: block of %dx%d scalars: %w", ErrPayloadSize, count, components, err))
		return 0, 0, nil
	}
	if total > r.remaining/uint64(width) {
		r.Fail(fmt.Errorf("%w: block of %d %s scalars exceeds %d remaining bytes", ErrPayloadSize, total, width, r.remaining))
		return 0, 0, nil
	}
	n, err := conv.Uint64ToInt(total)
	if err != nil {
		r.Fail(fmt.Errorf("%w: %w", ErrPayloadSize, err))
		return 0, 0, nil
	}

	values = make([]S, n)
	if width == WidthOf[S]() && nativeLittleEndian {
		if !r.full(scalarBytes(values)) {
			return 0, 0, nil
		}
		return count, components, values
	}

	step := int(width)
	buf := make([]byte, min(scalarChunk, n*step))
	per := len(buf) / step
	for i := 0; i < len(values); i += per {
		n := min(per, len(values)-i)
		chunk := buf[:n*step]
		if !r.full(chunk) {
			return 0, 0, nil
		}
		for j := range n {
			values[i+j] = decodeScalar[S](chunk[j*step:], width)
		}
	}
	return count, components, values
}

func appendScalar[S Scalar](dst []byte, v S, width Width) []byte {
	switch width {
	case WidthFloat16:
		return f16.AppendLE(dst, f16.FromFloat32(float32(v)))
	case WidthFloat32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v)))
	default:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(float64(v)))
	}
}

func decodeScalar[S Scalar](b []byte, width Width) S {
	switch width {
	case WidthFloat16:
		return S(f16.ToFloat32(f16.LE(b)))
	case WidthFloat32:
		return S(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		return S(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
}
