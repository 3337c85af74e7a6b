package persistence

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlock[S Scalar](t *testing.T, width Width, count uint64, components uint32, values []S) []byte {
	t.Helper()
	return encodeLayers(t, width, func(w *Writer) error {
		WriteScalarBlock(w, count, components, values)
		return nil
	})
}

func readBlock[S Scalar](data []byte) (uint64, uint32, []S, error) {
	var (
		count      uint64
		components uint32
		values     []S
	)
	err := decodeLayers(data, func(r *Reader) error {
		count, components, values = ReadScalarBlock[S](r)
		return nil
	})
	return count, components, values, err
}

func ramp[S Scalar](n int) []S {
	vs := make([]S, n)
	for i := range vs {
		vs[i] = S(i) - S(n/2)
	}
	return vs
}

func TestWidthOf(t *testing.T) {
	type meters float32
	assert.Equal(t, WidthFloat32, WidthOf[float32]())
	assert.Equal(t, WidthFloat64, WidthOf[float64]())
	assert.Equal(t, WidthFloat32, WidthOf[meters]())
}

func TestScalarBlock(t *testing.T) {
	t.Run("Layout", func(t *testing.T) {
		data := writeBlock(t, WidthNative, 2, 1, []float32{1, 2})
		block := data[FileHeaderSize+LayerHeaderSize:]
		require.Len(t, block, int(ScalarBlockSize(2, WidthFloat32)))
		assert.Equal(t, byte(WidthFloat32), block[12])
		assert.Equal(t, []byte{0, 0, 0}, block[13:16])
	})

	t.Run("NativeRoundTrip", func(t *testing.T) {
		values := ramp[float64](30)
		count, components, got, err := readBlock[float64](writeBlock(t, WidthNative, 10, 3, values))
		require.NoError(t, err)
		assert.Equal(t, uint64(10), count)
		assert.Equal(t, uint32(3), components)
		assert.Equal(t, values, got)
	})

	t.Run("Widen", func(t *testing.T) {
		_, _, got, err := readBlock[float64](writeBlock(t, WidthNative, 5, 1, ramp[float32](5)))
		require.NoError(t, err)
		assert.Equal(t, ramp[float64](5), got)
	})

	t.Run("Narrow", func(t *testing.T) {
		_, _, got, err := readBlock[float32](writeBlock(t, WidthNative, 5, 1, ramp[float64](5)))
		require.NoError(t, err)
		assert.Equal(t, ramp[float32](5), got)
	})

	t.Run("ExplicitWidths", func(t *testing.T) {
		values := ramp[float64](64)
		for _, width := range []Width{WidthFloat16, WidthFloat32, WidthFloat64} {
			data := writeBlock(t, width, 64, 1, values)
			assert.Len(t, data, FileHeaderSize+LayerHeaderSize+int(ScalarBlockSize(64, width)))

			_, _, got, err := readBlock[float64](data)
			require.NoError(t, err, width.String())
			assert.Equal(t, values, got, width.String())
		}
	})

	t.Run("Float16Rounds", func(t *testing.T) {
		_, _, got, err := readBlock[float32](writeBlock(t, WidthFloat16, 1, 2, []float32{1.0 / 3, 70000}))
		require.NoError(t, err)
		assert.InDelta(t, 1.0/3, got[0], 1e-3)
		assert.True(t, math.IsInf(float64(got[1]), 1))
	})

	t.Run("ChunkedConversion", func(t *testing.T) {
		n := 3*scalarChunk/4 + 17
		values := ramp[float64](n)
		_, _, got, err := readBlock[float64](writeBlock(t, WidthFloat32, uint64(n), 1, values))
		require.NoError(t, err)
		assert.Equal(t, values, got)
	})

	t.Run("Empty", func(t *testing.T) {
		count, _, got, err := readBlock[float32](writeBlock[float32](t, WidthNative, 0, 4, nil))
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, got)
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		e := NewEncoder(&bytes.Buffer{})
		require.NoError(t, e.WriteFileHeader(1))
		err := e.WriteLayer(testKind, func(w *Writer) error {
			WriteScalarBlock(w, 3, 2, []float32{1, 2, 3})
			return nil
		})
		assert.ErrorIs(t, err, ErrPayloadSize)
	})

	t.Run("InvalidWidthTag", func(t *testing.T) {
		data := writeBlock(t, WidthNative, 1, 1, []float32{1})
		block := FileHeaderSize + LayerHeaderSize
		data[block+12] = 3
		_, _, _, err := readBlock[float32](data)
		assert.ErrorIs(t, err, ErrInvalidWidth)
	})

	t.Run("ReservedBytes", func(t *testing.T) {
		data := writeBlock(t, WidthNative, 1, 1, []float32{1})
		data[FileHeaderSize+LayerHeaderSize+14] = 1
		_, _, _, err := readBlock[float32](data)
		assert.ErrorIs(t, err, ErrReservedBits)
	})

	t.Run("CountExceedsPayload", func(t *testing.T) {
		data := writeBlock(t, WidthNative, 2, 1, []float32{1, 2})
		data[FileHeaderSize+LayerHeaderSize] = 200
		_, _, _, err := readBlock[float32](data)
		assert.ErrorIs(t, err, ErrPayloadSize)
	})

	t.Run("InvalidWriterWidth", func(t *testing.T) {
		assert.ErrorIs(t, NewEncoder(&bytes.Buffer{}).SetScalarWidth(3), ErrInvalidWidth)
	})
}

func TestParseWidth(t *testing.T) {
	for _, w := range []Width{WidthNative, WidthFloat16, WidthFloat32, WidthFloat64} {
		got, err := ParseWidth(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	_, err := ParseWidth("float128")
	assert.ErrorIs(t, err, ErrInvalidWidth)
}
