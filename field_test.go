package fieldgo_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/backend"
	"github.com/hupe1980/fieldgo/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grid = backend.NearestNeighbour[backend.Strided[backend.Array[float64], []float64], []float64]

func gridPack() *fieldgo.Pack {
	return fieldgo.MakePack(
		backend.NearestNeighbourConfig{Dimensions: 2},
		backend.StridedConfig{Sizes: []uint64{3, 4}},
		backend.ArrayConfig{Size: 12, Components: 3},
	)
}

func newIota[S persistence.Scalar](t *testing.T, size uint64) *fieldgo.Field[backend.Array[S]] {
	t.Helper()
	f, err := fieldgo.NewField[backend.Array[S]](fieldgo.MakePack(backend.ArrayConfig{Size: size, Components: 1}))
	require.NoError(t, err)
	v := fieldgo.NewView[uint64, []S](f)
	for i := uint64(0); i < size; i++ {
		v.At(i)[0] = S(i)
	}
	return f
}

func dump[B fieldgo.Layer](t *testing.T, f *fieldgo.Field[B], opts ...fieldgo.Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Dump(&buf, opts...))
	return buf.Bytes()
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCrossWidth(t *testing.T) {
	t.Run("Float32ToFloat64", func(t *testing.T) {
		data := dump(t, newIota[float32](t, 5))

		g, err := fieldgo.Load[backend.Array[float64]](bytes.NewReader(data))
		require.NoError(t, err)
		for i := uint64(0); i < 5; i++ {
			assert.Equal(t, float64(i), g.Backend().At(i)[0])
		}
	})

	t.Run("Float64ToFloat32", func(t *testing.T) {
		data := dump(t, newIota[float64](t, 5))

		g, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(data))
		require.NoError(t, err)
		for i := uint64(0); i < 5; i++ {
			assert.Equal(t, float32(i), g.Backend().At(i)[0])
		}
	})

	t.Run("Float16Storage", func(t *testing.T) {
		f := newIota[float32](t, 5)
		half := dump(t, f, fieldgo.WithScalarWidth(persistence.WidthFloat16))
		full := dump(t, f)
		assert.Less(t, len(half), len(full))

		g, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(half))
		require.NoError(t, err)
		assert.Equal(t, f.Backend().Data(), g.Backend().Data())
	})

	t.Run("InvalidWidth", func(t *testing.T) {
		err := newIota[float32](t, 5).Dump(&bytes.Buffer{}, fieldgo.WithScalarWidth(3))
		assert.ErrorIs(t, err, fieldgo.ErrConfiguration)
	})
}

func TestRoundTrip(t *testing.T) {
	f, err := fieldgo.NewField[grid](gridPack())
	require.NoError(t, err)
	data := f.Backend().Inner().Inner().(backend.Array[float64]).Data()
	for i := range data {
		data[i] = float64(i) * 0.25
	}

	g, err := fieldgo.Load[grid](bytes.NewReader(dump(t, f)))
	require.NoError(t, err)
	assert.Equal(t, 3, g.Depth())

	v, w := fieldgo.NewView[[]float64, []float64](f), fieldgo.NewView[[]float64, []float64](g)
	for x := 0.0; x <= 2; x += 0.5 {
		for y := 0.0; y <= 3; y += 0.5 {
			assert.Equal(t, v.At([]float64{x, y}), w.At([]float64{x, y}))
		}
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("EmptyStream", func(t *testing.T) {
		f, err := fieldgo.Load[backend.Array[float64]](bytes.NewReader(nil))
		assert.Nil(t, f)
		assert.ErrorIs(t, err, fieldgo.ErrIO)

		var ioErr *fieldgo.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "load", ioErr.Op)
	})

	t.Run("UnreadableStream", func(t *testing.T) {
		errDisk := errors.New("disk")
		f, err := fieldgo.Load[backend.Array[float64]](iotest.ErrReader(errDisk))
		assert.Nil(t, f)
		assert.ErrorIs(t, err, fieldgo.ErrIO)
		assert.ErrorIs(t, err, errDisk)
	})

	t.Run("Truncated", func(t *testing.T) {
		data := dump(t, newIota[float32](t, 5))
		_, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(data[:len(data)-3]))
		assert.ErrorIs(t, err, fieldgo.ErrIO)
	})

	t.Run("BadMagic", func(t *testing.T) {
		data := dump(t, newIota[float32](t, 5))
		data[0] ^= 0xFF
		_, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(data))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.ErrorIs(t, err, persistence.ErrInvalidMagic)

		var fe *fieldgo.FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, -1, fe.Layer)
	})

	t.Run("Corrupted", func(t *testing.T) {
		data := dump(t, newIota[float32](t, 5))
		data[len(data)-1] ^= 0x01
		_, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(data))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.True(t, persistence.IsChecksumMismatch(err))

		var fe *fieldgo.FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 0, fe.Layer)
	})

	t.Run("DeclaredSizeTooLarge", func(t *testing.T) {
		data := dump(t, newIota[float32](t, 5))
		sizeAt := persistence.FileHeaderSize + 8
		size := binary.LittleEndian.Uint64(data[sizeAt:])
		binary.LittleEndian.PutUint64(data[sizeAt:], size+8)
		data = append(data, make([]byte, 8)...)

		_, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(data))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.ErrorIs(t, err, persistence.ErrPayloadSize)
	})

	t.Run("DeclaredSizeTooSmall", func(t *testing.T) {
		data := dump(t, newIota[float32](t, 5))
		sizeAt := persistence.FileHeaderSize + 8
		size := binary.LittleEndian.Uint64(data[sizeAt:])
		binary.LittleEndian.PutUint64(data[sizeAt:], size-4)

		_, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(data))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.ErrorIs(t, err, persistence.ErrPayloadSize)
	})

	t.Run("DepthMismatch", func(t *testing.T) {
		data := dump(t, newIota[float64](t, 12))
		_, err := fieldgo.Load[grid](bytes.NewReader(data))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.ErrorIs(t, err, persistence.ErrInvalidDepth)
	})

	t.Run("KindMismatch", func(t *testing.T) {
		f, err := fieldgo.NewField[backend.Constant[uint64, float64]](fieldgo.MakePack(
			backend.ConstantConfig[float64]{Value: []float64{1}},
		))
		require.NoError(t, err)

		_, err = fieldgo.Load[backend.Array[float64]](bytes.NewReader(dump(t, f)))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.ErrorIs(t, err, persistence.ErrKindMismatch)
	})

	t.Run("RejectedConfiguration", func(t *testing.T) {
		data := dump(t, newIota[float32](t, 5))
		// Zero the element count of the array and of its scalar block.
		payload := persistence.FileHeaderSize + persistence.LayerHeaderSize
		binary.LittleEndian.PutUint64(data[payload:], 0)
		binary.LittleEndian.PutUint64(data[payload+8:], 0)

		_, err := fieldgo.Load[backend.Array[float32]](bytes.NewReader(data))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.ErrorIs(t, err, backend.ErrZeroSize)
		assert.NotErrorIs(t, err, fieldgo.ErrConfiguration)
	})
}

func TestDumpErrors(t *testing.T) {
	err := newIota[float32](t, 5).Dump(failingWriter{})
	assert.ErrorIs(t, err, fieldgo.ErrIO)

	var ioErr *fieldgo.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "dump", ioErr.Op)
}

func TestFiles(t *testing.T) {
	f := newIota[float64](t, 64)

	for _, c := range []persistence.CompressionType{
		persistence.CompressionNone,
		persistence.CompressionLZ4,
		persistence.CompressionZSTD,
	} {
		t.Run(c.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "field.fld")
			require.NoError(t, f.SaveFile(path, fieldgo.WithCompression(c)))

			g, err := fieldgo.LoadFile[backend.Array[float64]](path)
			require.NoError(t, err)
			assert.Equal(t, f.Backend().Data(), g.Backend().Data())
		})
	}

	t.Run("Plain", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "field.fld")
		require.NoError(t, f.SaveFile(path))

		g, err := fieldgo.LoadFile[backend.Array[float32]](path)
		require.NoError(t, err)
		assert.Equal(t, float32(63), g.Backend().At(63)[0])
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := fieldgo.LoadFile[backend.Array[float64]](filepath.Join(t.TempDir(), "missing.fld"))
		assert.ErrorIs(t, err, fieldgo.ErrIO)

		var ioErr *fieldgo.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "open", ioErr.Op)
	})

	t.Run("TrailingData", func(t *testing.T) {
		data := append(dump(t, f), 0xde, 0xad)
		path := filepath.Join(t.TempDir(), "field.fld")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		_, err := fieldgo.LoadFile[backend.Array[float64]](path)
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
		assert.ErrorIs(t, err, persistence.ErrTrailingData)

		// A bare stream may be followed by other data.
		r := bytes.NewReader(data)
		_, err = fieldgo.Load[backend.Array[float64]](r)
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())
	})

	t.Run("TrailingDataInsideEnvelope", func(t *testing.T) {
		var buf bytes.Buffer
		cw, err := persistence.NewCompressedWriter(&buf, persistence.CompressionZSTD)
		require.NoError(t, err)
		_, err = cw.Write(append(dump(t, f), 0))
		require.NoError(t, err)
		require.NoError(t, cw.Close())

		path := filepath.Join(t.TempDir(), "field.fldz")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
		_, err = fieldgo.LoadFile[backend.Array[float64]](path)
		assert.ErrorIs(t, err, persistence.ErrTrailingData)
	})

	t.Run("EnvelopeNeedsLoadFile", func(t *testing.T) {
		data := dump(t, f, fieldgo.WithCompression(persistence.CompressionLZ4))
		_, err := fieldgo.Load[backend.Array[float64]](bytes.NewReader(data))
		assert.ErrorIs(t, err, fieldgo.ErrFormat)
	})
}

func TestObservability(t *testing.T) {
	var logs bytes.Buffer
	logger := fieldgo.NewLogger(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mc := &fieldgo.BasicMetricsCollector{}
	opts := []fieldgo.Option{fieldgo.WithLogger(logger), fieldgo.WithMetricsCollector(mc)}

	f, err := fieldgo.NewField[grid](gridPack(), opts...)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Dump(&buf, opts...))
	size := int64(buf.Len())

	_, err = fieldgo.Load[grid](&buf, opts...)
	require.NoError(t, err)

	_, err = fieldgo.Load[grid](bytes.NewReader(nil), opts...)
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(0), stats.BuildErrors)
	assert.Equal(t, int64(1), stats.DumpCount)
	assert.Equal(t, size, stats.DumpBytes)
	assert.Equal(t, int64(2), stats.LoadCount)
	assert.Equal(t, int64(1), stats.LoadErrors)
	assert.Equal(t, size, stats.LoadBytes)

	out := logs.String()
	assert.Contains(t, out, "field built")
	assert.Contains(t, out, "field dumped")
	assert.Contains(t, out, "field loaded")
	assert.Contains(t, out, "field load failed")
}
