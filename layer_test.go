package fieldgo_test

import (
	"bytes"
	"testing"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/backend"
	"github.com/hupe1980/fieldgo/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kindShift = fieldgo.KindUser + 1

type shiftConfig struct {
	By uint64
}

// shift is a transform defined outside the module: it adds By to the index.
type shift[B fieldgo.Backend[uint64, Out], Out any] struct {
	by    uint64
	inner B
}

func (shift[B, Out]) Kind() fieldgo.Kind     { return kindShift }
func (shift[B, Out]) Initial() bool          { return false }
func (s shift[B, Out]) Inner() fieldgo.Layer { return s.inner }
func (s shift[B, Out]) Configuration() any   { return shiftConfig{By: s.by} }
func (s shift[B, Out]) At(i uint64) Out      { return s.inner.At(i + s.by) }

func (s shift[B, Out]) Lookup(i uint64, sc *fieldgo.Scratch) Out { return s.inner.Lookup(i+s.by, sc) }

func (s shift[B, Out]) EncodePayload(w *persistence.Writer) error {
	w.Uint64(s.by)
	return w.Err()
}

func (shift[B, Out]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, rest, err := fieldgo.PopConfig[shiftConfig](kindShift, configs)
	if err != nil {
		return nil, err
	}
	inner, err := fieldgo.BuildInner[B](rest)
	if err != nil {
		return nil, err
	}
	return shift[B, Out]{by: cfg.By, inner: inner}, nil
}

func (shift[B, Out]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var by uint64
	err := d.ReadLayer(uint16(kindShift), func(r *persistence.Reader) error {
		by = r.Uint64()
		return r.Err()
	})
	if err != nil {
		return nil, err
	}
	inner, err := fieldgo.DecodeInner[B](d)
	if err != nil {
		return nil, err
	}
	return shift[B, Out]{by: by, inner: inner}, nil
}

type shifted = shift[backend.Array[float64], []float64]

func TestUserLayer(t *testing.T) {
	f, err := fieldgo.NewField[shifted](fieldgo.MakePack(
		shiftConfig{By: 2},
		backend.ArrayConfig{Size: 5, Components: 1},
	))
	require.NoError(t, err)
	copy(f.Backend().Inner().(backend.Array[float64]).Data(), []float64{10, 11, 12, 13, 14})

	v := fieldgo.NewView[uint64, []float64](f)
	assert.Equal(t, []float64{12}, v.At(0))
	assert.Equal(t, []float64{14}, v.At(2))

	var buf bytes.Buffer
	require.NoError(t, f.Dump(&buf))

	info, err := persistence.Inspect(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, info.Layers, 2)
	assert.Equal(t, uint16(kindShift), info.Layers[0].Header.Kind)
	assert.Equal(t, uint64(8), info.Layers[0].Header.Size)
	assert.Equal(t, int64(buf.Len()), info.Size)

	g, err := fieldgo.Load[shifted](&buf)
	require.NoError(t, err)
	w := fieldgo.NewView[uint64, []float64](g)
	assert.Equal(t, []float64{13}, w.At(1))
}

func TestPopConfig(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		_, _, err := fieldgo.PopConfig[shiftConfig](kindShift, nil)
		assert.ErrorIs(t, err, fieldgo.ErrConfiguration)
	})

	t.Run("WrongType", func(t *testing.T) {
		_, _, err := fieldgo.PopConfig[shiftConfig](kindShift, []any{"shift"})
		var ce *fieldgo.ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, kindShift, ce.Kind)
		assert.Contains(t, ce.Reason, "string")
	})

	t.Run("Rest", func(t *testing.T) {
		cfg, rest, err := fieldgo.PopConfig[shiftConfig](kindShift, []any{shiftConfig{By: 1}, 2})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), cfg.By)
		assert.Equal(t, []any{2}, rest)
	})
}
