package backend

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/persistence"
)

// StridedConfig configures a Strided layer.
type StridedConfig struct {
	Sizes []uint64 // extent of each dimension, slowest varying first
}

// Validate checks that every extent is positive and the volume fits in uint64.
func (c StridedConfig) Validate() error {
	if len(c.Sizes) == 0 {
		return errors.New("no dimensions")
	}
	volume := uint64(1)
	for i, s := range c.Sizes {
		if s == 0 {
			return fmt.Errorf("dimension %d: %w", i, ErrZeroSize)
		}
		if volume > math.MaxUint64/s {
			return fmt.Errorf("volume of %v overflows", c.Sizes)
		}
		volume *= s
	}
	return nil
}

// Volume returns the number of linear indices the layer addresses.
func (c StridedConfig) Volume() uint64 {
	volume := uint64(1)
	for _, s := range c.Sizes {
		volume *= s
	}
	return volume
}

// Strided maps a multi-index to the row-major linear index of its inner
// layer. The last coordinate varies fastest.
type Strided[B fieldgo.Backend[uint64, Out], Out any] struct {
	sizes   []uint64
	strides []uint64
	inner   B
}

func newStrided[B fieldgo.Backend[uint64, Out], Out any](cfg StridedConfig, inner B) Strided[B, Out] {
	sizes := slices.Clone(cfg.Sizes)
	strides := make([]uint64, len(sizes))
	stride := uint64(1)
	for i := len(sizes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= sizes[i]
	}
	return Strided[B, Out]{sizes: sizes, strides: strides, inner: inner}
}

func (Strided[B, Out]) Kind() fieldgo.Kind     { return fieldgo.KindStrided }
func (Strided[B, Out]) Initial() bool          { return false }
func (s Strided[B, Out]) Inner() fieldgo.Layer { return s.inner }

func (s Strided[B, Out]) Configuration() any {
	return StridedConfig{Sizes: slices.Clone(s.sizes)}
}

// Index returns the linear index of idx.
func (s Strided[B, Out]) Index(idx []uint64) uint64 {
	var linear uint64
	for i, stride := range s.strides {
		linear += idx[i] * stride
	}
	return linear
}

// At looks up the element at multi-index idx, which must hold one in-range
// coordinate per dimension.
func (s Strided[B, Out]) At(idx []uint64) Out { return s.inner.At(s.Index(idx)) }

func (s Strided[B, Out]) Lookup(idx []uint64, sc *fieldgo.Scratch) Out {
	return s.inner.Lookup(s.Index(idx), sc)
}

func (Strided[B, Out]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, rest, err := fieldgo.PopConfig[StridedConfig](fieldgo.KindStrided, configs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindStrided, configs, err)
	}
	inner, err := fieldgo.BuildInner[B](rest)
	if err != nil {
		return nil, err
	}
	return newStrided[B, Out](cfg, inner), nil
}

func (s Strided[B, Out]) EncodePayload(w *persistence.Writer) error {
	w.Uint64s(s.sizes)
	return w.Err()
}

func (Strided[B, Out]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var cfg StridedConfig
	err := d.ReadLayer(uint16(fieldgo.KindStrided), func(r *persistence.Reader) error {
		cfg.Sizes = r.Uint64s()
		if err := r.Err(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fieldgo.InvalidConfiguration(fieldgo.KindStrided, nil, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	inner, err := fieldgo.DecodeInner[B](d)
	if err != nil {
		return nil, err
	}
	return newStrided[B, Out](cfg, inner), nil
}
