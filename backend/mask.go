package backend

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/internal/conv"
	"github.com/hupe1980/fieldgo/persistence"
)

// MaskConfig configures a Mask. Valid holds the linear indices that are
// delegated inward; every other index yields Fallback.
type MaskConfig[S persistence.Scalar] struct {
	Valid    *roaring.Bitmap
	Fallback []S
}

// Validate checks that a bitmap and a fallback element are present.
func (c MaskConfig[S]) Validate() error {
	if c.Valid == nil {
		return errors.New("nil validity bitmap")
	}
	if len(c.Fallback) == 0 {
		return errors.New("empty fallback value")
	}
	_, err := conv.IntToUint32(len(c.Fallback))
	return err
}

// Mask returns the inner element for indices in its validity bitmap and the
// fallback element otherwise. Indices above math.MaxUint32 are never valid.
type Mask[B fieldgo.Backend[uint64, []S], S persistence.Scalar] struct {
	valid    *roaring.Bitmap
	fallback []S
	inner    B
}

func (Mask[B, S]) Kind() fieldgo.Kind     { return fieldgo.KindMask }
func (Mask[B, S]) Initial() bool          { return false }
func (m Mask[B, S]) Inner() fieldgo.Layer { return m.inner }

func (m Mask[B, S]) Configuration() any {
	var valid *roaring.Bitmap
	if m.valid != nil {
		valid = m.valid.Clone()
	}
	return MaskConfig[S]{Valid: valid, Fallback: slices.Clone(m.fallback)}
}

// Valid reports whether index i is delegated inward.
func (m Mask[B, S]) Valid(i uint64) bool {
	return i <= math.MaxUint32 && m.valid.Contains(uint32(i))
}

// At returns the element at i, or the fallback when i is masked out. The
// fallback must not be modified.
func (m Mask[B, S]) At(i uint64) []S {
	if !m.Valid(i) {
		return m.fallback
	}
	return m.inner.At(i)
}

func (m Mask[B, S]) Lookup(i uint64, s *fieldgo.Scratch) []S {
	if !m.Valid(i) {
		return m.fallback
	}
	return m.inner.Lookup(i, s)
}

func (Mask[B, S]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, rest, err := fieldgo.PopConfig[MaskConfig[S]](fieldgo.KindMask, configs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindMask, configs, err)
	}
	inner, err := fieldgo.BuildInner[B](rest)
	if err != nil {
		return nil, err
	}
	return Mask[B, S]{valid: cfg.Valid.Clone(), fallback: slices.Clone(cfg.Fallback), inner: inner}, nil
}

// EncodePayload writes the serialized bitmap as a blob followed by the
// fallback as a one-element scalar block.
func (m Mask[B, S]) EncodePayload(w *persistence.Writer) error {
	data, err := m.valid.ToBytes()
	if err != nil {
		return err
	}
	w.Blob(data)
	persistence.WriteScalarBlock(w, 1, uint32(len(m.fallback)), m.fallback)
	return w.Err()
}

func (Mask[B, S]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var cfg MaskConfig[S]
	err := d.ReadLayer(uint16(fieldgo.KindMask), func(r *persistence.Reader) error {
		data := r.Blob()
		count, _, fallback := persistence.ReadScalarBlock[S](r)
		if err := r.Err(); err != nil {
			return err
		}
		valid := roaring.New()
		if err := valid.UnmarshalBinary(data); err != nil {
			return fieldgo.InvalidConfiguration(fieldgo.KindMask, nil, fmt.Errorf("validity bitmap: %w", err))
		}
		if count != 1 {
			return fieldgo.InvalidConfiguration(fieldgo.KindMask, nil, fmt.Errorf("expected one fallback element, got %d", count))
		}
		cfg = MaskConfig[S]{Valid: valid, Fallback: fallback}
		if err := cfg.Validate(); err != nil {
			return fieldgo.InvalidConfiguration(fieldgo.KindMask, nil, err)
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
	return Mask[B, S]{valid: cfg.Valid, fallback: cfg.Fallback, inner: inner}, nil
}
