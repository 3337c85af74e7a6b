package backend

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/persistence"
)

// ClampConfig configures a Clamp layer with the corners of a box.
type ClampConfig struct {
	Min []float64
	Max []float64
}

// Validate checks that Min and Max describe a non-empty box.
func (c ClampConfig) Validate() error {
	if len(c.Min) == 0 {
		return errors.New("no dimensions")
	}
	if len(c.Min) != len(c.Max) {
		return fmt.Errorf("min has %d dimensions, max %d", len(c.Min), len(c.Max))
	}
	for i := range c.Min {
		if !(c.Min[i] <= c.Max[i]) {
			return fmt.Errorf("dimension %d: min %v exceeds max %v", i, c.Min[i], c.Max[i])
		}
	}
	return nil
}

// Clamp limits each coordinate to [Min, Max] before delegating inward.
type Clamp[B fieldgo.Backend[[]float64, Out], Out any] struct {
	lo    []float64
	hi    []float64
	inner B
}

func (Clamp[B, Out]) Kind() fieldgo.Kind     { return fieldgo.KindClamp }
func (Clamp[B, Out]) Initial() bool          { return false }
func (c Clamp[B, Out]) Inner() fieldgo.Layer { return c.inner }

func (c Clamp[B, Out]) Configuration() any {
	return ClampConfig{Min: slices.Clone(c.lo), Max: slices.Clone(c.hi)}
}

// At looks up the element at x clamped into the box.
func (c Clamp[B, Out]) At(x []float64) Out { return c.Lookup(x, nil) }

func (c Clamp[B, Out]) Lookup(x []float64, s *fieldgo.Scratch) Out {
	dst := s.Float64s(len(c.lo))
	for i, v := range x[:len(c.lo)] {
		dst = append(dst, min(max(v, c.lo[i]), c.hi[i]))
	}
	return c.inner.Lookup(dst, s)
}

func (Clamp[B, Out]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, rest, err := fieldgo.PopConfig[ClampConfig](fieldgo.KindClamp, configs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindClamp, configs, err)
	}
	inner, err := fieldgo.BuildInner[B](rest)
	if err != nil {
		return nil, err
	}
	return Clamp[B, Out]{lo: slices.Clone(cfg.Min), hi: slices.Clone(cfg.Max), inner: inner}, nil
}

func (c Clamp[B, Out]) EncodePayload(w *persistence.Writer) error {
	w.Float64s(c.lo)
	w.Float64s(c.hi)
	return w.Err()
}

func (Clamp[B, Out]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var cfg ClampConfig
	err := d.ReadLayer(uint16(fieldgo.KindClamp), func(r *persistence.Reader) error {
		cfg.Min = r.Float64s()
		cfg.Max = r.Float64s()
		if err := r.Err(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fieldgo.InvalidConfiguration(fieldgo.KindClamp, nil, err)
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
	return Clamp[B, Out]{lo: cfg.Min, hi: cfg.Max, inner: inner}, nil
}
