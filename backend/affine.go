package backend

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/persistence"
)

// AffineConfig configures an Affine layer. Matrix holds Dimensions rows of
// Dimensions+1 values, row-major; the last column is the translation.
type AffineConfig struct {
	Dimensions uint32
	Matrix     []float64
}

// Validate checks the matrix shape and that every entry is finite.
func (c AffineConfig) Validate() error {
	if c.Dimensions == 0 {
		return errors.New("dimensions must be positive")
	}
	// Dimensions fits in 32 bits, so the entry count cannot wrap in 64.
	n := uint64(c.Dimensions)
	if uint64(len(c.Matrix)) != n*(n+1) {
		return fmt.Errorf("matrix has %d entries, want %dx%d", len(c.Matrix), n, n+1)
	}
	for i, v := range c.Matrix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("matrix entry %d is not finite", i)
		}
	}
	return nil
}

// IdentityMatrix returns the n x (n+1) matrix that leaves coordinates unchanged.
func IdentityMatrix(n int) []float64 {
	m := make([]float64, n*(n+1))
	for i := range n {
		m[i*(n+1)+i] = 1
	}
	return m
}

// Affine maps coordinates x to M*[x 1] before delegating inward.
type Affine[B fieldgo.Backend[[]float64, Out], Out any] struct {
	dims   int
	matrix []float64
	inner  B
}

func (Affine[B, Out]) Kind() fieldgo.Kind     { return fieldgo.KindAffine }
func (Affine[B, Out]) Initial() bool          { return false }
func (a Affine[B, Out]) Inner() fieldgo.Layer { return a.inner }

func (a Affine[B, Out]) Configuration() any {
	return AffineConfig{Dimensions: uint32(a.dims), Matrix: slices.Clone(a.matrix)}
}

// Transform writes the transformed coordinates of x into dst and returns it.
func (a Affine[B, Out]) Transform(dst, x []float64) []float64 {
	n := a.dims
	for i := range n {
		row := a.matrix[i*(n+1) : (i+1)*(n+1)]
		s := row[n]
		for j, v := range x[:n] {
			s += row[j] * v
		}
		dst = append(dst, s)
	}
	return dst
}

// At looks up the element at the transformed position of x.
func (a Affine[B, Out]) At(x []float64) Out { return a.Lookup(x, nil) }

func (a Affine[B, Out]) Lookup(x []float64, s *fieldgo.Scratch) Out {
	return a.inner.Lookup(a.Transform(s.Float64s(a.dims), x), s)
}

func (Affine[B, Out]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, rest, err := fieldgo.PopConfig[AffineConfig](fieldgo.KindAffine, configs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindAffine, configs, err)
	}
	inner, err := fieldgo.BuildInner[B](rest)
	if err != nil {
		return nil, err
	}
	return newAffine[B, Out](cfg, inner), nil
}

func newAffine[B fieldgo.Backend[[]float64, Out], Out any](cfg AffineConfig, inner B) Affine[B, Out] {
	return Affine[B, Out]{dims: int(cfg.Dimensions), matrix: slices.Clone(cfg.Matrix), inner: inner}
}

func (a Affine[B, Out]) EncodePayload(w *persistence.Writer) error {
	w.Uint32(uint32(a.dims))
	w.Float64s(a.matrix)
	return w.Err()
}

func (Affine[B, Out]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var cfg AffineConfig
	err := d.ReadLayer(uint16(fieldgo.KindAffine), func(r *persistence.Reader) error {
		cfg.Dimensions = r.Uint32()
		cfg.Matrix = r.Float64s()
		if err := r.Err(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fieldgo.InvalidConfiguration(fieldgo.KindAffine, nil, err)
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
	return newAffine[B, Out](cfg, inner), nil
}
