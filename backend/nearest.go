package backend

import (
	"errors"
	"math"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/persistence"
)

// NearestNeighbourConfig configures a NearestNeighbour layer.
type NearestNeighbourConfig struct {
	Dimensions uint32
}

// Validate checks that at least one dimension is configured.
func (c NearestNeighbourConfig) Validate() error {
	if c.Dimensions == 0 {
		return errors.New("dimensions must be positive")
	}
	return nil
}

// NearestNeighbour rounds each continuous coordinate to the nearest
// non-negative integer index before delegating inward.
type NearestNeighbour[B fieldgo.Backend[[]uint64, Out], Out any] struct {
	dims  uint32
	inner B
}

func (NearestNeighbour[B, Out]) Kind() fieldgo.Kind     { return fieldgo.KindNearestNeighbour }
func (NearestNeighbour[B, Out]) Initial() bool          { return false }
func (n NearestNeighbour[B, Out]) Inner() fieldgo.Layer { return n.inner }

func (n NearestNeighbour[B, Out]) Configuration() any {
	return NearestNeighbourConfig{Dimensions: n.dims}
}

// At looks up the element nearest to x, which must hold Dimensions values.
func (n NearestNeighbour[B, Out]) At(x []float64) Out { return n.Lookup(x, nil) }

func (n NearestNeighbour[B, Out]) Lookup(x []float64, s *fieldgo.Scratch) Out {
	idx := s.Uint64s(int(n.dims))
	for _, v := range x[:n.dims] {
		idx = append(idx, nearestIndex(v))
	}
	return n.inner.Lookup(idx, s)
}

// nearestIndex rounds half away from zero; negative and NaN inputs map to 0.
func nearestIndex(v float64) uint64 {
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint64:
		return math.MaxUint64
	default:
		return uint64(math.Round(v))
	}
}

func (NearestNeighbour[B, Out]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, rest, err := fieldgo.PopConfig[NearestNeighbourConfig](fieldgo.KindNearestNeighbour, configs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindNearestNeighbour, configs, err)
	}
	inner, err := fieldgo.BuildInner[B](rest)
	if err != nil {
		return nil, err
	}
	return NearestNeighbour[B, Out]{dims: cfg.Dimensions, inner: inner}, nil
}

func (n NearestNeighbour[B, Out]) EncodePayload(w *persistence.Writer) error {
	w.Uint32(n.dims)
	return w.Err()
}

func (NearestNeighbour[B, Out]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var cfg NearestNeighbourConfig
	err := d.ReadLayer(uint16(fieldgo.KindNearestNeighbour), func(r *persistence.Reader) error {
		cfg.Dimensions = r.Uint32()
		if err := r.Err(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fieldgo.InvalidConfiguration(fieldgo.KindNearestNeighbour, nil, err)
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
	return NearestNeighbour[B, Out]{dims: cfg.Dimensions, inner: inner}, nil
}
