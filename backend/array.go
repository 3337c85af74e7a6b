package backend

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/persistence"
)

var (
	// ErrZeroSize is returned when a storage layer is configured without elements.
	ErrZeroSize = errors.New("size must be positive")
	// ErrZeroComponents is returned when elements are configured without scalars.
	ErrZeroComponents = errors.New("components must be positive")
)

// ArrayConfig configures an Array.
type ArrayConfig struct {
	Size       uint64 // number of elements
	Components uint32 // scalars per element
}

// Validate checks that the array is non-empty and addressable.
func (c ArrayConfig) Validate() error {
	if c.Size == 0 {
		return ErrZeroSize
	}
	if c.Components == 0 {
		return ErrZeroComponents
	}
	if c.Size > math.MaxInt/uint64(c.Components) {
		return fmt.Errorf("array of %dx%d scalars is not addressable", c.Size, c.Components)
	}
	return nil
}

// Array is a dense storage leaf. Element i occupies the scalars
// [i*Components, (i+1)*Components) of a single owned buffer.
type Array[S persistence.Scalar] struct {
	cfg  ArrayConfig
	data []S
}

var _ fieldgo.Backend[uint64, []float32] = Array[float32]{}

// NewArray returns a zero-filled array.
func NewArray[S persistence.Scalar](cfg ArrayConfig) (Array[S], error) {
	if err := cfg.Validate(); err != nil {
		return Array[S]{}, err
	}
	return Array[S]{cfg: cfg, data: make([]S, cfg.Size*uint64(cfg.Components))}, nil
}

func (Array[S]) Kind() fieldgo.Kind   { return fieldgo.KindArray }
func (Array[S]) Initial() bool        { return true }
func (Array[S]) Inner() fieldgo.Layer { return nil }
func (a Array[S]) Configuration() any { return a.cfg }

// Size returns the number of elements.
func (a Array[S]) Size() uint64 { return a.cfg.Size }

// Components returns the number of scalars per element.
func (a Array[S]) Components() uint32 { return a.cfg.Components }

// Data returns the flat storage buffer.
func (a Array[S]) Data() []S { return a.data }

// At returns element i as a slice into storage; writing to it updates the
// array. i must be below Size.
func (a Array[S]) At(i uint64) []S {
	c := uint64(a.cfg.Components)
	return a.data[i*c : (i+1)*c : (i+1)*c]
}

func (a Array[S]) Lookup(i uint64, _ *fieldgo.Scratch) []S { return a.At(i) }

func (Array[S]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, _, err := fieldgo.PopConfig[ArrayConfig](fieldgo.KindArray, configs)
	if err != nil {
		return nil, err
	}
	a, err := NewArray[S](cfg)
	if err != nil {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindArray, configs, err)
	}
	return a, nil
}

// EncodePayload writes Size followed by a scalar block of the elements.
func (a Array[S]) EncodePayload(w *persistence.Writer) error {
	w.Uint64(a.cfg.Size)
	persistence.WriteScalarBlock(w, a.cfg.Size, a.cfg.Components, a.data)
	return w.Err()
}

func (Array[S]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var a Array[S]
	err := d.ReadLayer(uint16(fieldgo.KindArray), func(r *persistence.Reader) error {
		size := r.Uint64()
		count, components, values := persistence.ReadScalarBlock[S](r)
		if err := r.Err(); err != nil {
			return err
		}
		if count != size {
			return fmt.Errorf("%w: array of %d elements carries a block of %d", persistence.ErrPayloadSize, size, count)
		}
		cfg := ArrayConfig{Size: size, Components: components}
		if err := cfg.Validate(); err != nil {
			return fieldgo.InvalidConfiguration(fieldgo.KindArray, nil, err)
		}
		a = Array[S]{cfg: cfg, data: values}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
