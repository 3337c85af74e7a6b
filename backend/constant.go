package backend

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/internal/conv"
	"github.com/hupe1980/fieldgo/persistence"
)

// ConstantConfig configures a Constant.
type ConstantConfig[S persistence.Scalar] struct {
	Value []S
}

// Constant is a leaf that yields Value for every coordinate. In is the
// coordinate type of the enclosing layer.
type Constant[In any, S persistence.Scalar] struct {
	value []S
}

var _ fieldgo.Backend[uint64, []float64] = Constant[uint64, float64]{}

func (Constant[In, S]) Kind() fieldgo.Kind   { return fieldgo.KindConstant }
func (Constant[In, S]) Initial() bool        { return true }
func (Constant[In, S]) Inner() fieldgo.Layer { return nil }

func (c Constant[In, S]) Configuration() any {
	return ConstantConfig[S]{Value: slices.Clone(c.value)}
}

// At returns the constant element. Callers must not modify it.
func (c Constant[In, S]) At(In) []S                       { return c.value }
func (c Constant[In, S]) Lookup(In, *fieldgo.Scratch) []S { return c.value }

func (Constant[In, S]) Build(configs []any) (fieldgo.Layer, error) {
	cfg, _, err := fieldgo.PopConfig[ConstantConfig[S]](fieldgo.KindConstant, configs)
	if err != nil {
		return nil, err
	}
	if len(cfg.Value) == 0 {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindConstant, configs, errors.New("empty value"))
	}
	if _, err := conv.IntToUint32(len(cfg.Value)); err != nil {
		return nil, fieldgo.InvalidConfiguration(fieldgo.KindConstant, configs, err)
	}
	return Constant[In, S]{value: slices.Clone(cfg.Value)}, nil
}

// EncodePayload writes the value as a one-element scalar block.
func (c Constant[In, S]) EncodePayload(w *persistence.Writer) error {
	persistence.WriteScalarBlock(w, 1, uint32(len(c.value)), c.value)
	return w.Err()
}

func (Constant[In, S]) Decode(d *persistence.Decoder) (fieldgo.Layer, error) {
	var c Constant[In, S]
	err := d.ReadLayer(uint16(fieldgo.KindConstant), func(r *persistence.Reader) error {
		count, components, values := persistence.ReadScalarBlock[S](r)
		if err := r.Err(); err != nil {
			return err
		}
		if count != 1 || components == 0 {
			return fieldgo.InvalidConfiguration(fieldgo.KindConstant, nil, fmt.Errorf("expected one element, got %dx%d", count, components))
		}
		c.value = values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
