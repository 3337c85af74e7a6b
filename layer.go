package fieldgo

import (
	"fmt"

	"github.com/hupe1980/fieldgo/persistence"
)

// Layer is one stage of a field chain: either a terminal leaf that stores or
// generates values, or a transform that wraps exactly one inner layer.
//
// Layers are value types. Every method must work on the zero value, where
// Inner returns the zero value of the inner layer type and Configuration the
// zero value of the configuration type; chain traits rely on this to walk a
// chain type without an instance.
type Layer interface {
	// Kind is the tag written into the layer's stream record.
	Kind() Kind
	// Initial reports whether the layer is a terminal leaf.
	Initial() bool
	// Inner returns the next inner layer, or nil for leaves.
	Inner() Layer
	// Configuration returns the layer's own plain parameters.
	Configuration() any

	// Build constructs the layer from configs[0] and its inner layer from
	// configs[1:].
	Build(configs []any) (Layer, error)
	// EncodePayload writes the layer's own payload.
	EncodePayload(w *persistence.Writer) error
	// Decode reads the layer's record and then the records of its inner layers.
	Decode(d *persistence.Decoder) (Layer, error)
}

// Backend is a layer that can be queried. Neither method may modify the
// chain.
//
// Lookup is At with intermediate coordinates taken from s, which it passes
// on to its inner layer. At is Lookup with a nil Scratch.
type Backend[In, Out any] interface {
	Layer
	At(in In) Out
	Lookup(in In, s *Scratch) Out
}

// PopConfig takes the head of configs as the configuration of a layer of the
// given kind.
func PopConfig[C any](kind Kind, configs []any) (C, []any, error) {
	var zero C
	if len(configs) == 0 {
		return zero, nil, &ConfigurationError{
			Layer:     -1,
			Kind:      kind,
			Reason:    fmt.Sprintf("missing %T", zero),
			remaining: 0,
		}
	}
	cfg, ok := configs[0].(C)
	if !ok {
		return zero, nil, &ConfigurationError{
			Layer:     -1,
			Kind:      kind,
			Reason:    fmt.Sprintf("expected %T, got %T", zero, configs[0]),
			remaining: len(configs),
		}
	}
	return cfg, configs[1:], nil
}

// BuildInner builds a layer of type B from configs through its zero value.
func BuildInner[B Layer](configs []any) (B, error) {
	var zero B
	l, err := zero.Build(configs)
	if err != nil {
		return zero, err
	}
	b, ok := l.(B)
	if !ok {
		return zero, fmt.Errorf("fieldgo: %T.Build returned %T", zero, l)
	}
	return b, nil
}

// DecodeInner decodes the next layer record into a layer of type B.
func DecodeInner[B Layer](d *persistence.Decoder) (B, error) {
	var zero B
	l, err := zero.Decode(d)
	if err != nil {
		return zero, err
	}
	b, ok := l.(B)
	if !ok {
		return zero, fmt.Errorf("fieldgo: %T.Decode returned %T", zero, l)
	}
	return b, nil
}
