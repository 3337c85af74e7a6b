package fieldgo

import (
	"reflect"
	"slices"
)

// Pack is the positional configuration of a chain: entry i configures the
// layer i steps inward from the outermost one. A pack is consumed by exactly
// one NewField.
type Pack struct {
	configs  []any
	consumed bool
}

// MakePack returns a pack holding configs, outer to inner.
func MakePack(configs ...any) *Pack {
	return &Pack{configs: slices.Clone(configs)}
}

// PackFor returns a pack for chain B, checking its length against Depth[B]
// and each entry against the configuration type of the layer it configures.
func PackFor[B Layer](configs ...any) (*Pack, error) {
	if err := checkShape[B](configs); err != nil {
		return nil, err
	}
	return MakePack(configs...), nil
}

// Prepend adds the configuration of an enclosing layer, so packs can be
// assembled from the leaf outward. It returns p.
func (p *Pack) Prepend(cfg any) *Pack {
	p.configs = slices.Insert(p.configs, 0, cfg)
	return p
}

// Len returns the number of entries.
func (p *Pack) Len() int { return len(p.configs) }

// At returns entry i, outer to inner.
func (p *Pack) At(i int) any { return p.configs[i] }

// Consumed reports whether a field has been built from p.
func (p *Pack) Consumed() bool { return p.consumed }

func (p *Pack) take() ([]any, error) {
	if p == nil {
		return nil, chainConfigurationError("nil pack")
	}
	if p.consumed {
		return nil, chainConfigurationError("pack already consumed")
	}
	p.consumed = true
	return p.configs, nil
}

func checkShape[B Layer](configs []any) error {
	depth := Depth[B]()
	if len(configs) != depth {
		return chainConfigurationError("pack has %d entries, chain depth is %d", len(configs), depth)
	}
	for i, cfg := range configs {
		l, ok := LayerAt[B](i)
		if !ok {
			break
		}
		want := reflect.TypeOf(l.Configuration())
		if got := reflect.TypeOf(cfg); want != nil && got != want {
			return &ConfigurationError{
				Layer:     i,
				Kind:      l.Kind(),
				Reason:    "expected " + want.String() + ", got " + typeName(got),
				remaining: -1,
			}
		}
	}
	return nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
