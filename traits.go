package fieldgo

import "reflect"

// Empty marks a chain position past the terminal leaf.
type Empty struct{}

var emptyType = reflect.TypeFor[Empty]()

// Depth returns the number of layers from B to and including its leaf.
func Depth[B Layer]() int {
	var b B
	return DepthOf(b)
}

// DepthOf returns the number of layers from l to and including its leaf.
func DepthOf(l Layer) int {
	n := 0
	for l != nil {
		n++
		if l.Initial() {
			break
		}
		l = l.Inner()
	}
	return n
}

// LayerAt returns the zero value of the layer n steps inward from B, where 0
// is B itself. ok is false when no such layer exists.
func LayerAt[B Layer](n int) (Layer, bool) {
	if n < 0 {
		return nil, false
	}
	var b B
	var l Layer = b
	for ; n > 0; n-- {
		if l.Initial() {
			return nil, false
		}
		if l = l.Inner(); l == nil {
			return nil, false
		}
	}
	return l, true
}

// NthLayer returns the type of the layer n steps inward from B, or the type
// of Empty when n is outside the chain.
func NthLayer[B Layer](n int) reflect.Type {
	l, ok := LayerAt[B](n)
	if !ok {
		return emptyType
	}
	return reflect.TypeOf(l)
}

// IsEmpty reports whether t is the marker NthLayer returns past the leaf.
func IsEmpty(t reflect.Type) bool { return t == emptyType }

// Layers returns the layers of an instantiated chain, outer to inner.
func Layers(l Layer) []Layer {
	out := make([]Layer, 0, DepthOf(l))
	for l != nil {
		out = append(out, l)
		if l.Initial() {
			break
		}
		l = l.Inner()
	}
	return out
}
