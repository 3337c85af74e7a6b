package fieldgo

// View is a copyable, non-owning lookup handle over a field's chain. It must
// not outlive the field.
//
// A View carries the scratch memory its transforms work in, so one View must
// not be used by several goroutines at once. Copy it instead: each copy owns
// its scratch, and copies may look up concurrently as long as nothing
// mutates the leaf's storage.
type View[In, Out any, B Backend[In, Out]] struct {
	backend B
	scratch Scratch
}

// NewView binds a view to f. In and Out name the chain's coordinate and
// output types; B is inferred:
//
//	v := fieldgo.NewView[uint64, []float32](f)
func NewView[In, Out any, B Backend[In, Out]](f *Field[B]) View[In, Out, B] {
	return View[In, Out, B]{backend: f.backend}
}

// At looks up the value at in through every layer of the chain. Chains whose
// transforms need no more than ScratchLen intermediate coordinates of each
// type do not allocate.
func (v *View[In, Out, B]) At(in In) Out {
	v.scratch.reset()
	return v.backend.Lookup(in, &v.scratch)
}

// Backend returns the bound chain.
func (v *View[In, Out, B]) Backend() B { return v.backend }

// ScratchLen is the number of float64 and of uint64 coordinates a View lends
// to its chain per lookup.
const ScratchLen = 32

// Scratch is working memory for the intermediate coordinates of one lookup.
// Transforms carve their buffers from it in chain order, so a buffer stays
// valid while inner layers carve theirs. The zero value is ready to use and
// a nil Scratch allocates.
type Scratch struct {
	floats [ScratchLen]float64
	ints   [ScratchLen]uint64
	nf, ni int
}

func (s *Scratch) reset() { s.nf, s.ni = 0, 0 }

// Float64s returns an empty slice with capacity n.
func (s *Scratch) Float64s(n int) []float64 {
	if s == nil || n > ScratchLen-s.nf {
		return make([]float64, 0, n)
	}
	b := s.floats[s.nf : s.nf : s.nf+n]
	s.nf += n
	return b
}

// Uint64s returns an empty slice with capacity n.
func (s *Scratch) Uint64s(n int) []uint64 {
	if s == nil || n > ScratchLen-s.ni {
		return make([]uint64, 0, n)
	}
	b := s.ints[s.ni : s.ni : s.ni+n]
	s.ni += n
	return b
}
