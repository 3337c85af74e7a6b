package mmap

// Hint tells the kernel how a field file mapping is about to be read.
type Hint uint8

const (
	// HintNone leaves the kernel's default read-ahead in place.
	HintNone Hint = iota
	// HintLoad is for a decode pass: one front-to-back scan, so the kernel
	// reads ahead aggressively and may drop pages behind the reader.
	HintLoad
	// HintLookup is for leaf storage read in place at scattered indices.
	HintLookup
)

func (h Hint) String() string {
	switch h {
	case HintNone:
		return "none"
	case HintLoad:
		return "load"
	case HintLookup:
		return "lookup"
	}
	return "unknown"
}
