package fieldgo

import "fmt"

// Kind is the semantic tag a layer writes into its stream record header.
type Kind uint16

const (
	KindUnknown          Kind = 0
	KindArray            Kind = 1
	KindConstant         Kind = 2
	KindStrided          Kind = 3
	KindNearestNeighbour Kind = 4
	KindAffine           Kind = 5
	KindClamp            Kind = 6
	KindMask             Kind = 7

	// KindUser is the first tag available to layers defined outside this module.
	KindUser Kind = 0x8000
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindArray:            "array",
	KindConstant:         "constant",
	KindStrided:          "strided",
	KindNearestNeighbour: "nearest-neighbour",
	KindAffine:           "affine",
	KindClamp:            "clamp",
	KindMask:             "mask",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if k >= KindUser {
		return fmt.Sprintf("user(%d)", uint16(k-KindUser))
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}
