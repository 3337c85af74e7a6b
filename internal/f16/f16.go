// Package f16 converts between float32 and IEEE-754 binary16.
//
// binary16 is one of the storage widths a field stream may declare for its
// scalar blocks. Values are always widened to float32 before they reach a
// chain; binary16 exists only on disk.
package f16

import (
	"encoding/binary"
	"math"
)

// Half is the raw binary16 bit pattern.
//
//	sign: 1 bit
//	exp:  5 bits (bias 15)
//	frac: 10 bits
type Half uint16

// Size is the encoded size of a Half in bytes.
const Size = 2

const (
	signMask Half = 0x8000
	expMask  Half = 0x7C00
	fracMask Half = 0x03FF

	f32ExpMask  uint32 = 0x7F800000
	f32FracMask uint32 = 0x007FFFFF
)

// MaxValue is the largest finite binary16 value.
const MaxValue = 65504

// IsNaN reports whether h encodes a NaN.
func (h Half) IsNaN() bool {
	return h&expMask == expMask && h&fracMask != 0
}

// IsInf reports whether h encodes positive or negative infinity.
func (h Half) IsInf() bool {
	return h&expMask == expMask && h&fracMask == 0
}

// AppendLE appends the little-endian encoding of h to dst.
func AppendLE(dst []byte, h Half) []byte {
	return binary.LittleEndian.AppendUint16(dst, uint16(h))
}

// LE decodes a little-endian binary16 value from the first two bytes of b.
func LE(b []byte) Half {
	return Half(binary.LittleEndian.Uint16(b))
}

// ToFloat32 widens h to float32. The conversion is exact.
func ToFloat32(h Half) float32 {
	sign := uint32(h&signMask) << 16
	exp := uint32(h&expMask) >> 10
	frac := uint32(h & fracMask)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		return math.Float32frombits(sign | subnormalBits(frac))
	case 0x1F:
		if frac == 0 {
			return math.Float32frombits(sign | f32ExpMask)
		}
		return math.Float32frombits(sign | f32ExpMask | (frac << 13))
	default:
		f32Exp := uint32(int32(exp)-15+127) << 23
		return math.Float32frombits(sign | f32Exp | frac<<13)
	}
}

// subnormalBits renormalizes a binary16 subnormal fraction (exponent -14, no
// implicit leading one) into float32 exponent and fraction bits.
func subnormalBits(frac uint32) uint32 {
	e := int32(-14)
	for frac&0x0400 == 0 {
		frac <<= 1
		e--
	}
	frac &= 0x03FF
	return uint32(127+e)<<23 | frac<<13
}

// FromFloat32 narrows f to binary16, rounding to nearest with ties to even.
// Magnitudes above MaxValue become infinities; NaN stays a quiet NaN.
func FromFloat32(f float32) Half {
	bits := math.Float32bits(f)
	sign := Half((bits >> 16) & uint32(signMask))
	exp := int32((bits & f32ExpMask) >> 23)
	frac := bits & f32FracMask

	if exp == 0xFF {
		if frac == 0 {
			return sign | expMask
		}
		payload := Half(frac >> 13)
		if payload == 0 {
			payload = 1
		}
		return sign | expMask | (payload|0x0200)&fracMask
	}

	// float32 subnormals are far below the binary16 range.
	if exp == 0 {
		return sign
	}

	e16 := exp - 127 + 15
	if e16 >= 0x1F {
		return sign | expMask
	}
	if e16 <= 0 {
		return sign | narrowSubnormal(frac, e16)
	}

	m := frac >> 13
	rem := frac & 0x1FFF
	if rem > 0x1000 || (rem == 0x1000 && m&1 == 1) {
		m++
		if m == 0x0400 {
			m = 0
			e16++
			if e16 >= 0x1F {
				return sign | expMask
			}
		}
	}
	return sign | Half(uint32(e16)<<10) | Half(m)
}

// narrowSubnormal produces the fraction of a binary16 subnormal (or zero) for a
// float32 normal whose re-biased exponent e16 is not positive.
func narrowSubnormal(frac uint32, e16 int32) Half {
	if e16 < -10 {
		return 0
	}
	mant := frac | 0x00800000
	shift := uint32(1-e16) + 13
	m := mant >> shift
	rem := mant & (uint32(1)<<shift - 1)
	half := uint32(1) << (shift - 1)
	if rem > half || (rem == half && m&1 == 1) {
		m++
	}
	return Half(m)
}
