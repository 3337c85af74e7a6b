package f16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat32_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   Half
		want float32
	}{
		{"+0", 0x0000, 0},
		{"+1", 0x3C00, 1},
		{"-1", 0xBC00, -1},
		{"+2", 0x4000, 2},
		{"max", 0x7BFF, MaxValue},
		{"+Inf", 0x7C00, float32(math.Inf(1))},
		{"-Inf", 0xFC00, float32(math.Inf(-1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToFloat32(tt.in))
		})
	}
}

func TestToFloat32_NegativeZero(t *testing.T) {
	got := ToFloat32(0x8000)
	assert.Equal(t, math.Float32bits(float32(math.Copysign(0, -1))), math.Float32bits(got))
}

func TestToFloat32_SubnormalMin(t *testing.T) {
	assert.Equal(t, float32(math.Ldexp(1, -24)), ToFloat32(0x0001))
}

func TestFromFloat32_InfNaN(t *testing.T) {
	assert.Equal(t, Half(0x7C00), FromFloat32(float32(math.Inf(1))))
	assert.Equal(t, Half(0xFC00), FromFloat32(float32(math.Inf(-1))))
	assert.Equal(t, Half(0x7C00), FromFloat32(1e6))

	h := FromFloat32(float32(math.NaN()))
	assert.True(t, h.IsNaN())
	assert.True(t, math.IsNaN(float64(ToFloat32(h))))
}

func TestFromFloat32_IntegersRoundTrip(t *testing.T) {
	// Every integer up to 2048 is exactly representable.
	for i := -2048; i <= 2048; i++ {
		f := float32(i)
		require.Equal(t, f, ToFloat32(FromFloat32(f)), "i=%d", i)
	}
}

func TestFromFloat32_RoundingTiesToEven(t *testing.T) {
	step := float32(math.Ldexp(1, -10))

	assert.Equal(t, Half(0x3C00), FromFloat32(1+step/2))
	assert.Equal(t, Half(0x3C02), FromFloat32(1+step+step/2))
}

func TestLE(t *testing.T) {
	b := AppendLE(nil, 0x3C00)
	require.Equal(t, []byte{0x00, 0x3C}, b)
	assert.Equal(t, Half(0x3C00), LE(b))
}
