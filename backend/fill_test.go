package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	t.Run("PopulatesEveryElement", func(t *testing.T) {
		a, err := NewArray[float64](ArrayConfig{Size: 1000, Components: 3})
		require.NoError(t, err)

		err = Fill(context.Background(), a, 4, func(i uint64, e []float64) error {
			e[0], e[1], e[2] = float64(i), float64(2*i), float64(3*i)
			return nil
		})
		require.NoError(t, err)

		for _, i := range []uint64{0, 1, 499, 999} {
			assert.Equal(t, []float64{float64(i), float64(2 * i), float64(3 * i)}, a.At(i))
		}
	})

	t.Run("MoreWorkersThanElements", func(t *testing.T) {
		a, err := NewArray[float32](ArrayConfig{Size: 3, Components: 1})
		require.NoError(t, err)

		require.NoError(t, Fill(context.Background(), a, 16, func(i uint64, e []float32) error {
			e[0] = 1
			return nil
		}))
		assert.Equal(t, []float32{1, 1, 1}, a.Data())
	})

	t.Run("PropagatesError", func(t *testing.T) {
		a, err := NewArray[float32](ArrayConfig{Size: 100, Components: 1})
		require.NoError(t, err)

		errBoom := errors.New("boom")
		err = Fill(context.Background(), a, 0, func(i uint64, _ []float32) error {
			if i == 42 {
				return errBoom
			}
			return nil
		})
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		a, err := NewArray[float32](ArrayConfig{Size: 100, Components: 1})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = Fill(ctx, a, 2, func(uint64, []float32) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
