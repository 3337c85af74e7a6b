package backend

import (
	"context"
	"runtime"

	"github.com/hupe1980/fieldgo/persistence"
	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is how many elements a Fill worker computes between
// context checks.
const cancelCheckInterval = 4096

// Fill computes every element of a in parallel. fn receives the linear index
// and the element to populate; the first error cancels the remaining work.
// workers <= 0 uses GOMAXPROCS.
func Fill[S persistence.Scalar](ctx context.Context, a Array[S], workers int, fn func(i uint64, element []S) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	size := a.Size()
	if size == 0 {
		return nil
	}
	chunk := max(1, (size+uint64(workers)-1)/uint64(workers))

	g, ctx := errgroup.WithContext(ctx)
	for start := uint64(0); start < size; start += chunk {
		end := min(start+chunk, size)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if err := fn(i, a.At(i)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
