package fieldgo

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fieldgo/blobstore"
	"github.com/hupe1980/fieldgo/resource"
)

// LoadBlob restores chain B from the named blob, which may hold a plain or
// compressed stream. With WithResourceController the load waits for a load
// slot and for the blob's size in memory budget, and reads are rate limited.
func LoadBlob[B Layer](ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Field[B], error) {
	o := applyOptions(opts)
	o.logger = o.logger.WithSource(name)
	return loadBlob[B](ctx, store, name, o)
}

func loadBlob[B Layer](ctx context.Context, store blobstore.BlobStore, name string, o options) (*Field[B], error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, &IOError{Op: "open", cause: err}
	}
	defer b.Close()

	release, err := o.resources.Admit(ctx, b.Size())
	if err != nil {
		return nil, &IOError{Op: "admit", cause: err}
	}
	defer release()

	body, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, &IOError{Op: "read", cause: err}
	}
	defer body.Close()

	var r io.Reader = body
	if o.resources != nil {
		r = resource.NewRateLimitedReader(ctx, body, o.resources)
	}
	return loadEnveloped[B](ctx, r, o)
}

// LoadBlobs loads several blobs holding chain B concurrently. Results are in
// the order of names. The first failure cancels the remaining loads.
func LoadBlobs[B Layer](ctx context.Context, store blobstore.BlobStore, names []string, opts ...Option) ([]*Field[B], error) {
	o := applyOptions(opts)
	fields := make([]*Field[B], len(names))

	g, gctx := errgroup.WithContext(ctx)
	if n := o.resources.Config().MaxConcurrentLoads; n > 0 {
		g.SetLimit(int(n))
	}
	for i, name := range names {
		g.Go(func() error {
			lo := o
			lo.logger = o.logger.WithSource(name)
			f, err := loadBlob[B](gctx, store, name, lo)
			if err != nil {
				return err
			}
			fields[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fields, nil
}

// SaveBlob dumps the field into the named blob. A failed dump is aborted
// where the store supports it, so no partial blob becomes visible.
func (f *Field[B]) SaveBlob(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) error {
	o := applyOptions(opts)
	o.logger = o.logger.WithSource(name)

	w, err := store.Create(ctx, name)
	if err != nil {
		return &IOError{Op: "create", cause: err}
	}

	var dst io.Writer = w
	if o.resources != nil {
		dst = resource.NewRateLimitedWriter(ctx, w, o.resources)
	}
	if err := f.dump(ctx, dst, o); err != nil {
		discard(ctx, store, name, w)
		return err
	}
	if err := w.Close(); err != nil {
		return &IOError{Op: "save", cause: err}
	}
	return nil
}

func discard(ctx context.Context, store blobstore.BlobStore, name string, w blobstore.WritableBlob) {
	if a, ok := w.(blobstore.Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = w.Close()
	_ = store.Delete(context.WithoutCancel(ctx), name)
}
