package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hupe1980/fieldgo/blobstore"
	"github.com/hupe1980/fieldgo/blobstore/minio"
	"github.com/hupe1980/fieldgo/blobstore/s3"
	"github.com/hupe1980/fieldgo/persistence"
)

// location is a blob addressed on the command line.
type location struct {
	store blobstore.BlobStore
	name  string
	raw   string
}

func (a *app) resolve(ctx context.Context, raw string) (location, error) {
	if !strings.Contains(raw, "://") {
		return location{
			store: blobstore.NewLocalStore(filepath.Dir(raw)),
			name:  filepath.Base(raw),
			raw:   raw,
		}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return location{}, err
	}
	name := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || name == "" {
		return location{}, fmt.Errorf("%s: want %s://bucket/key", raw, u.Scheme)
	}

	var store blobstore.BlobStore
	switch u.Scheme {
	case "s3":
		store, err = s3.New(ctx, u.Host,
			s3.WithRegion(a.v.GetString(cfgS3Region)),
			s3.WithEndpoint(a.v.GetString(cfgS3Endpoint)),
		)
	case "minio":
		store, err = minio.Connect(minio.Config{
			Endpoint:  a.v.GetString(cfgMinioEndpoint),
			AccessKey: a.v.GetString(cfgMinioAccessKey),
			SecretKey: a.v.GetString(cfgMinioSecretKey),
			Secure:    a.v.GetBool(cfgMinioSecure),
			Bucket:    u.Host,
		})
	default:
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return location{}, fmt.Errorf("%s: %w", raw, err)
	}
	return location{store: store, name: name, raw: raw}, nil
}

// stream is the plain field stream of an opened location.
type stream struct {
	io.Reader
	compression persistence.CompressionType
	closers     []io.Closer
}

func (s *stream) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// open returns the plain stream held at loc, unwrapping any envelope.
func (a *app) open(ctx context.Context, loc location) (*stream, error) {
	b, err := loc.store.Open(ctx, loc.name)
	if err != nil {
		return nil, err
	}
	body, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	plain, c, err := persistence.OpenStream(body)
	if err != nil {
		_ = body.Close()
		_ = b.Close()
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("empty stream: %w", io.ErrUnexpectedEOF)
		}
		return nil, err
	}

	a.logger.Debug("opened stream", "source", loc.raw, "bytes", b.Size(), "compression", c.String())
	return &stream{Reader: plain, compression: c, closers: []io.Closer{b, body, plain}}, nil
}
