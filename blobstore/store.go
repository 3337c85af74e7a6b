package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
// The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore stores dumped fields as named, immutable blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create opens a blob for writing. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a whole blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored field.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off, following io.ReaderAt semantics.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams up to length bytes starting at off. Ranges that
	// extend past the end are truncated; an offset past the end is io.EOF.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob receives the bytes of a blob being created.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data to stable storage.
	Sync() error
}

// Aborter is implemented by writable blobs that can discard everything
// written so far. After Abort the blob never becomes visible.
type Aborter interface {
	Abort() error
}

// Mappable is implemented by blobs whose contents are directly addressable.
type Mappable interface {
	// Bytes returns the contents without copying. The slice is valid until
	// the blob is closed.
	Bytes() ([]byte, error)
}

func checkRange(off, size int64) error {
	if off < 0 {
		return os.ErrInvalid
	}
	if off >= size && !(off == 0 && size == 0) {
		return io.EOF
	}
	return nil
}

func clampRange(off, length, size int64) int64 {
	if length < 0 || length > size-off {
		return size
	}
	return off + length
}

var errWriteClosed = errors.New("blobstore: write to closed blob")
