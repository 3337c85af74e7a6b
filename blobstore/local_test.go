package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every BlobStore implementation shares.
func exerciseStore(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()
	data := []byte("hello world, this is a dumped field")

	w, err := store.Create(ctx, "fields/a.fld")
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	_, err = w.Write(data)
	require.Error(t, err)

	require.NoError(t, store.Put(ctx, "fields/b.fld", []byte("0123456789")))
	require.NoError(t, store.Put(ctx, "other.fld", nil))

	blob, err := store.Open(ctx, "fields/a.fld")
	require.NoError(t, err)
	defer blob.Close()
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	readRange := func(b Blob, off, length int64) (string, error) {
		r, err := b.ReadRange(ctx, off, length)
		if err != nil {
			return "", err
		}
		defer r.Close()
		content, err := io.ReadAll(r)
		return string(content), err
	}

	got, err := readRange(blob, 13, 4)
	require.NoError(t, err)
	require.Equal(t, "this", got)

	small, err := store.Open(ctx, "fields/b.fld")
	require.NoError(t, err)
	defer small.Close()

	got, err = readRange(small, 0, small.Size())
	require.NoError(t, err)
	require.Equal(t, "0123456789", got)

	got, err = readRange(small, 8, 5)
	require.NoError(t, err)
	require.Equal(t, "89", got)

	_, err = readRange(small, 20, 5)
	require.ErrorIs(t, err, io.EOF)

	empty, err := store.Open(ctx, "other.fld")
	require.NoError(t, err)
	defer empty.Close()
	got, err = readRange(empty, 0, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"fields/a.fld", "fields/b.fld", "other.fld"}, names)

	names, err = store.List(ctx, "fields/")
	require.NoError(t, err)
	require.Equal(t, []string{"fields/a.fld", "fields/b.fld"}, names)

	require.NoError(t, store.Delete(ctx, "fields/a.fld"))
	require.NoError(t, store.Delete(ctx, "fields/a.fld"))

	names, err = store.List(ctx, "fields/")
	require.NoError(t, err)
	require.Equal(t, []string{"fields/b.fld"}, names)

	_, err = store.Open(ctx, "fields/a.fld")
	require.ErrorIs(t, err, ErrNotFound)

	w, err = store.Create(ctx, "aborted.fld")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	aborter, ok := w.(Aborter)
	require.True(t, ok)
	require.NoError(t, aborter.Abort())
	_, err = store.Open(ctx, "aborted.fld")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	exerciseStore(t, NewLocalStore(root))

	_, err := os.Stat(filepath.Join(root, "fields", "b.fld"))
	require.NoError(t, err)
}

func TestLocalStore_Mappable(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "f.fld", []byte("mapped")))

	blob, err := store.Open(ctx, "f.fld")
	require.NoError(t, err)
	defer blob.Close()

	m, ok := blob.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "mapped", string(data))
}

func TestLocalStore_IncompleteWriteInvisible(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	w, err := store.Create(ctx, "pending.fld")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
	_, err = store.Open(ctx, "pending.fld")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pending.fld"}, names)
}

func TestLocalStore_RejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	_, err := store.Open(ctx, "../outside.fld")
	assert.Error(t, err)
	assert.Error(t, store.Put(ctx, "/abs.fld", nil))
}

func TestLocalStore_MissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewLocalStore(t.TempDir())
	_, err := store.Open(ctx, "f.fld")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Create(ctx, "f.fld")
	assert.ErrorIs(t, err, context.Canceled)
}
