package minio

import (
	"context"
	"os"
	"testing"

	"github.com/hupe1980/fieldgo/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance at MINIO_ENDPOINT.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-fieldgo"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	// Test Put and Open
	data := []byte("hello minio field")
	err = store.Put(ctx, "test.fld", data)
	require.NoError(t, err)

	blob, err := store.Open(ctx, "test.fld")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)
	require.NoError(t, blob.Close())

	// Test ReadRange
	blob2, err := store.Open(ctx, "test.fld")
	require.NoError(t, err)
	rc, err := blob2.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	partBuf := make([]byte, 5)
	_, err = rc.Read(partBuf)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(partBuf))
	require.NoError(t, rc.Close())
	require.NoError(t, blob2.Close())

	// Test List
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.fld")

	// Test Delete
	err = store.Delete(ctx, "test.fld")
	require.NoError(t, err)

	_, err = store.Open(ctx, "test.fld")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	// Test Create (streaming)
	wb, err := store.Create(ctx, "stream.fld")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	err = wb.Close()
	require.NoError(t, err)

	blob3, err := store.Open(ctx, "stream.fld")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob3.Size())
	require.NoError(t, blob3.Close())

	// Cleanup
	_ = store.Delete(ctx, "stream.fld")
}

func TestStore_Keys(t *testing.T) {
	s := NewStore(nil, "bucket", "/fields/")
	assert.Equal(t, "fields/a.fld", s.key("a.fld"))
	assert.Equal(t, "sub/b.fld", s.name("fields/sub/b.fld"))
	assert.Equal(t, "fields/", s.key(""))

	bare := NewStore(nil, "bucket", "")
	assert.Equal(t, "a.fld", bare.key("a.fld"))
	assert.Equal(t, "a.fld", bare.name("a.fld"))
}

func TestConnect_RequiresEndpointAndBucket(t *testing.T) {
	_, err := Connect(Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	store, err := Connect(Config{Endpoint: "localhost:9000", Bucket: "fields", Prefix: "p"})
	require.NoError(t, err)
	assert.Equal(t, "p/x", store.key("x"))
}
