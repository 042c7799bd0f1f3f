package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/hupe1980/annostore/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("dial tcp: refused")))
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "b", "/library/")
	assert.Equal(t, "library/coco/db.json", s.key("coco/db.json"))
	assert.Equal(t, "db.json", NewStore(nil, "b", "").key("db.json"))
}

// TestMinioStore_Integration requires a running MinIO instance.
func TestMinioStore_Integration(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	ctx = context.Background()
	bucket := "test-annostore"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, fmt.Sprintf("run-%d/", time.Now().UnixNano()))

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "coco/db.json", data))

	blob, err := store.Open(ctx, "coco/db.json")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, data, buf[:n])

	r, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	assert.Equal(t, "minio", string(got))

	w, err := store.Create(ctx, "coco/split=train/items.ptb")
	require.NoError(t, err)
	_, err = w.Write([]byte("table"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "coco/")
	require.NoError(t, err)
	assert.Equal(t, []string{"coco/db.json", "coco/split=train/items.ptb"}, names)

	for _, n := range names {
		require.NoError(t, store.Delete(ctx, n))
	}
	_, err = store.Open(ctx, "coco/db.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
