package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/annostore/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test-annostore-%d/", time.Now().UnixNano())
	store, err := NewStoreFromConfig(ctx, bucket, WithPrefix(prefix))
	require.NoError(t, err)

	t.Run("Create and Read", func(t *testing.T) {
		name := "split=train/objects.ptb"
		data := make([]byte, 1024*1024)
		_, _ = rand.Read(data)

		w, err := store.Create(ctx, name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		b, err := store.Open(ctx, name)
		require.NoError(t, err)
		defer b.Close()
		assert.Equal(t, int64(len(data)), b.Size())

		r, err := b.ReadRange(ctx, 100, 50)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		r.Close()
		require.NoError(t, err)
		assert.Equal(t, data[100:150], got)
	})

	t.Run("Put List Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "db.json", []byte("{}")))
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, names, "db.json")

		require.NoError(t, store.Delete(ctx, "db.json"))
		_, err = store.Open(ctx, "db.json")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
		require.NoError(t, store.Delete(ctx, "split=train/objects.ptb"))
	})
}
