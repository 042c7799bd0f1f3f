package table

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/annostore/blobstore"
	"github.com/hupe1980/annostore/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteStore hides the Mappable fast path of the wrapped store and counts
// full reads.
type remoteStore struct {
	blobstore.BlobStore
	reads atomic.Int64
}

type remoteBlob struct {
	b     blobstore.Blob
	reads *atomic.Int64
}

func (s *remoteStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	b, err := s.BlobStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &remoteBlob{b: b, reads: &s.reads}, nil
}

func (b *remoteBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	return b.b.ReadAt(ctx, p, off)
}

func (b *remoteBlob) Close() error { return b.b.Close() }

func (b *remoteBlob) Size() int64 { return b.b.Size() }

func (b *remoteBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	b.reads.Add(1)
	return b.b.ReadRange(ctx, off, length)
}

func TestCache_ServesRepeatedReads(t *testing.T) {
	ctx := context.Background()
	store := &remoteStore{BlobStore: blobstore.NewMemoryStore()}
	cache := NewCache(1<<20, nil)
	db := Connect(store, WithCache(cache), WithNamespace("coco"))
	defer db.Close()

	tbl, err := db.CreateTable(ctx, "objects", objectsBatch(t, "item-1", "a", "b"))
	require.NoError(t, err)

	for range 3 {
		b, err := tbl.Scan(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(t, b))
	}
	assert.Equal(t, int64(1), store.reads.Load())
	hits, misses := cache.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.Positive(t, cache.Size())
}

func TestCache_RewrittenTableIsReloaded(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	cache := NewCache(1<<20, nil)
	reader := Connect(&remoteStore{BlobStore: mem}, WithCache(cache), WithNamespace("coco"))
	defer reader.Close()
	// A writer that does not share the cache.
	writer := Connect(mem)
	defer writer.Close()

	_, err := writer.CreateTable(ctx, "objects", objectsBatch(t, "item-1", "a"))
	require.NoError(t, err)
	tbl, err := reader.OpenTable(ctx, "objects")
	require.NoError(t, err)
	b, err := tbl.Scan(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(t, b))
	size := cache.Size()

	wt, err := writer.OpenTable(ctx, "objects")
	require.NoError(t, err)
	require.NoError(t, wt.Add(ctx, objectsBatch(t, "item-1", "b")))

	b, err = tbl.Scan(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(t, b))
	// The old version was replaced, not kept alongside.
	assert.Greater(t, cache.Size(), size)
	assert.Len(t, cache.items, 1)
}

func TestCache_Eviction(t *testing.T) {
	ctx := context.Background()
	store := &remoteStore{BlobStore: blobstore.NewMemoryStore()}
	sizer := Connect(blobstore.NewMemoryStore())
	_, err := sizer.CreateTable(ctx, "t", objectsBatch(t, "item-1", "a"))
	require.NoError(t, err)
	data, err := blobstore.ReadAll(ctx, sizer.Store(), "t"+Extension)
	require.NoError(t, err)

	// Room for one table only.
	cache := NewCache(int64(len(data))+1, nil)
	db := Connect(store, WithCache(cache), WithNamespace("coco"))
	for _, name := range []string{"t1", "t2"} {
		tbl, err := db.CreateTable(ctx, name, objectsBatch(t, "item-1", "a"))
		require.NoError(t, err)
		_, err = tbl.Scan(ctx, Query{})
		require.NoError(t, err)
	}
	assert.Len(t, cache.items, 1)
	assert.Equal(t, int64(len(data)), cache.Size())

	cache.Purge()
	assert.Zero(t, cache.Size())
}

func TestCache_ChargesController(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	cache := NewCache(1<<20, rc)
	db := Connect(&remoteStore{BlobStore: blobstore.NewMemoryStore()}, WithCache(cache), WithNamespace("coco"))

	tbl, err := db.CreateTable(ctx, "objects", objectsBatch(t, "item-1", "a"))
	require.NoError(t, err)
	_, err = tbl.Scan(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, cache.Size(), rc.MemoryUsage())

	cache.Purge()
	assert.Zero(t, rc.MemoryUsage())
}
