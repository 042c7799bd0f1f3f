package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	blobName := "split=train/objects.ptb"
	data := []byte("hello world, this is a test blob for annostore")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	// not visible before Close
	_, err = store.Open(ctx, blobName)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, "split=train", "objects.ptb"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	rangeReader, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	defer rangeReader.Close()

	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.Equal(t, "this", string(rangeContent))

	require.NoError(t, store.Put(ctx, "db.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "split=val/objects.ptb", []byte("v")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"db.json", blobName, "split=val/objects.ptb"}, names)

	names, err = store.List(ctx, "split=")
	require.NoError(t, err)
	require.Equal(t, []string{blobName, "split=val/objects.ptb"}, names)

	require.NoError(t, store.Delete(ctx, blobName))
	require.NoError(t, store.Delete(ctx, blobName))

	names, err = store.List(ctx, "split=")
	require.NoError(t, err)
	require.Equal(t, []string{"split=val/objects.ptb"}, names)

	_, err = store.Open(ctx, blobName)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_PutReplacesAtomically(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "items.ptb", []byte("old content")))

	old, err := store.Open(ctx, "items.ptb")
	require.NoError(t, err)
	defer old.Close()

	require.NoError(t, store.Put(ctx, "items.ptb", []byte("new")))

	// an open reader keeps its snapshot
	data, err := old.(Mappable).Bytes()
	require.NoError(t, err)
	require.Equal(t, "old content", string(data))

	got, err := ReadAll(ctx, store, "items.ptb")
	require.NoError(t, err)
	require.Equal(t, "new", string(got))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"items.ptb"}, names)
}

func TestLocalStore_InvalidName(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Open(ctx, "../escape")
	require.ErrorIs(t, err, ErrInvalidName)
	require.ErrorIs(t, store.Put(ctx, "/abs", nil), ErrInvalidName)
}

func TestLocalStore_MissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, names)

	ok, err := Exists(context.Background(), store, "db.json")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalStore_ReadRange_Boundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "boundary.bin", data))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, 10)
	require.NoError(t, err)
	content, _ := io.ReadAll(r)
	r.Close()
	require.True(t, bytes.Equal(data, content))

	r, err = blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	content, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "89", string(content))
	r.Close()

	_, err = blob.ReadRange(ctx, 20, 5)
	require.ErrorIs(t, err, io.EOF)
}
