package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/annostore/blobstore"
	"github.com/hupe1980/annostore/column"
	"github.com/hupe1980/annostore/resource"
)

// DB is a handle to the tables stored in a blob store.
//
// A DB holds no cached state: every operation reads the current table file.
// Writes replace the whole file with one atomic Put, so concurrent readers
// observe either the old or the new table.
type DB struct {
	store  blobstore.BlobStore
	opts   options
	closed atomic.Bool
}

// Connect returns a DB over store.
func Connect(store blobstore.BlobStore, opts ...Option) *DB {
	o := options{compression: CompressionNone}
	for _, fn := range opts {
		fn(&o)
	}
	return &DB{store: store, opts: o}
}

// Close releases the handle. Further operations fail with ErrClosed.
func (db *DB) Close() error {
	db.closed.Store(true)
	return nil
}

// Store returns the underlying blob store.
func (db *DB) Store() blobstore.BlobStore { return db.store }

func (db *DB) check(ctx context.Context) error {
	if db.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func blobName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || path.Clean(name) != name || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name + Extension, nil
}

// TableNames returns the names of all tables, sorted. Names of partitioned
// tables include their directory, e.g. "split=train/items".
func (db *DB) TableNames(ctx context.Context) ([]string, error) {
	if err := db.check(ctx); err != nil {
		return nil, err
	}
	blobs, err := db.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(blobs))
	for _, b := range blobs {
		if n, ok := strings.CutSuffix(b, Extension); ok {
			names = append(names, n)
		}
	}
	return names, nil
}

// OpenTable returns a handle to an existing table.
func (db *DB) OpenTable(ctx context.Context, name string) (*Table, error) {
	if err := db.check(ctx); err != nil {
		return nil, err
	}
	blob, err := blobName(name)
	if err != nil {
		return nil, err
	}
	ok, err := blobstore.Exists(ctx, db.store, blob)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return &Table{db: db, name: name, blob: blob}, nil
}

// CreateTable writes data as a new table. The batch defines the schema and
// may have zero rows.
func (db *DB) CreateTable(ctx context.Context, name string, data *column.Batch) (*Table, error) {
	if err := db.check(ctx); err != nil {
		return nil, err
	}
	blob, err := blobName(name)
	if err != nil {
		return nil, err
	}
	t := &Table{db: db, name: name, blob: blob}

	unlock, err := db.lock(ctx, blob)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	ok, err := blobstore.Exists(ctx, db.store, blob)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	if err := db.write(ctx, blob, data, nil); err != nil {
		return nil, err
	}
	return t, nil
}

// DropTable deletes a table. Dropping a missing table is not an error.
func (db *DB) DropTable(ctx context.Context, name string) error {
	if err := db.check(ctx); err != nil {
		return err
	}
	blob, err := blobName(name)
	if err != nil {
		return err
	}
	return db.store.Delete(ctx, blob)
}

func (db *DB) lock(ctx context.Context, blob string) (func() error, error) {
	if db.opts.locker == nil {
		return func() error { return nil }, nil
	}
	return db.opts.locker.Lock(ctx, path.Join(db.opts.namespace, blob))
}

// load reads and parses a table file. release must be called once the
// needed columns have been decoded.
func (db *DB) load(ctx context.Context, blob string) (*tableFile, func(), error) {
	b, err := db.store.Open(ctx, blob)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrTableNotFound, strings.TrimSuffix(blob, Extension))
		}
		return nil, nil, err
	}

	m, ok := b.(blobstore.Mappable)
	if !ok {
		// Remote content is copied out, so the blob is closed early.
		defer func() { _ = b.Close() }()
		return db.loadRemote(ctx, blob, b)
	}

	if err := db.opts.controller.AcquireIO(ctx, int(b.Size())); err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	data, err := m.Bytes()
	if err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	f, err := parseFile(data)
	if err != nil {
		_ = b.Close()
		return nil, nil, fmt.Errorf("%s: %w", blob, err)
	}
	return f, func() { _ = b.Close() }, nil
}

func (db *DB) loadRemote(ctx context.Context, blob string, b blobstore.Blob) (*tableFile, func(), error) {
	var (
		key    cacheKey
		cached bool
	)
	if db.opts.cache != nil {
		if key, cached = footerKey(ctx, db.opts.namespace, blob, b); cached {
			if f, ok := db.opts.cache.get(key); ok {
				return f, func() {}, nil
			}
		}
	}

	data, err := readBlob(ctx, b, db.opts.controller)
	if err != nil {
		return nil, nil, err
	}
	f, err := parseFile(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", blob, err)
	}
	if cached {
		db.opts.cache.set(key, f)
	}
	return f, func() {}, nil
}

// readBlob copies a remote blob into memory through the IO limiter.
func readBlob(ctx context.Context, b blobstore.Blob, rc *resource.Controller) ([]byte, error) {
	size := b.Size()
	if size == 0 {
		return nil, nil
	}
	r, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data := make([]byte, size)
	if _, err := io.ReadFull(resource.NewRateLimitedReader(ctx, r, rc), data); err != nil {
		return nil, err
	}
	return data, nil
}

// scanned is the decoded part of a table file.
type scanned struct {
	batch *column.Batch
	live  *roaring.Bitmap
	rows  int
}

// read decodes the named columns and returns them with the live row set.
// A nil names decodes every column; an empty non-nil names decodes none.
func (db *DB) read(ctx context.Context, blob string, names []string) (scanned, error) {
	f, release, err := db.load(ctx, blob)
	if err != nil {
		return scanned{}, err
	}
	defer release()

	out := scanned{live: f.live(), rows: f.rows()}
	if names != nil && len(names) == 0 {
		out.batch, err = column.NewBatch()
		return out, err
	}

	idx, err := f.columnIndexes(names)
	if err != nil {
		return scanned{}, err
	}
	mem := f.rawSize(idx)
	if err := db.opts.controller.AcquireMemory(ctx, mem); err != nil {
		return scanned{}, err
	}
	defer db.opts.controller.ReleaseMemory(mem)

	if out.batch, err = f.batch(names); err != nil {
		return scanned{}, fmt.Errorf("%s: %w", blob, err)
	}
	return out, nil
}

func (db *DB) write(ctx context.Context, blob string, b *column.Batch, deleted *roaring.Bitmap) error {
	data, err := encodeFile(b, deleted, db.opts.compression)
	if err != nil {
		return err
	}
	if err := db.opts.controller.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return db.store.Put(ctx, blob, data)
}
