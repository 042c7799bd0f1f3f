package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/annostore/blobstore"
	"github.com/hupe1980/annostore/codec"
	"github.com/hupe1980/annostore/table"
)

// ErrNotFound is returned when a dataset metadata file, a sub-dataset or the
// stats file is missing or cannot be parsed.
var ErrNotFound = errors.New("dataset: not found")

// Kind distinguishes the metadata file a dataset is opened from.
type Kind uint8

const (
	// Primary datasets hold items and ground truth objects (db.json).
	Primary Kind = iota
	// Inference datasets hold model predictions (infer.json).
	Inference
	// Embedding datasets hold per-item embeddings (embed.json).
	Embedding
)

func (k Kind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Inference:
		return "inference"
	case Embedding:
		return "embedding"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MetadataFile returns the name of the metadata file of k.
func (k Kind) MetadataFile() string {
	switch k {
	case Inference:
		return "infer.json"
	case Embedding:
		return "embed.json"
	default:
		return "db.json"
	}
}

// DirPrefix returns the directory prefix of sub-datasets of kind k. Primary
// datasets are not nested and return "".
func (k Kind) DirPrefix() string {
	switch k {
	case Inference:
		return "db_infer_"
	case Embedding:
		return "db_embed_"
	default:
		return ""
	}
}

// StatsFile is the name of the dataset statistics file.
const StatsFile = "stats.json"

// MediaDirName is the directory holding media referenced by relative URIs.
const MediaDirName = "media"

type options struct {
	store     blobstore.BlobStore
	codec     codec.Codec
	tableOpts []table.Option
}

// Option configures Open.
type Option func(*options)

// WithStore reads the dataset from store instead of the local directory.
// The store must be rooted at the dataset.
func WithStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCodec sets the codec of the metadata files. If nil is passed,
// codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithTableOptions passes options to every DB opened by Connect and Load.
func WithTableOptions(opts ...table.Option) Option {
	return func(o *options) {
		o.tableOpts = append(o.tableOpts, opts...)
	}
}

// Dataset is a directory of hive-partitioned tables plus its metadata file.
//
// A Dataset is safe for concurrent use. It holds no open table handles:
// Connect and Load return handles the caller must close.
type Dataset struct {
	kind  Kind
	path  string
	store blobstore.BlobStore
	opts  options

	mu   sync.RWMutex
	info Info
}

// Open reads the metadata file of the dataset at path.
func Open(ctx context.Context, kind Kind, path string, opts ...Option) (*Dataset, error) {
	o := options{codec: codec.Default}
	for _, fn := range opts {
		fn(&o)
	}
	if o.store == nil {
		o.store = blobstore.NewLocalStore(path)
	}
	return open(ctx, kind, path, o)
}

func open(ctx context.Context, kind Kind, path string, o options) (*Dataset, error) {
	ds := &Dataset{kind: kind, path: path, store: o.store, opts: o}

	data, err := blobstore.ReadAll(ctx, ds.store, kind.MetadataFile())
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s has no %s", ErrNotFound, path, kind.MetadataFile())
		}
		return nil, fmt.Errorf("read %s metadata: %w", path, err)
	}
	if err := o.codec.Unmarshal(data, &ds.info); err != nil {
		return nil, fmt.Errorf("%w: parse %s/%s: %v", ErrNotFound, path, kind.MetadataFile(), err)
	}
	return ds, nil
}

// Kind returns the dataset kind.
func (ds *Dataset) Kind() Kind { return ds.kind }

// Path returns the dataset location.
func (ds *Dataset) Path() string { return ds.path }

// ID returns the directory name of the dataset. It is the provenance of
// objects read from inference datasets.
func (ds *Dataset) ID() string { return filepath.Base(ds.path) }

// Store returns the blob store rooted at the dataset.
func (ds *Dataset) Store() blobstore.BlobStore { return ds.store }

// MediaDir returns the directory relative image URIs are resolved against.
func (ds *Dataset) MediaDir() string { return filepath.Join(ds.path, MediaDirName) }

// Info returns a copy of the parsed metadata.
func (ds *Dataset) Info() Info {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.info.Clone()
}

// SaveInfo replaces the metadata file with info. The file is overwritten
// as a whole; nothing is merged with the previous content.
func (ds *Dataset) SaveInfo(ctx context.Context, info Info) error {
	data, err := ds.opts.codec.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode %s metadata: %w", ds.path, err)
	}
	if err := ds.store.Put(ctx, ds.kind.MetadataFile(), data); err != nil {
		return fmt.Errorf("write %s metadata: %w", ds.path, err)
	}
	ds.mu.Lock()
	ds.info = info.Clone()
	ds.mu.Unlock()
	return nil
}

// Connect opens a table DB rooted at the dataset. extra is applied after the
// dataset's table options. The caller closes the DB.
func (ds *Dataset) Connect(extra ...table.Option) *table.DB {
	opts := append(slices.Clip(ds.opts.tableOpts), extra...)
	opts = append(opts, table.WithNamespace(ds.path))
	return table.Connect(ds.store, opts...)
}

// Load opens a split-partitioned view over every table of the dataset.
// The metadata file is never treated as data. The caller closes the view.
func (ds *Dataset) Load(ctx context.Context, extra ...table.Option) (*table.View, error) {
	db := ds.Connect(extra...)
	v, err := table.Discover(ctx, db, table.SplitPartitioning, ds.kind.MetadataFile())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return v, nil
}

// Stats reads stats.json.
func (ds *Dataset) Stats(ctx context.Context) ([]Stat, error) {
	data, err := blobstore.ReadAll(ctx, ds.store, StatsFile)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s has no %s", ErrNotFound, ds.path, StatsFile)
		}
		return nil, fmt.Errorf("read %s stats: %w", ds.path, err)
	}
	var stats []Stat
	if err := ds.opts.codec.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("%w: parse %s/%s: %v", ErrNotFound, ds.path, StatsFile, err)
	}
	return stats, nil
}

// Inferences opens the inference datasets nested in ds, sorted by
// directory name.
func Inferences(ctx context.Context, ds *Dataset) ([]*Dataset, error) {
	return nested(ctx, ds, Inference)
}

// LatestEmbedding opens the last embedding dataset nested in ds, in
// directory name order.
func LatestEmbedding(ctx context.Context, ds *Dataset) (*Dataset, error) {
	all, err := nested(ctx, ds, Embedding)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s has no embedding dataset", ErrNotFound, ds.path)
	}
	return all[len(all)-1], nil
}

// nested opens every "<prefix>*/<metadata file>" below ds in directory name
// order.
func nested(ctx context.Context, ds *Dataset, kind Kind) ([]*Dataset, error) {
	names, err := ds.store.List(ctx, kind.DirPrefix())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", ds.path, err)
	}
	var dirs []string
	for _, n := range names {
		dir, file, ok := strings.Cut(n, "/")
		if ok && file == kind.MetadataFile() {
			dirs = append(dirs, dir)
		}
	}
	// "a/x" sorts after "a-b/x" although "a" sorts before "a-b"
	slices.Sort(dirs)

	out := make([]*Dataset, 0, len(dirs))
	for _, dir := range dirs {
		o := ds.opts
		o.store = blobstore.NewPrefixed(ds.store, dir)
		sub, err := open(ctx, kind, filepath.Join(ds.path, dir), o)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}
