package annostore

import (
	"github.com/hupe1980/annostore/blobstore"
	"github.com/hupe1980/annostore/codec"
	"github.com/hupe1980/annostore/lock"
	"github.com/hupe1980/annostore/resource"
	"github.com/hupe1980/annostore/table"
)

type options struct {
	logger      *Logger
	codec       codec.Codec
	compression table.Compression
	locker      lock.Locker
	controller  *resource.Controller
	parallelism int
	store       blobstore.BlobStore
	metrics     MetricsCollector
	cache       *table.Cache
}

// defaultLocker serialises writers of every library and package level call
// in this process that does not configure its own Locker.
var defaultLocker = lock.NewMemoryLocker()

func defaultOptions() options {
	return options{
		logger:      NoopLogger(),
		codec:       codec.Default,
		compression: table.CompressionZSTD,
		locker:      defaultLocker,
		parallelism: 4,
		metrics:     NoopMetricsCollector{},
	}
}

// tableOptions configures every table DB opened on behalf of an operation.
func (o options) tableOptions() []table.Option {
	return []table.Option{
		table.WithCompression(o.compression),
		table.WithController(o.controller),
		table.WithLocker(o.locker),
		table.WithCache(o.cache),
	}
}

// Option configures a Library (see New) or a single call of the package
// level LoadItemObjects, SaveItemObjects and LoadItemEmbeddings.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithCodec configures the codec of dataset metadata files.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression sets the block compression of table files written by
// SaveItemObjects. Existing files keep their compression until rewritten.
func WithCompression(c table.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLocker serialises writers of one table. The default is a lock.MemoryLocker
// shared by the whole process; use lock/dynamodb when several processes
// write to the same library.
func WithLocker(l lock.Locker) Option {
	return func(o *options) {
		if l == nil {
			l = defaultLocker
		}
		o.locker = l
	}
}

// WithResourceController bounds the memory, concurrent scans and IO of all
// queries of the library.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithParallelism sets how many inference datasets LoadItemObjects scans at
// once. Values below 1 scan them one after another.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.parallelism = n
	}
}

// WithBlobStore reads the library from store instead of the local data
// directory. Each dataset lives under "<id>/" in the store.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithMetricsCollector records the outcome and latency of every library
// operation. If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithTableCache keeps table files read from a remote blob store in c, so
// repeated queries of the same partition skip the download. Each read still
// fetches the file footer to detect rewrites. Local libraries are memory
// mapped and do not use the cache.
func WithTableCache(c *table.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}
