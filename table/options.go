package table

import (
	"github.com/hupe1980/annostore/lock"
	"github.com/hupe1980/annostore/resource"
)

type options struct {
	compression Compression
	controller  *resource.Controller
	locker      lock.Locker
	cache       *Cache
	namespace   string
}

// Option configures a DB.
type Option func(*options)

// WithCompression sets the block compression used when writing tables.
// Existing files keep the compression they were written with.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithController charges table reads and writes to rc. A nil controller
// imposes no limits.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithLocker serialises writers of the same table through l.
func WithLocker(l lock.Locker) Option {
	return func(o *options) {
		o.locker = l
	}
}

// WithCache serves repeated reads of remote table files from c.
func WithCache(c *Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithNamespace prefixes the lock and cache keys of every table with ns.
// DBs over distinct stores that share a locker or cache must use distinct
// namespaces.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}
