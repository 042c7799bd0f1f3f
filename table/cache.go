package table

import (
	"container/list"
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/annostore/blobstore"
	"github.com/hupe1980/annostore/resource"
)

// Cache keeps parsed table files read from remote stores, bounded by a byte
// capacity and evicted least recently used first.
//
// Entries are keyed by blob name, size and body checksum. A lookup reads the
// file footer first, so a table rewritten by any process is never served
// from a stale entry. Local stores are memory mapped and bypass the cache.
//
// A Cache is safe for concurrent use and may be shared by DBs over distinct
// stores as long as each uses its own namespace (see WithCache).
type Cache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[cacheKey]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheKey struct {
	namespace string
	blob      string
	size      int64
	checksum  uint32
}

type cacheEntry struct {
	key  cacheKey
	file *tableFile
	size int64
}

// NewCache creates a cache holding up to capacity bytes of table files.
// If rc is provided, cached bytes are charged to its memory budget and an
// entry is dropped rather than exceed it.
func NewCache(capacity int64, rc *resource.Controller) *Cache {
	return &Cache{
		capacity:  capacity,
		items:     make(map[cacheKey]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// footerKey identifies the current content of b.
func footerKey(ctx context.Context, namespace, blob string, b blobstore.Blob) (cacheKey, bool) {
	size := b.Size()
	if size < HeaderSize+FooterSize {
		return cacheKey{}, false
	}
	var footer [FooterSize]byte
	if _, err := b.ReadAt(ctx, footer[:], size-FooterSize); err != nil {
		return cacheKey{}, false
	}
	if binary.LittleEndian.Uint32(footer[4:8]) != FormatMagic {
		return cacheKey{}, false
	}
	return cacheKey{
		namespace: namespace,
		blob:      blob,
		size:      size,
		checksum:  binary.LittleEndian.Uint32(footer[0:4]),
	}, true
}

func (c *Cache) get(key cacheKey) (*tableFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*cacheEntry).file, true
	}
	c.misses.Add(1)
	return nil, false
}

func (c *Cache) set(key cacheKey, f *tableFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		return
	}

	size := key.size
	if size > c.capacity {
		return
	}
	// Older versions of the same table are unreachable.
	for k, ent := range c.items {
		if k.namespace == key.namespace && k.blob == key.blob {
			c.removeElement(ent)
		}
	}
	for c.size+size > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}
	if c.rc != nil && !c.rc.TryAcquireMemory(size) {
		return
	}

	c.items[key] = c.evictList.PushFront(&cacheEntry{key: key, file: f, size: size})
	c.size += size
}

func (c *Cache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	ent := e.Value.(*cacheEntry)
	delete(c.items, ent.key)
	c.size -= ent.size
	if c.rc != nil {
		c.rc.ReleaseMemory(ent.size)
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

// Size returns the cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
