// Package cache implements the bounded LRU content-block cache the
// memory-mapped reader uses to avoid re-decompressing the LZ4 content
// block on every access (spec §5 "cached per-reader with a configurable
// byte bound ... LRU eviction").
//
// Grounded on straga-Mimir_lite/nornicdb's pkg/cache/query_cache.go: a
// container/list for LRU order plus a map for O(1) lookup, guarded by a
// mutex, with atomic hit/miss counters. This cache is simpler than the
// query cache it's grounded on — keys are node ids, there is no TTL, and
// eviction is driven by total byte size rather than entry count, since
// the spec's bound is a byte budget, not an item count.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

type entry struct {
	key   uint32
	value []byte
}

// ContentCache is a thread-safe, byte-bounded LRU cache from node id to
// decoded content bytes.
type ContentCache struct {
	mu sync.Mutex

	maxBytes     int
	currentBytes int

	order *list.List
	items map[uint32]*list.Element

	hits   uint64
	misses uint64
}

// DefaultMaxBytes is the cache bound applied when New is given zero (spec
// §5 default 64 MiB).
const DefaultMaxBytes = 64 * 1024 * 1024

// New creates a ContentCache bounded to maxBytes total cached payload
// size. maxBytes <= 0 uses DefaultMaxBytes.
func New(maxBytes int) *ContentCache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &ContentCache{
		maxBytes: maxBytes,
		order:    list.New(),
		items:    make(map[uint32]*list.Element),
	}
}

// Get returns the cached value for key and marks it most-recently-used.
func (c *ContentCache) Get(key uint32) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	c.order.MoveToFront(el)
	atomic.AddUint64(&c.hits, 1)
	return el.Value.(*entry).value, true
}

// Put inserts or updates key's cached value, evicting least-recently-used
// entries until the cache fits within its byte bound.
func (c *ContentCache) Put(key uint32, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		old := el.Value.(*entry)
		c.currentBytes += len(value) - len(old.value)
		old.value = value
		c.order.MoveToFront(el)
	} else {
		el := c.order.PushFront(&entry{key: key, value: value})
		c.items[key] = el
		c.currentBytes += len(value)
	}

	for c.currentBytes > c.maxBytes && c.order.Len() > 0 {
		back := c.order.Back()
		if back == nil {
			break
		}
		ev := back.Value.(*entry)
		c.order.Remove(back)
		delete(c.items, ev.key)
		c.currentBytes -= len(ev.value)
	}
}

// Stats returns cumulative hit and miss counts.
func (c *ContentCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// Len returns the number of entries currently cached.
func (c *ContentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
