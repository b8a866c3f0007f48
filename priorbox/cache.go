package priorbox

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct frame sizes whose anchor
// sets are kept in memory. Anchor generation is cheap relative to inference,
// so a small bound suffices even for heterogeneous-size streams.
const DefaultCacheSize = 8

// Cache memoizes PriorBox instances per (width, height) frame size with LRU
// eviction. Evicted entries are simply regenerated on the next request.
//
// Not safe for concurrent use without external synchronization, matching the
// single-threaded detector contract.
type Cache struct {
	entries *lru.Cache[[2]int, *PriorBox]
}

// NewCache returns a cache bounded to size entries. A size <= 0 falls back
// to DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes, which are rewritten above.
	entries, _ := lru.New[[2]int, *PriorBox](size)
	return &Cache{entries: entries}
}

// Get returns the anchor set for a (width, height) frame size, generating
// and caching it on first use.
func (c *Cache) Get(width, height int) *PriorBox {
	key := [2]int{width, height}
	if pb, ok := c.entries.Get(key); ok {
		return pb
	}
	pb := New(width, height, width, height)
	c.entries.Add(key, pb)
	return pb
}

// Len returns the number of cached anchor sets.
func (c *Cache) Len() int {
	return c.entries.Len()
}
