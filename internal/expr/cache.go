package expr

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Cache is a concurrency-safe compiled-expression cache keyed by the
// expression's text. Per the resource policy, the tenant document itself
// is not cached here; this only avoids re-parsing identical rule/segment
// strings across decisions, which are evaluated far more often than
// definitions change.
type Cache struct {
	mu sync.RWMutex
	m  map[uint64]cacheEntry
}

type cacheEntry struct {
	src  string
	node Node
	err  error
}

// NewCache builds an empty compiled-expression cache.
func NewCache() *Cache {
	return &Cache{m: make(map[uint64]cacheEntry)}
}

var defaultCache = NewCache()

// compile returns the parsed AST for src, compiling and caching on first
// use. A cached parse failure is replayed without re-lexing.
func (c *Cache) compile(src string) (Node, error) {
	key := xxhash.Sum64String(src)

	c.mu.RLock()
	entry, ok := c.m[key]
	c.mu.RUnlock()
	if ok && entry.src == src {
		return entry.node, entry.err
	}

	node, err := Parse(src)

	c.mu.Lock()
	c.m[key] = cacheEntry{src: src, node: node, err: err}
	c.mu.Unlock()

	return node, err
}

// Len reports the number of distinct expressions currently cached; mostly
// useful for tests and metrics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
