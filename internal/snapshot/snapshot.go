// Package snapshot provides a per-tenant, TTL-bounded cache of tenant
// documents in front of the store. Unlike the teacher's single global
// atomic snapshot pointer with SSE fan-out, evaluation is served
// per-(app,env) and there is no real-time push: a cache entry is reused
// until it is older than the configured TTL, then the next read
// refetches from the store. This is a pull model, not a push one.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/store"
	"github.com/TimurManjosov/goflagship/internal/telemetry"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

type entry struct {
	doc       flags.Document
	etag      string
	fetchedAt time.Time
}

// Cache fronts a store.Store with a per-tenant, TTL-bounded read cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[tenant.Key]entry
	store   store.Store
	ttl     time.Duration
}

func New(s store.Store, ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[tenant.Key]entry),
		store:   s,
		ttl:     ttl,
	}
}

// Get returns key's tenant document, serving a cached copy when it is
// younger than the cache's TTL and refetching from the store otherwise.
func (c *Cache) Get(ctx context.Context, key tenant.Key) (flags.Document, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Since(e.fetchedAt) < c.ttl {
		return e.doc, nil
	}

	doc, err := c.store.GetData(ctx, key)
	if err != nil {
		return flags.Document{}, err
	}
	etag := computeETag(doc)

	c.mu.Lock()
	c.entries[key] = entry{doc: doc, etag: etag, fetchedAt: time.Now()}
	telemetry.SnapshotDocuments.Set(float64(len(c.entries)))
	c.mu.Unlock()

	return doc, nil
}

// ETag returns key's last-known ETag without forcing a refresh, or
// ("", false) if nothing has been cached yet.
func (c *Cache) ETag(key tenant.Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return e.etag, true
}

// Invalidate drops key's cached entry so the next Get refetches from the
// store immediately, regardless of TTL. Store mutators call this after a
// successful write so the node that made the change observes it right
// away instead of waiting out the TTL.
func (c *Cache) Invalidate(key tenant.Key) {
	c.mu.Lock()
	delete(c.entries, key)
	telemetry.SnapshotDocuments.Set(float64(len(c.entries)))
	c.mu.Unlock()
}

// computeETag generates a weak ETag from a tenant document using SHA-256.
func computeETag(doc flags.Document) string {
	serialized, _ := json.Marshal(doc)
	hash := sha256.Sum256(serialized)
	return `W/"` + hex.EncodeToString(hash[:]) + `"`
}
