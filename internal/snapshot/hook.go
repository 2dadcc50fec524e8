package snapshot

import (
	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

// InvalidatingHook implements store.Hooks by dropping a tenant's cached
// entry on every mutation, so the node that performed the write never
// serves its own stale cache while waiting out the TTL.
type InvalidatingHook struct {
	cache *Cache
}

func NewInvalidatingHook(c *Cache) *InvalidatingHook {
	return &InvalidatingHook{cache: c}
}

func (h *InvalidatingHook) OnMutation(key tenant.Key, op string, before, after *flags.Definition) {
	h.cache.Invalidate(key)
}

func (h *InvalidatingHook) OnSegmentMutation(key tenant.Key, op string, id string, deleted bool) {
	h.cache.Invalidate(key)
}
