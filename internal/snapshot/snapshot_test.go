package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/store"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

func TestCache_Get_CachesWithinTTL(t *testing.T) {
	s := store.NewMemoryStore(nil)
	ctx := context.Background()
	key := tenant.New("acme", "prod")
	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	c := New(s, time.Minute)
	doc1, err := c.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	// Mutate the store directly without telling the cache — within TTL,
	// Get must still return the stale cached copy.
	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f2", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})
	doc2, err := c.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc2.Flags) != len(doc1.Flags) {
		t.Errorf("expected cached document to be reused within TTL, got %d flags vs %d", len(doc2.Flags), len(doc1.Flags))
	}
}

func TestCache_Get_RefetchesAfterTTL(t *testing.T) {
	s := store.NewMemoryStore(nil)
	ctx := context.Background()
	key := tenant.New("acme", "prod")
	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	c := New(s, time.Millisecond)
	if _, err := c.Get(ctx, key); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f2", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})
	doc, err := c.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Flags) != 2 {
		t.Errorf("expected refetch to see both flags after TTL expiry, got %d", len(doc.Flags))
	}
}

func TestCache_Invalidate_ForcesImmediateRefetch(t *testing.T) {
	s := store.NewMemoryStore(nil)
	ctx := context.Background()
	key := tenant.New("acme", "prod")
	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	c := New(s, time.Hour)
	if _, err := c.Get(ctx, key); err != nil {
		t.Fatal(err)
	}

	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f2", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})
	c.Invalidate(key)

	doc, err := c.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Flags) != 2 {
		t.Errorf("expected invalidate to force a refetch, got %d flags", len(doc.Flags))
	}
}

func TestCache_ETag_ChangesWithContent(t *testing.T) {
	s := store.NewMemoryStore(nil)
	ctx := context.Background()
	key := tenant.New("acme", "prod")
	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	c := New(s, time.Hour)
	if _, err := c.Get(ctx, key); err != nil {
		t.Fatal(err)
	}
	etag1, ok := c.ETag(key)
	if !ok || etag1 == "" {
		t.Fatal("expected a cached etag")
	}

	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f2", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})
	c.Invalidate(key)
	if _, err := c.Get(ctx, key); err != nil {
		t.Fatal(err)
	}
	etag2, _ := c.ETag(key)
	if etag1 == etag2 {
		t.Error("expected etag to change after document content changed")
	}
}

func TestCache_ETag_UnknownTenant(t *testing.T) {
	c := New(store.NewMemoryStore(nil), time.Hour)
	if _, ok := c.ETag(tenant.New("acme", "prod")); ok {
		t.Error("expected ETag to report false for a tenant never fetched")
	}
}
