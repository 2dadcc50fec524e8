package store

import (
	"context"
	"testing"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

func testKey() tenant.Key { return tenant.New("acme", "staging") }

func TestMemoryStore_PutAndGet(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	key := testKey()

	f := flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100}
	if err := s.PutFlag(ctx, key, f); err != nil {
		t.Fatal(err)
	}

	doc, err := s.GetData(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Flags["f1"]; !ok {
		t.Fatal("expected f1 to be present")
	}
}

func TestMemoryStore_PutFlag_I1_MissingSegment(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	key := testKey()

	f := flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100, Segments: []string{"ghost"}}
	err := s.PutFlag(ctx, key, f)
	if err == nil {
		t.Fatal("expected I1 violation for missing segment")
	}
	fe, ok := err.(*flags.Error)
	if !ok || fe.Kind != flags.KindInvalidReference {
		t.Fatalf("expected KindInvalidReference, got %v", err)
	}

	doc, _ := s.GetData(ctx, key)
	if len(doc.Flags) != 0 {
		t.Fatal("P10: no partial write should be observable after a failed putFlag")
	}
}

func TestMemoryStore_UpdateFlag_NotFound(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	err := s.UpdateFlag(ctx, testKey(), "missing", Patch{})
	if err == nil {
		t.Fatal("expected NotFound")
	}
	if fe, ok := err.(*flags.Error); !ok || fe.Kind != flags.KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestMemoryStore_UpdateFlag_Merge(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	key := testKey()

	f := flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: false, Rollout: 50}
	if err := s.PutFlag(ctx, key, f); err != nil {
		t.Fatal(err)
	}

	enabled := true
	if err := s.UpdateFlag(ctx, key, "f1", Patch{Enabled: &enabled}); err != nil {
		t.Fatal(err)
	}
	doc, _ := s.GetData(ctx, key)
	if !doc.Flags["f1"].Enabled {
		t.Fatal("expected enabled to be patched to true")
	}
	if doc.Flags["f1"].Rollout != 50 {
		t.Fatal("expected untouched fields to survive the merge")
	}
}

func TestMemoryStore_DeleteFlag(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	key := testKey()

	_ = s.PutFlag(ctx, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Rollout: 100})
	if err := s.DeleteFlag(ctx, key, "f1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteFlag(ctx, key, "f1"); err == nil {
		t.Fatal("expected NotFound on second delete")
	}
}

func TestMemoryStore_CascadeDeleteSegment(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	key := testKey()

	if err := s.PutSegment(ctx, key, "a", "true"); err != nil {
		t.Fatal(err)
	}
	if err := s.PutSegment(ctx, key, "b", "true"); err != nil {
		t.Fatal(err)
	}
	if err := s.PutFlag(ctx, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Rollout: 100, Segments: []string{"a", "b"}}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteSegment(ctx, key, "a"); err != nil {
		t.Fatal(err)
	}

	doc, _ := s.GetData(ctx, key)
	if _, ok := doc.Segments["a"]; ok {
		t.Fatal("expected segment a removed from tenant segments")
	}
	if segs := doc.Flags["f1"].Segments; len(segs) != 1 || segs[0] != "b" {
		t.Fatalf("expected flag segments == [b], got %v", segs)
	}
}

func TestMemoryStore_SyncFlag_DefaultOff(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	source := tenant.New("acme", "production")
	target := tenant.New("acme", "staging")

	_ = s.PutSegment(ctx, source, "beta-users", "user.beta==true")
	_ = s.PutSegment(ctx, source, "unrelated", "true")
	_ = s.PutFlag(ctx, source, flags.Definition{ID: "feature-a", Type: flags.TypeBoolean, Enabled: true, Rollout: 100, Segments: []string{"beta-users"}})

	if err := s.SyncFlag(ctx, source, target, "feature-a", false); err != nil {
		t.Fatal(err)
	}

	doc, _ := s.GetData(ctx, target)
	got, ok := doc.Flags["feature-a"]
	if !ok {
		t.Fatal("expected feature-a copied to target")
	}
	if got.Enabled {
		t.Error("expected enabled forced to false when overwrite=false")
	}
	if _, ok := doc.Segments["beta-users"]; !ok {
		t.Error("expected referenced segment copied")
	}
	if _, ok := doc.Segments["unrelated"]; ok {
		t.Error("expected unrelated segment NOT copied by syncFlag")
	}
}

func TestMemoryStore_SyncEnv_PreservesTargetOnlyKeys(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	source := tenant.New("acme", "production")
	target := tenant.New("acme", "staging")

	_ = s.PutFlag(ctx, target, flags.Definition{ID: "target-only", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})
	_ = s.PutFlag(ctx, source, flags.Definition{ID: "shared", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	if err := s.SyncEnv(ctx, source, target, true); err != nil {
		t.Fatal(err)
	}
	doc, _ := s.GetData(ctx, target)
	if _, ok := doc.Flags["target-only"]; !ok {
		t.Error("expected target-only key retained (merge, not replace)")
	}
	if _, ok := doc.Flags["shared"]; !ok {
		t.Error("expected shared flag copied from source")
	}
}

func TestMemoryStore_SyncEnv_OverwriteTrue_PreservesEnabled(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	source := tenant.New("acme", "production")
	target := tenant.New("acme", "staging")

	_ = s.PutFlag(ctx, source, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})
	if err := s.SyncEnv(ctx, source, target, true); err != nil {
		t.Fatal(err)
	}
	doc, _ := s.GetData(ctx, target)
	if !doc.Flags["f1"].Enabled {
		t.Error("expected enabled preserved when overwrite=true")
	}
}
