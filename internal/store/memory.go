package store

import (
	"context"
	"sync"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

// Hooks lets a store emit fire-and-forget mutation notifications (audit
// trail, webhook dispatch) without the mutator blocking on them — the
// call happens in its own goroutine after the document write commits.
type Hooks interface {
	OnMutation(key tenant.Key, op string, before, after *flags.Definition)
	OnSegmentMutation(key tenant.Key, op string, id string, deleted bool)
}

// MultiHooks fans a mutation notification out to every hook in order.
// Used at startup to combine the audit, webhook, and cache-invalidation
// hooks into the single Hooks value a store accepts.
type MultiHooks []Hooks

func (m MultiHooks) OnMutation(key tenant.Key, op string, before, after *flags.Definition) {
	for _, h := range m {
		h.OnMutation(key, op, before, after)
	}
}

func (m MultiHooks) OnSegmentMutation(key tenant.Key, op string, id string, deleted bool) {
	for _, h := range m {
		h.OnSegmentMutation(key, op, id, deleted)
	}
}

// MemoryStore is an in-memory implementation of Store, suitable for
// development, tests, and single-instance deployments. One document per
// tenant key, guarded by a single RWMutex — writers are rare and the
// tenant document is the unit of atomicity (spec §4.4, §9).
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[tenant.Key]flags.Document
	hooks Hooks
}

// NewMemoryStore builds an empty MemoryStore. hooks may be nil.
func NewMemoryStore(hooks Hooks) *MemoryStore {
	return &MemoryStore{docs: make(map[tenant.Key]flags.Document), hooks: hooks}
}

func (m *MemoryStore) GetData(ctx context.Context, key tenant.Key) (flags.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return flags.NewDocument(), nil
	}
	return doc.CloneForRead(), nil
}

func (m *MemoryStore) PutFlag(ctx context.Context, key tenant.Key, f flags.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.getOrInit(key)
	if err := flags.Validate(f, doc.Segments); err != nil {
		return err
	}
	before := lookupPtr(doc.Flags, f.ID)
	doc.Flags[f.ID] = f
	m.docs[key] = doc
	m.notify(key, "putFlag", before, &f)
	return nil
}

func (m *MemoryStore) UpdateFlag(ctx context.Context, key tenant.Key, id string, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.getOrInit(key)
	existing, ok := doc.Flags[id]
	if !ok {
		return flags.NotFound("flag", id)
	}
	updated := applyPatch(existing, patch)
	if err := flags.Validate(updated, doc.Segments); err != nil {
		return err
	}
	doc.Flags[id] = updated
	m.docs[key] = doc
	m.notify(key, "updateFlag", &existing, &updated)
	return nil
}

func (m *MemoryStore) DeleteFlag(ctx context.Context, key tenant.Key, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.getOrInit(key)
	existing, ok := doc.Flags[id]
	if !ok {
		return flags.NotFound("flag", id)
	}
	delete(doc.Flags, id)
	m.docs[key] = doc
	m.notify(key, "deleteFlag", &existing, nil)
	return nil
}

func (m *MemoryStore) PutSegment(ctx context.Context, key tenant.Key, id, expression string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.getOrInit(key)
	doc.Segments[id] = expression
	m.docs[key] = doc
	if m.hooks != nil {
		go m.hooks.OnSegmentMutation(key, "putSegment", id, false)
	}
	return nil
}

// DeleteSegment removes the segment and strips it from every flag's
// Segments set in one critical section (P9: single observation).
func (m *MemoryStore) DeleteSegment(ctx context.Context, key tenant.Key, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.getOrInit(key)
	if _, ok := doc.Segments[id]; !ok {
		return flags.NotFound("segment", id)
	}
	delete(doc.Segments, id)
	for fid, f := range doc.Flags {
		f.Segments = removeString(f.Segments, id)
		for i := range f.Rollouts {
			if f.Rollouts[i].Segment == id {
				f.Rollouts[i].Segment = ""
			}
		}
		doc.Flags[fid] = f
	}
	m.docs[key] = doc
	if m.hooks != nil {
		go m.hooks.OnSegmentMutation(key, "deleteSegment", id, true)
	}
	return nil
}

func (m *MemoryStore) SyncEnv(ctx context.Context, source, target tenant.Key, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.getOrInit(source)
	dst := m.getOrInit(target)
	mergeSync(src, dst, overwrite)
	m.docs[target] = dst
	return nil
}

func (m *MemoryStore) SyncFlag(ctx context.Context, source, target tenant.Key, id string, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.getOrInit(source)
	f, ok := src.Flags[id]
	if !ok {
		return flags.NotFound("flag", id)
	}
	dst := m.getOrInit(target)
	if !overwrite {
		f.Enabled = false
	}
	dst.Flags[f.ID] = f
	for _, sid := range f.Segments {
		if expr, ok := src.Segments[sid]; ok {
			dst.Segments[sid] = expr
		}
	}
	m.docs[target] = dst
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) getOrInit(key tenant.Key) flags.Document {
	doc, ok := m.docs[key]
	if !ok {
		doc = flags.NewDocument()
	}
	return doc
}

func (m *MemoryStore) notify(key tenant.Key, op string, before, after *flags.Definition) {
	if m.hooks == nil {
		return
	}
	go m.hooks.OnMutation(key, op, before, after)
}

// mergeSync copies every flag and segment from src into dst (merge, not
// replace): dst keys absent from src are retained (spec §4.4).
func mergeSync(src, dst flags.Document, overwrite bool) {
	for id, expression := range src.Segments {
		dst.Segments[id] = expression
	}
	for id, f := range src.Flags {
		if !overwrite {
			f.Enabled = false
		}
		dst.Flags[id] = f
	}
}

func lookupPtr(m map[string]flags.Definition, id string) *flags.Definition {
	if v, ok := m[id]; ok {
		return &v
	}
	return nil
}

func removeString(ss []string, target string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
