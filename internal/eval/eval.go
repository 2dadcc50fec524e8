// Package eval is the evaluation facade: the single entry point a
// transport layer calls to resolve one flag or a whole tenant's flags.
package eval

import (
	"context"
	"time"

	"github.com/TimurManjosov/goflagship/internal/decision"
	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/snapshot"
	"github.com/TimurManjosov/goflagship/internal/tenant"
	"github.com/sourcegraph/conc/pool"
)

// documentSource is satisfied by *snapshot.Cache; evaluation always reads
// the tenant document through the TTL-cached path, never the raw store.
type documentSource interface {
	Get(ctx context.Context, key tenant.Key) (flags.Document, error)
}

// Facade ties the tenant-document cache and the decision procedure together.
type Facade struct {
	docs documentSource
}

func New(cache *snapshot.Cache) *Facade { return &Facade{docs: cache} }

// One evaluates a single flag. now defaults to time.Now() when zero —
// per spec §4.2, a call that passes no now uses the wall clock once at
// decision entry and reuses it for the whole decision.
func (f *Facade) One(ctx context.Context, key tenant.Key, flagID string, in decision.Input, now time.Time) (decision.Result, error) {
	if now.IsZero() {
		now = time.Now()
	}
	doc, err := f.docs.Get(ctx, key)
	if err != nil {
		return decision.Result{}, err
	}
	def, ok := doc.Flags[flagID]
	if !ok {
		return decision.Result{}, flags.NotFound("flag", flagID)
	}
	return decision.Decide(def, doc.Segments, in, now), nil
}

// All evaluates every flag in the tenant document concurrently, bounded
// by a worker pool — each evaluation is independent and read-only (spec
// §5), so there is no reason to serialise them.
func (f *Facade) All(ctx context.Context, key tenant.Key, in decision.Input, now time.Time) (map[string]decision.Result, error) {
	if now.IsZero() {
		now = time.Now()
	}
	doc, err := f.docs.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	type pair struct {
		id  string
		res decision.Result
	}

	p := pool.NewWithResults[pair]().WithMaxGoroutines(16)
	for id, def := range doc.Flags {
		id, def := id, def
		p.Go(func() pair {
			return pair{id: id, res: decision.Decide(def, doc.Segments, in, now)}
		})
	}
	results := p.Wait()

	out := make(map[string]decision.Result, len(results))
	for _, r := range results {
		out[r.id] = r.res
	}
	return out, nil
}
