package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxOptimisticRetries bounds the read-modify-write retry loop used by
// every PostgresStore mutator before it gives up and surfaces an error.
const maxOptimisticRetries = 5

// PostgresStore persists one row per tenant document, optimistic
// concurrency enforced by a version column (spec §4.4, §9: "Implementations
// SHOULD use the backing store's atomic primitive"). There is no
// sqlc-generated query layer here — the schema is small enough that
// hand-written SQL through pgx is clearer than a generator for one table.
type PostgresStore struct {
	pool  *pgxpool.Pool
	hooks Hooks
}

// NewPostgresStore wraps pool. Callers are responsible for having applied
// the tenant_documents schema (see Schema) before first use.
func NewPostgresStore(pool *pgxpool.Pool, hooks Hooks) *PostgresStore {
	return &PostgresStore{pool: pool, hooks: hooks}
}

// Schema is the DDL PostgresStore depends on.
const Schema = `
CREATE TABLE IF NOT EXISTS tenant_documents (
	key        TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	version    BIGINT NOT NULL DEFAULT 1,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func internalErr(format string, args ...any) *flags.Error {
	return &flags.Error{Kind: flags.KindInternal, Message: fmt.Sprintf(format, args...)}
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStore) GetData(ctx context.Context, key tenant.Key) (flags.Document, error) {
	doc, _, err := p.read(ctx, key)
	return doc, err
}

// read fetches the tenant document and its optimistic-concurrency version,
// returning an empty document with version 0 ("no row yet") rather than an
// error.
func (p *PostgresStore) read(ctx context.Context, key tenant.Key) (flags.Document, int64, error) {
	var raw []byte
	var version int64
	err := p.pool.QueryRow(ctx, `SELECT document, version FROM tenant_documents WHERE key = $1`, key.StorageKey()).Scan(&raw, &version)
	if err == pgx.ErrNoRows {
		return flags.NewDocument(), 0, nil
	}
	if err != nil {
		return flags.Document{}, 0, internalErr("reading tenant document: %v", err)
	}
	var doc flags.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return flags.Document{}, 0, internalErr("decoding stored document: %v", err)
	}
	if doc.Flags == nil {
		doc.Flags = map[string]flags.Definition{}
	}
	if doc.Segments == nil {
		doc.Segments = map[string]string{}
	}
	return doc, version, nil
}

// write performs one optimistic-concurrency compare-and-set: version=0
// means "insert", otherwise "update WHERE version = oldVersion". ok=false
// means the version has moved on and the caller should re-read and retry.
func (p *PostgresStore) write(ctx context.Context, key tenant.Key, doc flags.Document, oldVersion int64) (ok bool, err error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return false, internalErr("encoding tenant document: %v", err)
	}

	if oldVersion == 0 {
		tag, err := p.pool.Exec(ctx, `
			INSERT INTO tenant_documents (key, document, version, updated_at)
			VALUES ($1, $2, 1, now())
			ON CONFLICT (key) DO NOTHING`, key.StorageKey(), raw)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE tenant_documents
		SET document = $1, version = version + 1, updated_at = now()
		WHERE key = $2 AND version = $3`, raw, key.StorageKey(), oldVersion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// mutate runs fn against the current document, retrying on optimistic
// concurrency conflicts up to maxOptimisticRetries times.
func (p *PostgresStore) mutate(ctx context.Context, key tenant.Key, fn func(doc flags.Document) (flags.Document, error)) error {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		doc, version, err := p.read(ctx, key)
		if err != nil {
			return err
		}
		newDoc, err := fn(doc)
		if err != nil {
			return err
		}
		ok, err := p.write(ctx, key, newDoc, version)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return flags.InvalidInput("", "tenant document %s changed concurrently; exceeded %d retries", key, maxOptimisticRetries)
}

func (p *PostgresStore) PutFlag(ctx context.Context, key tenant.Key, f flags.Definition) error {
	var before *flags.Definition
	err := p.mutate(ctx, key, func(doc flags.Document) (flags.Document, error) {
		if err := flags.Validate(f, doc.Segments); err != nil {
			return doc, err
		}
		before = lookupPtr(doc.Flags, f.ID)
		doc.Flags[f.ID] = f
		return doc, nil
	})
	if err == nil {
		p.notify(key, "putFlag", before, &f)
	}
	return err
}

func (p *PostgresStore) UpdateFlag(ctx context.Context, key tenant.Key, id string, patch Patch) error {
	var before, after flags.Definition
	err := p.mutate(ctx, key, func(doc flags.Document) (flags.Document, error) {
		existing, ok := doc.Flags[id]
		if !ok {
			return doc, flags.NotFound("flag", id)
		}
		before = existing
		updated := applyPatch(existing, patch)
		if err := flags.Validate(updated, doc.Segments); err != nil {
			return doc, err
		}
		after = updated
		doc.Flags[id] = updated
		return doc, nil
	})
	if err == nil {
		p.notify(key, "updateFlag", &before, &after)
	}
	return err
}

func (p *PostgresStore) DeleteFlag(ctx context.Context, key tenant.Key, id string) error {
	var before flags.Definition
	err := p.mutate(ctx, key, func(doc flags.Document) (flags.Document, error) {
		existing, ok := doc.Flags[id]
		if !ok {
			return doc, flags.NotFound("flag", id)
		}
		before = existing
		delete(doc.Flags, id)
		return doc, nil
	})
	if err == nil {
		p.notify(key, "deleteFlag", &before, nil)
	}
	return err
}

func (p *PostgresStore) PutSegment(ctx context.Context, key tenant.Key, id, expression string) error {
	err := p.mutate(ctx, key, func(doc flags.Document) (flags.Document, error) {
		doc.Segments[id] = expression
		return doc, nil
	})
	if err == nil && p.hooks != nil {
		go p.hooks.OnSegmentMutation(key, "putSegment", id, false)
	}
	return err
}

func (p *PostgresStore) DeleteSegment(ctx context.Context, key tenant.Key, id string) error {
	err := p.mutate(ctx, key, func(doc flags.Document) (flags.Document, error) {
		if _, ok := doc.Segments[id]; !ok {
			return doc, flags.NotFound("segment", id)
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
		return doc, nil
	})
	if err == nil && p.hooks != nil {
		go p.hooks.OnSegmentMutation(key, "deleteSegment", id, true)
	}
	return err
}

func (p *PostgresStore) SyncEnv(ctx context.Context, source, target tenant.Key, overwrite bool) error {
	src, _, err := p.read(ctx, source)
	if err != nil {
		return err
	}
	return p.mutate(ctx, target, func(dst flags.Document) (flags.Document, error) {
		mergeSync(src, dst, overwrite)
		return dst, nil
	})
}

func (p *PostgresStore) SyncFlag(ctx context.Context, source, target tenant.Key, id string, overwrite bool) error {
	src, _, err := p.read(ctx, source)
	if err != nil {
		return err
	}
	f, ok := src.Flags[id]
	if !ok {
		return flags.NotFound("flag", id)
	}
	return p.mutate(ctx, target, func(dst flags.Document) (flags.Document, error) {
		fcopy := f
		if !overwrite {
			fcopy.Enabled = false
		}
		dst.Flags[fcopy.ID] = fcopy
		for _, sid := range fcopy.Segments {
			if expression, ok := src.Segments[sid]; ok {
				dst.Segments[sid] = expression
			}
		}
		return dst, nil
	})
}

func (p *PostgresStore) notify(key tenant.Key, op string, before, after *flags.Definition) {
	if p.hooks == nil {
		return
	}
	go p.hooks.OnMutation(key, op, before, after)
}
