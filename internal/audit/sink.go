package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// LogSink writes audit events to the structured logger instead of a
// database. Used when no Postgres pool is available to back the audit
// trail (e.g. the in-memory store backend), so mutations are still
// observable somewhere.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (LogSink) Write(_ context.Context, event AuditEvent) error {
	log.Info().
		Str("audit_id", event.ID).
		Str("action", event.Action).
		Str("resource_type", event.ResourceType).
		Str("resource_id", event.ResourceID).
		Str("app", event.App).
		Str("env", event.Env).
		Msg("audit event")
	return nil
}

// Schema is the DDL for the audit log table, applied alongside
// store.Schema during Postgres bootstrap.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id            TEXT PRIMARY KEY,
	occurred_at   TIMESTAMPTZ NOT NULL,
	request_id    TEXT NOT NULL DEFAULT '',
	actor_kind    TEXT NOT NULL,
	actor_display TEXT NOT NULL,
	action        TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	app           TEXT NOT NULL,
	env           TEXT NOT NULL,
	before_state  JSONB,
	after_state   JSONB,
	changes       JSONB,
	status        TEXT NOT NULL,
	error_message TEXT
);
`

// PostgresSink persists audit events directly via pgx — there is no
// generated query layer here, the statement is small enough to hand-write.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Write(ctx context.Context, event AuditEvent) error {
	before, err := marshalOrNil(event.BeforeState)
	if err != nil {
		return err
	}
	after, err := marshalOrNil(event.AfterState)
	if err != nil {
		return err
	}
	changes, err := marshalOrNil(event.Changes)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_log
			(id, occurred_at, request_id, actor_kind, actor_display, action,
			 resource_type, resource_id, app, env, before_state, after_state,
			 changes, status, error_message)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO NOTHING
	`,
		event.ID, event.OccurredAt, event.RequestID, event.Actor.Kind, event.Actor.Display,
		event.Action, event.ResourceType, event.ResourceID, event.App, event.Env,
		before, after, changes, event.Status, event.ErrorMessage,
	)
	return err
}

func marshalOrNil(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
