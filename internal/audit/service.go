// Package audit implements the fire-and-forget audit trail for tenant
// document mutations: every write to the store goes through a
// store.Hooks implementation here, which queues an AuditEvent and
// drains it on a background worker so the mutator is never blocked.
package audit

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Action constants for audit logging.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionSynced  = "synced"
)

// ResourceType constants for audit logging.
const (
	ResourceTypeFlag    = "flag"
	ResourceTypeSegment = "segment"
	ResourceTypeEnv     = "environment"
)

// Status constants for audit logging.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ActorKind constants for audit logging.
const (
	ActorKindManagement = "management"
	ActorKindSystem     = "system"
)

// Clock interface for testable time operations.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator interface for testable ID generation.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator implements IDGenerator using google/uuid.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string { return uuid.NewString() }

// Redactor removes sensitive data from captured before/after state.
type Redactor interface {
	Redact(data map[string]any) map[string]any
}

// DefaultRedactor strips well-known sensitive keys from captured state.
type DefaultRedactor struct {
	sensitiveKeys []string
}

func NewDefaultRedactor() *DefaultRedactor {
	return &DefaultRedactor{
		sensitiveKeys: []string{
			"password", "secret", "token", "api_key", "key_hash",
			"authorization", "cookie", "session",
		},
	}
}

func (r *DefaultRedactor) Redact(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	redacted := make(map[string]any, len(data))
	for k, v := range data {
		isSensitive := false
		for _, sensitive := range r.sensitiveKeys {
			if k == sensitive {
				isSensitive = true
				break
			}
		}
		switch {
		case isSensitive:
			redacted[k] = "[REDACTED]"
		default:
			if nested, ok := v.(map[string]any); ok {
				redacted[k] = r.Redact(nested)
			} else {
				redacted[k] = v
			}
		}
	}
	return redacted
}

// Actor represents who performed the mutation.
type Actor struct {
	Kind    string `json:"kind"` // management, system
	Display string `json:"display"`
}

// AuditEvent is a canonical record of one tenant document mutation.
type AuditEvent struct {
	ID           string         `json:"id"`
	OccurredAt   time.Time      `json:"occurred_at"`
	RequestID    string         `json:"request_id"`
	Actor        Actor          `json:"actor"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	App          string         `json:"app"`
	Env          string         `json:"env"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

// AuditSink persists audit events.
type AuditSink interface {
	Write(ctx context.Context, event AuditEvent) error
}

// Service queues audit events and drains them on a background worker so
// Log never blocks the caller (the store mutator).
type Service struct {
	sink     AuditSink
	clock    Clock
	idgen    IDGenerator
	redactor Redactor
	queue    chan AuditEvent
	stopCh   chan struct{}
	closed   int32
}

func NewService(sink AuditSink, clock Clock, idgen IDGenerator, redactor Redactor, queueSize int) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	if redactor == nil {
		redactor = NewDefaultRedactor()
	}
	s := &Service{
		sink:     sink,
		clock:    clock,
		idgen:    idgen,
		redactor: redactor,
		queue:    make(chan AuditEvent, queueSize),
		stopCh:   make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *Service) worker() {
	for {
		select {
		case event := <-s.queue:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.sink.Write(ctx, event); err != nil {
				log.Error().Err(err).Str("resource_type", event.ResourceType).Str("resource_id", event.ResourceID).Msg("audit: failed to write event")
			}
			cancel()
		case <-s.stopCh:
			for len(s.queue) > 0 {
				event := <-s.queue
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = s.sink.Write(ctx, event)
				cancel()
			}
			return
		}
	}
}

// Close signals the worker to stop, draining any queued events first.
// Safe to call more than once.
func (s *Service) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	close(s.stopCh)
	return nil
}

// Log queues event for asynchronous persistence. If the queue is full
// the event is dropped and logged — audit logging must never apply
// backpressure to a store mutation.
func (s *Service) Log(event AuditEvent) {
	if event.ID == "" {
		event.ID = s.idgen.Generate()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	if event.BeforeState != nil {
		event.BeforeState = s.redactor.Redact(event.BeforeState)
	}
	if event.AfterState != nil {
		event.AfterState = s.redactor.Redact(event.AfterState)
	}
	select {
	case s.queue <- event:
	default:
		log.Warn().Str("resource_type", event.ResourceType).Str("resource_id", event.ResourceID).Msg("audit: queue full, dropping event")
	}
}

// ComputeChanges computes the field-level difference between before and
// after states.
func ComputeChanges(before, after map[string]any) map[string]any {
	if before == nil && after == nil {
		return nil
	}
	if before == nil {
		before = make(map[string]any)
	}
	if after == nil {
		after = make(map[string]any)
	}

	changes := make(map[string]any)
	for key, afterVal := range after {
		beforeVal, existedBefore := before[key]
		beforeJSON, _ := json.Marshal(beforeVal)
		afterJSON, _ := json.Marshal(afterVal)
		if !existedBefore || string(beforeJSON) != string(afterJSON) {
			changes[key] = map[string]any{"before": beforeVal, "after": afterVal}
		}
	}
	for key, beforeVal := range before {
		if _, existsAfter := after[key]; !existsAfter {
			changes[key] = map[string]any{"before": beforeVal, "after": nil}
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}
