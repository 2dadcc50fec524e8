// Package store implements the definition store: one document per tenant
// (app, env), atomic mutators, and the cross-environment sync operation.
package store

import (
	"context"
	"time"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

// Store is the definition store's operation set (spec §4.4). Every
// mutator is atomic on the tenant document it touches: it reads the
// document, computes the new document, and writes it back as one unit.
type Store interface {
	// GetData returns {flags, segments} for key, as empty maps if the
	// tenant document does not exist yet.
	GetData(ctx context.Context, key tenant.Key) (flags.Document, error)

	// PutFlag validates f against the schema and I1-I4, then writes it.
	// Fails with KindInvalidReference if f references a missing segment.
	PutFlag(ctx context.Context, key tenant.Key, f flags.Definition) error

	// UpdateFlag merges patch into the existing flag, re-validates segment
	// references, and writes the result. Fails with KindNotFound if id is
	// absent.
	UpdateFlag(ctx context.Context, key tenant.Key, id string, patch Patch) error

	// DeleteFlag removes a flag. Fails with KindNotFound if absent.
	DeleteFlag(ctx context.Context, key tenant.Key, id string) error

	// PutSegment upserts a segment's expression. No referential checks:
	// segments stand alone.
	PutSegment(ctx context.Context, key tenant.Key, id, expression string) error

	// DeleteSegment removes a segment and strips it from every flag's
	// segments set, in one transaction. Fails with KindNotFound if absent.
	DeleteSegment(ctx context.Context, key tenant.Key, id string) error

	// SyncEnv copies every flag and segment from source to target (same
	// app). If overwrite is false, each copied flag's Enabled is forced
	// false; target-only keys are retained (merge, not replace).
	SyncEnv(ctx context.Context, source, target tenant.Key, overwrite bool) error

	// SyncFlag syncs a single flag (and the segments it references) from
	// source to target. Fails with KindNotFound if id is absent in source.
	SyncFlag(ctx context.Context, source, target tenant.Key, id string, overwrite bool) error

	// Close releases any resources held by the store.
	Close() error
}

// Patch is a partial update to a flag definition. Nil fields are left
// unchanged; UpdateFlag rejects an entirely-nil patch at the transport
// boundary (spec §6), not here.
type Patch struct {
	Enabled     *bool
	Rules       []string
	Segments    []string
	Rollout     *int
	Rollouts    []flags.RolloutStep
	Payload     *patchPayload
	Variations  []flags.Variation
	Label       *string
	Description *string
	IsTrackable *bool
}

// patchPayload distinguishes "don't touch payload" (nil *patchPayload)
// from "set payload to this value, possibly null" (non-nil).
type patchPayload struct {
	Value []byte
}

// NewPayloadPatch wraps a raw JSON payload value (which may be the 4-byte
// literal "null") for use in a Patch.
func NewPayloadPatch(raw []byte) *patchPayload { return &patchPayload{Value: raw} }

func applyPatch(f flags.Definition, p Patch) flags.Definition {
	if p.Enabled != nil {
		f.Enabled = *p.Enabled
	}
	if p.Rules != nil {
		f.Rules = p.Rules
	}
	if p.Segments != nil {
		f.Segments = p.Segments
	}
	if p.Rollout != nil {
		f.Rollout = *p.Rollout
	}
	if p.Rollouts != nil {
		f.Rollouts = p.Rollouts
	}
	if p.Payload != nil {
		f.HasPayload = true
		f.Payload = p.Payload.Value
	}
	if p.Variations != nil {
		f.Variations = p.Variations
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.IsTrackable != nil {
		f.IsTrackable = *p.IsTrackable
	}
	return f
}

// Metadata is attached to the persisted tenant document on every write.
type Metadata struct {
	UpdatedAt time.Time `json:"updatedAt"`
}
