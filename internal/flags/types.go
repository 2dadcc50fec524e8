// Package flags defines the tenant document's domain types — flags,
// segments, rollout steps, and variations — and the validation that keeps
// a document internally consistent before the store ever persists it.
package flags

import "encoding/json"

// Type discriminates a FlagDefinition's evaluation shape.
type Type string

const (
	TypeBoolean Type = "boolean"
	TypePayload Type = "payload"
	TypeVariant Type = "variant"
)

// Definition is one flag within a tenant document.
type Definition struct {
	ID          string         `json:"id"`
	Type        Type           `json:"type"`
	Enabled     bool           `json:"enabled"`
	Rules       []string       `json:"rules,omitempty"`
	Segments    []string       `json:"segments,omitempty"`
	Rollout     int            `json:"rollout"`
	Rollouts    []RolloutStep  `json:"rollouts,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	HasPayload  bool            `json:"-"` // tracks "field present, possibly null" per I3
	Variations  []Variation    `json:"variations,omitempty"`
	Label       string         `json:"label,omitempty"`
	Description string         `json:"description,omitempty"`
	IsTrackable bool           `json:"isTrackable,omitempty"`
}

// RolloutStep is a scheduled firing clause. At least one of Percentage or
// Segment must be set (enforced by Validate).
type RolloutStep struct {
	Start      string `json:"start"`
	Percentage *int   `json:"percentage,omitempty"`
	Segment    string `json:"segment,omitempty"`
}

// Variation is one weighted option of a variant flag.
type Variation struct {
	ID      string          `json:"id"`
	Weight  int             `json:"weight"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Label   string          `json:"label,omitempty"`
}

// Document is the full per-tenant definition set: all flags and all
// segments for one (app, env) pair.
type Document struct {
	Flags    map[string]Definition `json:"flags"`
	Segments map[string]string    `json:"segments"`
}

// NewDocument returns an empty, non-nil document.
func NewDocument() Document {
	return Document{Flags: map[string]Definition{}, Segments: map[string]string{}}
}

// CloneForRead returns a shallow copy of d whose top-level maps are
// distinct, so a caller mutating the returned document cannot corrupt the
// store's own state.
func (d Document) CloneForRead() Document {
	out := NewDocument()
	for k, v := range d.Flags {
		out.Flags[k] = v
	}
	for k, v := range d.Segments {
		out.Segments[k] = v
	}
	return out
}
