package flags

import "encoding/json"

// definitionWire mirrors Definition but keeps Payload as a json.RawMessage
// pointer, so MarshalJSON can emit the field (explicit null included) only
// when HasPayload is set. On decode the pointer cannot tell "field absent"
// from "field present with value null" (encoding/json leaves it nil for
// both), so UnmarshalJSON reads presence from the object's keys — I3
// rejects the former and accepts the latter.
type definitionWire struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Enabled     bool            `json:"enabled"`
	Rules       []string        `json:"rules,omitempty"`
	Segments    []string        `json:"segments,omitempty"`
	Rollout     *int            `json:"rollout,omitempty"`
	Rollouts    []RolloutStep   `json:"rollouts,omitempty"`
	Payload     *json.RawMessage `json:"payload,omitempty"`
	Variations  []Variation     `json:"variations,omitempty"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description,omitempty"`
	IsTrackable bool            `json:"isTrackable,omitempty"`
}

// UnmarshalJSON implements presence-tracking for payload (I3) and applies
// the rollout default of 100 when the field is omitted.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w definitionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.ID = w.ID
	d.Type = w.Type
	d.Enabled = w.Enabled
	d.Rules = w.Rules
	d.Segments = w.Segments
	d.Rollouts = w.Rollouts
	d.Variations = w.Variations
	d.Label = w.Label
	d.Description = w.Description
	d.IsTrackable = w.IsTrackable
	if w.Rollout != nil {
		d.Rollout = *w.Rollout
	} else {
		d.Rollout = 100
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["payload"]; ok {
		d.HasPayload = true
		d.Payload = raw
	} else {
		d.HasPayload = false
		d.Payload = nil
	}
	return nil
}

// MarshalJSON restores the field-presence behaviour on the way out: a
// payload flag always re-emits its payload field, explicit null included.
func (d Definition) MarshalJSON() ([]byte, error) {
	w := definitionWire{
		ID:          d.ID,
		Type:        d.Type,
		Enabled:     d.Enabled,
		Rules:       d.Rules,
		Segments:    d.Segments,
		Rollout:     &d.Rollout,
		Rollouts:    d.Rollouts,
		Variations:  d.Variations,
		Label:       d.Label,
		Description: d.Description,
		IsTrackable: d.IsTrackable,
	}
	if d.HasPayload {
		raw := d.Payload
		if raw == nil {
			raw = json.RawMessage("null")
		}
		w.Payload = &raw
	}
	return json.Marshal(w)
}
