package api

import (
	"encoding/json"
	"net/http"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/store"
	"github.com/TimurManjosov/goflagship/internal/telemetry"
	"github.com/TimurManjosov/goflagship/internal/tenant"
	"github.com/go-chi/chi/v5"
)

// handleGetDefinitions handles GET /v1/definitions: the full {flags,
// segments} document for the caller's tenant (spec §6, "Listing returns
// {flags, segments}").
func (s *Server) handleGetDefinitions(w http.ResponseWriter, r *http.Request) {
	key := tenant.FromRequest(r)
	doc, err := s.cache.Get(r.Context(), key)
	if err != nil {
		DomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handlePutFlag handles PUT /v1/flags/{flagID}. The URL's flagID is
// authoritative over any id the body carries.
func (s *Server) handlePutFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")
	key := tenant.FromRequest(r)

	var def flags.Definition
	if err := decodeJSON(w, r, &def); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	def.ID = flagID

	if err := s.store.PutFlag(r.Context(), key, def); err != nil {
		telemetry.ObserveStoreMutation("putFlag", "error")
		DomainError(w, r, err)
		return
	}
	telemetry.ObserveStoreMutation("putFlag", "ok")
	s.cache.Invalidate(key)

	if msg, warn := flags.HasRolloutAndSegmentWarning(def); warn {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "warnings": []string{msg}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// patchRequest is the wire shape of a flag patch. A nil Payload means
// "leave payload untouched"; a non-nil Payload (possibly the literal
// "null") means "set it", mirroring flags.Definition's own presence
// tracking (I3).
type patchRequest struct {
	Enabled     *bool              `json:"enabled,omitempty"`
	Rules       []string           `json:"rules,omitempty"`
	Segments    []string           `json:"segments,omitempty"`
	Rollout     *int               `json:"rollout,omitempty"`
	Rollouts    []flags.RolloutStep `json:"rollouts,omitempty"`
	Payload     *json.RawMessage   `json:"payload,omitempty"`
	Variations  []flags.Variation  `json:"variations,omitempty"`
	Label       *string            `json:"label,omitempty"`
	Description *string            `json:"description,omitempty"`
	IsTrackable *bool              `json:"isTrackable,omitempty"`
}

// UnmarshalJSON decodes the patch and then marks an explicit "payload":
// null as present; encoding/json alone leaves Payload nil for it.
func (p *patchRequest) UnmarshalJSON(data []byte) error {
	type plain patchRequest
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["payload"]; ok {
		p.Payload = &raw
	}
	return nil
}

func (p patchRequest) isEmpty() bool {
	return p.Enabled == nil && p.Rules == nil && p.Segments == nil && p.Rollout == nil &&
		p.Rollouts == nil && p.Payload == nil && p.Variations == nil && p.Label == nil &&
		p.Description == nil && p.IsTrackable == nil
}

// handleUpdateFlag handles PATCH /v1/flags/{flagID}. An empty patch is
// rejected at this boundary, per spec §6.
func (s *Server) handleUpdateFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")
	key := tenant.FromRequest(r)

	var p patchRequest
	if err := decodeJSON(w, r, &p); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	if p.isEmpty() {
		BadRequestError(w, r, ErrCodeMissingField, "patch must set at least one field")
		return
	}

	patch := store.Patch{
		Enabled:     p.Enabled,
		Rules:       p.Rules,
		Segments:    p.Segments,
		Rollout:     p.Rollout,
		Rollouts:    p.Rollouts,
		Variations:  p.Variations,
		Label:       p.Label,
		Description: p.Description,
		IsTrackable: p.IsTrackable,
	}
	if p.Payload != nil {
		patch.Payload = store.NewPayloadPatch(*p.Payload)
	}

	if err := s.store.UpdateFlag(r.Context(), key, flagID, patch); err != nil {
		telemetry.ObserveStoreMutation("updateFlag", "error")
		DomainError(w, r, err)
		return
	}
	telemetry.ObserveStoreMutation("updateFlag", "ok")
	s.cache.Invalidate(key)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")
	key := tenant.FromRequest(r)

	if err := s.store.DeleteFlag(r.Context(), key, flagID); err != nil {
		telemetry.ObserveStoreMutation("deleteFlag", "error")
		DomainError(w, r, err)
		return
	}
	telemetry.ObserveStoreMutation("deleteFlag", "ok")
	s.cache.Invalidate(key)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type putSegmentRequest struct {
	Expression string `json:"expression"`
}

func (s *Server) handlePutSegment(w http.ResponseWriter, r *http.Request) {
	segmentID := chi.URLParam(r, "segmentID")
	key := tenant.FromRequest(r)

	var req putSegmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	if req.Expression == "" {
		BadRequestError(w, r, ErrCodeMissingField, "expression must not be empty")
		return
	}

	if err := s.store.PutSegment(r.Context(), key, segmentID, req.Expression); err != nil {
		DomainError(w, r, err)
		return
	}
	s.cache.Invalidate(key)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	segmentID := chi.URLParam(r, "segmentID")
	key := tenant.FromRequest(r)

	if err := s.store.DeleteSegment(r.Context(), key, segmentID); err != nil {
		DomainError(w, r, err)
		return
	}
	s.cache.Invalidate(key)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
