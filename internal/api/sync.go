package api

import (
	"net/http"

	"github.com/TimurManjosov/goflagship/internal/telemetry"
	"github.com/TimurManjosov/goflagship/internal/tenant"
	"github.com/go-chi/chi/v5"
)

// syncRequest is the shared body for both sync endpoints (spec §6).
// SourceEnv defaults to the caller's own tenant env when omitted.
type syncRequest struct {
	SourceEnv string `json:"sourceEnv,omitempty"`
	TargetEnv string `json:"targetEnv"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

func (s *Server) resolveSyncKeys(w http.ResponseWriter, r *http.Request) (source, target tenant.Key, req syncRequest, ok bool) {
	key := tenant.FromRequest(r)
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return tenant.Key{}, tenant.Key{}, req, false
	}
	if req.TargetEnv == "" {
		BadRequestError(w, r, ErrCodeMissingField, "targetEnv is required")
		return tenant.Key{}, tenant.Key{}, req, false
	}

	source = key
	if req.SourceEnv != "" {
		source = key.WithEnv(req.SourceEnv)
	}
	target = key.WithEnv(req.TargetEnv)
	return source, target, req, true
}

// handleSyncEnv handles POST /v1/sync: copy every flag and segment from
// source to target (spec §4.4, §6).
func (s *Server) handleSyncEnv(w http.ResponseWriter, r *http.Request) {
	source, target, req, ok := s.resolveSyncKeys(w, r)
	if !ok {
		return
	}
	if err := s.store.SyncEnv(r.Context(), source, target, req.Overwrite); err != nil {
		telemetry.ObserveSync("syncEnv", "error")
		DomainError(w, r, err)
		return
	}
	telemetry.ObserveSync("syncEnv", "ok")
	s.cache.Invalidate(target)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleSyncFlag handles POST /v1/sync/{flagID}: sync a single flag and
// the segments it references.
func (s *Server) handleSyncFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")
	source, target, req, ok := s.resolveSyncKeys(w, r)
	if !ok {
		return
	}
	if err := s.store.SyncFlag(r.Context(), source, target, flagID, req.Overwrite); err != nil {
		telemetry.ObserveSync("syncFlag", "error")
		DomainError(w, r, err)
		return
	}
	telemetry.ObserveSync("syncFlag", "ok")
	s.cache.Invalidate(target)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
