package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/TimurManjosov/goflagship/internal/decision"
	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/telemetry"
	"github.com/TimurManjosov/goflagship/internal/tenant"
	"github.com/go-chi/chi/v5"
)

// handleEvaluateBatch handles POST /v1/evaluate: every flag in the
// caller's tenant document is decided against one input context (spec §6).
func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseEvaluationInput(w, r)
	if !ok {
		return
	}
	key := tenant.FromRequest(r)

	results, err := s.eval.All(r.Context(), key, in, time.Time{})
	if err != nil {
		DomainError(w, r, err)
		return
	}

	resp := make(batchEvaluationResponse, len(results))
	for id, res := range results {
		resp[id] = toResultDTO(res)
		telemetry.ObserveEvaluation(key.App, key.Env, string(res.Type), res.IsEval, 0)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEvaluateOne handles POST /v1/evaluate/{flagID}: same input, a
// single flag's result, NOT_FOUND if the id is absent in the tenant
// document (spec §6).
func (s *Server) handleEvaluateOne(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")
	in, ok := s.parseEvaluationInput(w, r)
	if !ok {
		return
	}
	key := tenant.FromRequest(r)

	res, err := s.eval.One(r.Context(), key, flagID, in, time.Time{})
	if err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Kind == flags.KindNotFound {
			NotFoundError(w, r, fe.Message)
			return
		}
		DomainError(w, r, err)
		return
	}

	telemetry.ObserveEvaluation(key.App, key.Env, string(res.Type), res.IsEval, 0)
	writeJSON(w, http.StatusOK, toResultDTO(res))
}

// parseEvaluationInput decodes the shared evaluation request body and
// augments it with geo and request-header context the caller never
// supplies directly (spec §6: "the transport augments this with geo ...
// and request.headers before handing to the core").
func (s *Server) parseEvaluationInput(w http.ResponseWriter, r *http.Request) (decision.Input, bool) {
	var req evaluationRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				RequestTooLargeError(w, r, "request body exceeds 1MB limit")
				return decision.Input{}, false
			}
			BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
			return decision.Input{}, false
		}
	}

	var user any
	if len(req.User) > 0 {
		if err := json.Unmarshal(req.User, &user); err != nil {
			BadRequestError(w, r, ErrCodeInvalidJSON, "invalid user: "+err.Error())
			return decision.Input{}, false
		}
	}
	var pageURL *string
	if req.Page != nil {
		pageURL = req.Page.URL
	}

	return decision.Input{
		ID:      req.ID,
		User:    user,
		PageURL: pageURL,
		Geo:     resolveGeo(r),
		Headers: headerMap(r),
	}, true
}

// resolveGeo builds a best-effort geo context from reverse-proxy-supplied
// headers (e.g. Cloudflare, Fastly); in their absence it is nil. There is
// no bundled GeoIP database lookup — deployments that need one terminate
// TLS behind a proxy that already resolves these headers.
func resolveGeo(r *http.Request) any {
	geo := map[string]string{}
	add := func(key, header string) {
		if v := r.Header.Get(header); v != "" {
			geo[key] = v
		}
	}
	add("country", "CF-IPCountry")
	add("country", "X-Geo-Country")
	add("continent", "X-Geo-Continent")
	add("region", "X-Geo-Region")
	add("city", "X-Geo-City")
	add("lat", "X-Geo-Latitude")
	add("lon", "X-Geo-Longitude")
	if len(geo) == 0 {
		return nil
	}
	return geo
}

func headerMap(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.Header))
	for k := range r.Header {
		out[k] = r.Header.Get(k)
	}
	return out
}

func toResultDTO(res decision.Result) flagResultDTO {
	return flagResultDTO{
		Type:    string(res.Type),
		Result:  res.Result,
		IsEval:  res.IsEval,
		Variant: res.Variant,
	}
}
