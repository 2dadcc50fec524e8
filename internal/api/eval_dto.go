package api

import "encoding/json"

// evaluationRequest is the POST body shared by the batch and single-flag
// evaluation endpoints (spec §6): an optional identity, an opaque user
// object passed through to the expression context, and the current page
// URL. geo and request.headers are filled in by the transport, never by
// the caller.
type evaluationRequest struct {
	ID   string          `json:"id,omitempty"`
	User json.RawMessage `json:"user,omitempty"`
	Page *pageRequest    `json:"page,omitempty"`
}

type pageRequest struct {
	URL *string `json:"url"`
}

// flagResultDTO is one flag's evaluation outcome on the wire: boolean →
// result is a JSON boolean; payload → result is the flag's payload or
// null; variant → result is the chosen variation's payload (or its id) or
// null. isEval is surfaced for telemetry, never load-bearing.
type flagResultDTO struct {
	Type    string          `json:"type"`
	Result  json.RawMessage `json:"result"`
	IsEval  bool            `json:"isEval"`
	Variant string          `json:"variant,omitempty"`
}

// batchEvaluationResponse maps flag id to its result.
type batchEvaluationResponse map[string]flagResultDTO
