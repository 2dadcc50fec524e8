// Package client is a small Go SDK for the flagship HTTP API: evaluate
// flags from an application, or manage flag/segment definitions from
// tooling (cmd/flagctl is itself one such caller).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TimurManjosov/goflagship/internal/flags"
)

// Client is an HTTP client for the flagship API. ManagementKey authorizes
// flag/segment/sync calls; EvalKey authorizes evaluation calls. A
// management key satisfies both (the server treats it as a superset
// audience), so EvalKey may be left empty for tooling that never
// evaluates.
type Client struct {
	BaseURL       string
	ManagementKey string
	EvalKey       string
	HTTPClient    *http.Client
}

// NewClient creates an API client authorized for management operations.
// Use WithEvalKey to also set an evaluation-audience key.
func NewClient(baseURL, managementKey string) *Client {
	return &Client{
		BaseURL:       baseURL,
		ManagementKey: managementKey,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEvalKey returns a shallow copy of c configured to use key for
// evaluation calls.
func (c *Client) WithEvalKey(key string) *Client {
	cp := *c
	cp.EvalKey = key
	return &cp
}

// EvaluationInput mirrors the evaluation request body accepted by
// POST /v1/evaluate and /v1/evaluate/{flagID}.
type EvaluationInput struct {
	ID   string `json:"id,omitempty"`
	User any    `json:"user,omitempty"`
	Page *struct {
		URL *string `json:"url"`
	} `json:"page,omitempty"`
}

// FlagResult is one flag's evaluation outcome.
type FlagResult struct {
	Type    string          `json:"type"`
	Result  json.RawMessage `json:"result"`
	IsEval  bool            `json:"isEval"`
	Variant string          `json:"variant,omitempty"`
}

// ErrorResponse is the structured error envelope every non-2xx response
// carries.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Evaluate evaluates every flag defined for the tenant selected by
// app/env (sent as X-App-Id/X-Env-Id).
func (c *Client) Evaluate(ctx context.Context, app, env string, in EvaluationInput) (map[string]FlagResult, error) {
	var out map[string]FlagResult
	if err := c.doTenant(ctx, c.EvalKey, http.MethodPost, "/v1/evaluate", app, env, in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateOne evaluates a single flag by id.
func (c *Client) EvaluateOne(ctx context.Context, app, env, flagID string, in EvaluationInput) (FlagResult, error) {
	var out FlagResult
	err := c.doTenant(ctx, c.EvalKey, http.MethodPost, "/v1/evaluate/"+flagID, app, env, in, &out)
	return out, err
}

// GetDefinitions fetches the full flag/segment document for a tenant.
func (c *Client) GetDefinitions(ctx context.Context, app, env string) (flags.Document, error) {
	var out flags.Document
	err := c.doTenant(ctx, c.ManagementKey, http.MethodGet, "/v1/definitions", app, env, nil, &out)
	return out, err
}

// PutFlag creates or fully replaces a flag definition. def.ID is ignored
// in favor of flagID (the server does the same).
func (c *Client) PutFlag(ctx context.Context, app, env, flagID string, def flags.Definition) error {
	return c.doTenant(ctx, c.ManagementKey, http.MethodPut, "/v1/flags/"+flagID, app, env, def, nil)
}

// FlagPatch is a partial update to an existing flag; only non-nil fields
// are applied. Mirrors the server's PATCH /v1/flags/{flagID} contract.
type FlagPatch struct {
	Enabled     *bool               `json:"enabled,omitempty"`
	Rules       []string            `json:"rules,omitempty"`
	Segments    []string            `json:"segments,omitempty"`
	Rollout     *int                `json:"rollout,omitempty"`
	Rollouts    []flags.RolloutStep `json:"rollouts,omitempty"`
	Payload     *json.RawMessage    `json:"payload,omitempty"`
	Variations  []flags.Variation   `json:"variations,omitempty"`
	Label       *string             `json:"label,omitempty"`
	Description *string             `json:"description,omitempty"`
	IsTrackable *bool               `json:"isTrackable,omitempty"`
}

// UpdateFlag applies a partial patch to an existing flag.
func (c *Client) UpdateFlag(ctx context.Context, app, env, flagID string, patch FlagPatch) error {
	return c.doTenant(ctx, c.ManagementKey, http.MethodPatch, "/v1/flags/"+flagID, app, env, patch, nil)
}

// DeleteFlag removes a flag definition.
func (c *Client) DeleteFlag(ctx context.Context, app, env, flagID string) error {
	return c.doTenant(ctx, c.ManagementKey, http.MethodDelete, "/v1/flags/"+flagID, app, env, nil, nil)
}

// PutSegment creates or replaces a segment's expression.
func (c *Client) PutSegment(ctx context.Context, app, env, segmentID, expression string) error {
	body := struct {
		Expression string `json:"expression"`
	}{Expression: expression}
	return c.doTenant(ctx, c.ManagementKey, http.MethodPut, "/v1/segments/"+segmentID, app, env, body, nil)
}

// DeleteSegment removes a segment.
func (c *Client) DeleteSegment(ctx context.Context, app, env, segmentID string) error {
	return c.doTenant(ctx, c.ManagementKey, http.MethodDelete, "/v1/segments/"+segmentID, app, env, nil, nil)
}

// SyncEnv copies every flag/segment from sourceEnv (or the tenant's own
// env when empty) into targetEnv. When overwrite is false, copied flags
// are force-disabled at the destination.
func (c *Client) SyncEnv(ctx context.Context, app, env, sourceEnv, targetEnv string, overwrite bool) error {
	body := struct {
		SourceEnv string `json:"sourceEnv,omitempty"`
		TargetEnv string `json:"targetEnv"`
		Overwrite bool   `json:"overwrite,omitempty"`
	}{SourceEnv: sourceEnv, TargetEnv: targetEnv, Overwrite: overwrite}
	return c.doTenant(ctx, c.ManagementKey, http.MethodPost, "/v1/sync", app, env, body, nil)
}

// SyncFlag copies a single flag from sourceEnv (or the tenant's own env
// when empty) into targetEnv.
func (c *Client) SyncFlag(ctx context.Context, app, env, flagID, sourceEnv, targetEnv string, overwrite bool) error {
	body := struct {
		SourceEnv string `json:"sourceEnv,omitempty"`
		TargetEnv string `json:"targetEnv"`
		Overwrite bool   `json:"overwrite,omitempty"`
	}{SourceEnv: sourceEnv, TargetEnv: targetEnv, Overwrite: overwrite}
	return c.doTenant(ctx, c.ManagementKey, http.MethodPost, "/v1/sync/"+flagID, app, env, body, nil)
}

// doTenant issues a tenant-scoped request against path, decoding the
// response into out (nil if the caller doesn't need the body).
func (c *Client) doTenant(ctx context.Context, key, method, path, app, env string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if app != "" {
		req.Header.Set("X-App-Id", app)
	}
	if env != "" {
		req.Header.Set("X-Env-Id", env)
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &errResp); err != nil || errResp.Code == "" {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(raw))
		}
		return &errResp
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
