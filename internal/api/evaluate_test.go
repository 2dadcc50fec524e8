package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

func seedFlag(t *testing.T, s interface {
	PutFlag(ctx context.Context, key tenant.Key, f flags.Definition) error
}, key tenant.Key, f flags.Definition) {
	t.Helper()
	if err := s.PutFlag(context.Background(), key, f); err != nil {
		t.Fatal(err)
	}
}

func TestHandleEvaluateBatch_ReturnsAllFlags(t *testing.T) {
	srv, s := newTestServer(t)
	key := tenant.New("acme", "prod")
	seedFlag(t, s, key, flags.Definition{ID: "always-on", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})
	seedFlag(t, s, key, flags.Definition{ID: "always-off", Type: flags.TypeBoolean, Enabled: false, Rollout: 100})

	body := strings.NewReader(`{"id":"user-1","page":{"url":"https://example.com"}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", body)
	req.Header.Set("Authorization", "Bearer "+testEvalKey)
	req.Header.Set("X-App-Id", "acme")
	req.Header.Set("X-Env-Id", "prod")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp batchEvaluationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp))
	}
	if !resp["always-on"].IsEval {
		t.Error("expected always-on to fire")
	}
	if resp["always-off"].IsEval {
		t.Error("expected always-off to not fire")
	}
}

func TestHandleEvaluateOne_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate/missing-flag", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+testEvalKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleEvaluateOne_Found(t *testing.T) {
	srv, s := newTestServer(t)
	key := tenant.New("default", "production")
	seedFlag(t, s, key, flags.Definition{ID: "my-flag", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate/my-flag", strings.NewReader(`{"id":"user-1"}`))
	req.Header.Set("Authorization", "Bearer "+testEvalKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res flagResultDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.IsEval {
		t.Error("expected my-flag to fire")
	}
}

func TestHandleEvaluateBatch_ManagementTokenIsAccepted(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected management token to satisfy evaluation audience, got %d", rec.Code)
	}
}
