package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TimurManjosov/goflagship/internal/auth"
	"github.com/TimurManjosov/goflagship/internal/eval"
	"github.com/TimurManjosov/goflagship/internal/snapshot"
	"github.com/TimurManjosov/goflagship/internal/store"
)

const (
	testMgmtKey = "mgmt-test-key"
	testEvalKey = "eval-test-key"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	s := store.NewMemoryStore(nil)
	cache := snapshot.New(s, time.Minute)
	facade := eval.New(cache)

	mgmtHash, err := auth.HashAPIKey(testMgmtKey)
	if err != nil {
		t.Fatal(err)
	}
	evalHash, err := auth.HashAPIKey(testEvalKey)
	if err != nil {
		t.Fatal(err)
	}
	authenticator := auth.NewAuthenticator(mgmtHash, evalHash)

	return NewServer(s, facade, cache, authenticator, 0, 0, 0), s
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_EvaluateRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_ManagementRequiresManagementAudience(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/definitions", nil)
	req.Header.Set("Authorization", "Bearer "+testEvalKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for evaluation token on management route, got %d", rec.Code)
	}
}
