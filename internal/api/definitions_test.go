package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

func TestHandlePutFlag_CreatesFlag(t *testing.T) {
	srv, s := newTestServer(t)
	body := strings.NewReader(`{"id":"ignored","type":"boolean","enabled":true,"rollout":100}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/flags/new-flag", body)
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	doc, err := s.GetData(req.Context(), tenant.New("", ""))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Flags["new-flag"]; !ok {
		t.Error("expected flag to be persisted under the URL's id")
	}
}

func TestHandlePutFlag_RejectsMissingSegmentReference(t *testing.T) {
	srv, _ := newTestServer(t)
	body := strings.NewReader(`{"type":"boolean","enabled":true,"rollout":100,"segments":["nope"]}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/flags/f1", body)
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleUpdateFlag_RejectsEmptyPatch(t *testing.T) {
	srv, s := newTestServer(t)
	key := tenant.New("", "")
	seedFlag(t, s, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	req := httptest.NewRequest(http.MethodPatch, "/v1/flags/f1", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty patch, got %d", rec.Code)
	}
}

func TestHandleUpdateFlag_AppliesPatch(t *testing.T) {
	srv, s := newTestServer(t)
	key := tenant.New("", "")
	seedFlag(t, s, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	req := httptest.NewRequest(http.MethodPatch, "/v1/flags/f1", strings.NewReader(`{"enabled":false}`))
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	doc, err := s.GetData(req.Context(), key)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Flags["f1"].Enabled {
		t.Error("expected patch to disable the flag")
	}
}

func TestHandleDeleteFlag_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodDelete, "/v1/flags/missing", nil)
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGetDefinitions(t *testing.T) {
	srv, s := newTestServer(t)
	key := tenant.New("", "")
	seedFlag(t, s, key, flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100})

	req := httptest.NewRequest(http.MethodGet, "/v1/definitions", nil)
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc flags.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Flags["f1"]; !ok {
		t.Error("expected f1 in definitions response")
	}
}

func TestHandlePutSegment_AndDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/segments/beta", strings.NewReader(`{"expression":"user.beta == true"}`))
	req.Header.Set("Authorization", "Bearer "+testMgmtKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	del := httptest.NewRequest(http.MethodDelete, "/v1/segments/beta", nil)
	del.Header.Set("Authorization", "Bearer "+testMgmtKey)
	delRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(delRec, del)
	if delRec.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", delRec.Code)
	}
}
