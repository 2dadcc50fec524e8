package tenant

import (
	"net/http"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	k := New("", "")
	if k.App != DefaultApp || k.Env != DefaultEnv {
		t.Errorf("expected defaults, got %+v", k)
	}
}

func TestNew_Explicit(t *testing.T) {
	k := New("acme", "staging")
	if k.App != "acme" || k.Env != "staging" {
		t.Errorf("unexpected key: %+v", k)
	}
}

func TestFromRequest_FallsBackOnMissingHeaders(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	k := FromRequest(req)
	if k.App != DefaultApp || k.Env != DefaultEnv {
		t.Errorf("expected fallback to defaults, got %+v", k)
	}
}

func TestFromRequest_HonoursHeaders(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-App-Id", "acme")
	req.Header.Set("X-Env-Id", "staging")
	k := FromRequest(req)
	if k.App != "acme" || k.Env != "staging" {
		t.Errorf("expected headers honoured, got %+v", k)
	}
}

func TestStorageKey(t *testing.T) {
	k := New("acme", "staging")
	if got, want := k.StorageKey(), "v1:acme:staging"; got != want {
		t.Errorf("StorageKey() = %q, want %q", got, want)
	}
}

func TestWithEnv(t *testing.T) {
	k := New("acme", "staging")
	target := k.WithEnv("prod")
	if target.App != "acme" || target.Env != "prod" {
		t.Errorf("unexpected target key: %+v", target)
	}
}
