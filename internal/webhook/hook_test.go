package webhook

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

func TestStoreHook_OnMutation_DispatchesCreatedEvent(t *testing.T) {
	var gotType string
	var mu int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("X-Flagship-Event")
		atomic.AddInt32(&mu, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Endpoint{{URL: srv.URL, Secret: "s"}})
	d.Start()
	defer d.Close()

	hook := NewStoreHook(d)
	key := tenant.New("acme", "prod")
	after := flags.Definition{ID: "f1", Type: flags.TypeBoolean, Enabled: true, Rollout: 100}
	hook.OnMutation(key, "putFlag", nil, &after)

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&mu) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if gotType != EventFlagCreated {
		t.Errorf("expected %s, got %s", EventFlagCreated, gotType)
	}
}

func TestStoreHook_OnSegmentMutation_DispatchesDeletedEvent(t *testing.T) {
	var gotType string
	var mu int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("X-Flagship-Event")
		atomic.AddInt32(&mu, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Endpoint{{URL: srv.URL, Secret: "s"}})
	d.Start()
	defer d.Close()

	hook := NewStoreHook(d)
	key := tenant.New("acme", "prod")
	hook.OnSegmentMutation(key, "deleteSegment", "seg1", true)

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&mu) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if gotType != EventSegmentDeleted {
		t.Errorf("expected %s, got %s", EventSegmentDeleted, gotType)
	}
}
