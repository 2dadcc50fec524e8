package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcher_DeliversMatchingEvent(t *testing.T) {
	var received int32
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		gotSig = r.Header.Get("X-Flagship-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep := Endpoint{URL: srv.URL, Secret: "shh", MaxRetries: 1, TimeoutSeconds: 2}
	d := NewDispatcher([]Endpoint{ep})
	d.Start()
	defer d.Close()

	d.Dispatch(Event{Type: EventFlagCreated, App: "acme", Env: "prod", Resource: Resource{Type: "flag", ID: "f1"}})

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&received) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if atomic.LoadInt32(&received) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", received)
	}
	if gotSig == "" {
		t.Error("expected a non-empty HMAC signature header")
	}
}

func TestDispatcher_FiltersByEventType(t *testing.T) {
	var received int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep := Endpoint{URL: srv.URL, Secret: "shh", Events: []string{EventFlagDeleted}}
	d := NewDispatcher([]Endpoint{ep})
	d.Start()
	defer d.Close()

	d.Dispatch(Event{Type: EventFlagCreated, App: "acme", Env: "prod"})
	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&received) != 0 {
		t.Fatalf("expected delivery to be filtered out, got %d deliveries", received)
	}
}

func TestDispatcher_RetriesOnFailureThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep := Endpoint{URL: srv.URL, Secret: "shh", MaxRetries: 3, TimeoutSeconds: 2}
	d := NewDispatcher([]Endpoint{ep})
	d.Start()
	defer d.Close()

	d.Dispatch(Event{Type: EventFlagUpdated, App: "acme", Env: "prod"})

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&attempts) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if atomic.LoadInt32(&attempts) < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", attempts)
	}
}

func TestDispatcher_QueueFullDropsEventWithoutBlocking(t *testing.T) {
	d := NewDispatcher(nil)
	// No Start() call — nothing drains the queue.
	for i := 0; i < queueSize+10; i++ {
		d.Dispatch(Event{Type: EventFlagCreated})
	}
	// Dispatch must not block even once the queue is saturated.
}

func TestEvent_MarshalsCleanly(t *testing.T) {
	ev := Event{
		Type: EventFlagUpdated,
		App:  "acme",
		Env:  "prod",
		Data: EventData{After: map[string]any{"enabled": true}},
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out["event"] != EventFlagUpdated {
		t.Errorf("expected event field %q, got %v", EventFlagUpdated, out["event"])
	}
}
