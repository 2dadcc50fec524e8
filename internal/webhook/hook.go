package webhook

import (
	"encoding/json"
	"time"

	"github.com/TimurManjosov/goflagship/internal/audit"
	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

// StoreHook adapts a Dispatcher to the store.Hooks interface, turning
// flag and segment mutations into webhook Events.
type StoreHook struct {
	dispatcher *Dispatcher
}

func NewStoreHook(d *Dispatcher) *StoreHook {
	return &StoreHook{dispatcher: d}
}

// OnMutation implements store.Hooks.
func (h *StoreHook) OnMutation(key tenant.Key, op string, before, after *flags.Definition) {
	eventType, id := mutationEvent(op, before, after)
	h.dispatcher.Dispatch(Event{
		Type:      eventType,
		Timestamp: time.Now(),
		App:       key.App,
		Env:       key.Env,
		Resource:  Resource{Type: "flag", ID: id},
		Data: EventData{
			Before:  defToMap(before),
			After:   defToMap(after),
			Changes: audit.ComputeChanges(defToMap(before), defToMap(after)),
		},
	})
}

// OnSegmentMutation implements store.Hooks.
func (h *StoreHook) OnSegmentMutation(key tenant.Key, op string, id string, deleted bool) {
	eventType := EventSegmentUpdated
	switch {
	case deleted:
		eventType = EventSegmentDeleted
	case op == "putSegment":
		eventType = EventSegmentCreated
	}
	h.dispatcher.Dispatch(Event{
		Type:      eventType,
		Timestamp: time.Now(),
		App:       key.App,
		Env:       key.Env,
		Resource:  Resource{Type: "segment", ID: id},
	})
}

func mutationEvent(op string, before, after *flags.Definition) (eventType, id string) {
	switch {
	case before == nil && after != nil:
		return EventFlagCreated, after.ID
	case before != nil && after == nil:
		return EventFlagDeleted, before.ID
	case op == "sync" || op == "syncFlag" || op == "syncEnv":
		if after != nil {
			return EventSynced, after.ID
		}
		return EventSynced, before.ID
	default:
		if after != nil {
			return EventFlagUpdated, after.ID
		}
		return EventFlagUpdated, before.ID
	}
}

func defToMap(d *flags.Definition) map[string]any {
	if d == nil {
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
