package audit

import (
	"encoding/json"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/tenant"
)

// StoreHook adapts a Service to the store.Hooks interface, turning flag
// and segment mutations into audit events. Construct it with the
// *audit.Service built at startup and pass it as the hooks argument to
// store.NewStore/NewMemoryStore/NewPostgresStore.
type StoreHook struct {
	svc *Service
}

func NewStoreHook(svc *Service) *StoreHook {
	return &StoreHook{svc: svc}
}

// OnMutation implements store.Hooks.
func (h *StoreHook) OnMutation(key tenant.Key, op string, before, after *flags.Definition) {
	action, id := actionFor(op, before, after)
	h.svc.Log(AuditEvent{
		Actor:        Actor{Kind: ActorKindManagement, Display: "store"},
		Action:       action,
		ResourceType: ResourceTypeFlag,
		ResourceID:   id,
		App:          key.App,
		Env:          key.Env,
		BeforeState:  defToMap(before),
		AfterState:   defToMap(after),
		Changes:      ComputeChanges(defToMap(before), defToMap(after)),
		Status:       StatusSuccess,
	})
}

// OnSegmentMutation implements store.Hooks.
func (h *StoreHook) OnSegmentMutation(key tenant.Key, op string, id string, deleted bool) {
	action := ActionUpdated
	switch {
	case deleted:
		action = ActionDeleted
	case op == "putSegment":
		action = ActionCreated
	}
	h.svc.Log(AuditEvent{
		Actor:        Actor{Kind: ActorKindManagement, Display: "store"},
		Action:       action,
		ResourceType: ResourceTypeSegment,
		ResourceID:   id,
		App:          key.App,
		Env:          key.Env,
		Status:       StatusSuccess,
	})
}

func actionFor(op string, before, after *flags.Definition) (action, id string) {
	switch {
	case before == nil && after != nil:
		return ActionCreated, after.ID
	case before != nil && after == nil:
		return ActionDeleted, before.ID
	case op == "sync" || op == "syncFlag" || op == "syncEnv":
		if after != nil {
			return ActionSynced, after.ID
		}
		return ActionSynced, before.ID
	default:
		if after != nil {
			return ActionUpdated, after.ID
		}
		return ActionUpdated, before.ID
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
