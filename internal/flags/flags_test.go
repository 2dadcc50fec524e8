package flags

import (
	"encoding/json"
	"testing"
)

func TestValidate_BooleanFlag(t *testing.T) {
	f := Definition{ID: "f1", Type: TypeBoolean, Rollout: 100}
	if err := Validate(f, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_I1_UnknownSegment(t *testing.T) {
	f := Definition{ID: "f1", Type: TypeBoolean, Rollout: 100, Segments: []string{"missing"}}
	err := Validate(f, map[string]string{"known": "true"})
	assertKind(t, err, KindInvalidReference)
}

func TestValidate_I2_BooleanWithPayload(t *testing.T) {
	f := Definition{ID: "f1", Type: TypeBoolean, Rollout: 100, HasPayload: true, Payload: json.RawMessage("1")}
	err := Validate(f, nil)
	assertKind(t, err, KindInvalidInput)
}

func TestValidate_I3_PayloadRequired(t *testing.T) {
	f := Definition{ID: "f1", Type: TypePayload, Rollout: 100}
	err := Validate(f, nil)
	assertKind(t, err, KindInvalidInput)

	f.HasPayload = true
	f.Payload = nil // explicit null must be accepted
	if err := Validate(f, nil); err != nil {
		t.Fatalf("explicit null payload should be valid: %v", err)
	}
}

func TestValidate_I4_VariantNeedsTwo(t *testing.T) {
	f := Definition{ID: "f1", Type: TypeVariant, Rollout: 100, Variations: []Variation{{ID: "a", Weight: 100}}}
	err := Validate(f, nil)
	assertKind(t, err, KindInvalidInput)

	f.Variations = append(f.Variations, Variation{ID: "b", Weight: 0})
	if err := Validate(f, nil); err != nil {
		t.Fatalf("two variations should be valid: %v", err)
	}
}

func TestValidate_RolloutStepRequiresPercentageOrSegment(t *testing.T) {
	f := Definition{ID: "f1", Type: TypeBoolean, Rollout: 100, Rollouts: []RolloutStep{{Start: "2025-01-01T00:00:00Z"}}}
	err := Validate(f, nil)
	assertKind(t, err, KindInvalidInput)
}

func TestDefinition_PayloadPresenceRoundTrip(t *testing.T) {
	raw := []byte(`{"id":"f1","type":"payload","enabled":true,"rollout":100,"payload":null}`)
	var d Definition
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatal(err)
	}
	if !d.HasPayload {
		t.Error("explicit null payload must set HasPayload")
	}

	rawAbsent := []byte(`{"id":"f1","type":"boolean","enabled":true,"rollout":100}`)
	var d2 Definition
	if err := json.Unmarshal(rawAbsent, &d2); err != nil {
		t.Fatal(err)
	}
	if d2.HasPayload {
		t.Error("absent payload field must not set HasPayload")
	}
	if d2.Rollout != 100 {
		t.Errorf("expected default rollout 100, got %d", d2.Rollout)
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var roundTripped map[string]any
	if err := json.Unmarshal(out, &roundTripped); err != nil {
		t.Fatal(err)
	}
	if _, present := roundTripped["payload"]; !present {
		t.Error("explicit null payload must survive marshal round-trip as a present field")
	}
}

func TestHasRolloutAndSegmentWarning(t *testing.T) {
	f := Definition{ID: "f1", Segments: []string{"s1"}, Rollouts: []RolloutStep{{Start: "2025-01-01T00:00:00Z", Percentage: intPtr(10)}}}
	_, ok := HasRolloutAndSegmentWarning(f)
	if !ok {
		t.Error("expected warning when both segments and rollouts are set")
	}

	f2 := Definition{ID: "f2", Segments: []string{"s1"}}
	if _, ok := HasRolloutAndSegmentWarning(f2); ok {
		t.Error("expected no warning when rollouts is empty")
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", want)
	}
	fe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *flags.Error, got %T", err)
	}
	if fe.Kind != want {
		t.Errorf("expected kind %s, got %s", want, fe.Kind)
	}
}

func intPtr(v int) *int { return &v }
