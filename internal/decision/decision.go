// Package decision implements the flag fire procedure: given a flag
// definition, the tenant's segments, an input context, and a frozen
// instant, decide whether the flag fires and produce its typed result.
package decision

import (
	"encoding/json"
	"time"

	"github.com/TimurManjosov/goflagship/internal/bucket"
	"github.com/TimurManjosov/goflagship/internal/expr"
	"github.com/TimurManjosov/goflagship/internal/flags"
)

// Result is the typed evaluation outcome for one flag.
type Result struct {
	Type    flags.Type      `json:"type"`
	Result  json.RawMessage `json:"result"`
	IsEval  bool            `json:"isEval"`
	Variant string          `json:"variant,omitempty"`
}

// Input is the caller-supplied context for one decision. Identity is
// I.ID exactly as the caller sent it; an empty ID is bucketed as the empty
// string — the core never invents one.
type Input struct {
	ID      string
	User    any
	PageURL *string
	Geo     any
	Headers map[string]string
}

func (in Input) toExprContext() expr.Context {
	return expr.Context{
		ID:      in.ID,
		User:    in.User,
		Page:    expr.PageContext{URL: in.PageURL},
		Geo:     in.Geo,
		Request: expr.RequestContext{Headers: in.Headers},
	}
}

var (
	jsonTrue  = json.RawMessage("true")
	jsonFalse = json.RawMessage("false")
	jsonNull  = json.RawMessage("null")
)

// Decide runs the fire procedure for F against segments S, input I, and
// frozen time now. It is a pure function: same inputs produce the same
// Result across calls and process restarts (P1).
func Decide(f flags.Definition, segments map[string]string, in Input, now time.Time) Result {
	if !f.Enabled {
		return defaultResult(f)
	}

	ec := in.toExprContext()

	for _, rule := range f.Rules {
		ok, _ := expr.EvalBool(rule, ec, now)
		if !ok {
			return defaultResult(f)
		}
	}

	if len(f.Rollouts) == 0 && len(f.Segments) > 0 {
		if !anySegmentTruthy(f.Segments, segments, ec, now) {
			return defaultResult(f)
		}
	}

	if len(f.Rollouts) > 0 {
		if !evalSteps(f, segments, ec, in, now) {
			return defaultResult(f)
		}
	} else {
		if !bucket.InRollout(identity(in), f.ID, f.Rollout) {
			return defaultResult(f)
		}
	}

	return fireResult(f, in)
}

func anySegmentTruthy(ids []string, segments map[string]string, ec expr.Context, now time.Time) bool {
	for _, id := range ids {
		segExpr, ok := segments[id]
		if !ok {
			continue
		}
		if truthy, _ := expr.EvalBool(segExpr, ec, now); truthy {
			return true
		}
	}
	return false
}

// evalSteps walks F.Rollouts in order and returns true at the first
// passing step (§4.3.5).
func evalSteps(f flags.Definition, segments map[string]string, ec expr.Context, in Input, now time.Time) bool {
	for _, step := range f.Rollouts {
		if stepPasses(f, step, segments, ec, in, now) {
			return true
		}
	}
	return false
}

func stepPasses(f flags.Definition, step flags.RolloutStep, segments map[string]string, ec expr.Context, in Input, now time.Time) bool {
	start, err := time.Parse(time.RFC3339, step.Start)
	if err != nil {
		return false
	}
	if now.Before(start) {
		return false
	}

	hasSegment := step.Segment != ""
	hasPercentage := step.Percentage != nil
	if !hasSegment && !hasPercentage {
		return false
	}

	if hasSegment {
		segExpr, ok := segments[step.Segment]
		if !ok {
			return false
		}
		ok, _ = expr.EvalBool(segExpr, ec, now)
		if !ok {
			return false
		}
	}
	if hasPercentage {
		if !bucket.InRollout(identity(in), f.ID, *step.Percentage) {
			return false
		}
	}
	return true
}

func identity(in Input) string { return in.ID }

func defaultResult(f flags.Definition) Result {
	switch f.Type {
	case flags.TypePayload:
		return Result{Type: f.Type, Result: jsonNull, IsEval: false}
	case flags.TypeVariant:
		return defaultVariantResult(f)
	default:
		return Result{Type: flags.TypeBoolean, Result: jsonFalse, IsEval: false}
	}
}

// defaultVariantResult uses the payload of the first variation, or its id
// if it carries no payload (§4.3 "Default result").
func defaultVariantResult(f flags.Definition) Result {
	if len(f.Variations) == 0 {
		return Result{Type: flags.TypeVariant, Result: jsonNull, IsEval: false}
	}
	first := f.Variations[0]
	return Result{Type: flags.TypeVariant, Result: variationValue(first), IsEval: false, Variant: first.ID}
}

func fireResult(f flags.Definition, in Input) Result {
	switch f.Type {
	case flags.TypeBoolean:
		return Result{Type: f.Type, Result: jsonTrue, IsEval: true}
	case flags.TypePayload:
		p := f.Payload
		if p == nil {
			p = jsonNull
		}
		return Result{Type: f.Type, Result: p, IsEval: true}
	case flags.TypeVariant:
		bv := make([]bucket.Variation, len(f.Variations))
		for i, v := range f.Variations {
			bv[i] = bucket.Variation{ID: v.ID, Weight: v.Weight}
		}
		idx, ok := bucket.ChooseVariant(identity(in), f.ID, bv)
		if !ok {
			return defaultVariantResult(f)
		}
		chosen := f.Variations[idx]
		return Result{Type: f.Type, Result: variationValue(chosen), IsEval: true, Variant: chosen.ID}
	default:
		return defaultResult(f)
	}
}

func variationValue(v flags.Variation) json.RawMessage {
	if v.Payload != nil {
		return v.Payload
	}
	quoted, _ := json.Marshal(v.ID)
	return quoted
}
