package flags

import "fmt"

// Validate checks F against the schema and I1-I4 (I5 is a store-level
// invariant, not a per-definition one). segments is the tenant's segment
// map, used to verify every id in F.Segments and in F.Rollouts[*].Segment
// exists (I1). It returns the first violation found, wrapped as an
// *Error with the appropriate Kind.
func Validate(f Definition, segments map[string]string) error {
	if f.ID == "" {
		return InvalidInput("id", "flag id must not be empty")
	}
	switch f.Type {
	case TypeBoolean, TypePayload, TypeVariant:
	default:
		return InvalidInput("type", "unknown flag type %q", f.Type)
	}
	if f.Rollout < 0 || f.Rollout > 100 {
		return InvalidInput("rollout", "rollout must be in 0..100, got %d", f.Rollout)
	}

	for i, step := range f.Rollouts {
		if err := validateStep(i, step); err != nil {
			return err
		}
		if step.Segment != "" {
			if _, ok := segments[step.Segment]; !ok {
				return InvalidReference("rollouts", "rollout step %d references unknown segment %q", i, step.Segment)
			}
		}
	}

	for _, sid := range f.Segments {
		if _, ok := segments[sid]; !ok {
			return InvalidReference("segments", "flag references unknown segment %q", sid)
		}
	}

	switch f.Type {
	case TypeBoolean:
		if f.HasPayload {
			return InvalidInput("payload", "boolean flags must not carry a payload")
		}
		if len(f.Variations) > 0 {
			return InvalidInput("variations", "boolean flags must not carry variations")
		}
	case TypePayload:
		if !f.HasPayload {
			return InvalidInput("payload", "payload flags must carry a payload field (explicit null is accepted, absence is not)")
		}
		if len(f.Variations) > 0 {
			return InvalidInput("variations", "payload flags must not carry variations")
		}
	case TypeVariant:
		if f.HasPayload {
			return InvalidInput("payload", "variant flags must not carry a top-level payload")
		}
		if len(f.Variations) < 2 {
			return InvalidInput("variations", "variant flags require at least two variations, got %d", len(f.Variations))
		}
		for i, v := range f.Variations {
			if v.ID == "" {
				return InvalidInput("variations", "variation %d must have a non-empty id", i)
			}
			if v.Weight < 0 || v.Weight > 100 {
				return InvalidInput("variations", "variation %q weight must be in 0..100, got %d", v.ID, v.Weight)
			}
		}
	}

	return nil
}

func validateStep(i int, step RolloutStep) error {
	if step.Start == "" {
		return InvalidInput("rollouts", "rollout step %d requires a start timestamp", i)
	}
	if step.Percentage == nil && step.Segment == "" {
		return InvalidInput("rollouts", "rollout step %d requires at least one of percentage or segment", i)
	}
	if step.Percentage != nil && (*step.Percentage < 0 || *step.Percentage > 100) {
		return InvalidInput("rollouts", "rollout step %d percentage must be in 0..100, got %d", i, *step.Percentage)
	}
	return nil
}

// HasRolloutAndSegmentWarning reports the Open-Question surfacing spec.md
// §9 asks for: a flag with both non-empty segments and non-empty rollouts
// has its standalone segment check silently skipped (§4.3 step 3). This
// never changes evaluation semantics; it only flags the definition at
// write time so operators notice.
func HasRolloutAndSegmentWarning(f Definition) (string, bool) {
	if len(f.Segments) > 0 && len(f.Rollouts) > 0 {
		return fmt.Sprintf("flag %q has both segments and rollouts; the standalone segment OR check is skipped because rollouts take precedence (see rollout step evaluation)", f.ID), true
	}
	return "", false
}
