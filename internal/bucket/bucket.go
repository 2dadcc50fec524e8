// Package bucket implements the deterministic hash-and-bucket primitives the
// decision procedure and the CLI/tests build on. The hash is pinned to
// FNV-1a 32-bit; changing it would silently re-bucket every existing user.
package bucket

import "hash/fnv"

// Bucket computes bucket(identity, flagKey) -> 1..100 as
// (fnv1a32(identity + ":" + flagKey) mod 100) + 1.
//
// The colon-joined composite couples identity to the flag key so the same
// user does not land in the same bucket across different flags.
func Bucket(identity, flagKey string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(flagKey))
	return int(h.Sum32()%100) + 1
}

// InRollout reports whether identity falls within the first pct percent of
// buckets for flagKey. pct == 100 admits everyone without hashing; pct == 0
// admits no one.
func InRollout(identity, flagKey string, pct int) bool {
	if pct >= 100 {
		return true
	}
	if pct <= 0 {
		return false
	}
	return Bucket(identity, flagKey) <= pct
}

// Variation is the subset of a flag's variant definition ChooseVariant needs:
// an id and a weight in 0..100. Callers pass their own variation type
// satisfying this shape.
type Variation struct {
	ID     string
	Weight int
}

// ChooseVariant walks variations in declared order accumulating weights and
// returns the index of the first one whose cumulative weight is >= the
// computed bucket. It returns ok=false ("no variant") when the bucket
// exceeds the accumulated total, i.e. the declared weights sum to less than
// 100 and the caller's bucket falls past the end.
func ChooseVariant(identity, flagKey string, variations []Variation) (idx int, ok bool) {
	if len(variations) == 0 {
		return 0, false
	}
	b := Bucket(identity, flagKey)
	cumulative := 0
	for i, v := range variations {
		cumulative += v.Weight
		if cumulative >= b {
			return i, true
		}
	}
	return 0, false
}
