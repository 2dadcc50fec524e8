package expr

import (
	"testing"
	"time"
)

func ctxWithUser(u map[string]any) Context {
	return Context{ID: "u", User: u}
}

func TestEval_MemberAndEquality(t *testing.T) {
	ctx := ctxWithUser(map[string]any{"subscription": "premium"})
	ok, err := EvalBool(`user.subscription == 'premium'`, ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected true for matching subscription")
	}

	ctx2 := ctxWithUser(map[string]any{"subscription": "free"})
	ok2, err := EvalBool(`user.subscription == 'premium'`, ctx2, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Error("expected false for non-matching subscription")
	}
}

func TestEval_SegmentOr(t *testing.T) {
	now := time.Now()
	cases := []struct {
		expr string
		user map[string]any
		want bool
	}{
		{"user.premium==true", map[string]any{"premium": false}, false},
		{"user.beta==true", map[string]any{"beta": true}, true},
	}
	for _, c := range cases {
		got, err := EvalBool(c.expr, ctxWithUser(c.user), now)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("%s with %v = %v, want %v", c.expr, c.user, got, c.want)
		}
	}
}

func TestEval_LogicalOperators(t *testing.T) {
	ctx := ctxWithUser(map[string]any{"premium": true, "beta": false})
	ok, err := EvalBool("user.premium && !user.beta", ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected true")
	}
	ok2, err := EvalBool("user.premium || user.beta", ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok2 {
		t.Error("expected true from ||")
	}
}

func TestEval_InOperator(t *testing.T) {
	ctx := ctxWithUser(map[string]any{"country": "DE"})
	ok, err := EvalBool(`user.country in ['DE', 'FR', 'IT']`, ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected DE to be in the array")
	}

	ok2, err := EvalBool(`'foo' in 'foobar'`, Context{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok2 {
		t.Error("expected substring membership to hold")
	}
}

func TestEval_PipeTransforms(t *testing.T) {
	urlStr := "https://example.com/path"
	ctx := Context{Page: PageContext{URL: &urlStr}}
	ok, err := EvalBool(`page.url | lower() == 'https://example.com/path'`, ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected lowercased URL to match")
	}

	parts, err := Eval(`'a,b,c' | split(',')`, Context{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	arr, ok := parts.([]any)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected 3-element array, got %v", parts)
	}
}

func TestEval_NowIsFrozenAtDecisionEntry(t *testing.T) {
	frozen := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ok, err := EvalBool(`now() >= ts('2025-01-01T00:00:00Z')`, Context{}, frozen)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected now() to be after the ts() pin")
	}

	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ok2, err := EvalBool(`now() >= ts('2025-01-01T00:00:00Z')`, Context{}, earlier)
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Error("expected now() to be before the ts() pin")
	}
}

func TestEval_ParseFailureIsContained(t *testing.T) {
	_, err := Eval(`user.subscription ==`, Context{}, time.Now())
	if err == nil {
		t.Fatal("expected parse error")
	}
	ok, err2 := EvalBool(`user.subscription ==`, Context{}, time.Now())
	if err2 == nil {
		t.Fatal("expected parse error from EvalBool too")
	}
	if ok {
		t.Error("malformed expression must coerce to false, never panic or propagate as a crash")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{float64(0), false},
		{"", false},
		{[]any{}, false},
		{true, true},
		{float64(1), true},
		{"x", true},
		{[]any{1}, true},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestCache_ReusesCompiledExpression(t *testing.T) {
	c := NewCache()
	n1, err := c.compile("user.premium == true")
	if err != nil {
		t.Fatal(err)
	}
	n2, err := c.compile("user.premium == true")
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("expected one cached entry, got %d", c.Len())
	}
	_ = n1
	_ = n2
}

func TestEval_ArrayEqualityDoesNotPanic(t *testing.T) {
	ctx := ctxWithUser(map[string]any{"tags": []any{"a", "b"}})
	ok, err := EvalBool(`user.tags == ['a', 'b']`, ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected equal arrays to compare equal")
	}

	ok2, err := EvalBool(`user.tags == ['a', 'c']`, ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Error("expected differing arrays to compare unequal")
	}

	ok3, err := EvalBool(`[1, 2] in [[1, 2], [3, 4]]`, Context{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok3 {
		t.Error("expected nested array membership to hold without panicking")
	}
}

func TestEval_ArithmeticAndComparison(t *testing.T) {
	ok, err := EvalBool("1 + 2 * 3 == 7", Context{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected arithmetic precedence to hold")
	}
}
