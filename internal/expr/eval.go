package expr

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Eval parses (via the package cache) and evaluates src against ctx, with
// now frozen for the whole call — every ts()/now() inside src and any
// nested sub-expression observes the same instant.
func Eval(src string, ctx Context, now time.Time) (any, error) {
	n, err := defaultCache.compile(src)
	if err != nil {
		return nil, err
	}
	e := &evaluator{ctx: ctx, now: now}
	return e.eval(n)
}

// EvalBool evaluates src and coerces the result to boolean using the
// host's truthy semantics. Parse or runtime failure is contained here and
// reported as (false, err); callers that need §4.2's "parse failure
// behaves as false" contract should ignore the error and use the bool.
func EvalBool(src string, ctx Context, now time.Time) (bool, error) {
	v, err := Eval(src, ctx, now)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Truthy implements the JSON-ish truthiness the host uses to coerce an
// expression result to a rule verdict: false, null, 0, "", [] are false;
// everything else is true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

type evaluator struct {
	ctx Context
	now time.Time
}

func (e *evaluator) eval(n Node) (any, error) {
	switch t := n.(type) {
	case literalNode:
		return t.value, nil
	case identNode:
		v, ok := e.ctx.resolveRoot(t.name)
		if !ok {
			return nil, nil
		}
		return v, nil
	case memberNode:
		base, err := e.eval(t.base)
		if err != nil {
			return nil, err
		}
		return memberOf(base, t.name), nil
	case arrayNode:
		out := make([]any, 0, len(t.elems))
		for _, el := range t.elems {
			v, err := e.eval(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case unaryNode:
		return e.evalUnary(t)
	case binaryNode:
		return e.evalBinary(t)
	case inNode:
		return e.evalIn(t)
	case pipeNode:
		return e.evalPipe(t)
	case callNode:
		return e.evalCall(t)
	default:
		return nil, fmt.Errorf("%w: unknown node type %T", ErrParse, n)
	}
}

func memberOf(base any, name string) any {
	m, ok := base.(map[string]any)
	if !ok {
		return nil
	}
	return m[name]
}

func (e *evaluator) evalUnary(t unaryNode) (any, error) {
	v, err := e.eval(t.operand)
	if err != nil {
		return nil, err
	}
	switch t.op {
	case tokNot:
		return !Truthy(v), nil
	case tokMinus:
		f, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("%w: unary '-' on non-numeric value", ErrParse)
		}
		return -f, nil
	default:
		return nil, fmt.Errorf("%w: unsupported unary operator", ErrParse)
	}
}

func (e *evaluator) evalBinary(t binaryNode) (any, error) {
	switch t.op {
	case tokAnd:
		l, err := e.eval(t.left)
		if err != nil {
			return nil, err
		}
		if !Truthy(l) {
			return false, nil
		}
		r, err := e.eval(t.right)
		if err != nil {
			return nil, err
		}
		return Truthy(r), nil
	case tokOr:
		l, err := e.eval(t.left)
		if err != nil {
			return nil, err
		}
		if Truthy(l) {
			return true, nil
		}
		r, err := e.eval(t.right)
		if err != nil {
			return nil, err
		}
		return Truthy(r), nil
	}

	l, err := e.eval(t.left)
	if err != nil {
		return nil, err
	}
	r, err := e.eval(t.right)
	if err != nil {
		return nil, err
	}

	switch t.op {
	case tokEq:
		return equal(l, r), nil
	case tokNeq:
		return !equal(l, r), nil
	case tokLt, tokLte, tokGt, tokGte:
		return compare(t.op, l, r)
	case tokPlus:
		return arithAdd(l, r)
	case tokMinus, tokStar, tokSlash:
		return arith(t.op, l, r)
	default:
		return nil, fmt.Errorf("%w: unsupported binary operator", ErrParse)
	}
}

func (e *evaluator) evalIn(t inNode) (any, error) {
	needle, err := e.eval(t.needle)
	if err != nil {
		return nil, err
	}
	haystack, err := e.eval(t.haystack)
	if err != nil {
		return nil, err
	}
	switch hs := haystack.(type) {
	case []any:
		for _, item := range hs {
			if equal(needle, item) {
				return true, nil
			}
		}
		return false, nil
	case string:
		ns, ok := needle.(string)
		if !ok {
			return false, nil
		}
		return strings.Contains(hs, ns), nil
	default:
		return false, nil
	}
}

func (e *evaluator) evalPipe(t pipeNode) (any, error) {
	base, err := e.eval(t.base)
	if err != nil {
		return nil, err
	}
	switch t.name {
	case "lower":
		s, ok := base.(string)
		if !ok {
			return nil, fmt.Errorf("%w: lower() requires a string", ErrParse)
		}
		return strings.ToLower(s), nil
	case "upper":
		s, ok := base.(string)
		if !ok {
			return nil, fmt.Errorf("%w: upper() requires a string", ErrParse)
		}
		return strings.ToUpper(s), nil
	case "split":
		s, ok := base.(string)
		if !ok {
			return nil, fmt.Errorf("%w: split() requires a string", ErrParse)
		}
		if len(t.args) != 1 {
			return nil, fmt.Errorf("%w: split() requires exactly one argument", ErrParse)
		}
		sepV, err := e.eval(t.args[0])
		if err != nil {
			return nil, err
		}
		sep, ok := sepV.(string)
		if !ok {
			return nil, fmt.Errorf("%w: split() separator must be a string", ErrParse)
		}
		parts := strings.Split(s, sep)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown transform %q", ErrParse, t.name)
	}
}

func (e *evaluator) evalCall(t callNode) (any, error) {
	switch t.name {
	case "now":
		if len(t.args) != 0 {
			return nil, fmt.Errorf("%w: now() takes no arguments", ErrParse)
		}
		return float64(e.now.UnixMilli()), nil
	case "ts":
		if len(t.args) != 1 {
			return nil, fmt.Errorf("%w: ts() requires exactly one argument", ErrParse)
		}
		v, err := e.eval(t.args[0])
		if err != nil {
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: ts() requires a string argument", ErrParse)
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: ts() could not parse %q: %v", ErrParse, s, err)
		}
		return float64(parsed.UnixMilli()), nil
	default:
		return nil, fmt.Errorf("%w: unknown function %q", ErrParse, t.name)
	}
}

func toNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// equal never panics: []any and map[string]any values (array/object
// literals) aren't comparable with Go's native ==, so anything that isn't a
// pair of numbers falls back to reflect.DeepEqual instead of the bare
// operator.
func equal(a, b any) bool {
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func compare(op tokenKind, a, b any) (bool, error) {
	if af, aok := toNumber(a); aok {
		if bf, bok := toNumber(b); bok {
			return compareOrdered(op, af, bf), nil
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return compareOrdered(op, as, bs), nil
		}
	}
	return false, fmt.Errorf("%w: cannot compare %T and %T", ErrParse, a, b)
}

func compareOrdered[T int | float64 | string](op tokenKind, a, b T) bool {
	switch op {
	case tokLt:
		return a < b
	case tokLte:
		return a <= b
	case tokGt:
		return a > b
	case tokGte:
		return a >= b
	default:
		return false
	}
}

func arithAdd(a, b any) (any, error) {
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as + bs, nil
		}
	}
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if !aok || !bok {
		return nil, fmt.Errorf("%w: '+' requires two numbers or two strings", ErrParse)
	}
	return af + bf, nil
}

func arith(op tokenKind, a, b any) (any, error) {
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if !aok || !bok {
		return nil, fmt.Errorf("%w: arithmetic requires numeric operands", ErrParse)
	}
	switch op {
	case tokMinus:
		return af - bf, nil
	case tokStar:
		return af * bf, nil
	case tokSlash:
		if bf == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrParse)
		}
		return af / bf, nil
	default:
		return nil, fmt.Errorf("%w: unsupported arithmetic operator", ErrParse)
	}
}
