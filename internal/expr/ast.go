package expr

// Node is any expression AST node. The set is closed: literals, member
// access, unary/binary operators, the "in" operator, pipe transforms, and
// the two builtin function calls (ts, now).
type Node interface{ node() }

type literalNode struct{ value any }

// identNode resolves a top-level context field: user, id, page, geo, request.
type identNode struct{ name string }

// memberNode is a.b.c member access chained onto a base node.
type memberNode struct {
	base Node
	name string
}

type unaryNode struct {
	op      tokenKind
	operand Node
}

type binaryNode struct {
	op          tokenKind
	left, right Node
}

type inNode struct {
	needle, haystack Node
}

// pipeNode applies a transform to the result of base: split(sep), lower(), upper().
type pipeNode struct {
	base Node
	name string
	args []Node
}

// callNode is a builtin function call: ts(v) or now().
type callNode struct {
	name string
	args []Node
}

// arrayNode is an array literal.
type arrayNode struct{ elems []Node }

func (literalNode) node() {}
func (identNode) node()   {}
func (memberNode) node()  {}
func (unaryNode) node()   {}
func (binaryNode) node()  {}
func (inNode) node()      {}
func (pipeNode) node()    {}
func (callNode) node()    {}
func (arrayNode) node()   {}
