package condition

import "sort"

// Expr is a node of the parsed expression tree. The concrete types form a
// closed set; evaluation switches exhaustively over them.
type Expr interface {
	isExpr()
}

// BinaryExpr is an AND/OR over two sub-expressions.
type BinaryExpr struct {
	Op    string // "and" or "or"
	Left  Expr
	Right Expr
}

// NotExpr negates its operand.
type NotExpr struct {
	Operand Expr
}

// CompareExpr is a single comparison of an answer key against a literal.
type CompareExpr struct {
	Key     string
	Op      string // ==, !=, >, >=, <, <=
	Literal Literal
}

// MembershipExpr tests an answer key against a literal list ([NOT] IN).
type MembershipExpr struct {
	Key      string
	Negate   bool
	Literals []Literal
}

func (*BinaryExpr) isExpr()     {}
func (*NotExpr) isExpr()        {}
func (*CompareExpr) isExpr()    {}
func (*MembershipExpr) isExpr() {}

// LiteralKind tags the literal variants.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
)

// Literal is a string, number, or boolean literal. Raw preserves the source
// text; numeric and boolean values are parsed lazily at evaluation time so
// the three-tier comparison fallback sees exactly what was written.
type Literal struct {
	Kind LiteralKind
	Raw  string
}

// Refs returns the sorted set of answer keys the expression references.
// Callers use it for dependency analysis, e.g. detecting a question whose
// condition points at an answer collected later in the flow.
func Refs(e Expr) []string {
	set := map[string]struct{}{}
	collectRefs(e, set)
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectRefs(e Expr, set map[string]struct{}) {
	switch n := e.(type) {
	case *BinaryExpr:
		collectRefs(n.Left, set)
		collectRefs(n.Right, set)
	case *NotExpr:
		collectRefs(n.Operand, set)
	case *CompareExpr:
		set[n.Key] = struct{}{}
	case *MembershipExpr:
		set[n.Key] = struct{}{}
	}
}
