package condition

import (
	"strconv"
	"strings"
)

// Evaluate resolves the expression against collected answers. It never fails:
// a referenced key that is absent or blank makes its comparison false, so a
// question whose dependencies are unanswered stays hidden. The same tree and
// answer map always produce the same boolean.
func Evaluate(e Expr, answers map[string]string) bool {
	switch n := e.(type) {
	case *BinaryExpr:
		if n.Op == "and" {
			return Evaluate(n.Left, answers) && Evaluate(n.Right, answers)
		}
		return Evaluate(n.Left, answers) || Evaluate(n.Right, answers)
	case *NotExpr:
		return !Evaluate(n.Operand, answers)
	case *CompareExpr:
		answer, ok := lookup(answers, n.Key)
		if !ok {
			return false
		}
		return compare(answer, n.Op, n.Literal)
	case *MembershipExpr:
		answer, ok := lookup(answers, n.Key)
		if !ok {
			return false
		}
		found := false
		for _, lit := range n.Literals {
			if compare(answer, "==", lit) {
				found = true
				break
			}
		}
		if n.Negate {
			return !found
		}
		return found
	}
	return false
}

func lookup(answers map[string]string, key string) (string, bool) {
	v, ok := answers[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// compare applies the three-tier coercion the stored expressions rely on:
// if both the answer and the literal parse as decimal numbers the comparison
// is numeric; boolean literals compare against the parsed answer; everything
// else is a case-insensitive string match, where ordering operators resolve
// to false. Mixed-type behavior is pinned by tests; do not "fix" it.
func compare(answer, op string, lit Literal) bool {
	if lit.Kind == LiteralBool {
		return compareBool(answer, op, lit.Raw)
	}

	if answerNum, err := strconv.ParseFloat(strings.TrimSpace(answer), 64); err == nil {
		if litNum, err := strconv.ParseFloat(lit.Raw, 64); err == nil {
			return compareNumbers(answerNum, op, litNum)
		}
	}

	return compareStrings(answer, op, lit.Raw)
}

func compareNumbers(a float64, op string, b float64) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case "<=":
		return a <= b
	}
	return false
}

func compareStrings(a, op, b string) bool {
	equal := strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	switch op {
	case "==":
		return equal
	case "!=":
		return !equal
	}
	// Ordering operators have no string semantics here.
	return false
}

func compareBool(answer, op, raw string) bool {
	parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(answer)))
	if err != nil {
		return false
	}
	litVal := strings.EqualFold(raw, "true")
	switch op {
	case "==":
		return parsed == litVal
	case "!=":
		return parsed != litVal
	}
	return false
}
