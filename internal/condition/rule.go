package condition

// Rule is a parsed visibility condition: the original text, its AST, and the
// set of answer keys it references. Construct with ParseRule; a Rule is
// immutable and safe for concurrent use.
type Rule struct {
	Text string
	expr Expr
	refs []string
}

// ParseRule parses expression text into a reusable Rule.
func ParseRule(text string) (*Rule, error) {
	expr, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &Rule{Text: text, expr: expr, refs: Refs(expr)}, nil
}

// Evaluate resolves the rule against collected answers.
func (r *Rule) Evaluate(answers map[string]string) bool {
	return Evaluate(r.expr, answers)
}

// Refs returns the sorted answer keys the rule depends on.
func (r *Rule) Refs() []string {
	out := make([]string, len(r.refs))
	copy(out, r.refs)
	return out
}
