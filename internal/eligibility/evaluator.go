package eligibility

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// RuleEvaluationError wraps any fault raised while evaluating one program's
// rule, carrying the rule's identity so batch callers can report which rule
// failed without parsing message text.
type RuleEvaluationError struct {
	RuleName    string
	RuleVersion string
	Err         error
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("eligibility: evaluating rule %q (version %s): %v", e.RuleName, e.RuleVersion, e.Err)
}

func (e *RuleEvaluationError) Unwrap() error { return e.Err }

// RuleEvaluator applies one declarative eligibility rule to a profile.
type RuleEvaluator struct{}

// NewRuleEvaluator creates a RuleEvaluator.
func NewRuleEvaluator() *RuleEvaluator {
	return &RuleEvaluator{}
}

// Evaluate runs the rule's logic tree against the profile and derives the
// audit-trail factors. The factors are computed from the profile fields
// directly, not from the tree walk, so the explanation stays consistent with
// what the person reported even when the rule itself is coarse. The status
// and confidence mapping is fixed policy:
//
//	pass, no disqualifiers    -> likely eligible, 95
//	pass, one disqualifier    -> possibly eligible, 75
//	pass, two or more         -> possibly eligible, 50
//	fail, any disqualifier    -> unlikely eligible, 15
//	fail, no disqualifiers    -> unlikely eligible, 35
func (ev *RuleEvaluator) Evaluate(rule *model.EligibilityRule, profile *model.UserProfile, at time.Time) (*model.EvaluationResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, &RuleEvaluationError{RuleName: rule.Name, RuleVersion: rule.Version, Err: err}
	}
	if err := rule.Logic.Validate(); err != nil {
		return nil, &RuleEvaluationError{RuleName: rule.Name, RuleVersion: rule.Version, Err: err}
	}

	ctx := buildContext(profile, at)
	passed, err := evalNode(&rule.Logic, ctx)
	if err != nil {
		return nil, &RuleEvaluationError{RuleName: rule.Name, RuleVersion: rule.Version, Err: err}
	}

	limit, _ := monthlyIncomeLimit(&rule.Logic)
	matching, disqualifying := deriveFactors(profile, limit)

	status, confidence := classify(passed, len(disqualifying))

	return &model.EvaluationResult{
		Status:               status,
		Confidence:           confidence,
		MatchingFactors:      matching,
		DisqualifyingFactors: disqualifying,
		RuleVersion:          rule.Version,
		MonthlyIncomeLimit:   limit,
		EvaluatedAt:          at,
	}, nil
}

func classify(passed bool, disqualifiers int) (model.EligibilityStatus, model.Confidence) {
	switch {
	case passed && disqualifiers == 0:
		return model.StatusLikelyEligible, 95
	case passed && disqualifiers == 1:
		return model.StatusPossiblyEligible, 75
	case passed:
		return model.StatusPossiblyEligible, 50
	case disqualifiers >= 1:
		return model.StatusUnlikelyEligible, 15
	default:
		return model.StatusUnlikelyEligible, 35
	}
}

// buildContext flattens the profile into the variable map rule leaves
// reference. Dates render as ISO strings so lexicographic comparison matches
// chronological order.
func buildContext(p *model.UserProfile, at time.Time) map[string]any {
	return map[string]any{
		model.VarJurisdiction:    p.Jurisdiction,
		model.VarHouseholdSize:   float64(p.HouseholdSize),
		model.VarMonthlyIncome:   float64(p.MonthlyIncome),
		model.VarAge:             float64(p.Age),
		model.VarHasDisability:   p.HasDisability,
		model.VarIsPregnant:      p.IsPregnant,
		model.VarReceivesBenefit: p.ReceivesBenefit,
		model.VarIsCitizen:       p.IsCitizen,
		model.VarAssetTotal:      float64(p.Assets()),
		model.VarEvaluationDate:  at.Format("2006-01-02"),
	}
}

func evalNode(n *model.RuleNode, ctx map[string]any) (bool, error) {
	if n.IsLeaf() {
		return evalLeaf(n, ctx)
	}

	for i := range n.Children {
		res, err := evalNode(&n.Children[i], ctx)
		if err != nil {
			return false, err
		}
		if n.Op == model.RuleOpAnd && !res {
			return false, nil
		}
		if n.Op == model.RuleOpOr && res {
			return true, nil
		}
	}
	return n.Op == model.RuleOpAnd, nil
}

func evalLeaf(n *model.RuleNode, ctx map[string]any) (bool, error) {
	actual, ok := ctx[n.Variable]
	if !ok {
		return false, eris.Errorf("unknown variable %q", n.Variable)
	}

	if n.Operator == model.CmpIn {
		var list []any
		if err := json.Unmarshal(n.Value, &list); err != nil {
			return false, eris.Wrapf(err, "variable %q: 'in' requires a list value", n.Variable)
		}
		for _, item := range list {
			eq, err := compareValues(actual, model.CmpEq, item)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	}

	var expected any
	if err := json.Unmarshal(n.Value, &expected); err != nil {
		return false, eris.Wrapf(err, "variable %q: bad comparison value", n.Variable)
	}
	return compareValues(actual, n.Operator, expected)
}

func compareValues(actual any, op string, expected any) (bool, error) {
	switch a := actual.(type) {
	case float64:
		b, ok := expected.(float64)
		if !ok {
			return false, eris.Errorf("cannot compare number with %T", expected)
		}
		switch op {
		case model.CmpEq:
			return a == b, nil
		case model.CmpNeq:
			return a != b, nil
		case model.CmpGt:
			return a > b, nil
		case model.CmpGte:
			return a >= b, nil
		case model.CmpLt:
			return a < b, nil
		case model.CmpLte:
			return a <= b, nil
		}
	case bool:
		b, ok := expected.(bool)
		if !ok {
			return false, eris.Errorf("cannot compare boolean with %T", expected)
		}
		switch op {
		case model.CmpEq:
			return a == b, nil
		case model.CmpNeq:
			return a != b, nil
		default:
			return false, eris.Errorf("operator %q not defined for booleans", op)
		}
	case string:
		b, ok := expected.(string)
		if !ok {
			return false, eris.Errorf("cannot compare string with %T", expected)
		}
		switch op {
		case model.CmpEq:
			return strings.EqualFold(a, b), nil
		case model.CmpNeq:
			return !strings.EqualFold(a, b), nil
		case model.CmpGt:
			return a > b, nil
		case model.CmpGte:
			return a >= b, nil
		case model.CmpLt:
			return a < b, nil
		case model.CmpLte:
			return a <= b, nil
		}
	}
	return false, eris.Errorf("unsupported comparison: %T %s %T", actual, op, expected)
}

// monthlyIncomeLimit finds the income ceiling the rule applies, if any, by
// locating an upper-bound comparison on the monthly income variable. Used
// for the audit-trail factors and explanation text.
func monthlyIncomeLimit(n *model.RuleNode) (int64, bool) {
	if n.IsLeaf() {
		if n.Variable != model.VarMonthlyIncome {
			return 0, false
		}
		if n.Operator != model.CmpLte && n.Operator != model.CmpLt {
			return 0, false
		}
		var v float64
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return 0, false
		}
		return int64(v), true
	}
	for i := range n.Children {
		if limit, ok := monthlyIncomeLimit(&n.Children[i]); ok {
			return limit, true
		}
	}
	return 0, false
}

// deriveFactors builds the human-readable audit trail from the profile.
// incomeLimitCents is zero when the rule has no income test.
func deriveFactors(p *model.UserProfile, incomeLimitCents int64) (matching, disqualifying []string) {
	if incomeLimitCents > 0 {
		diff := Difference(p.MonthlyIncome, incomeLimitCents)
		if diff <= 0 {
			matching = append(matching, fmt.Sprintf(
				"Monthly income of $%.2f is within the program's $%.2f limit.",
				cents(p.MonthlyIncome), cents(incomeLimitCents)))
		} else {
			disqualifying = append(disqualifying, fmt.Sprintf(
				"Monthly income of $%.2f is over the program's $%.2f limit by $%.2f.",
				cents(p.MonthlyIncome), cents(incomeLimitCents), cents(diff)))
		}
	}

	switch {
	case p.Age >= agedMinimum:
		matching = append(matching, fmt.Sprintf("Age %d meets the 65-and-over requirement.", p.Age))
	case p.Age >= adultMinimum:
		matching = append(matching, fmt.Sprintf("Age %d falls within the adult coverage band (19-64).", p.Age))
	default:
		matching = append(matching, fmt.Sprintf("Age %d falls within the child coverage band.", p.Age))
	}

	if p.HasDisability {
		matching = append(matching, "Has a qualifying disability.")
	}
	if p.IsPregnant {
		matching = append(matching, "Is pregnant, which opens pregnancy-related coverage.")
	}
	if p.ReceivesBenefit {
		matching = append(matching, "Receives a qualifying categorical benefit, which grants automatic eligibility.")
	}
	if !p.IsCitizen {
		disqualifying = append(disqualifying, "Is not a citizen; most programs require citizenship or a qualified immigration status.")
	}

	return matching, disqualifying
}
