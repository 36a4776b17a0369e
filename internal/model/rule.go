package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Rule-tree node operators. A node is either a combinator over children or a
// comparison leaf against a named profile variable.
const (
	RuleOpAnd = "and"
	RuleOpOr  = "or"
)

// Comparison operators allowed in rule leaves.
const (
	CmpEq  = "=="
	CmpNeq = "!="
	CmpGt  = ">"
	CmpGte = ">="
	CmpLt  = "<"
	CmpLte = "<="
	CmpIn  = "in"
)

// Profile variable names a rule leaf may reference.
const (
	VarJurisdiction    = "jurisdiction"
	VarHouseholdSize   = "household_size"
	VarMonthlyIncome   = "monthly_income_cents"
	VarAge             = "age"
	VarHasDisability   = "has_disability"
	VarIsPregnant      = "is_pregnant"
	VarReceivesBenefit = "receives_categorical_benefit"
	VarIsCitizen       = "is_citizen"
	VarAssetTotal      = "asset_total_cents"
	VarEvaluationDate  = "evaluation_date"
)

// RuleNode is one node of a declarative eligibility logic tree. Combinator
// nodes set Op to "and"/"or" and carry Children; comparison leaves leave Op
// empty and set Variable, Operator, and Value.
type RuleNode struct {
	Op       string     `json:"op,omitempty"`
	Children []RuleNode `json:"children,omitempty"`

	Variable string          `json:"variable,omitempty"`
	Operator string          `json:"operator,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// IsLeaf reports whether the node is a comparison leaf.
func (n *RuleNode) IsLeaf() bool { return n.Op == "" }

// Validate walks the tree and rejects structurally malformed nodes before
// any evaluation happens.
func (n *RuleNode) Validate() error {
	if n.IsLeaf() {
		if n.Variable == "" {
			return eris.New("rule: comparison leaf missing variable")
		}
		switch n.Operator {
		case CmpEq, CmpNeq, CmpGt, CmpGte, CmpLt, CmpLte, CmpIn:
		default:
			return eris.Errorf("rule: unknown comparison operator %q", n.Operator)
		}
		if len(n.Value) == 0 {
			return eris.Errorf("rule: comparison on %q missing value", n.Variable)
		}
		return nil
	}
	if n.Op != RuleOpAnd && n.Op != RuleOpOr {
		return eris.Errorf("rule: unknown combinator %q", n.Op)
	}
	if len(n.Children) == 0 {
		return eris.Errorf("rule: %s node has no children", n.Op)
	}
	for i := range n.Children {
		if err := n.Children[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EligibilityRule is one versioned, date-bounded logic tree attached to a
// program. Versions are unique per program; selection of the active version
// for an evaluation date lives in the registry, not here.
type EligibilityRule struct {
	ID            string     `json:"id"`
	ProgramID     string     `json:"program_id"`
	Name          string     `json:"name"`
	Version       string     `json:"version"`
	Logic         RuleNode   `json:"logic"`
	EffectiveDate time.Time  `json:"effective_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// ActiveAt reports whether the rule's effective window covers the given date.
func (r *EligibilityRule) ActiveAt(at time.Time) bool {
	if at.Before(r.EffectiveDate) {
		return false
	}
	return r.EndDate == nil || r.EndDate.After(at)
}
