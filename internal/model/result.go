package model

import "time"

// EligibilityStatus is the per-program verdict.
type EligibilityStatus string

const (
	StatusLikelyEligible   EligibilityStatus = "likely_eligible"
	StatusPossiblyEligible EligibilityStatus = "possibly_eligible"
	StatusUnlikelyEligible EligibilityStatus = "unlikely_eligible"
)

// EvaluationResult is the outcome of evaluating one program's rule against a
// profile. Produced fresh on every call and never mutated afterwards.
type EvaluationResult struct {
	Status               EligibilityStatus `json:"status"`
	Confidence           Confidence        `json:"confidence"`
	MatchingFactors      []string          `json:"matching_factors"`
	DisqualifyingFactors []string          `json:"disqualifying_factors"`
	RuleVersion          string            `json:"rule_version"`
	// MonthlyIncomeLimit is the income threshold the rule applied, in cents,
	// or zero when the rule carries no income test. Used by explanations.
	MonthlyIncomeLimit int64     `json:"monthly_income_limit_cents,omitempty"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}

// ProgramMatch pairs a program with its evaluation result and final score.
type ProgramMatch struct {
	Program ProgramDefinition `json:"program"`
	Result  EvaluationResult  `json:"result"`
	Score   Confidence        `json:"score"`
}
