// Package scorer turns matching and disqualifying factor lists into a
// confidence score.
package scorer

import (
	"strings"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// Scoring policy. Base plus per-factor deltas, with a flat bonus when any
// matching factor indicates categorical (benefit-linked) eligibility, clamped
// to [0,100].
const (
	baseScore         = 50
	perMatchingFactor = 10
	perDisqualifying  = -15
	categoricalBonus  = 45
	categoricalMarker = "categorical"
	benefitLinkMarker = "automatic eligibility"
)

// Breakdown itemizes how a score was reached, for debugging and audit.
type Breakdown struct {
	Base               int              `json:"base"`
	MatchingDelta      int              `json:"matching_delta"`
	DisqualifyingDelta int              `json:"disqualifying_delta"`
	CategoricalBonus   int              `json:"categorical_bonus"`
	AppliedCategorical bool             `json:"applied_categorical"`
	Total              model.Confidence `json:"total"`
}

// Score computes the confidence for the given factor lists.
func Score(matching, disqualifying []string) model.Confidence {
	return ScoreDetailed(matching, disqualifying).Total
}

// ScoreDetailed computes the confidence and returns the full breakdown.
func ScoreDetailed(matching, disqualifying []string) Breakdown {
	b := Breakdown{
		Base:               baseScore,
		MatchingDelta:      perMatchingFactor * len(matching),
		DisqualifyingDelta: perDisqualifying * len(disqualifying),
	}

	if hasCategoricalFactor(matching) {
		b.AppliedCategorical = true
		b.CategoricalBonus = categoricalBonus
	}

	b.Total = model.ClampConfidence(b.Base + b.MatchingDelta + b.DisqualifyingDelta + b.CategoricalBonus)
	return b
}

// hasCategoricalFactor reports whether any matching factor's text indicates
// benefit-linked eligibility.
func hasCategoricalFactor(matching []string) bool {
	for _, f := range matching {
		lower := strings.ToLower(f)
		if strings.Contains(lower, categoricalMarker) || strings.Contains(lower, benefitLinkMarker) {
			return true
		}
	}
	return false
}
