package eligibility

import (
	"time"

	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// Screener is the top-level evaluation entry point: it identifies pathways,
// routes the candidate catalog, applies asset tests, and ranks the matches.
// It holds no mutable state and is safe for concurrent use.
type Screener struct {
	assets  *AssetEvaluator
	matcher *ProgramMatcher
}

// NewScreener wires the pipeline. The logger is the diagnostic sink for
// per-candidate evaluation failures; nil means no-op.
func NewScreener(assets *AssetEvaluator, logger *zap.Logger) *Screener {
	return &Screener{
		assets:  assets,
		matcher: NewProgramMatcher(NewRuleEvaluator(), logger),
	}
}

// Outcome is everything a caller needs to present a screening verdict.
type Outcome struct {
	Pathways []model.Pathway          `json:"pathways"`
	Matches  []model.ProgramMatch     `json:"matches"`
	Results  []model.EvaluationResult `json:"results"`
	// ExcludedReasons explains candidates removed before rule evaluation,
	// currently asset-test failures. Feeds the zero-match explanation.
	ExcludedReasons []string  `json:"excluded_reasons,omitempty"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// EvaluateProfile runs the full pipeline for one profile against the
// candidate set and returns a deterministic, ranked outcome. Candidates
// whose pathway does not apply to the profile are dropped; asset-tested
// candidates run the asset test first and are excluded (with the reason
// recorded) when it fails.
func (s *Screener) EvaluateProfile(profile *model.UserProfile, candidates []Candidate, at time.Time) (*Outcome, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	pathways, err := IdentifyPathways(profile.Age, profile.HasDisability, profile.ReceivesBenefit, profile.IsPregnant, profile.IsFemale)
	if err != nil {
		return nil, err
	}
	applicable := make(map[model.Pathway]struct{}, len(pathways))
	for _, p := range pathways {
		applicable[p] = struct{}{}
	}

	var eligible []Candidate
	var excluded []string
	for _, cand := range candidates {
		if _, ok := applicable[cand.Program.Pathway]; !ok {
			continue
		}
		if s.assets != nil && cand.Program.Pathway.AssetTested() {
			ok, reason := s.assets.Evaluate(profile.Assets(), cand.Program.Pathway, profile.Jurisdiction)
			if !ok {
				excluded = append(excluded, reason)
				continue
			}
		}
		eligible = append(eligible, cand)
	}

	matches, results := s.matcher.FindMatchesDetailed(profile, eligible, at)

	// Zero-match callers want the income overage surfaced; pull it from the
	// recorded disqualifying factors of the excluded evaluations.
	if len(matches) == 0 {
		for _, r := range results {
			excluded = append(excluded, r.DisqualifyingFactors...)
		}
	}

	return &Outcome{
		Pathways:        pathways,
		Matches:         matches,
		Results:         results,
		ExcludedReasons: dedupe(excluded),
		EvaluatedAt:     at,
	}, nil
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, s := range items {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
