package eligibility

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/model"
	"github.com/benefitsnav/screener-cli/internal/scorer"
)

// Candidate pairs a program with its active rule for the evaluation date.
// Active-rule selection happens in the registry before matching.
type Candidate struct {
	Program model.ProgramDefinition
	Rule    *model.EligibilityRule
}

// ProgramMatcher evaluates every candidate program against a profile and
// returns a deterministically ranked match list. The logger is an injected
// diagnostic sink; the matcher itself stays free of other side effects.
type ProgramMatcher struct {
	evaluator *RuleEvaluator
	logger    *zap.Logger
}

// NewProgramMatcher creates a matcher. A nil logger falls back to a no-op
// sink so library callers need no logging setup.
func NewProgramMatcher(evaluator *RuleEvaluator, logger *zap.Logger) *ProgramMatcher {
	if evaluator == nil {
		evaluator = NewRuleEvaluator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramMatcher{evaluator: evaluator, logger: logger}
}

// FindMatches evaluates each candidate and returns matches sorted by score
// descending, then by program name ascending, so ties break the same way on
// every run. Candidates whose status comes back unlikely-eligible are
// excluded. A failure evaluating one candidate is logged and that candidate
// skipped; one bad rule never aborts the batch.
func (m *ProgramMatcher) FindMatches(profile *model.UserProfile, candidates []Candidate, at time.Time) []model.ProgramMatch {
	matches, _ := m.FindMatchesDetailed(profile, candidates, at)
	return matches
}

// FindMatchesDetailed is FindMatches plus the unfiltered evaluation results,
// excluded candidates included, for callers that need the full audit trail
// (e.g. explaining why nothing matched).
func (m *ProgramMatcher) FindMatchesDetailed(profile *model.UserProfile, candidates []Candidate, at time.Time) ([]model.ProgramMatch, []model.EvaluationResult) {
	var matches []model.ProgramMatch
	var results []model.EvaluationResult

	for _, cand := range candidates {
		result, err := m.evaluateSafely(cand, profile, at)
		if err != nil {
			m.logger.Warn("matcher: skipping candidate after evaluation failure",
				zap.String("program", cand.Program.Name),
				zap.String("program_code", cand.Program.Code),
				zap.Error(err),
			)
			continue
		}
		results = append(results, *result)

		if result.Status == model.StatusUnlikelyEligible {
			continue
		}

		matches = append(matches, model.ProgramMatch{
			Program: cand.Program,
			Result:  *result,
			Score:   scorer.Score(result.MatchingFactors, result.DisqualifyingFactors),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Program.Name < matches[j].Program.Name
	})
	return matches, results
}

// FindBestMatch returns the top-ranked match, or nil when nothing matches.
func (m *ProgramMatcher) FindBestMatch(profile *model.UserProfile, candidates []Candidate, at time.Time) *model.ProgramMatch {
	matches := m.FindMatches(profile, candidates, at)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// evaluateSafely isolates one candidate's evaluation, converting panics from
// malformed rule data into errors so they are contained like any other
// per-candidate failure.
func (m *ProgramMatcher) evaluateSafely(cand Candidate, profile *model.UserProfile, at time.Time) (result *model.EvaluationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("matcher: panic evaluating rule %q: %v", cand.Rule.Name, r)
		}
	}()
	return m.evaluator.Evaluate(cand.Rule, profile, at)
}
