package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benefitsnav/screener-cli/internal/model"
)

func TestScreenerEvaluateProfile(t *testing.T) {
	t.Parallel()

	screener := NewScreener(NewAssetEvaluator(testLimits()), nil)

	t.Run("end to end income match", func(t *testing.T) {
		t.Parallel()
		// Spec example: $2,100/month against a $2,435 limit for a household
		// of two must come back likely eligible at 95.
		outcome, err := screener.EvaluateProfile(adultProfile(), []Candidate{magiCandidate(t, "Adult Coverage", 243500)}, evalDate)
		require.NoError(t, err)

		assert.Equal(t, []model.Pathway{model.PathwayMAGI}, outcome.Pathways)
		require.Len(t, outcome.Matches, 1)
		match := outcome.Matches[0]
		assert.Equal(t, model.StatusLikelyEligible, match.Result.Status)
		assert.Equal(t, model.Confidence(95), match.Result.Confidence)
		assert.True(t, mentionsFactor(match.Result.MatchingFactors, "income"))
	})

	t.Run("categorical benefit floor", func(t *testing.T) {
		t.Parallel()
		// With the categorical bonus the final score stays at or above 95
		// even with a disqualifier in play.
		p := adultProfile()
		p.ReceivesBenefit = true
		p.IsCitizen = false
		cand := Candidate{
			Program: model.ProgramDefinition{Name: "Linked Coverage", Code: "LNK", Pathway: model.PathwayCategorical},
			Rule:    incomeRule(t, 243500),
		}
		outcome, err := screener.EvaluateProfile(p, []Candidate{cand}, evalDate)
		require.NoError(t, err)
		require.Len(t, outcome.Matches, 1)
		assert.GreaterOrEqual(t, int(outcome.Matches[0].Score), 95)
	})

	t.Run("non-applicable pathways dropped before evaluation", func(t *testing.T) {
		t.Parallel()
		cand := Candidate{
			Program: model.ProgramDefinition{Name: "Senior Only", Code: "SNR", Pathway: model.PathwayAged},
			Rule:    incomeRule(t, 243500),
		}
		outcome, err := screener.EvaluateProfile(adultProfile(), []Candidate{cand}, evalDate)
		require.NoError(t, err)
		assert.Empty(t, outcome.Matches)
		assert.Empty(t, outcome.Results)
	})

	t.Run("asset test excludes with reason", func(t *testing.T) {
		t.Parallel()
		p := adultProfile()
		p.Age = 70
		p.Jurisdiction = "TX"
		assets := int64(250000)
		p.AssetTotal = &assets
		cand := Candidate{
			Program: model.ProgramDefinition{Name: "Senior Care", Code: "SNC", Pathway: model.PathwayAged},
			Rule:    incomeRule(t, 243500),
		}
		outcome, err := screener.EvaluateProfile(p, []Candidate{cand}, evalDate)
		require.NoError(t, err)
		assert.Empty(t, outcome.Matches)
		require.NotEmpty(t, outcome.ExcludedReasons)
		assert.Contains(t, outcome.ExcludedReasons[0], "exceed")
	})

	t.Run("unknown jurisdiction fails asset test closed", func(t *testing.T) {
		t.Parallel()
		p := adultProfile()
		p.Age = 70
		p.Jurisdiction = "ZZ"
		cand := Candidate{
			Program: model.ProgramDefinition{Name: "Senior Care", Code: "SNC", Pathway: model.PathwayAged},
			Rule:    incomeRule(t, 243500),
		}
		outcome, err := screener.EvaluateProfile(p, []Candidate{cand}, evalDate)
		require.NoError(t, err)
		assert.Empty(t, outcome.Matches)
		require.NotEmpty(t, outcome.ExcludedReasons)
	})

	t.Run("invalid profile rejected", func(t *testing.T) {
		t.Parallel()
		p := adultProfile()
		p.HouseholdSize = 0
		_, err := screener.EvaluateProfile(p, nil, evalDate)
		assert.Error(t, err)
	})

	t.Run("byte identical outcomes across calls", func(t *testing.T) {
		t.Parallel()
		candidates := []Candidate{
			magiCandidate(t, "Alpha", 243500),
			magiCandidate(t, "Beta", 250000),
		}
		first, err := screener.EvaluateProfile(adultProfile(), candidates, evalDate)
		require.NoError(t, err)
		second, err := screener.EvaluateProfile(adultProfile(), candidates, evalDate)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
