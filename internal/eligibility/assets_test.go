package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benefitsnav/screener-cli/internal/model"
)

func testLimits() AssetLimits {
	return AssetLimits{
		"CA": {
			model.PathwayAged:     13000000, // $130,000
			model.PathwayDisabled: 13000000,
		},
		"TX": {
			model.PathwayAged:     200000, // $2,000
			model.PathwayDisabled: 200000,
		},
	}
}

func TestAssetEvaluator(t *testing.T) {
	t.Parallel()

	ev := NewAssetEvaluator(testLimits())

	t.Run("non asset-tested pathways always pass", func(t *testing.T) {
		t.Parallel()
		for _, p := range []model.Pathway{model.PathwayMAGI, model.PathwayCategorical, model.PathwayPregnancy, model.PathwayOther} {
			ok, reason := ev.Evaluate(99999999999, p, "ZZ")
			assert.True(t, ok, p)
			assert.Contains(t, reason, "No asset test")
		}
	})

	t.Run("under limit passes", func(t *testing.T) {
		t.Parallel()
		ok, reason := ev.Evaluate(150000, model.PathwayAged, "TX")
		assert.True(t, ok)
		assert.Contains(t, reason, "$1500.00")
		assert.Contains(t, reason, "$2000.00")
	})

	t.Run("exactly at limit passes", func(t *testing.T) {
		t.Parallel()
		ok, _ := ev.Evaluate(200000, model.PathwayDisabled, "TX")
		assert.True(t, ok)
	})

	t.Run("over limit fails with overage amount", func(t *testing.T) {
		t.Parallel()
		ok, reason := ev.Evaluate(250000, model.PathwayAged, "TX")
		assert.False(t, ok)
		assert.Contains(t, reason, "$500.00", "reason must state the exact overage")
	})

	t.Run("unknown jurisdiction fails closed", func(t *testing.T) {
		t.Parallel()
		ok, reason := ev.Evaluate(0, model.PathwayAged, "ZZ")
		assert.False(t, ok, "a missing limit table entry must not silently pass")
		assert.Contains(t, reason, `"ZZ"`)
	})
}
