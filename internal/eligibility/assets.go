package eligibility

import (
	"fmt"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// AssetLimits maps jurisdiction code -> pathway -> asset limit in cents.
// The table is injected configuration (loaded from the registry at startup),
// never compiled-in literals.
type AssetLimits map[string]map[model.Pathway]int64

// AssetEvaluator compares household assets against jurisdiction- and
// pathway-specific limits.
type AssetEvaluator struct {
	limits AssetLimits
}

// NewAssetEvaluator creates an evaluator over the injected limit table.
func NewAssetEvaluator(limits AssetLimits) *AssetEvaluator {
	return &AssetEvaluator{limits: limits}
}

// Evaluate applies the asset test for the given pathway and jurisdiction.
// Pathways without an asset test always pass. For the asset-tested pathways
// a jurisdiction missing from the table is reported ineligible: an unknown
// limit fails closed rather than silently waving the household through.
func (e *AssetEvaluator) Evaluate(assetsCents int64, pathway model.Pathway, jurisdiction string) (bool, string) {
	if !pathway.AssetTested() {
		return true, fmt.Sprintf("No asset test applies to the %s pathway.", pathway)
	}

	byPathway, ok := e.limits[jurisdiction]
	if !ok {
		return false, fmt.Sprintf("No asset limit is configured for jurisdiction %q; the asset test cannot be passed without one.", jurisdiction)
	}
	limit, ok := byPathway[pathway]
	if !ok {
		return false, fmt.Sprintf("No asset limit is configured for the %s pathway in jurisdiction %q; the asset test cannot be passed without one.", pathway, jurisdiction)
	}

	if assetsCents <= limit {
		return true, fmt.Sprintf("Household assets of $%.2f are within the $%.2f limit.", cents(assetsCents), cents(limit))
	}
	over := assetsCents - limit
	return false, fmt.Sprintf("Household assets of $%.2f exceed the $%.2f limit by $%.2f.", cents(assetsCents), cents(limit), cents(over))
}

// cents converts integer cents to dollars for display only. Money arithmetic
// stays in int64 cents.
func cents(v int64) float64 {
	return float64(v) / 100
}
