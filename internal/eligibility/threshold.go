// Package eligibility implements the pure evaluation pipeline: income
// thresholds, asset tests, pathway classification, rule evaluation, and
// program matching. Every type here is stateless after construction and safe
// for concurrent use.
package eligibility

import "github.com/rotisserie/eris"

// DefaultPerPersonIncrement is the annual per-person amount, in cents, added
// for each household member beyond the poverty table's largest row (2024 HHS
// guidelines: $5,240 per additional person). Deployments override it through
// configuration.
const DefaultPerPersonIncrement int64 = 524000

// Threshold table bounds. Violations fail fast before any arithmetic.
const (
	maxPercentage    = 500
	maxHouseholdSize = 50
	tableMaxSize     = 8
)

// ThresholdCalculator derives income limits from poverty-baseline amounts.
// All arithmetic is integer cents; no floating point touches the money path,
// so identical inputs always produce identical limits.
type ThresholdCalculator struct {
	perPersonIncrement int64
}

// NewThresholdCalculator creates a calculator with the given per-person
// annual increment in cents. A non-positive increment falls back to the
// default.
func NewThresholdCalculator(perPersonIncrementCents int64) *ThresholdCalculator {
	if perPersonIncrementCents <= 0 {
		perPersonIncrementCents = DefaultPerPersonIncrement
	}
	return &ThresholdCalculator{perPersonIncrement: perPersonIncrementCents}
}

// Annual computes the annual income threshold in cents:
// (baseline + increment * extra members) * percentage / 100, in integer math.
// The baseline is assumed already sized for households up to 8; sizes above 8
// extrapolate linearly from the size-8 baseline.
func (c *ThresholdCalculator) Annual(annualBaselineCents int64, percentage, householdSize int) (int64, error) {
	if annualBaselineCents < 0 {
		return 0, eris.Errorf("threshold: baseline %d must not be negative", annualBaselineCents)
	}
	if percentage < 0 || percentage > maxPercentage {
		return 0, eris.Errorf("threshold: percentage %d out of range [0,%d]", percentage, maxPercentage)
	}
	if householdSize < 1 || householdSize > maxHouseholdSize {
		return 0, eris.Errorf("threshold: household size %d out of range [1,%d]", householdSize, maxHouseholdSize)
	}

	sized := annualBaselineCents
	if householdSize > tableMaxSize {
		sized += c.perPersonIncrement * int64(householdSize-tableMaxSize)
	}
	return sized * int64(percentage) / 100, nil
}

// Monthly computes the monthly income threshold: the annual threshold divided
// by 12 with integer division.
func (c *ThresholdCalculator) Monthly(annualBaselineCents int64, percentage, householdSize int) (int64, error) {
	annual, err := c.Annual(annualBaselineCents, percentage, householdSize)
	if err != nil {
		return 0, err
	}
	return annual / 12, nil
}

// Difference reports actual income minus the threshold, in cents. Positive
// means over the limit; explanations render it as "over by $X" / "under by
// $X".
func Difference(actualCents, thresholdCents int64) int64 {
	return actualCents - thresholdCents
}
