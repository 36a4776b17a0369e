package model

// FPLMaxTableSize is the largest household size the federal poverty table
// carries its own row for. Size 8 means "8 or more"; larger households
// extrapolate linearly from the size-8 row.
const FPLMaxTableSize = 8

// FederalPovertyRecord is one row of the yearly poverty-guideline table.
// Amounts are annual, in cents. Jurisdictions with cost-of-living loading
// (e.g. Alaska, Hawaii) carry their own rows with an adjustment multiplier.
type FederalPovertyRecord struct {
	Year          int     `json:"year"`
	HouseholdSize int     `json:"household_size"`
	AnnualAmount  int64   `json:"annual_amount_cents"`
	Jurisdiction  string  `json:"jurisdiction,omitempty"`
	Multiplier    float64 `json:"multiplier,omitempty"`
}

// AdjustedAnnualAmount applies the jurisdiction multiplier, if any, and
// returns the baseline in cents. The multiplication rounds toward zero,
// matching the integer-cents convention used throughout the pipeline.
func (r *FederalPovertyRecord) AdjustedAnnualAmount() int64 {
	if r.Multiplier == 0 || r.Multiplier == 1 {
		return r.AnnualAmount
	}
	return int64(float64(r.AnnualAmount) * r.Multiplier)
}
