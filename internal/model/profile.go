package model

import "github.com/rotisserie/eris"

// UserProfile is the evaluation input: one household's answers at screening
// time. All money fields are integer cents. Callers validate before handing
// the profile to the core; the core re-validates ranges and fails fast.
type UserProfile struct {
	Jurisdiction    string `json:"jurisdiction"`
	HouseholdSize   int    `json:"household_size"`
	MonthlyIncome   int64  `json:"monthly_income_cents"`
	Age             int    `json:"age"`
	IsFemale        bool   `json:"is_female"`
	HasDisability   bool   `json:"has_disability"`
	IsPregnant      bool   `json:"is_pregnant"`
	ReceivesBenefit bool   `json:"receives_categorical_benefit"`
	IsCitizen       bool   `json:"is_citizen"`
	AssetTotal      *int64 `json:"asset_total_cents,omitempty"`
}

// Validate checks field ranges and returns a descriptive error on the first
// violation.
func (p *UserProfile) Validate() error {
	if p.Jurisdiction == "" {
		return eris.New("profile: jurisdiction is required")
	}
	if p.HouseholdSize < 1 {
		return eris.Errorf("profile: household size %d must be at least 1", p.HouseholdSize)
	}
	if p.MonthlyIncome < 0 {
		return eris.Errorf("profile: monthly income %d must not be negative", p.MonthlyIncome)
	}
	if p.Age < 0 || p.Age > 120 {
		return eris.Errorf("profile: age %d out of range [0,120]", p.Age)
	}
	if p.AssetTotal != nil && *p.AssetTotal < 0 {
		return eris.Errorf("profile: asset total %d must not be negative", *p.AssetTotal)
	}
	return nil
}

// Assets returns the declared asset total, or zero when the question was not
// answered. A missing answer is not an error; asset-tested pathways treat it
// as no countable resources.
func (p *UserProfile) Assets() int64 {
	if p.AssetTotal == nil {
		return 0
	}
	return *p.AssetTotal
}
