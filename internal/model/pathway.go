// Package model defines the domain types shared across the screening pipeline.
package model

import "sort"

// Pathway is a categorical route to benefit eligibility, determined by
// demographic attributes rather than program-specific rules.
type Pathway string

const (
	// PathwayMAGI is income-based eligibility (Modified Adjusted Gross Income).
	PathwayMAGI Pathway = "magi"
	// PathwayAged is non-income eligibility for people 65 and older.
	PathwayAged Pathway = "aged"
	// PathwayDisabled is non-income eligibility based on disability.
	PathwayDisabled Pathway = "disabled"
	// PathwayCategorical is automatic eligibility linked to receipt of a
	// qualifying cash benefit.
	PathwayCategorical Pathway = "categorical"
	// PathwayPregnancy covers pregnancy-related eligibility.
	PathwayPregnancy Pathway = "pregnancy"
	// PathwayOther covers programs outside the standard routes.
	PathwayOther Pathway = "other"
)

// Valid reports whether p is one of the known pathways.
func (p Pathway) Valid() bool {
	switch p {
	case PathwayMAGI, PathwayAged, PathwayDisabled, PathwayCategorical, PathwayPregnancy, PathwayOther:
		return true
	}
	return false
}

// AssetTested reports whether the pathway carries an asset test. Only the
// non-income aged and disabled routes do; MAGI, categorical, pregnancy, and
// other programs have no resource limit.
func (p Pathway) AssetTested() bool {
	return p == PathwayAged || p == PathwayDisabled
}

// SortPathways sorts pathways by name in place and returns the slice.
// Identification output is sorted so downstream results are deterministic.
func SortPathways(ps []Pathway) []Pathway {
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}
