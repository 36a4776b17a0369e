package model

import "github.com/rotisserie/eris"

// Confidence is a 0-100 integer summarizing how certain an eligibility
// determination is.
type Confidence int

// NewConfidence validates the range and returns a Confidence.
func NewConfidence(v int) (Confidence, error) {
	if v < 0 || v > 100 {
		return 0, eris.Errorf("confidence: %d out of range [0,100]", v)
	}
	return Confidence(v), nil
}

// ClampConfidence clamps v into [0,100]. Scoring arithmetic uses this so a
// long factor list can never push the score out of range.
func ClampConfidence(v int) Confidence {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return Confidence(v)
}

// ConfidenceLevel is a qualitative band over the numeric score.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceVeryLow  ConfidenceLevel = "very_low"
)

// Level classifies the score into one of five bands.
func (c Confidence) Level() ConfidenceLevel {
	switch {
	case c >= 90:
		return ConfidenceVeryHigh
	case c >= 75:
		return ConfidenceHigh
	case c >= 50:
		return ConfidenceMedium
	case c >= 25:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}
