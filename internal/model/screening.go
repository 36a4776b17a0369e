package model

import "time"

// ScreeningRecord is one completed screening: the profile as submitted, the
// ranked matches, and the generated explanation. Stored for the audit
// trail; records are never updated after the fact.
type ScreeningRecord struct {
	ID          string         `json:"id"`
	Profile     UserProfile    `json:"profile"`
	Matches     []ProgramMatch `json:"matches"`
	Explanation string         `json:"explanation,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
