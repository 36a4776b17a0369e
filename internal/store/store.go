// Package store persists the program catalog, rule history, poverty tables,
// screening questions, and the screening audit trail.
package store

import (
	"context"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// ScreeningFilter specifies criteria for listing screening records.
type ScreeningFilter struct {
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the screening engine.
type Store interface {
	// Programs
	UpsertProgram(ctx context.Context, program *model.ProgramDefinition) error
	ListPrograms(ctx context.Context, jurisdiction string) ([]model.ProgramDefinition, error)

	// Rules. Versions are unique per program; re-upserting a
	// (program, version) pair replaces its logic and window.
	UpsertRule(ctx context.Context, rule *model.EligibilityRule) error
	ListRules(ctx context.Context, programID string) ([]*model.EligibilityRule, error)

	// Poverty tables. ReplaceFPLYear swaps a whole year's rows atomically.
	ReplaceFPLYear(ctx context.Context, year int, records []model.FederalPovertyRecord) (int, error)
	ListFPLRecords(ctx context.Context, year int) ([]model.FederalPovertyRecord, error)

	// Screening questions, mirrored from the question registry.
	ReplaceQuestions(ctx context.Context, questions []model.ScreeningQuestion) error
	ListQuestions(ctx context.Context) ([]model.ScreeningQuestion, error)

	// Audit trail
	SaveScreening(ctx context.Context, record *model.ScreeningRecord) error
	GetScreening(ctx context.Context, id string) (*model.ScreeningRecord, error)
	ListScreenings(ctx context.Context, filter ScreeningFilter) ([]model.ScreeningRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
