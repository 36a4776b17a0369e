package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benefitsnav/screener-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "screener.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testProgram(jurisdiction, name, code string) *model.ProgramDefinition {
	return &model.ProgramDefinition{
		Jurisdiction: jurisdiction,
		Name:         name,
		Code:         code,
		Pathway:      model.PathwayMAGI,
	}
}

func testRule(programID, version string, effective time.Time) *model.EligibilityRule {
	return &model.EligibilityRule{
		ProgramID:     programID,
		Name:          "adult coverage",
		Version:       version,
		Logic:         model.RuleNode{Variable: model.VarAge, Operator: model.CmpGte, Value: json.RawMessage(`19`)},
		EffectiveDate: effective,
	}
}

func TestSQLiteStore_Programs(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p := testProgram("CA", "Adult Coverage", "ADC")
	require.NoError(t, s.UpsertProgram(ctx, p))
	assert.NotEmpty(t, p.ID, "upsert assigns an ID")

	require.NoError(t, s.UpsertProgram(ctx, testProgram("CA", "Senior Care", "SNC")))
	require.NoError(t, s.UpsertProgram(ctx, testProgram("TX", "Lone Star", "LS")))

	ca, err := s.ListPrograms(ctx, "CA")
	require.NoError(t, err)
	require.Len(t, ca, 2)
	assert.Equal(t, "Adult Coverage", ca[0].Name, "sorted by name")

	all, err := s.ListPrograms(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Re-upsert by ID updates in place.
	p.Name = "Adult Coverage Plus"
	require.NoError(t, s.UpsertProgram(ctx, p))
	ca, err = s.ListPrograms(ctx, "CA")
	require.NoError(t, err)
	require.Len(t, ca, 2)
	assert.Equal(t, "Adult Coverage Plus", ca[0].Name)
}

func TestSQLiteStore_Rules(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p := testProgram("CA", "Adult Coverage", "ADC")
	require.NoError(t, s.UpsertProgram(ctx, p))

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertRule(ctx, testRule(p.ID, "1.0", jan)))
	require.NoError(t, s.UpsertRule(ctx, testRule(p.ID, "2.0", jun)))

	rules, err := s.ListRules(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "1.0", rules[0].Version, "ordered by effective date")
	assert.True(t, rules[0].EffectiveDate.Equal(jan))
	assert.Nil(t, rules[0].EndDate)

	// Same (program, version) replaces rather than duplicates.
	replacement := testRule(p.ID, "2.0", jun)
	replacement.Name = "adult coverage revised"
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	replacement.EndDate = &end
	require.NoError(t, s.UpsertRule(ctx, replacement))

	rules, err = s.ListRules(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "adult coverage revised", rules[1].Name)
	require.NotNil(t, rules[1].EndDate)
	assert.True(t, rules[1].EndDate.Equal(end))

	// Malformed logic is rejected before touching the database.
	bad := testRule(p.ID, "3.0", jan)
	bad.Logic = model.RuleNode{Op: model.RuleOpAnd}
	assert.Error(t, s.UpsertRule(ctx, bad))
}

func TestSQLiteStore_FPLRecords(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	records := []model.FederalPovertyRecord{
		{Year: 2026, HouseholdSize: 1, AnnualAmount: 1458000},
		{Year: 2026, HouseholdSize: 2, AnnualAmount: 1982000},
		{Year: 2026, HouseholdSize: 1, AnnualAmount: 1458000, Jurisdiction: "AK", Multiplier: 1.25},
		{Year: 2025, HouseholdSize: 1, AnnualAmount: 1404300}, // wrong year, skipped
	}

	n, err := s.ReplaceFPLYear(ctx, 2026, records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.ListFPLRecords(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "", got[0].Jurisdiction, "default rows sort first")
	assert.Equal(t, 1.25, got[2].Multiplier)

	// Replacing a year drops its stale rows.
	n, err = s.ReplaceFPLYear(ctx, 2026, records[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = s.ListFPLRecords(ctx, 2026)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStore_Questions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	questions := []model.ScreeningQuestion{
		{ID: "q2", Text: "Are you pregnant?", AnswerKey: "is_pregnant", InputType: "boolean", DisplayCondition: `sex == "female"`, Order: 2, Status: "Active"},
		{ID: "q1", Text: "What is your sex?", AnswerKey: "sex", InputType: "select", Order: 1, Status: "Active"},
	}
	require.NoError(t, s.ReplaceQuestions(ctx, questions))

	got, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sex", got[0].AnswerKey, "ordered by display order")
	assert.Equal(t, `sex == "female"`, got[1].DisplayCondition)

	// Replace is a full swap.
	require.NoError(t, s.ReplaceQuestions(ctx, questions[:1]))
	got, err = s.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStore_Screenings(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec := &model.ScreeningRecord{
		Profile: model.UserProfile{Jurisdiction: "CA", HouseholdSize: 2, MonthlyIncome: 210000, Age: 35, IsCitizen: true},
		Matches: []model.ProgramMatch{
			{
				Program: model.ProgramDefinition{Name: "Adult Coverage", Pathway: model.PathwayMAGI},
				Result:  model.EvaluationResult{Status: model.StatusLikelyEligible, Confidence: 95},
				Score:   95,
			},
		},
		Explanation: "You appear likely eligible.",
	}
	require.NoError(t, s.SaveScreening(ctx, rec))
	require.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.GetScreening(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "CA", got.Profile.Jurisdiction)
	require.Len(t, got.Matches, 1)
	assert.Equal(t, model.Confidence(95), got.Matches[0].Result.Confidence)
	assert.Equal(t, "You appear likely eligible.", got.Explanation)

	_, err = s.GetScreening(ctx, "no-such-id")
	assert.Error(t, err)

	other := &model.ScreeningRecord{
		Profile: model.UserProfile{Jurisdiction: "TX", HouseholdSize: 1, Age: 40, IsCitizen: true},
	}
	require.NoError(t, s.SaveScreening(ctx, other))

	ca, err := s.ListScreenings(ctx, ScreeningFilter{Jurisdiction: "CA"})
	require.NoError(t, err)
	require.Len(t, ca, 1)
	assert.Equal(t, rec.ID, ca[0].ID)

	all, err := s.ListScreenings(ctx, ScreeningFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := s.ListScreenings(ctx, ScreeningFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
