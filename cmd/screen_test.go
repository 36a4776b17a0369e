package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benefitsnav/screener-cli/internal/model"
)

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	data := `{
		"jurisdiction": "CA",
		"household_size": 2,
		"monthly_income_cents": 180000,
		"age": 34,
		"is_citizen": true
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	profile, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "CA", profile.Jurisdiction)
	assert.Equal(t, 2, profile.HouseholdSize)
	assert.Equal(t, int64(180000), profile.MonthlyIncome)
}

func TestLoadProfile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"household_size": 0}`), 0644))

	_, err := loadProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jurisdiction")
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read profile")
}

func TestPrintScreening(t *testing.T) {
	rec := &model.ScreeningRecord{
		Profile: model.UserProfile{Jurisdiction: "CA", HouseholdSize: 1},
		Matches: []model.ProgramMatch{{
			Program: model.ProgramDefinition{Name: "Adult Coverage"},
			Result:  model.EvaluationResult{Status: model.StatusLikelyEligible},
			Score:   95,
		}},
		Explanation: "You appear likely eligible for 1 program.",
	}

	var buf bytes.Buffer
	printScreening(&buf, "profile.json", rec)

	out := buf.String()
	assert.Contains(t, out, "profile.json")
	assert.Contains(t, out, "Adult Coverage")
	assert.Contains(t, out, "score 95")
	assert.Contains(t, out, "likely_eligible")
}

func TestPrintScreening_NoMatches(t *testing.T) {
	rec := &model.ScreeningRecord{Explanation: "No programs matched."}

	var buf bytes.Buffer
	printScreening(&buf, "profile.json", rec)
	assert.Contains(t, buf.String(), "No likely matches.")
}
