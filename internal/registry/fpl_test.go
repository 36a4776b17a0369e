package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benefitsnav/screener-cli/internal/model"
)

func testFPLRecords() []model.FederalPovertyRecord {
	return []model.FederalPovertyRecord{
		{Year: 2026, HouseholdSize: 1, AnnualAmount: 1458000},
		{Year: 2026, HouseholdSize: 2, AnnualAmount: 1982000},
		{Year: 2026, HouseholdSize: 8, AnnualAmount: 5126000},
		{Year: 2026, HouseholdSize: 1, AnnualAmount: 1458000, Jurisdiction: "AK", Multiplier: 1.25},
		{Year: 2025, HouseholdSize: 1, AnnualAmount: 1404300},
	}
}

func TestFPLTableBaseline(t *testing.T) {
	t.Parallel()

	table := NewFPLTable(testFPLRecords())

	t.Run("federal default row", func(t *testing.T) {
		t.Parallel()
		got, err := table.Baseline(2026, 1, "CA")
		require.NoError(t, err)
		assert.Equal(t, int64(1458000), got)
	})

	t.Run("jurisdiction row with multiplier wins", func(t *testing.T) {
		t.Parallel()
		got, err := table.Baseline(2026, 1, "AK")
		require.NoError(t, err)
		assert.Equal(t, int64(1822500), got)
	})

	t.Run("oversize household clamps to largest row", func(t *testing.T) {
		t.Parallel()
		got, err := table.Baseline(2026, 12, "CA")
		require.NoError(t, err)
		assert.Equal(t, int64(5126000), got)
	})

	t.Run("missing year errors", func(t *testing.T) {
		t.Parallel()
		_, err := table.Baseline(2020, 1, "CA")
		assert.Error(t, err)
	})

	t.Run("size below one rejected", func(t *testing.T) {
		t.Parallel()
		_, err := table.Baseline(2026, 0, "CA")
		assert.Error(t, err)
	})
}

func TestFPLTableYears(t *testing.T) {
	t.Parallel()

	table := NewFPLTable(testFPLRecords())
	assert.Equal(t, []int{2025, 2026}, table.Years())
}

func TestLoadFPLFromFile(t *testing.T) {
	t.Parallel()

	t.Run("loads and indexes", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "fpl.json")
		payload := `[{"year":2026,"household_size":1,"annual_amount_cents":1458000}]`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

		table, err := LoadFPLFromFile(path)
		require.NoError(t, err)
		got, err := table.Baseline(2026, 1, "CA")
		require.NoError(t, err)
		assert.Equal(t, int64(1458000), got)
	})

	t.Run("bad JSON", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "fpl.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
		_, err := LoadFPLFromFile(path)
		assert.Error(t, err)
	})
}
