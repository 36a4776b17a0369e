package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// FPLTable indexes poverty-guideline rows for baseline lookups. Rows with
// an empty jurisdiction are the federal defaults; jurisdiction-specific
// rows (Alaska, Hawaii) take precedence when present.
type FPLTable struct {
	rows map[fplKey]*model.FederalPovertyRecord
}

type fplKey struct {
	year         int
	size         int
	jurisdiction string
}

// NewFPLTable indexes the given records. Later duplicates of the same
// (year, size, jurisdiction) replace earlier ones.
func NewFPLTable(records []model.FederalPovertyRecord) *FPLTable {
	rows := make(map[fplKey]*model.FederalPovertyRecord, len(records))
	for i := range records {
		r := &records[i]
		rows[fplKey{r.Year, r.HouseholdSize, r.Jurisdiction}] = r
	}
	return &FPLTable{rows: rows}
}

// LoadFPLFromFile reads a JSON array of model.FederalPovertyRecord and
// returns an indexed table.
func LoadFPLFromFile(path string) (*FPLTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read poverty table")
	}

	var records []model.FederalPovertyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal poverty table")
	}

	return NewFPLTable(records), nil
}

// Baseline returns the annual poverty baseline in cents for a household of
// the given size, with any jurisdiction multiplier applied. Sizes past the
// table's largest row fall back to that row; callers extrapolate the
// remainder with the per-person increment. Jurisdictions without their own
// rows use the federal default.
func (t *FPLTable) Baseline(year, householdSize int, jurisdiction string) (int64, error) {
	if householdSize < 1 {
		return 0, eris.New("registry: household size must be at least 1")
	}
	size := min(householdSize, model.FPLMaxTableSize)

	if r, ok := t.rows[fplKey{year, size, jurisdiction}]; ok {
		return r.AdjustedAnnualAmount(), nil
	}
	if r, ok := t.rows[fplKey{year, size, ""}]; ok {
		return r.AdjustedAnnualAmount(), nil
	}
	return 0, eris.New(fmt.Sprintf("registry: no poverty row for year %d size %d", year, size))
}

// Years lists the years the table has rows for, ascending.
func (t *FPLTable) Years() []int {
	seen := make(map[int]bool)
	for k := range t.rows {
		seen[k.year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
