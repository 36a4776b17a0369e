package fetch

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/benefitsnav/screener-cli/internal/model"
)

// Guideline publications list one row per household size with a dollar
// amount for the 48 contiguous states, and separate columns for Alaska
// and Hawaii. Column order is fixed: size, contiguous, alaska, hawaii.
// The Alaska and Hawaii columns are optional.

// dollarsToCents parses a published dollar amount ("$15,650" or "15650.00")
// into integer cents.
func dollarsToCents(s string) (int64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, eris.New("empty amount")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse amount %q", s)
	}
	if v < 0 {
		return 0, eris.Errorf("negative amount %q", s)
	}
	return int64(math.Round(v * 100)), nil
}

// parseGuidelineRow converts one table row into poverty records. The first
// field is the household size; fields 2-4 are contiguous/AK/HI amounts.
// Rows whose first field is not an integer (headers, footnotes) return nil.
func parseGuidelineRow(fields []string, year int) ([]model.FederalPovertyRecord, error) {
	if len(fields) < 2 {
		return nil, nil
	}
	size, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, nil
	}
	if size < 1 || size > model.FPLMaxTableSize {
		return nil, eris.Errorf("household size %d out of range", size)
	}

	base, err := dollarsToCents(fields[1])
	if err != nil {
		return nil, eris.Wrapf(err, "size %d contiguous amount", size)
	}

	records := []model.FederalPovertyRecord{{
		Year:          year,
		HouseholdSize: size,
		AnnualAmount:  base,
	}}

	jurisdictions := []string{"AK", "HI"}
	for i, jur := range jurisdictions {
		col := 2 + i
		if col >= len(fields) || strings.TrimSpace(fields[col]) == "" {
			continue
		}
		amount, err := dollarsToCents(fields[col])
		if err != nil {
			return nil, eris.Wrapf(err, "size %d %s amount", size, jur)
		}
		records = append(records, model.FederalPovertyRecord{
			Year:          year,
			HouseholdSize: size,
			AnnualAmount:  amount,
			Jurisdiction:  jur,
		})
	}

	return records, nil
}

// ParseGuidelinesCSV reads a guideline table in CSV form.
func ParseGuidelinesCSV(r io.Reader, year int) ([]model.FederalPovertyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []model.FederalPovertyRecord
	line := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read csv line %d", line+1)
		}
		line++

		rows, err := parseGuidelineRow(fields, year)
		if err != nil {
			return nil, eris.Wrapf(err, "csv line %d", line)
		}
		records = append(records, rows...)
	}

	if len(records) == 0 {
		return nil, eris.New("no guideline rows found in csv")
	}

	zap.L().Info("parsed guideline csv",
		zap.Int("year", year),
		zap.Int("records", len(records)),
	)

	return records, nil
}

// ParseGuidelinesXLSX reads a guideline table from the first sheet of an
// XLSX workbook.
func ParseGuidelinesXLSX(path string, year int) ([]model.FederalPovertyRecord, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open xlsx %s", path)
	}
	if len(file.Sheets) == 0 {
		return nil, eris.Errorf("xlsx %s has no sheets", path)
	}
	sheet := file.Sheets[0]

	var records []model.FederalPovertyRecord
	for i, row := range sheet.Rows {
		fields := rowToStrings(row)
		rows, err := parseGuidelineRow(fields, year)
		if err != nil {
			return nil, eris.Wrapf(err, "xlsx row %d", i+1)
		}
		records = append(records, rows...)
	}

	if len(records) == 0 {
		return nil, eris.Errorf("no guideline rows found in %s", path)
	}

	zap.L().Info("parsed guideline xlsx",
		zap.String("path", path),
		zap.Int("year", year),
		zap.Int("records", len(records)),
	)

	return records, nil
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		out = append(out, cell.String())
	}
	return out
}
