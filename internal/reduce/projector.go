// Package reduce implements the dataset reduction pipeline: schema
// projection, multi-source aggregation, cleaning, stratified sampling, and
// persistence of the final sample.
package reduce

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contracts-explorer/internal/fetcher"
	"github.com/sells-group/contracts-explorer/internal/model"
)

// dateFormats are tried in order when coercing date cells. USAspending
// extracts use ISO dates; older fiscal years carry timestamps or US-style
// dates in the same columns.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ProjectFile reads one source extract and projects it down to the kept
// column set. Cell-level parse failures coerce to nil and never fail the
// file; a missing required column or an unreadable file fails the whole
// file with a SourceError (raised by the aggregator).
func ProjectFile(path string) ([]model.Contract, error) {
	src, err := fetcher.OpenCSV(path, fetcher.CSVOptions{LazyQuotes: true, TrimSpace: true})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	idx, err := columnIndex(src.Header)
	if err != nil {
		return nil, err
	}

	var records []model.Contract
	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, projectRow(row, idx))
	}

	return records, nil
}

// columnIndex maps each kept column name to its position in the header.
// Extra columns are ignored; any missing kept column is an error.
func columnIndex(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, col := range header {
		pos[strings.ToLower(strings.TrimSpace(col))] = i
	}

	idx := make(map[string]int, len(model.Columns))
	var missing []string
	for _, col := range model.Columns {
		i, ok := pos[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func projectRow(row []string, idx map[string]int) model.Contract {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return model.Contract{
		UniqueKey:           cell("contract_transaction_unique_key"),
		RecipientName:       cell("recipient_name"),
		AwardingAgencyName:  cell("awarding_agency_name"),
		CurrentTotalValue:   parseAmount(cell("current_total_value_of_award")),
		PotentialTotalValue: parseAmount(cell("potential_total_value_of_award")),
		ActionDate:          parseDate(cell("action_date")),
		EndDate:             parseDate(cell("period_of_performance_current_end_date")),

		TransactionDescription: optText(cell("transaction_description")),
		BaseDescription:        optText(cell("prime_award_base_transaction_description")),
		RecipientDUNS:          optText(cell("recipient_duns")),
		AwardingAgencyCode:     optText(cell("awarding_agency_code")),
		AwardingSubAgencyName:  optText(cell("awarding_sub_agency_name")),
		AwardType:              optText(cell("award_type")),
		NAICSCode:              optText(cell("naics_code")),
		NAICSDescription:       optText(cell("naics_description")),
	}
}

// parseAmount coerces a currency cell to a decimal value, nil if unparseable.
func parseAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseDate coerces a date cell to a calendar date, nil if unparseable.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}
	return nil
}

func optText(s string) *string {
	if s == "" {
		return nil
	}
	return model.StringPtr(s)
}
