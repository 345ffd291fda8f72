package reduce

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/contracts-explorer/internal/model"
)

// sourceHeader includes one extra column to exercise projection.
var sourceHeader = strings.Join(model.Columns, ",") + ",federal_action_obligation"

// sourceRow renders one extract row with sensible defaults for the columns
// tests do not care about.
func sourceRow(key, recipient, value, actionDate, endDate string) string {
	fields := []string{
		key,
		recipient,
		"DEPARTMENT OF TESTING",
		value,
		"200000",
		actionDate,
		endDate,
		"Widget procurement",
		"Base widget award",
		"123456789",
		"9700",
		"TESTING SUB AGENCY",
		"DO",
		"541511",
		"Custom Computer Programming Services",
		"0",
	}
	return strings.Join(fields, ",")
}

func writeSource(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := sourceHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// cleanedRecords builds n already-cleaned records with the given values.
func cleanedRecords(values ...float64) []model.Contract {
	out := make([]model.Contract, len(values))
	for i, v := range values {
		out[i] = model.Contract{
			UniqueKey:          fmt.Sprintf("KEY%03d", i),
			RecipientName:      fmt.Sprintf("RECIPIENT %d", i),
			AwardingAgencyName: "DEPARTMENT OF TESTING",
			CurrentTotalValue:  model.Float64Ptr(v),
			ActionDate:         model.TimePtr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		}
	}
	return out
}

// fixedSampler always picks the first k indices, making sample contents
// deterministic without a seed.
type fixedSampler struct{}

func (fixedSampler) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
