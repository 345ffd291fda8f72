package reduce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contracts-explorer/internal/model"
)

func TestClean_Deduplicates(t *testing.T) {
	records := cleanedRecords(100, 200, 300)
	records[1].UniqueKey = records[0].UniqueKey
	records[1].RecipientName = "LATER DUPLICATE"

	out := Clean(records, time.Time{})
	require.Len(t, out, 2)

	// First occurrence wins and keeps its field values.
	assert.Equal(t, "RECIPIENT 0", out[0].RecipientName)
	assert.Equal(t, 100.0, *out[0].CurrentTotalValue)
}

func TestClean_DedupIdempotent(t *testing.T) {
	records := cleanedRecords(100, 200, 300, 400)
	records[2].UniqueKey = records[0].UniqueKey

	once := Clean(records, time.Time{})
	twice := Clean(once, time.Time{})
	assert.Equal(t, once, twice)
}

func TestClean_DropsMissingRequired(t *testing.T) {
	records := cleanedRecords(100, 200, 300)
	records[0].CurrentTotalValue = nil
	records[1].ActionDate = nil

	out := Clean(records, time.Time{})
	require.Len(t, out, 1)
	assert.Equal(t, "KEY002", out[0].UniqueKey)
}

func TestClean_DropsNonPositiveValues(t *testing.T) {
	records := cleanedRecords(100, 0, -50, 200)

	out := Clean(records, time.Time{})
	require.Len(t, out, 2)
	for _, rec := range out {
		assert.Greater(t, *rec.CurrentTotalValue, 0.0)
	}
}

func TestClean_Invariants(t *testing.T) {
	records := cleanedRecords(100, 200, 300)
	records[0].RecipientName = ""
	records[1].CurrentTotalValue = model.Float64Ptr(-10)

	out := Clean(records, time.Time{})
	for _, rec := range out {
		assert.False(t, rec.MissingRequired())
		assert.Greater(t, *rec.CurrentTotalValue, 0.0)
	}
}

func TestClean_DroppedFirstOccurrenceStaysDropped(t *testing.T) {
	records := cleanedRecords(100, 200)
	records[1].UniqueKey = records[0].UniqueKey
	records[0].ActionDate = nil // first occurrence fails the required filter

	out := Clean(records, time.Time{})
	assert.Empty(t, out)
}

func TestClean_CutoffFilter(t *testing.T) {
	cutoff := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	records := cleanedRecords(100, 200, 300)
	records[0].EndDate = model.TimePtr(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	records[1].EndDate = model.TimePtr(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	// records[2] has no end date and is kept.

	out := Clean(records, cutoff)
	require.Len(t, out, 2)
	assert.Equal(t, "KEY001", out[0].UniqueKey)
	assert.Equal(t, "KEY002", out[1].UniqueKey)
}

func TestClean_Backfill(t *testing.T) {
	records := cleanedRecords(100)
	records[0].NAICSDescription = nil

	out := Clean(records, time.Time{})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].NAICSDescription)
	assert.Equal(t, model.PlaceholderNAICS, *out[0].NAICSDescription)
	assert.Equal(t, model.PlaceholderDescription, *out[0].TransactionDescription)
	assert.Equal(t, model.PlaceholderBaseDescription, *out[0].BaseDescription)
}

func TestClean_PreservesOrder(t *testing.T) {
	records := cleanedRecords(5, 4, 3, 2, 1)

	out := Clean(records, time.Time{})
	require.Len(t, out, 5)
	for i, rec := range out {
		assert.Equal(t, records[i].UniqueKey, rec.UniqueKey)
	}
}
