package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contracts-explorer/internal/model"
)

var testFloor = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "contracts.db"), testFloor)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func contract(key, recipient, agency string, value float64, end string) model.Contract {
	c := model.Contract{
		UniqueKey:          key,
		RecipientName:      recipient,
		AwardingAgencyName: agency,
		CurrentTotalValue:  model.Float64Ptr(value),
		ActionDate:         model.TimePtr(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)),
	}
	if end != "" {
		d, _ := time.Parse("2006-01-02", end)
		c.EndDate = model.TimePtr(d)
	}
	c.Backfill()
	return c
}

func testContracts() []model.Contract {
	return []model.Contract{
		contract("KEY1", "ACME CORP", "DEPARTMENT OF DEFENSE", 500000, "2025-06-30"),
		contract("KEY2", "ACME SUBSIDIARY", "DEPARTMENT OF ENERGY", 120000, "2025-03-15"),
		contract("KEY3", "WIDGETS LLC", "DEPARTMENT OF DEFENSE", 80000, "2025-01-15"),
		contract("KEY4", "GADGET INDUSTRIES", "GENERAL SERVICES ADMINISTRATION", 40000, ""),
	}
}

func TestSQLite_ReplaceAndQuery(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	n, err := st.ReplaceContracts(ctx, testContracts())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// Default floor excludes KEY3 (ended before 2025-02-01) and KEY4 (no
	// end date).
	rows, err := st.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// Replacing again swaps the contents rather than appending.
	n, err = st.ReplaceContracts(ctx, testContracts()[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Rows)
}

func TestSQLite_QueryFilters(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.ReplaceContracts(ctx, testContracts())
	require.NoError(t, err)

	t.Run("recipient substring is case-insensitive", func(t *testing.T) {
		rows, err := st.Query(ctx, Filter{Recipient: "acme"})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("agency filter", func(t *testing.T) {
		rows, err := st.Query(ctx, Filter{Agency: "defense"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "KEY1", rows[0].UniqueKey)
	})

	t.Run("value range is inclusive", func(t *testing.T) {
		rows, err := st.Query(ctx, Filter{
			MinValue: model.Float64Ptr(120000),
			MaxValue: model.Float64Ptr(500000),
		})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("end date upper bound", func(t *testing.T) {
		rows, err := st.Query(ctx, Filter{
			EndBefore: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "KEY2", rows[0].UniqueKey)
	})

	t.Run("explicit floor overrides default", func(t *testing.T) {
		rows, err := st.Query(ctx, Filter{
			EndAfter: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("description matches either column", func(t *testing.T) {
		recs := testContracts()
		recs[0].TransactionDescription = model.StringPtr("Fighter jet maintenance")
		recs[1].BaseDescription = model.StringPtr("Jet fuel supply")
		_, err := st.ReplaceContracts(ctx, recs)
		require.NoError(t, err)

		rows, err := st.Query(ctx, Filter{Description: "jet"})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("limit", func(t *testing.T) {
		_, err := st.ReplaceContracts(ctx, testContracts())
		require.NoError(t, err)
		rows, err := st.Query(ctx, Filter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestSQLite_RoundTripFields(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	in := contract("KEY1", "ACME CORP", "DEPARTMENT OF DEFENSE", 150000.50, "2025-06-30")
	in.PotentialTotalValue = model.Float64Ptr(300000)
	in.NAICSCode = model.StringPtr("541511")

	_, err := st.ReplaceContracts(ctx, []model.Contract{in})
	require.NoError(t, err)

	rows, err := st.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, in.UniqueKey, got.UniqueKey)
	assert.Equal(t, *in.CurrentTotalValue, *got.CurrentTotalValue)
	assert.Equal(t, *in.PotentialTotalValue, *got.PotentialTotalValue)
	assert.True(t, in.ActionDate.Equal(*got.ActionDate))
	assert.True(t, in.EndDate.Equal(*got.EndDate))
	assert.Equal(t, *in.NAICSCode, *got.NAICSCode)
	assert.Equal(t, model.PlaceholderNAICS, *got.NAICSDescription)
}

func TestSQLite_Summary(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.ReplaceContracts(ctx, testContracts())
	require.NoError(t, err)

	sum, err := st.Summary(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Count)
	assert.Equal(t, 620000.0, sum.TotalCurrentValue)
}

func TestSQLite_TopRecipients(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	recs := []model.Contract{
		contract("KEY1", "ACME CORP", "DOD", 500000, "2025-06-30"),
		contract("KEY2", "ACME CORP", "DOE", 100000, "2025-07-31"),
		contract("KEY3", "WIDGETS LLC", "DOD", 200000, "2025-08-31"),
	}
	_, err := st.ReplaceContracts(ctx, recs)
	require.NoError(t, err)

	top, err := st.TopRecipients(ctx, Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "ACME CORP", top[0].RecipientName)
	assert.Equal(t, 600000.0, top[0].TotalValue)
	assert.Equal(t, "WIDGETS LLC", top[1].RecipientName)
}

func TestSQLite_StatsAndHead(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.ReplaceContracts(ctx, testContracts())
	require.NoError(t, err)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Rows)
	assert.Equal(t, 40000.0, stats.MinValue)
	assert.Equal(t, 500000.0, stats.MaxValue)
	assert.InDelta(t, 185000.0, stats.MeanValue, 1e-9)
	require.NotNil(t, stats.MinEnd)
	assert.Equal(t, "2025-01-15", stats.MinEnd.Format("2006-01-02"))

	head, err := st.Head(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, head, 2)
}

func TestSQLite_LoadLog(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	last, err := st.LastLoad(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	started := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.RecordLoad(ctx, LoadEntry{
		SourcePath:  "contracts_sample.parquet",
		RowCount:    42,
		Status:      "complete",
		StartedAt:   started,
		CompletedAt: started.Add(time.Second),
	}))

	last, err = st.LastLoad(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.NotEmpty(t, last.ID)
	assert.Equal(t, int64(42), last.RowCount)
	assert.Equal(t, "complete", last.Status)
}

func TestSQLite_EmptyStats(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Rows)
	assert.Nil(t, stats.MinAction)
	assert.Nil(t, stats.MaxEnd)
}
