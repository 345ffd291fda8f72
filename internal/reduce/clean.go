package reduce

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/contracts-explorer/internal/model"
)

// Clean deduplicates, filters, and backfills a record set, in that order:
//
//  1. drop duplicate unique keys, first occurrence wins
//  2. drop records missing any required field
//  3. drop records with a non-positive current total value
//  4. drop records whose period of performance ended before cutoff
//     (records with no end date are kept; zero cutoff disables the filter)
//  5. backfill empty free-text fields with placeholders
//
// Deterministic given input order; surviving records keep their relative
// order.
func Clean(records []model.Contract, cutoff time.Time) []model.Contract {
	log := zap.L().With(zap.String("stage", "clean"))

	seen := make(map[string]bool, len(records))
	out := make([]model.Contract, 0, len(records))
	var dupes, incomplete, nonPositive, expired int

	for _, rec := range records {
		// Dedup runs before the field filters: a later duplicate never
		// resurrects a key whose first occurrence was dropped.
		if rec.UniqueKey != "" {
			if seen[rec.UniqueKey] {
				dupes++
				continue
			}
			seen[rec.UniqueKey] = true
		}
		if rec.MissingRequired() {
			incomplete++
			continue
		}
		if *rec.CurrentTotalValue <= 0 {
			nonPositive++
			continue
		}
		if !cutoff.IsZero() && rec.EndDate != nil && rec.EndDate.Before(cutoff) {
			expired++
			continue
		}
		rec.Backfill()
		out = append(out, rec)
	}

	log.Info("cleaned record set",
		zap.Int("in", len(records)),
		zap.Int("out", len(out)),
		zap.Int("duplicates", dupes),
		zap.Int("missing_required", incomplete),
		zap.Int("non_positive_value", nonPositive),
		zap.Int("ended_before_cutoff", expired),
	)

	return out
}
