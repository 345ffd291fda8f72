// Package store persists the contract sample in a relational store and
// serves the dashboard's filtered queries and aggregates.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contracts-explorer/internal/config"
	"github.com/sells-group/contracts-explorer/internal/model"
)

// Filter is the query predicate the dashboard builds. Zero values disable
// the corresponding clause, except EndAfter which falls back to the store's
// default end-date floor. Matching rows come back in no guaranteed order.
type Filter struct {
	EndAfter    time.Time `json:"end_after,omitempty"`
	EndBefore   time.Time `json:"end_before,omitempty"`
	Recipient   string    `json:"recipient,omitempty"`
	Agency      string    `json:"agency,omitempty"`
	Description string    `json:"description,omitempty"`
	MinValue    *float64  `json:"min_value,omitempty"`
	MaxValue    *float64  `json:"max_value,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// Summary aggregates the rows matching a filter.
type Summary struct {
	Count               int64   `json:"count"`
	TotalCurrentValue   float64 `json:"total_current_value"`
	TotalPotentialValue float64 `json:"total_potential_value"`
}

// RecipientTotal is one row of the top-recipients aggregate.
type RecipientTotal struct {
	RecipientName string  `json:"recipient_name"`
	TotalValue    float64 `json:"total_value"`
}

// TableStats describes the whole loaded table, floor-free, for inspection.
type TableStats struct {
	Rows      int64      `json:"rows"`
	MinValue  float64    `json:"min_value"`
	MaxValue  float64    `json:"max_value"`
	MeanValue float64    `json:"mean_value"`
	MinAction *time.Time `json:"min_action_date,omitempty"`
	MaxAction *time.Time `json:"max_action_date,omitempty"`
	MinEnd    *time.Time `json:"min_end_date,omitempty"`
	MaxEnd    *time.Time `json:"max_end_date,omitempty"`
}

// LoadEntry is one row of the load_log bookkeeping table.
type LoadEntry struct {
	ID          string    `json:"id"`
	SourcePath  string    `json:"source_path"`
	RowCount    int64     `json:"row_count"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// ContractStore is the persistence interface consumed by the load, serve,
// and analyze commands.
type ContractStore interface {
	Migrate(ctx context.Context) error

	// ReplaceContracts swaps the table contents for the given sample.
	ReplaceContracts(ctx context.Context, records []model.Contract) (int64, error)

	Query(ctx context.Context, f Filter) ([]model.Contract, error)
	Summary(ctx context.Context, f Filter) (*Summary, error)
	TopRecipients(ctx context.Context, f Filter, n int) ([]RecipientTotal, error)

	Stats(ctx context.Context) (*TableStats, error)
	Head(ctx context.Context, n int) ([]model.Contract, error)

	RecordLoad(ctx context.Context, entry LoadEntry) error
	LastLoad(ctx context.Context) (*LoadEntry, error)

	Close() error
}

// New creates a ContractStore from config. Supported drivers: "sqlite"
// (default) and "postgres".
func New(ctx context.Context, cfg config.StoreConfig, endFloor time.Time) (ContractStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.Path, endFloor)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, endFloor)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
