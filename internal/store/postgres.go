package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contracts-explorer/internal/db"
	"github.com/sells-group/contracts-explorer/internal/model"
)

// PostgresStore implements ContractStore using pgxpool.
type PostgresStore struct {
	pool  db.Pool
	floor time.Time
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, endFloor time.Time) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, floor: endFloor}, nil
}

// NewPostgresWithPool wraps an existing pool; tests pass a pgxmock pool.
func NewPostgresWithPool(pool db.Pool, endFloor time.Time) *PostgresStore {
	return &PostgresStore{pool: pool, floor: endFloor}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contracts (
	contract_transaction_unique_key          TEXT PRIMARY KEY,
	recipient_name                           TEXT NOT NULL,
	awarding_agency_name                     TEXT NOT NULL,
	current_total_value_of_award             DOUBLE PRECISION NOT NULL,
	potential_total_value_of_award           DOUBLE PRECISION,
	action_date                              DATE NOT NULL,
	period_of_performance_current_end_date   DATE,
	transaction_description                  TEXT,
	prime_award_base_transaction_description TEXT,
	recipient_duns                           TEXT,
	awarding_agency_code                     TEXT,
	awarding_sub_agency_name                 TEXT,
	award_type                               TEXT,
	naics_code                               TEXT,
	naics_description                        TEXT
);

CREATE TABLE IF NOT EXISTS load_log (
	id           TEXT PRIMARY KEY,
	source_path  TEXT NOT NULL,
	row_count    BIGINT NOT NULL,
	status       TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contracts_end_date ON contracts(period_of_performance_current_end_date);
CREATE INDEX IF NOT EXISTS idx_contracts_value ON contracts(current_total_value_of_award);
CREATE INDEX IF NOT EXISTS idx_contracts_recipient ON contracts(recipient_name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceContracts(ctx context.Context, records []model.Contract) (int64, error) {
	if _, err := s.pool.Exec(ctx, `TRUNCATE contracts`); err != nil {
		return 0, eris.Wrap(err, "postgres: truncate contracts")
	}

	rows := make([][]any, len(records))
	for i := range records {
		c := &records[i]
		rows[i] = []any{
			c.UniqueKey,
			c.RecipientName,
			c.AwardingAgencyName,
			derefFloat(c.CurrentTotalValue),
			c.PotentialTotalValue,
			derefDate(c.ActionDate),
			c.EndDate,
			c.TransactionDescription,
			c.BaseDescription,
			c.RecipientDUNS,
			c.AwardingAgencyCode,
			c.AwardingSubAgencyName,
			c.AwardType,
			c.NAICSCode,
			c.NAICSDescription,
		}
	}

	n, err := db.CopyFrom(ctx, s.pool, "contracts", model.Columns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: load contracts")
	}
	return n, nil
}

func (s *PostgresStore) Query(ctx context.Context, f Filter) ([]model.Contract, error) {
	where, args := whereClause(withFloor(f, s.floor), true)
	query := `SELECT ` + selectColumns + ` FROM contracts WHERE ` + where
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query contracts")
	}
	defer rows.Close()

	return scanPgContracts(rows)
}

func scanPgContracts(rows pgx.Rows) ([]model.Contract, error) {
	var out []model.Contract
	for rows.Next() {
		var c model.Contract
		var current float64
		var actDate time.Time
		err := rows.Scan(
			&c.UniqueKey, &c.RecipientName, &c.AwardingAgencyName,
			&current, &c.PotentialTotalValue, &actDate, &c.EndDate,
			&c.TransactionDescription, &c.BaseDescription, &c.RecipientDUNS,
			&c.AwardingAgencyCode, &c.AwardingSubAgencyName, &c.AwardType,
			&c.NAICSCode, &c.NAICSDescription,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contract")
		}
		c.CurrentTotalValue = model.Float64Ptr(current)
		c.ActionDate = model.TimePtr(actDate)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: contracts rows")
}

func (s *PostgresStore) Summary(ctx context.Context, f Filter) (*Summary, error) {
	where, args := whereClause(withFloor(f, s.floor), true)
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(current_total_value_of_award), 0),
		        COALESCE(SUM(potential_total_value_of_award), 0)
		 FROM contracts WHERE `+where, args...)

	var sum Summary
	if err := row.Scan(&sum.Count, &sum.TotalCurrentValue, &sum.TotalPotentialValue); err != nil {
		return nil, eris.Wrap(err, "postgres: summary")
	}
	return &sum, nil
}

func (s *PostgresStore) TopRecipients(ctx context.Context, f Filter, n int) ([]RecipientTotal, error) {
	if n <= 0 {
		n = 10
	}
	where, args := whereClause(withFloor(f, s.floor), true)

	rows, err := s.pool.Query(ctx,
		`SELECT recipient_name, SUM(current_total_value_of_award) AS total
		 FROM contracts WHERE `+where+`
		 GROUP BY recipient_name ORDER BY total DESC LIMIT `+strconv.Itoa(n), args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top recipients")
	}
	defer rows.Close()

	var out []RecipientTotal
	for rows.Next() {
		var rt RecipientTotal
		if err := rows.Scan(&rt.RecipientName, &rt.TotalValue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan recipient total")
		}
		out = append(out, rt)
	}
	return out, eris.Wrap(rows.Err(), "postgres: top recipients rows")
}

func (s *PostgresStore) Stats(ctx context.Context) (*TableStats, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(MIN(current_total_value_of_award), 0),
		        COALESCE(MAX(current_total_value_of_award), 0),
		        COALESCE(AVG(current_total_value_of_award), 0),
		        MIN(action_date), MAX(action_date),
		        MIN(period_of_performance_current_end_date),
		        MAX(period_of_performance_current_end_date)
		 FROM contracts`)

	var st TableStats
	err := row.Scan(&st.Rows, &st.MinValue, &st.MaxValue, &st.MeanValue,
		&st.MinAction, &st.MaxAction, &st.MinEnd, &st.MaxEnd)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &st, nil
}

func (s *PostgresStore) Head(ctx context.Context, n int) ([]model.Contract, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM contracts LIMIT `+strconv.Itoa(n))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: head")
	}
	defer rows.Close()
	return scanPgContracts(rows)
}

func (s *PostgresStore) RecordLoad(ctx context.Context, entry LoadEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO load_log (id, source_path, row_count, status, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.SourcePath, entry.RowCount, entry.Status,
		entry.StartedAt.UTC(), entry.CompletedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: record load")
}

func (s *PostgresStore) LastLoad(ctx context.Context) (*LoadEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source_path, row_count, status, started_at, completed_at
		 FROM load_log ORDER BY completed_at DESC LIMIT 1`)

	var entry LoadEntry
	err := row.Scan(&entry.ID, &entry.SourcePath, &entry.RowCount,
		&entry.Status, &entry.StartedAt, &entry.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: last load")
	}
	return &entry, nil
}

func derefDate(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
