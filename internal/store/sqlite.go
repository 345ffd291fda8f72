package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contracts-explorer/internal/model"
)

// SQLiteStore implements ContractStore using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	floor time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(path string, endFloor time.Time) (*SQLiteStore, error) {
	if path == "" {
		path = "contracts.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, floor: endFloor}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contracts (
	contract_transaction_unique_key          TEXT PRIMARY KEY,
	recipient_name                           TEXT NOT NULL,
	awarding_agency_name                     TEXT NOT NULL,
	current_total_value_of_award             REAL NOT NULL,
	potential_total_value_of_award           REAL,
	action_date                              TEXT NOT NULL,
	period_of_performance_current_end_date   TEXT,
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
	row_count    INTEGER NOT NULL,
	status       TEXT NOT NULL,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contracts_end_date ON contracts(period_of_performance_current_end_date);
CREATE INDEX IF NOT EXISTS idx_contracts_value ON contracts(current_total_value_of_award);
CREATE INDEX IF NOT EXISTS idx_contracts_recipient ON contracts(recipient_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var insertContractSQL = `INSERT INTO contracts (` + strings.Join(model.Columns, ", ") + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) ReplaceContracts(ctx context.Context, records []model.Contract) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contracts`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear contracts")
	}

	stmt, err := tx.PrepareContext(ctx, insertContractSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for i := range records {
		c := &records[i]
		_, err := stmt.ExecContext(ctx,
			c.UniqueKey,
			c.RecipientName,
			c.AwardingAgencyName,
			derefFloat(c.CurrentTotalValue),
			nullFloat(c.PotentialTotalValue),
			dateText(c.ActionDate),
			dateText(c.EndDate),
			nullText(c.TransactionDescription),
			nullText(c.BaseDescription),
			nullText(c.RecipientDUNS),
			nullText(c.AwardingAgencyCode),
			nullText(c.AwardingSubAgencyName),
			nullText(c.AwardType),
			nullText(c.NAICSCode),
			nullText(c.NAICSDescription),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert contract %s", c.UniqueKey)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return int64(len(records)), nil
}

var selectColumns = strings.Join(model.Columns, ", ")

func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]model.Contract, error) {
	where, args := whereClause(withFloor(f, s.floor), false)
	query := `SELECT ` + selectColumns + ` FROM contracts WHERE ` + where
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query contracts")
	}
	defer rows.Close()

	return scanContracts(rows)
}

func (s *SQLiteStore) Summary(ctx context.Context, f Filter) (*Summary, error) {
	where, args := whereClause(withFloor(f, s.floor), false)
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(current_total_value_of_award), 0),
		        COALESCE(SUM(potential_total_value_of_award), 0)
		 FROM contracts WHERE `+where, args...)

	var sum Summary
	if err := row.Scan(&sum.Count, &sum.TotalCurrentValue, &sum.TotalPotentialValue); err != nil {
		return nil, eris.Wrap(err, "sqlite: summary")
	}
	return &sum, nil
}

func (s *SQLiteStore) TopRecipients(ctx context.Context, f Filter, n int) ([]RecipientTotal, error) {
	if n <= 0 {
		n = 10
	}
	where, args := whereClause(withFloor(f, s.floor), false)
	args = append(args, n)

	rows, err := s.db.QueryContext(ctx,
		`SELECT recipient_name, SUM(current_total_value_of_award) AS total
		 FROM contracts WHERE `+where+`
		 GROUP BY recipient_name ORDER BY total DESC LIMIT ?`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top recipients")
	}
	defer rows.Close()

	var out []RecipientTotal
	for rows.Next() {
		var rt RecipientTotal
		if err := rows.Scan(&rt.RecipientName, &rt.TotalValue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recipient total")
		}
		out = append(out, rt)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: top recipients rows")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*TableStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(MIN(current_total_value_of_award), 0),
		        COALESCE(MAX(current_total_value_of_award), 0),
		        COALESCE(AVG(current_total_value_of_award), 0),
		        MIN(action_date), MAX(action_date),
		        MIN(period_of_performance_current_end_date),
		        MAX(period_of_performance_current_end_date)
		 FROM contracts`)

	var (
		st                             TableStats
		minAct, maxAct, minEnd, maxEnd sql.NullString
	)
	err := row.Scan(&st.Rows, &st.MinValue, &st.MaxValue, &st.MeanValue,
		&minAct, &maxAct, &minEnd, &maxEnd)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	st.MinAction = parseDateText(minAct)
	st.MaxAction = parseDateText(maxAct)
	st.MinEnd = parseDateText(minEnd)
	st.MaxEnd = parseDateText(maxEnd)
	return &st, nil
}

func (s *SQLiteStore) Head(ctx context.Context, n int) ([]model.Contract, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM contracts LIMIT ?`, n)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: head")
	}
	defer rows.Close()

	return scanContracts(rows)
}

func (s *SQLiteStore) RecordLoad(ctx context.Context, entry LoadEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO load_log (id, source_path, row_count, status, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SourcePath, entry.RowCount, entry.Status,
		entry.StartedAt.UTC(), entry.CompletedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: record load")
}

func (s *SQLiteStore) LastLoad(ctx context.Context) (*LoadEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_path, row_count, status, started_at, completed_at
		 FROM load_log ORDER BY completed_at DESC LIMIT 1`)

	var entry LoadEntry
	err := row.Scan(&entry.ID, &entry.SourcePath, &entry.RowCount,
		&entry.Status, &entry.StartedAt, &entry.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last load")
	}
	return &entry, nil
}

func scanContracts(rows *sql.Rows) ([]model.Contract, error) {
	var out []model.Contract
	for rows.Next() {
		var (
			c                model.Contract
			current          float64
			potential        sql.NullFloat64
			actDate, endDate sql.NullString
			texts            [8]sql.NullString
		)
		err := rows.Scan(
			&c.UniqueKey, &c.RecipientName, &c.AwardingAgencyName,
			&current, &potential, &actDate, &endDate,
			&texts[0], &texts[1], &texts[2], &texts[3],
			&texts[4], &texts[5], &texts[6], &texts[7],
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contract")
		}

		c.CurrentTotalValue = model.Float64Ptr(current)
		if potential.Valid {
			c.PotentialTotalValue = model.Float64Ptr(potential.Float64)
		}
		c.ActionDate = parseDateText(actDate)
		c.EndDate = parseDateText(endDate)
		c.TransactionDescription = nullablePtr(texts[0])
		c.BaseDescription = nullablePtr(texts[1])
		c.RecipientDUNS = nullablePtr(texts[2])
		c.AwardingAgencyCode = nullablePtr(texts[3])
		c.AwardingSubAgencyName = nullablePtr(texts[4])
		c.AwardType = nullablePtr(texts[5])
		c.NAICSCode = nullablePtr(texts[6])
		c.NAICSDescription = nullablePtr(texts[7])

		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: contracts rows")
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullablePtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return model.StringPtr(ns.String)
}

func nullText(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func dateText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateFormat)
}

func parseDateText(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(dateFormat, ns.String)
	if err != nil {
		return nil
	}
	return model.TimePtr(t)
}
