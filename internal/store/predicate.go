package store

import (
	"fmt"
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

// whereClause renders a Filter as a WHERE body plus its arguments. pg
// selects $n placeholders and time.Time date args for pgx; otherwise ?
// placeholders and ISO date strings for database/sql.
//
// Text matches are case-insensitive substring matches; the description
// filter matches either description column, mirroring the dashboard's
// search boxes. A row with no end date never matches the end-date floor.
func whereClause(f Filter, pg bool) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	ph := func() string {
		if pg {
			return fmt.Sprintf("$%d", len(args))
		}
		return "?"
	}
	dateArg := func(t time.Time) any {
		if pg {
			return t
		}
		return t.Format(dateFormat)
	}

	if !f.EndAfter.IsZero() {
		args = append(args, dateArg(f.EndAfter))
		clauses = append(clauses, "period_of_performance_current_end_date >= "+ph())
	}
	if !f.EndBefore.IsZero() {
		args = append(args, dateArg(f.EndBefore))
		clauses = append(clauses, "period_of_performance_current_end_date <= "+ph())
	}
	if f.Recipient != "" {
		args = append(args, likeArg(f.Recipient))
		clauses = append(clauses, "LOWER(recipient_name) LIKE "+ph())
	}
	if f.Agency != "" {
		args = append(args, likeArg(f.Agency))
		clauses = append(clauses, "LOWER(awarding_agency_name) LIKE "+ph())
	}
	if f.Description != "" {
		args = append(args, likeArg(f.Description))
		first := ph()
		args = append(args, likeArg(f.Description))
		second := ph()
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(transaction_description) LIKE %s OR LOWER(prime_award_base_transaction_description) LIKE %s)",
			first, second,
		))
	}
	if f.MinValue != nil {
		args = append(args, *f.MinValue)
		clauses = append(clauses, "current_total_value_of_award >= "+ph())
	}
	if f.MaxValue != nil {
		args = append(args, *f.MaxValue)
		clauses = append(clauses, "current_total_value_of_award <= "+ph())
	}

	if len(clauses) == 0 {
		return "1=1", nil
	}
	return strings.Join(clauses, " AND "), args
}

func likeArg(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// withFloor applies the store's default end-date floor when the filter
// leaves EndAfter unset.
func withFloor(f Filter, floor time.Time) Filter {
	if f.EndAfter.IsZero() {
		f.EndAfter = floor
	}
	return f
}
