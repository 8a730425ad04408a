package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderBySequence = "sequence"
	orderByPrice    = "price"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderBySequence: "sequence_index ASC",
	orderByPrice:    "price ASC NULLS LAST, sequence_index ASC",
}

const defaultOrderBy = "sequence_index ASC"

const baseRunsSelect = `SELECT id, source, status, started_at, completed_at,
	COALESCE(error_text, ''), counts
FROM runs`

const countRunsSelect = "SELECT COUNT(*) FROM runs"

const baseRunListingsSelect = `SELECT run_id, sequence_index, name, price, grade,
	raw_condition, posted_date, url, outlier_flag, outcome, tier_index, tier_label, error_reason,
	source_index
FROM run_listings`

const countRunListingsSelect = "SELECT COUNT(*) FROM run_listings"

// clampLimit applies the default and maximum page sizes.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

func where(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// ToSQL builds the data and count queries for a run listing, newest first,
// and the positional parameters shared by both.
func (q *RunQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", paramIdx))
		args = append(args, *q.Status)
		paramIdx++
	}

	if q.Source != nil {
		conditions = append(conditions, fmt.Sprintf("source = $%d", paramIdx))
		args = append(args, *q.Source)
	}

	whereClause := where(conditions)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY started_at DESC LIMIT %d OFFSET %d",
		baseRunsSelect, whereClause, clampLimit(q.Limit), max(q.Offset, 0),
	)
	countSQL = countRunsSelect + whereClause

	return dataSQL, countSQL, args
}

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for the listings
// of one run. The run ID is always the first parameter.
func (q *RunListingQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	conditions := []string{"run_id = $1"}
	args = []any{q.RunID}
	paramIdx := 2

	if q.Outcome != nil {
		conditions = append(conditions, fmt.Sprintf("outcome = $%d", paramIdx))
		args = append(args, *q.Outcome)
		paramIdx++
	}

	if q.TierIndex != nil {
		conditions = append(conditions, fmt.Sprintf("tier_index = $%d", paramIdx))
		args = append(args, *q.TierIndex)
		paramIdx++
	}

	if q.Grade != nil {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", paramIdx))
		args = append(args, *q.Grade)
	}

	whereClause := where(conditions)

	orderClause := defaultOrderBy
	if col, ok := validOrderBy[q.OrderBy]; ok {
		orderClause = col
	}

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseRunListingsSelect, whereClause, orderClause, clampLimit(q.Limit), max(q.Offset, 0),
	)
	countSQL = countRunListingsSelect + whereClause

	return dataSQL, countSQL, args
}
