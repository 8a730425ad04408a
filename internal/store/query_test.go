package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRunQuery_ToSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		query        RunQuery
		wantDataHas  []string
		wantCountSQL string
		wantArgs     []any
	}{
		{
			name:  "empty query uses defaults",
			query: RunQuery{},
			wantDataHas: []string{
				"FROM runs",
				"ORDER BY started_at DESC",
				"LIMIT 50",
				"OFFSET 0",
			},
			wantCountSQL: "SELECT COUNT(*) FROM runs",
		},
		{
			name:         "status filter",
			query:        RunQuery{Status: ptr("completed")},
			wantDataHas:  []string{"WHERE status = $1"},
			wantCountSQL: "SELECT COUNT(*) FROM runs WHERE status = $1",
			wantArgs:     []any{"completed"},
		},
		{
			name: "status and source filters",
			query: RunQuery{
				Status: ptr("failed"),
				Source: ptr("data/products/a.csv"),
			},
			wantDataHas:  []string{"status = $1 AND source = $2"},
			wantCountSQL: "SELECT COUNT(*) FROM runs WHERE status = $1 AND source = $2",
			wantArgs:     []any{"failed", "data/products/a.csv"},
		},
		{
			name:        "limit exceeding max is capped",
			query:       RunQuery{Limit: 9000, Offset: 20},
			wantDataHas: []string{"LIMIT 500", "OFFSET 20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := tt.query
			dataSQL, countSQL, args := q.ToSQL()

			for _, s := range tt.wantDataHas {
				assert.Contains(t, dataSQL, s, "dataSQL should contain %q", s)
			}

			if tt.wantCountSQL != "" {
				assert.Equal(t, tt.wantCountSQL, countSQL)
			}

			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, args)
			} else {
				assert.Empty(t, args)
			}
		})
	}
}

func TestRunListingQuery_ToSQL(t *testing.T) {
	t.Parallel()

	const runID = "5b1f3c1e-8d5e-4a43-9c55-3f1c0f8a9e21"

	tests := []struct {
		name          string
		query         RunListingQuery
		wantDataHas   []string
		wantDataNotIn []string
		wantCountSQL  string
		wantArgs      []any
	}{
		{
			name:  "run only uses defaults",
			query: RunListingQuery{RunID: runID},
			wantDataHas: []string{
				"FROM run_listings WHERE run_id = $1",
				"ORDER BY sequence_index ASC",
				"LIMIT 50",
				"OFFSET 0",
			},
			wantCountSQL: "SELECT COUNT(*) FROM run_listings WHERE run_id = $1",
			wantArgs:     []any{runID},
		},
		{
			name:         "outcome filter",
			query:        RunListingQuery{RunID: runID, Outcome: ptr("unassigned")},
			wantDataHas:  []string{"WHERE run_id = $1 AND outcome = $2"},
			wantCountSQL: "SELECT COUNT(*) FROM run_listings WHERE run_id = $1 AND outcome = $2",
			wantArgs:     []any{runID, "unassigned"},
		},
		{
			name: "all filters with correct parameter numbering",
			query: RunListingQuery{
				RunID:     runID,
				Outcome:   ptr("tier"),
				TierIndex: ptr(0),
				Grade:     ptr("new"),
			},
			wantDataHas: []string{
				"outcome = $2",
				"tier_index = $3",
				"grade = $4",
			},
			wantCountSQL: "SELECT COUNT(*) FROM run_listings WHERE run_id = $1 AND outcome = $2 AND tier_index = $3 AND grade = $4",
			wantArgs:     []any{runID, "tier", 0, "new"},
		},
		{
			name:        "order by price",
			query:       RunListingQuery{RunID: runID, OrderBy: "price"},
			wantDataHas: []string{"ORDER BY price ASC NULLS LAST, sequence_index ASC"},
			wantArgs:    []any{runID},
		},
		{
			name:          "invalid order by falls back to default",
			query:         RunListingQuery{RunID: runID, OrderBy: "DROP TABLE runs; --"},
			wantDataHas:   []string{"ORDER BY sequence_index ASC"},
			wantDataNotIn: []string{"DROP TABLE"},
			wantArgs:      []any{runID},
		},
		{
			name:        "negative paging falls back",
			query:       RunListingQuery{RunID: runID, Limit: -1, Offset: -5},
			wantDataHas: []string{"LIMIT 50", "OFFSET 0"},
			wantArgs:    []any{runID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := tt.query
			dataSQL, countSQL, args := q.ToSQL()

			for _, s := range tt.wantDataHas {
				assert.Contains(t, dataSQL, s, "dataSQL should contain %q", s)
			}

			for _, s := range tt.wantDataNotIn {
				assert.NotContains(t, dataSQL, s, "dataSQL should not contain %q", s)
			}

			if tt.wantCountSQL != "" {
				assert.Equal(t, tt.wantCountSQL, countSQL)
			}

			require.Len(t, args, len(tt.wantArgs))
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
