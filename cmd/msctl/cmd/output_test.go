package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

func TestPrintRunDetail(t *testing.T) {
	t.Parallel()

	run := &domain.Run{
		ID:        "run-1",
		Source:    "data/products/latest.csv",
		Status:    domain.RunStatusCompleted,
		StartedAt: time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
		Counts:    domain.RunCounts{Total: 6, Inliers: 5, MalformedPrice: 1, Tiered: 2, Unassigned: 3},
		Summary:   []domain.GradeSummary{{Grade: domain.GradeNew, Count: 5, Median: 24000, Mean: 23800}},
		Thresholds: &domain.ThresholdTable{Rates: []domain.RateThresholds{
			{Index: 0, Rate: 0.2, Label: "★★", Thresholds: []domain.GradeThreshold{
				{Grade: domain.GradeNew, Median: 24000, Threshold: 19200},
			}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, printRunDetail(&buf, run))
	out := buf.String()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2026-10-01 09:30:00")
	assert.Contains(t, out, "6 total, 5 inliers")
	assert.Contains(t, out, "2 tiered, 3 unassigned")
	assert.Contains(t, out, "¥24,000")
	assert.Contains(t, out, "★★ (20%)")
	assert.Contains(t, out, "¥19,200")
}

func TestPrintRunListingsTable(t *testing.T) {
	t.Parallel()

	p := 18000.0
	idx := 0
	var buf bytes.Buffer
	require.NoError(t, printRunListingsTable(&buf, []domain.RunListing{
		{Outcome: domain.OutcomeTier, TierIndex: &idx, TierLabel: "★★", Listing: domain.Listing{
			SequenceIndex: 4, Name: "Camera", Price: &p, Grade: domain.GradeNew,
		}},
		{Outcome: domain.OutcomeError, Listing: domain.Listing{SequenceIndex: 5, Name: "Broken"}},
	}))

	out := buf.String()
	assert.Contains(t, out, "¥18,000")
	assert.Contains(t, out, "★★")
	assert.Contains(t, out, "Broken")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "新品、...", truncate("新品、未使用のカメラ", 6))
}
