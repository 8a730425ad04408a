package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func TestRunPage(t *testing.T) {
	t.Parallel()

	run := &domain.Run{
		ID:        "run-1",
		Source:    "data/products/<latest>.csv",
		Status:    domain.RunStatusCompleted,
		StartedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Counts:    domain.RunCounts{Total: 3, Inliers: 3, Eligible: 2, Tiered: 1, Unassigned: 1},
		Summary: []domain.GradeSummary{
			{Grade: domain.GradeNew, Count: 3, Median: 24000, Mean: 23500},
		},
		Thresholds: &domain.ThresholdTable{Rates: []domain.RateThresholds{
			{Index: 0, Rate: 0.2, Label: "★★", Thresholds: []domain.GradeThreshold{
				{Grade: domain.GradeNew, Median: 24000, Threshold: 19200},
			}},
		}},
	}
	listings := []domain.RunListing{
		{
			RunID:     "run-1",
			Outcome:   domain.OutcomeTier,
			TierIndex: ptr(0),
			Listing: domain.Listing{
				Name:  `Camera <b>body</b>`,
				Price: ptr(18000.0),
				Grade: domain.GradeNew,
				URL:   "https://example.com/item/1",
			},
		},
		{
			RunID:     "run-1",
			Outcome:   domain.OutcomeTier,
			TierIndex: ptr(0),
			Listing: domain.Listing{
				Name:  "Lens",
				Price: ptr(19000.0),
				Grade: domain.GradeNew,
				URL:   "javascript:alert(1)",
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RunPage(run, listings).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "<title>Run run-1</title>")
	assert.Contains(t, html, "data/products/&lt;latest&gt;.csv")
	assert.Contains(t, html, "Camera &lt;b&gt;body&lt;/b&gt;")
	assert.NotContains(t, html, "<b>body</b>")
	assert.Contains(t, html, `href="https://example.com/item/1"`)
	assert.NotContains(t, html, "javascript:alert")
	assert.Contains(t, html, "¥19200")
	assert.Contains(t, html, "¥18000")
	assert.Contains(t, html, "2 listings")
	assert.Contains(t, html, "新品、未使用")
}

func TestRunPage_Failed(t *testing.T) {
	t.Parallel()

	run := &domain.Run{ID: "run-2", Status: domain.RunStatusFailed, ErrorText: "interrupted"}

	var buf bytes.Buffer
	require.NoError(t, RunPage(run, nil).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), `<p class="error">interrupted</p>`)
	assert.NotContains(t, buf.String(), "<h2>Thresholds</h2>")
}

func TestNotFoundPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NotFoundPage(`<x>`).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "&lt;x&gt;")
}
