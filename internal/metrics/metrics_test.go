package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// All metrics are registered via promauto on package init.
	collectors := []prometheus.Collector{
		HTTPRequestDuration,
		HTTPRequestsTotal,
		HealthzUp,
		ReadyzUp,
		PipelineRunsTotal,
		PipelineDuration,
		PipelineListingsTotal,
		TierListings,
		GradeMedianPrice,
		LastRunTimestamp,
		ReportsWrittenTotal,
		NotificationsSentTotal,
		NotificationFailuresTotal,
		NotificationDuration,
		ScrapeFetchesTotal,
		ScrapeDuration,
		SchedulerNextRunTimestamp,
	}
	for _, c := range collectors {
		assert.NotNil(t, c)
	}
}

func TestMetricNamesUseNamespace(t *testing.T) {
	t.Parallel()

	TierListings.WithLabelValues("test-tier").Set(3)

	const want = `
# HELP msg_tier_listings Number of listings in each tier of the last run.
# TYPE msg_tier_listings gauge
msg_tier_listings{tier="test-tier"} 3
`
	err := testutil.CollectAndCompare(TierListings, strings.NewReader(want), "msg_tier_listings")
	require.NoError(t, err)
}
