package main

import "errors"

// KnownMetrics is the set of metric names exported by market-suggest plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"msg_http_request_duration_seconds_bucket": true,
	"msg_http_requests_total":                  true,

	// Health metrics.
	"msg_healthz_up": true,
	"msg_readyz_up":  true,

	// Pipeline metrics.
	"msg_pipeline_runs_total":                  true,
	"msg_pipeline_duration_seconds_bucket":     true,
	"msg_pipeline_listings_total":              true,
	"msg_tier_listings":                        true,
	"msg_grade_median_price":                   true,
	"msg_last_run_timestamp":                   true,
	"msg_reports_written_total":                true,
	"msg_scheduler_next_run_timestamp":         true,
	"msg_scrape_fetches_total":                 true,
	"msg_scrape_fetch_duration_seconds_bucket": true,

	// Notification metrics.
	"msg_notifications_sent_total":             true,
	"msg_notification_failures_total":          true,
	"msg_notification_duration_seconds_bucket": true,

	// Recording rules.
	"msg:http_requests:rate5m":         true,
	"msg:http_errors:rate5m":           true,
	"msg:pipeline_failures:rate1h":     true,
	"msg:notification_failures:rate5m": true,

	// Standard Prometheus metrics referenced in alerts.
	"up": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
