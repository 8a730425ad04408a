package panels

import "github.com/grafana/grafana-foundation-sdk/go/timeseries"

// RequestRate returns a timeseries panel showing the HTTP request rate.
func RequestRate() *timeseries.PanelBuilder {
	return timeSeries("Request Rate", "HTTP requests per second", TSWidth).
		WithTarget(PromQuery(`msg:http_requests:rate5m`, "req/s", "A")).
		Unit("reqps").
		Legend(TableLegend("mean", "max"))
}

// LatencyPercentiles returns a timeseries panel showing p50, p95, and p99
// HTTP request latencies.
func LatencyPercentiles() *timeseries.PanelBuilder {
	b := timeSeries("Latency Percentiles", "HTTP request duration percentiles", TSWidth).
		Unit("s").
		Legend(TableLegend("mean", "max"))
	return quantiles(b, "msg_http_request_duration_seconds", "5m", 0.50, 0.95, 0.99)
}

// ErrorRate returns a timeseries panel showing the HTTP 5xx error rate
// as a percentage.
func ErrorRate() *timeseries.PanelBuilder {
	return timeSeries("Error Rate %", "HTTP 5xx error rate as percentage of total requests", FullWidth).
		WithTarget(PromQuery(
			`msg:http_errors:rate5m / msg:http_requests:rate5m * 100`,
			"error %", "A",
		)).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
