package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("msg-recording-rules", "msg-recording", []Rule{
		{
			Record: "msg:http_requests:rate5m",
			Expr:   `sum(rate(msg_http_requests_total[5m]))`,
		},
		{
			Record: "msg:http_errors:rate5m",
			Expr:   `sum(rate(msg_http_requests_total{status=~"5.."}[5m]))`,
		},
		{
			Record: "msg:pipeline_failures:rate1h",
			Expr:   `sum(rate(msg_pipeline_runs_total{status="failed"}[1h]))`,
		},
		{
			Record: "msg:notification_failures:rate5m",
			Expr:   `sum(rate(msg_notification_failures_total[5m]))`,
		},
	})
}
