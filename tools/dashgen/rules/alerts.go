package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// market-suggest operational monitoring.
func AlertRules() PrometheusRule {
	return newPrometheusRule("msg-alerts", "msg-alerts", []Rule{
		alert("MsgDown",
			`absent(up{job="market-suggest"})`, "2m", "critical",
			"market-suggest is down",
			"The market-suggest job has been absent for more than 2 minutes.",
		),
		alert("MsgReadinessDown",
			`msg_readyz_up == 0`, "2m", "critical",
			"market-suggest readiness check is failing",
			"The run history database has been unreachable for more than 2 minutes.",
		),
		alert("MsgHighErrorRate",
			`msg:http_errors:rate5m / msg:http_requests:rate5m > 0.05`, "5m", "warning",
			"High HTTP error rate on market-suggest",
			"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
		),
		alert("MsgRunFailures",
			`msg:pipeline_failures:rate1h > 0`, "0m", "warning",
			"Pipeline runs are failing",
			"At least one pipeline run failed in the last hour. Check the run error text via GET /api/v1/runs?status=failed.",
		),
		alert("MsgRunsStale",
			`time() - msg_last_run_timestamp{job="market-suggest"} > 6 * 3600`, "10m", "warning",
			"No pipeline run has completed in 6 hours",
			"The scheduler has not completed a run recently. The source directory may be empty.",
		),
		alert("MsgNotificationFailures",
			`msg:notification_failures:rate5m > 0`, "1m", "warning",
			"Notification delivery failures detected",
			"One or more tier messages (Google Chat or Discord webhooks) have failed to send.",
		),
	})
}
