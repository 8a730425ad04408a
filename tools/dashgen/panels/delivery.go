package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// NotificationsSent returns a bar panel of delivered chat messages per
// backend.
func NotificationsSent() *timeseries.PanelBuilder {
	return timeSeries("Notifications Sent", "Chat messages delivered per hour by backend", TSWidth).
		WithTarget(PromQuery(
			`sum by (backend) (increase(msg_notifications_sent_total[1h]))`,
			"{{backend}}", "A",
		)).
		Unit("short").
		Legend(TableLegend("sum")).
		DrawStyle(common.GraphDrawStyleBars)
}

// NotificationFailures returns a timeseries panel of webhook failures.
func NotificationFailures() *timeseries.PanelBuilder {
	return timeSeries("Notification Failures", "Failed chat webhook calls per second", TSWidth).
		WithTarget(PromQuery(`msg:notification_failures:rate5m`, "failures/s", "A")).
		Unit("short").
		Thresholds(ThresholdsGreenYellowRed(0.01, 0.1)).
		ColorScheme(ColorSchemeThresholds())
}

// NotificationLatency returns a timeseries panel of webhook call latency.
func NotificationLatency() *timeseries.PanelBuilder {
	b := timeSeries("Webhook Latency", "Chat webhook call duration percentiles", TSWidth).
		Unit("s").
		Legend(TableLegend("mean", "max"))
	return quantiles(b, "msg_notification_duration_seconds", "1h", 0.50, 0.95)
}

// ReportsWritten returns a bar panel of report files written.
func ReportsWritten() *timeseries.PanelBuilder {
	return timeSeries("Reports Written", "Report files written per hour", TSWidth).
		WithTarget(PromQuery(`increase(msg_reports_written_total{`+Job+`}[1h])`, "files", "A")).
		Unit("short").
		DrawStyle(common.GraphDrawStyleBars)
}
