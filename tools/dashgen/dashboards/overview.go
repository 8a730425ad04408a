// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/market-suggest/tools/dashgen/panels"
)

// BuildOverview constructs the market-suggest overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Market Suggest Overview").
		Uid("msg-overview").
		Tags([]string{"msg", "market-suggest"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.LastRunStat()).
		WithPanel(panels.NextRunStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Pipeline").
		WithPanel(panels.RunsByStatus()).
		WithPanel(panels.RunDuration()).
		WithPanel(panels.ListingsByOutcome()))

	b.WithRow(dashboard.NewRowBuilder("Market").
		WithPanel(panels.TierSizes()).
		WithPanel(panels.GradeMedians()))

	b.WithRow(dashboard.NewRowBuilder("Delivery").
		WithPanel(panels.NotificationsSent()).
		WithPanel(panels.NotificationFailures()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.ReportsWritten()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
