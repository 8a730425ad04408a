package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RunsByStatus returns a bar panel of completed and failed runs.
func RunsByStatus() *timeseries.PanelBuilder {
	return timeSeries("Runs", "Pipeline runs per hour by final status", TSWidth).
		WithTarget(PromQuery(
			`sum by (status) (increase(msg_pipeline_runs_total[1h]))`,
			"{{status}}", "A",
		)).
		Unit("short").
		Legend(TableLegend("sum")).
		DrawStyle(common.GraphDrawStyleBars)
}

// RunDuration returns a timeseries panel of pipeline run duration
// percentiles.
func RunDuration() *timeseries.PanelBuilder {
	b := timeSeries("Run Duration", "Pipeline run duration, including reports and delivery", TSWidth).
		Unit("s").
		Legend(TableLegend("mean", "max"))
	return quantiles(b, "msg_pipeline_duration_seconds", "1h", 0.50, 0.95)
}

// ListingsByOutcome returns a stacked panel of analyzed listings by outcome
// (tier, unassigned, excluded, error).
func ListingsByOutcome() *timeseries.PanelBuilder {
	return timeSeries("Listings by Outcome", "Analyzed listings per hour by final outcome", FullWidth).
		WithTarget(PromQuery(
			`sum by (outcome) (increase(msg_pipeline_listings_total[1h]))`,
			"{{outcome}}", "A",
		)).
		Unit("short").
		FillOpacity(30).
		LineWidth(1).
		Legend(TableLegend("last", "max"))
}

// TierSizes returns a panel of the listing count in each tier of the last run.
func TierSizes() *timeseries.PanelBuilder {
	return timeSeries("Tier Sizes", "Listings per discount tier in the last run (tier 0 is the deepest discount)", TSWidth).
		WithTarget(PromQuery(`msg_tier_listings{`+Job+`}`, "tier {{tier}}", "A")).
		Unit("short").
		Legend(TableLegend("last"))
}

// GradeMedians returns a panel of the median inlier price per grade.
func GradeMedians() *timeseries.PanelBuilder {
	return timeSeries("Grade Medians", "Median inlier price per condition grade in the last run", TSWidth).
		WithTarget(PromQuery(`msg_grade_median_price{`+Job+`}`, "{{grade}}", "A")).
		Unit("currencyJPY").
		FillOpacity(0).
		Legend(TableLegend("last", "min", "max"))
}
