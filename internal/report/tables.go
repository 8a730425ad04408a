package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/donaldgifford/market-suggest/pkg/pipeline"
	"github.com/donaldgifford/market-suggest/pkg/stats"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Report file names inside a run directory.
const (
	FileCleaned      = "cleaned.csv"
	FileStatistics   = "statistics.csv"
	FileAverages     = "averages.csv"
	FileThresholds   = "thresholds.csv"
	FileTiers        = "tiers.csv"
	FileErrors       = "errors.csv"
	FileDistribution = "distribution.png"
)

// Statistics row categories.
const (
	CategoryTop5Max = "top5_max"
	CategoryTop5Min = "top5_min"
	CategoryMedian  = "median"
	CategoryMean    = "mean"
)

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(EscapeRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func priceCell(l *domain.Listing) string {
	if !l.HasPrice() {
		return ""
	}
	return num(*l.Price)
}

// conditionCell returns the marketplace label for known grades and the
// original text otherwise, so cleaned tables can be re-ingested.
func conditionCell(l *domain.Listing) string {
	if l.Grade.Known() || l.RawCondition == "" {
		return l.Grade.Label()
	}
	return l.RawCondition
}

// CleanedRows renders the outlier-annotated table.
func CleanedRows(listings []domain.Listing) ([]string, [][]string) {
	header := []string{"index", "name", "price", "condition", "posted_date", "url", "outlier_flag"}
	rows := make([][]string, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		rows = append(rows, []string{
			strconv.Itoa(l.SourceIndex), l.Name, priceCell(l), conditionCell(l),
			l.PostedDate, l.URL, strconv.FormatBool(l.OutlierFlag),
		})
	}
	return header, rows
}

// StatisticsRows renders the per-grade extremes followed by median and mean.
func StatisticsRows(summary []domain.GradeSummary) ([]string, [][]string) {
	header := []string{"grade", "condition", "category", "rank", "name", "price", "posted_date", "url"}
	var rows [][]string
	for _, gs := range summary {
		for _, part := range []struct {
			category string
			list     []domain.Listing
		}{
			{CategoryTop5Max, gs.Top5Max},
			{CategoryTop5Min, gs.Top5Min},
		} {
			for i := range part.list {
				l := &part.list[i]
				rows = append(rows, []string{
					string(gs.Grade), gs.Grade.Label(), part.category, strconv.Itoa(i + 1),
					l.Name, priceCell(l), l.PostedDate, l.URL,
				})
			}
		}
		rows = append(rows,
			[]string{string(gs.Grade), gs.Grade.Label(), CategoryMedian, "", "", num(gs.Median), "", ""},
			[]string{string(gs.Grade), gs.Grade.Label(), CategoryMean, "", "", num(gs.Mean), "", ""},
		)
	}
	return header, rows
}

// AverageRows renders each grade's mean rounded to a whole unit.
func AverageRows(means []stats.RoundedMean) ([]string, [][]string) {
	header := []string{"grade", "condition", "mean"}
	rows := make([][]string, 0, len(means))
	for _, m := range means {
		rows = append(rows, []string{string(m.Grade), m.Grade.Label(), strconv.FormatInt(m.Mean, 10)})
	}
	return header, rows
}

// ThresholdRows renders one row per tier and grade, in tier order.
func ThresholdRows(table *domain.ThresholdTable) ([]string, [][]string) {
	header := []string{"tier_index", "tier_label", "rate", "grade", "condition", "median", "threshold"}
	var rows [][]string
	if table == nil {
		return header, rows
	}
	for _, rt := range table.Rates {
		for _, gt := range rt.Thresholds {
			rows = append(rows, []string{
				strconv.Itoa(rt.Index), rt.Label, num(rt.Rate), string(gt.Grade), gt.Grade.Label(),
				num(gt.Median), num(gt.Threshold),
			})
		}
	}
	return header, rows
}

// TierRows renders every listing with the place it ended up in.
func TierRows(outcomes []domain.RunListing) ([]string, [][]string) {
	header := []string{
		"index", "name", "price", "condition", "posted_date", "url",
		"outcome", "tier_index", "tier_label", "error_reason",
	}
	rows := make([][]string, 0, len(outcomes))
	for i := range outcomes {
		o := &outcomes[i]
		l := &o.Listing
		tierIdx := ""
		if o.TierIndex != nil {
			tierIdx = strconv.Itoa(*o.TierIndex)
		}
		rows = append(rows, []string{
			strconv.Itoa(l.SourceIndex), l.Name, priceCell(l), conditionCell(l), l.PostedDate, l.URL,
			o.Outcome, tierIdx, o.TierLabel, string(o.ErrorReason),
		})
	}
	return header, rows
}

// ErrorRows renders the error subset.
func ErrorRows(errs []domain.ErrorRecord) ([]string, [][]string) {
	header := []string{"index", "name", "price", "condition", "url", "reason"}
	rows := make([][]string, 0, len(errs))
	for i := range errs {
		l := &errs[i].Listing
		rows = append(rows, []string{
			strconv.Itoa(l.SourceIndex), l.Name, priceCell(l), conditionCell(l), l.URL,
			string(errs[i].Reason),
		})
	}
	return header, rows
}

// roundedMeans rebuilds stats.Summary's rounded means from a result.
func roundedMeans(res *pipeline.Result) []stats.RoundedMean {
	return stats.Summary{Grades: res.Summary}.RoundedMeans()
}
