package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/donaldgifford/market-suggest/pkg/price"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

const timeFormat = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printRunsTable(w io.Writer, runs []domain.Run) error {
	tw := newTabWriter(w)
	tw.writef("ID\tSTATUS\tSTARTED\tTOTAL\tTIERED\tSOURCE\n")
	for i := range runs {
		r := &runs[i]
		tw.writef("%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID,
			r.Status,
			r.StartedAt.Format(timeFormat),
			r.Counts.Total,
			r.Counts.Tiered,
			truncate(r.Source, 40),
		)
	}
	return tw.finish()
}

func printRunDetail(w io.Writer, r *domain.Run) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", r.ID)
	tw.writef("Source:\t%s\n", r.Source)
	tw.writef("Status:\t%s\n", r.Status)
	tw.writef("Started:\t%s\n", r.StartedAt.Format(timeFormat))
	if r.CompletedAt != nil {
		tw.writef("Completed:\t%s\n", r.CompletedAt.Format(timeFormat))
	}
	if r.ErrorText != "" {
		tw.writef("Error:\t%s\n", r.ErrorText)
	}
	c := r.Counts
	tw.writef("Listings:\t%d total, %d inliers, %d outliers, %d malformed price, %d unknown grade\n",
		c.Total, c.Inliers, c.Outliers, c.MalformedPrice, c.UnknownGrade)
	tw.writef("Tiers:\t%d tiered, %d unassigned, %d excluded\n", c.Tiered, c.Unassigned, c.Excluded)
	if err := tw.finish(); err != nil {
		return err
	}

	if len(r.Summary) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := printSummaryTable(w, r.Summary); err != nil {
			return err
		}
	}
	if r.Thresholds != nil && len(r.Thresholds.Rates) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		return printThresholdTable(w, r.Thresholds)
	}
	return nil
}

func printSummaryTable(w io.Writer, rows []domain.GradeSummary) error {
	tw := newTabWriter(w)
	tw.writef("GRADE\tCOUNT\tMEDIAN\tMEAN\n")
	for _, s := range rows {
		tw.writef("%s\t%d\t%s\t%s\n", s.Grade, s.Count, yen(s.Median), yen(s.Mean))
	}
	return tw.finish()
}

func printThresholdTable(w io.Writer, t *domain.ThresholdTable) error {
	tw := newTabWriter(w)
	tw.writef("GRADE")
	for _, r := range t.Rates {
		tw.writef("\t%s (%g%%)", r.Label, r.Rate*100)
	}
	tw.writef("\n")
	for _, g := range domain.KnownGrades() {
		tw.writef("%s", g)
		for i := range t.Rates {
			v, ok := t.Threshold(i, g)
			if !ok {
				tw.writef("\t-")
				continue
			}
			tw.writef("\t%s", yen(v))
		}
		tw.writef("\n")
	}
	return tw.finish()
}

func printTiers(w io.Writer, tiers []domain.Tier) error {
	tw := newTabWriter(w)
	tw.writef("TIER\tNAME\tPRICE\tGRADE\tURL\n")
	for _, t := range tiers {
		for i := range t.Listings {
			l := &t.Listings[i]
			tw.writef("%s\t%s\t%s\t%s\t%s\n", t.Label, truncate(l.Name, 40), yen(l.PriceValue()), l.Grade, l.URL)
		}
	}
	return tw.finish()
}

func printRunListingsTable(w io.Writer, listings []domain.RunListing) error {
	tw := newTabWriter(w)
	tw.writef("#\tOUTCOME\tTIER\tNAME\tPRICE\tGRADE\tURL\n")
	for i := range listings {
		rl := &listings[i]
		label := rl.TierLabel
		if label == "" {
			label = "-"
		}
		p := "-"
		if rl.Listing.HasPrice() {
			p = yen(*rl.Listing.Price)
		}
		tw.writef("%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rl.Listing.SourceIndex,
			rl.Outcome,
			label,
			truncate(rl.Listing.Name, 40),
			p,
			rl.Listing.Grade,
			rl.Listing.URL,
		)
	}
	return tw.finish()
}

func yen(v float64) string {
	return "¥" + price.Format(v)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
