// Package views renders the server-side HTML pages of the market-suggest API.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// RunPage renders the report of a single run: its counts, the per-grade
// statistics, the threshold table, and the tiered listings.
func RunPage(run *domain.Run, listings []domain.RunListing) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<title>Run `)
		p.text(run.ID)
		p.raw(`</title><style>` + pageStyle + `</style></head><body>`)

		p.raw(`<h1>Run <code>`)
		p.text(run.ID)
		p.raw(`</code></h1><p class="meta">`)
		p.text(run.Source)
		p.raw(` &middot; <span class="status status-`)
		p.text(run.Status)
		p.raw(`">`)
		p.text(run.Status)
		p.raw(`</span> &middot; started `)
		p.text(run.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))
		p.raw(`</p>`)
		if run.ErrorText != "" {
			p.raw(`<p class="error">`)
			p.text(run.ErrorText)
			p.raw(`</p>`)
		}

		counts(p, run.Counts)
		if len(run.Summary) > 0 {
			summary(p, run.Summary)
		}
		if run.Thresholds != nil && len(run.Thresholds.Rates) > 0 {
			thresholds(p, run.Thresholds)
			tiers(p, run.Thresholds, listings)
		}

		p.raw(`</body></html>`)
		return p.err
	})
}

// NotFoundPage renders a minimal page for an unknown run.
func NotFoundPage(id string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Not found</title></head><body>`)
		p.raw(`<h1>Run not found</h1><p><code>`)
		p.text(id)
		p.raw(`</code></p></body></html>`)
		return p.err
	})
}

func counts(p *printer, c domain.RunCounts) {
	p.raw(`<h2>Counts</h2><table><tbody>`)
	for _, row := range []struct {
		label string
		n     int
	}{
		{"Total", c.Total},
		{"Inliers", c.Inliers},
		{"Outliers", c.Outliers},
		{"Malformed price", c.MalformedPrice},
		{"Unknown grade", c.UnknownGrade},
		{"Eligible", c.Eligible},
		{"Tiered", c.Tiered},
		{"Unassigned", c.Unassigned},
		{"Excluded", c.Excluded},
	} {
		p.raw(`<tr><th>`)
		p.text(row.label)
		p.raw(`</th><td class="num">`)
		p.text(strconv.Itoa(row.n))
		p.raw(`</td></tr>`)
	}
	p.raw(`</tbody></table>`)
}

func summary(p *printer, rows []domain.GradeSummary) {
	p.raw(`<h2>Statistics</h2><table><thead><tr>`)
	p.raw(`<th>Grade</th><th>Count</th><th>Median</th><th>Mean</th></tr></thead><tbody>`)
	for _, s := range rows {
		p.raw(`<tr><td>`)
		p.text(s.Grade.Label())
		p.raw(`</td><td class="num">`)
		p.text(strconv.Itoa(s.Count))
		p.raw(`</td><td class="num">`)
		p.text(yen(s.Median))
		p.raw(`</td><td class="num">`)
		p.text(yen(s.Mean))
		p.raw(`</td></tr>`)
	}
	p.raw(`</tbody></table>`)
}

func thresholds(p *printer, t *domain.ThresholdTable) {
	p.raw(`<h2>Thresholds</h2><table><thead><tr><th>Grade</th>`)
	for _, r := range t.Rates {
		p.raw(`<th>`)
		p.text(r.Label)
		p.raw(` (`)
		p.text(strconv.FormatFloat(r.Rate*100, 'f', -1, 64))
		p.raw(`%)</th>`)
	}
	p.raw(`</tr></thead><tbody>`)
	for _, g := range domain.KnownGrades() {
		p.raw(`<tr><td>`)
		p.text(g.Label())
		p.raw(`</td>`)
		for i := range t.Rates {
			p.raw(`<td class="num">`)
			if v, ok := t.Threshold(i, g); ok {
				p.text(yen(v))
			}
			p.raw(`</td>`)
		}
		p.raw(`</tr>`)
	}
	p.raw(`</tbody></table>`)
}

func tiers(p *printer, t *domain.ThresholdTable, listings []domain.RunListing) {
	byTier := make(map[int][]domain.RunListing)
	for i := range listings {
		if l := listings[i]; l.TierIndex != nil {
			byTier[*l.TierIndex] = append(byTier[*l.TierIndex], l)
		}
	}

	for _, r := range t.Rates {
		p.raw(`<h2>`)
		p.text(r.Label)
		p.raw(` <small>`)
		p.text(strconv.Itoa(len(byTier[r.Index])))
		p.raw(` listings</small></h2>`)
		if len(byTier[r.Index]) == 0 {
			continue
		}
		p.raw(`<table><thead><tr><th>Name</th><th>Grade</th><th>Price</th><th>Posted</th></tr></thead><tbody>`)
		for _, rl := range byTier[r.Index] {
			l := rl.Listing
			p.raw(`<tr><td>`)
			if l.URL != "" {
				p.raw(`<a href="`)
				p.text(string(templ.URL(l.URL)))
				p.raw(`">`)
				p.text(l.Name)
				p.raw(`</a>`)
			} else {
				p.text(l.Name)
			}
			p.raw(`</td><td>`)
			p.text(l.Grade.Label())
			p.raw(`</td><td class="num">`)
			p.text(yen(l.PriceValue()))
			p.raw(`</td><td>`)
			p.text(l.PostedDate)
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)
	}
}

func yen(v float64) string {
	return fmt.Sprintf("¥%.0f", v)
}

// printer writes page fragments and keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}` +
	`table{border-collapse:collapse;margin-bottom:1.5rem}` +
	`th,td{border:1px solid #ddd;padding:.3rem .6rem;text-align:left}` +
	`td.num{text-align:right;font-variant-numeric:tabular-nums}` +
	`.meta{color:#666}.error{color:#b00}` +
	`.status-completed{color:#070}.status-failed{color:#b00}.status-running{color:#a60}`
