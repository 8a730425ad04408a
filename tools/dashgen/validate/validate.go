// Package validate checks generated dashboards and rule files: every PromQL
// expression must parse and every metric it selects must be known.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/market-suggest/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings
// flag panels without queries.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Expr parses expr and checks its selected metric names against known.
// where identifies the expression in messages.
func Expr(where, expr string, known map[string]bool) Result {
	var res Result

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: invalid PromQL %q: %v", where, expr, err))
		return res
	}

	for _, name := range MetricNames(node) {
		if !known[name] {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %q", where, name))
		}
	}
	return res
}

// MetricNames returns the sorted distinct metric names selected by node.
func MetricNames(node parser.Node) []string {
	seen := make(map[string]bool)
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		if vs, ok := n.(*parser.VectorSelector); ok && vs.Name != "" {
			seen[vs.Name] = true
		}
		return nil
	})

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dashboard validates every Prometheus target of every panel in dash,
// including panels nested in rows.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	for _, p := range dash.Panels {
		if p.Panel != nil {
			res.merge(panel(*p.Panel, known))
		}
		if p.RowPanel != nil {
			for _, inner := range p.RowPanel.Panels {
				res.merge(panel(inner, known))
			}
		}
	}
	return res
}

func panel(p dashboard.Panel, known map[string]bool) Result {
	var res Result

	title := "untitled panel"
	if p.Title != nil {
		title = *p.Title
	}

	if len(p.Targets) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no targets", title))
		return res
	}

	for _, t := range p.Targets {
		expr, err := targetExpr(t)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("panel %q: %v", title, err))
			continue
		}
		if expr == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has a target without an expression", title))
			continue
		}
		res.merge(Expr("panel "+title, expr, known))
	}
	return res
}

// targetExpr reads the PromQL expression of a panel target through its JSON
// form, which is the same for every query variant.
func targetExpr(t any) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding target: %w", err)
	}
	var q struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return "", fmt.Errorf("decoding target: %w", err)
	}
	return q.Expr, nil
}

// Rules validates the expressions of every rule in cr. Names recorded by
// rules earlier in cr count as known for later expressions.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result

	all := make(map[string]bool, len(known))
	for k, v := range known {
		all[k] = v
	}

	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			res.merge(Expr(fmt.Sprintf("rule %s/%s", g.Name, r.Name()), r.Expr, all))
			if r.Record != "" {
				all[r.Record] = true
			}
		}
	}
	return res
}
