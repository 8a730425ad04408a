package validate

import (
	"testing"

	"github.com/prometheus/prometheus/promql/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/tools/dashgen/rules"
)

func TestExpr(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"msg_healthz_up": true, "msg_http_requests_total": true}

	tests := []struct {
		name    string
		expr    string
		wantOk  bool
		wantErr string
	}{
		{name: "known metric", expr: `msg_healthz_up == 0`, wantOk: true},
		{name: "function over known", expr: `sum(rate(msg_http_requests_total[5m]))`, wantOk: true},
		{name: "no selector", expr: `time()`, wantOk: true},
		{name: "unknown metric", expr: `legacy_healthz_up`, wantErr: `unknown metric "legacy_healthz_up"`},
		{name: "invalid syntax", expr: `sum(rate(`, wantErr: "invalid PromQL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Expr("test", tt.expr, known)
			assert.Equal(t, tt.wantOk, res.Ok())
			if tt.wantErr != "" {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.Errors[0], tt.wantErr)
			}
		})
	}
}

func TestMetricNames(t *testing.T) {
	t.Parallel()

	node, err := parser.ParseExpr(`msg:http_errors:rate5m / msg:http_requests:rate5m > 0.05 or msg:http_errors:rate5m`)
	require.NoError(t, err)
	assert.Equal(t, []string{"msg:http_errors:rate5m", "msg:http_requests:rate5m"}, MetricNames(node))
}

func TestRules_RecordedNamesBecomeKnown(t *testing.T) {
	t.Parallel()

	cr := rules.PrometheusRule{
		Spec: rules.PrometheusRuleSpec{
			Groups: []rules.RuleGroup{{
				Name: "g",
				Rules: []rules.Rule{
					{Record: "msg:x:rate5m", Expr: `sum(rate(msg_x_total[5m]))`},
					{Alert: "X", Expr: `msg:x:rate5m > 0`},
				},
			}},
		},
	}

	res := Rules(cr, map[string]bool{"msg_x_total": true})
	assert.True(t, res.Ok(), "errors: %v", res.Errors)

	res = Rules(cr, map[string]bool{})
	assert.False(t, res.Ok())
	assert.Len(t, res.Errors, 1)
}
