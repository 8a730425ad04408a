package price_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/pkg/price"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{name: "plain integer", raw: "12000", want: 12000, wantOK: true},
		{name: "thousands separator", raw: "17,857", want: 17857, wantOK: true},
		{name: "multiple separators", raw: "1,234,567", want: 1234567, wantOK: true},
		{name: "full-width separator", raw: "12，000", want: 12000, wantOK: true},
		{name: "yen sign prefix", raw: "¥12,000", want: 12000, wantOK: true},
		{name: "full-width yen sign", raw: "￥ 8,500", want: 8500, wantOK: true},
		{name: "yen suffix", raw: "3,300円", want: 3300, wantOK: true},
		{name: "decimal value", raw: "99.5", want: 99.5, wantOK: true},
		{name: "surrounding whitespace", raw: "  4500 ", want: 4500, wantOK: true},
		{name: "zero", raw: "0", want: 0, wantOK: true},
		{name: "empty", raw: "", wantOK: false},
		{name: "whitespace only", raw: "   ", wantOK: false},
		{name: "separator only", raw: ",", wantOK: false},
		{name: "text", raw: "SOLD", wantOK: false},
		{name: "mixed text", raw: "12,000 (送料込み)", wantOK: false},
		{name: "not a number", raw: "NaN", wantOK: false},
		{name: "infinity", raw: "Inf", wantOK: false},
		{name: "two decimal points", raw: "1.2.3", wantOK: false},
		{name: "exponent overflow", raw: "1e400", wantOK: false},
		{name: "negative exponent overflow", raw: "-1e400", wantOK: false},
		{name: "huge exponent", raw: "1e99999999", wantOK: false},
		{name: "small exponent", raw: "1.2E4", wantOK: false},
		{name: "digits beyond float range", raw: "1" + strings.Repeat("0", 400), wantOK: false},
		{name: "above max", raw: "2,000,000,000,000,000", wantOK: false},
		{name: "at max", raw: "1,000,000,000,000,000", want: price.MaxAbs, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := price.Normalize(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}

func TestPtr(t *testing.T) {
	t.Parallel()

	p := price.Ptr("1,000")
	require.NotNil(t, p)
	assert.InDelta(t, 1000.0, *p, 0.0001)

	assert.Nil(t, price.Ptr("n/a"))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 999, want: "999"},
		{in: 1000, want: "1,000"},
		{in: 17857, want: "17,857"},
		{in: 1234567, want: "1,234,567"},
		{in: 109.5, want: "110"},
		{in: -2500, want: "-2,500"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, price.Format(tt.in))
		})
	}
}
