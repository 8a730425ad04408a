// Package price parses marketplace price text into numeric values.
package price

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// decorations are removed before parsing: thousands separators (ASCII and
// full-width) and the currency marks the marketplace prints around prices.
var decorations = strings.NewReplacer(
	",", "",
	"，", "",
	"¥", "",
	"￥", "",
	"$", "",
	"円", "",
)

// MaxAbs bounds the magnitude of an accepted price. Sums and medians over any
// realistic table of such prices stay finite.
const MaxAbs = 1e15

// Normalize parses raw price text. The boolean is false when the text is
// empty, uses exponent notation, is not a finite number, or exceeds MaxAbs;
// the returned value is then meaningless and must not be used as a price.
func Normalize(raw string) (float64, bool) {
	s := strings.TrimSpace(decorations.Replace(strings.TrimSpace(raw)))
	if s == "" || strings.ContainsAny(s, "eE") {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}

	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) || math.Abs(v) > MaxAbs {
		return 0, false
	}
	return v, true
}

// Ptr is Normalize returning nil for unknown prices.
func Ptr(raw string) *float64 {
	v, ok := Normalize(raw)
	if !ok {
		return nil
	}
	return &v
}

// Format renders v rounded to a whole unit with thousands separators,
// e.g. 17857 -> "17,857".
func Format(v float64) string {
	s := decimal.NewFromFloat(v).Round(0).String()

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
