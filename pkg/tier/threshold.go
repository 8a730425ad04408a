// Package tier derives discount thresholds from grade medians and partitions
// listings into ordered, mutually exclusive discount tiers.
package tier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

var (
	// ErrNoRates is returned when no discount rate is configured.
	ErrNoRates = errors.New("no discount rates configured")
	// ErrInvalidRate is returned for a rate outside the open interval (0, 1).
	ErrInvalidRate = errors.New("discount rate must be between 0 and 1 exclusive")
)

// DefaultLabelMark is repeated to build tier labels when none are configured.
const DefaultLabelMark = "★"

// Rate is one configured discount rate. Label names the tier it produces.
type Rate struct {
	Value float64 `json:"value" yaml:"value"`
	Label string  `json:"label" yaml:"label"`
}

// Rates pairs values with labels. Missing labels are filled with
// DefaultLabel.
func Rates(values []float64, labels []string) []Rate {
	out := make([]Rate, len(values))
	for i, v := range values {
		out[i] = Rate{Value: v}
		if i < len(labels) && labels[i] != "" {
			out[i].Label = labels[i]
		} else {
			out[i].Label = DefaultLabel(i, len(values))
		}
	}
	return out
}

// DefaultLabel returns the label of tier i out of n: the first tier gets n
// marks, the last gets one.
func DefaultLabel(i, n int) string {
	return strings.Repeat(DefaultLabelMark, max(n-i, 1))
}

// DeriveThresholds computes, for each rate in the given order and each grade
// with a median, the cutoff round(median * (1 - rate)). Rounding is half away
// from zero. The order of rates is kept verbatim as the tier order.
func DeriveThresholds(medians []domain.GradeMedian, rates []Rate) (*domain.ThresholdTable, error) {
	if len(rates) == 0 {
		return nil, ErrNoRates
	}

	var errs []error
	for i, r := range rates {
		if err := validateRate(r.Value); err != nil {
			errs = append(errs, fmt.Errorf("rate %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	table := &domain.ThresholdTable{Rates: make([]domain.RateThresholds, 0, len(rates))}
	for i, r := range rates {
		label := r.Label
		if label == "" {
			label = DefaultLabel(i, len(rates))
		}

		rt := domain.RateThresholds{
			Index:      i,
			Rate:       r.Value,
			Label:      label,
			Thresholds: make([]domain.GradeThreshold, 0, len(medians)),
		}
		for _, m := range medians {
			if !m.Grade.Known() {
				continue
			}
			rt.Thresholds = append(rt.Thresholds, domain.GradeThreshold{
				Grade:     m.Grade,
				Median:    m.Median,
				Threshold: Threshold(m.Median, r.Value),
			})
		}
		table.Rates = append(table.Rates, rt)
	}
	return table, nil
}

// Threshold returns round(median * (1 - rate)) computed in decimal
// arithmetic, rounding half away from zero.
func Threshold(median, rate float64) float64 {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(rate))
	return decimal.NewFromFloat(median).Mul(factor).Round(0).InexactFloat64()
}

func validateRate(v float64) error {
	if !(v > 0 && v < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidRate, v)
	}
	return nil
}

// ParseRate parses a rate given as a fraction ("0.05") or a percentage
// ("5%").
func ParseRate(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	percent := strings.HasSuffix(raw, "%")
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing rate %q: %w", s, err)
	}
	if percent {
		d = d.Div(decimal.NewFromInt(100))
	}

	v := d.InexactFloat64()
	if err := validateRate(v); err != nil {
		return 0, fmt.Errorf("parsing rate %q: %w", s, err)
	}
	return v, nil
}

// ParseRates parses every entry of ss with ParseRate, preserving order.
func ParseRates(ss []string) ([]float64, error) {
	out := make([]float64, 0, len(ss))
	var errs []error
	for _, s := range ss {
		v, err := ParseRate(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, v)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
