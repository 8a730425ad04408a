// Package outlier flags anomalous listing prices, either per condition grade
// with the quartile-range rule or against a fixed global price range.
package outlier

import (
	"errors"
	"fmt"
	"math"
	"slices"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Cleaning modes accepted by New.
const (
	ModeQuantile   = "quantile"
	ModeFixedRange = "fixed-range"
)

// DefaultMultiplier is the IQR multiplier of the classic Tukey fences.
const DefaultMultiplier = 1.5

// ErrUnknownMode is returned by New for an unrecognized cleaning mode.
var ErrUnknownMode = errors.New("unknown cleaning mode")

// Detector decides which listings are outliers. Implementations return a new
// slice in input order with OutlierFlag set; listings with an unknown price
// are never flagged.
type Detector interface {
	Detect(records []domain.Listing) []domain.Listing
}

// New builds the detector for a cleaning mode. The legacy names "IQR_based"
// and "range_based" are accepted as aliases.
func New(mode string, multiplier, minPrice, maxPrice float64) (Detector, error) {
	switch mode {
	case ModeQuantile, "IQR_based":
		if multiplier <= 0 {
			multiplier = DefaultMultiplier
		}
		return QuartileRange{Multiplier: multiplier}, nil
	case ModeFixedRange, "range_based":
		if minPrice > maxPrice {
			return nil, fmt.Errorf("fixed range min %v exceeds max %v", minPrice, maxPrice)
		}
		return FixedRange{Min: minPrice, Max: maxPrice}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownMode, mode, ModeQuantile, ModeFixedRange)
	}
}

// Detect runs d over records. It exists so callers can treat the strategy as
// a parameter of a plain function call.
func Detect(records []domain.Listing, d Detector) []domain.Listing {
	return d.Detect(records)
}

// QuartileRange flags prices outside [Q1 - k*IQR, Q3 + k*IQR] of the listing's
// own grade group, where k is Multiplier.
type QuartileRange struct {
	Multiplier float64
}

// Detect implements Detector.
func (q QuartileRange) Detect(records []domain.Listing) []domain.Listing {
	k := q.Multiplier
	if k <= 0 {
		k = DefaultMultiplier
	}

	groups := make(map[domain.Grade][]float64)
	for i := range records {
		if records[i].HasPrice() {
			groups[records[i].Grade] = append(groups[records[i].Grade], *records[i].Price)
		}
	}

	bounds := make(map[domain.Grade]Bounds, len(groups))
	for g, values := range groups {
		bounds[g] = Fences(values, k)
	}

	out := make([]domain.Listing, len(records))
	for i := range records {
		out[i] = records[i]
		out[i].OutlierFlag = false
		if !records[i].HasPrice() {
			continue
		}
		out[i].OutlierFlag = bounds[records[i].Grade].Outside(*records[i].Price)
	}
	return out
}

// FixedRange flags prices outside the inclusive range [Min, Max].
type FixedRange struct {
	Min float64
	Max float64
}

// Detect implements Detector.
func (f FixedRange) Detect(records []domain.Listing) []domain.Listing {
	b := Bounds{Lower: f.Min, Upper: f.Max}
	out := make([]domain.Listing, len(records))
	for i := range records {
		out[i] = records[i]
		out[i].OutlierFlag = records[i].HasPrice() && b.Outside(*records[i].Price)
	}
	return out
}

// Bounds is an inclusive acceptance interval.
type Bounds struct {
	Q1    float64
	Q3    float64
	Lower float64
	Upper float64
}

// Outside reports whether v falls strictly outside the interval.
func (b Bounds) Outside(v float64) bool {
	return v < b.Lower || v > b.Upper
}

// Fences computes the quartiles of values and the fences k*IQR beyond them.
// values need not be sorted and is not modified. An empty input yields a
// zero interval.
func Fences(values []float64, k float64) Bounds {
	if len(values) == 0 {
		return Bounds{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1

	return Bounds{
		Q1:    q1,
		Q3:    q3,
		Lower: q1 - k*iqr,
		Upper: q3 + k*iqr,
	}
}

// Quantile returns the p-quantile of sorted using linear interpolation
// between closest ranks (position (n-1)*p). sorted must be ascending.
// It returns NaN for an empty slice.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
