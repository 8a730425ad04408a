// Package stats aggregates inlier listings into per-grade summaries.
package stats

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// TopN is the length of the extreme-price lists in a GradeSummary.
const TopN = 5

// Summary is the result of Aggregate. Grades always holds one entry per known
// grade in canonical order.
type Summary struct {
	Grades  []domain.GradeSummary `json:"grades"`
	Inliers []domain.Listing      `json:"inliers"`
}

// RoundedMean is a grade's mean price rounded to a whole unit.
type RoundedMean struct {
	Grade domain.Grade `json:"grade"`
	Mean  int64        `json:"mean"`
}

// Aggregate splits annotated records into inliers and an error subset and
// summarizes the inliers of every known grade. Inliers are records that are
// not flagged, carry a price, and have a known grade; every other record is
// returned in the error subset with the first applicable reason.
func Aggregate(records []domain.Listing) (Summary, []domain.ErrorRecord) {
	inliers := make([]domain.Listing, 0, len(records))
	var errs []domain.ErrorRecord

	for i := range records {
		if reason, bad := errorReason(&records[i]); bad {
			errs = append(errs, domain.ErrorRecord{Listing: records[i], Reason: reason})
			continue
		}
		inliers = append(inliers, records[i])
	}

	byGrade := make(map[domain.Grade][]domain.Listing)
	for i := range inliers {
		byGrade[inliers[i].Grade] = append(byGrade[inliers[i].Grade], inliers[i])
	}

	grades := domain.KnownGrades()
	out := Summary{
		Grades:  make([]domain.GradeSummary, 0, len(grades)),
		Inliers: inliers,
	}
	for _, g := range grades {
		out.Grades = append(out.Grades, Summarize(g, byGrade[g]))
	}
	return out, errs
}

func errorReason(l *domain.Listing) (domain.ErrorReason, bool) {
	switch {
	case !l.HasPrice():
		return domain.ReasonMalformedPrice, true
	case !l.Grade.Known():
		return domain.ReasonUnknownGrade, true
	case l.OutlierFlag:
		return domain.ReasonOutlier, true
	default:
		return "", false
	}
}

// Summarize computes the summary of one grade from its inlier listings.
// Listings without a price are ignored. An empty group yields zero median and
// mean and empty extreme lists.
func Summarize(g domain.Grade, listings []domain.Listing) domain.GradeSummary {
	priced := make([]domain.Listing, 0, len(listings))
	for i := range listings {
		if listings[i].HasPrice() {
			priced = append(priced, listings[i])
		}
	}

	s := domain.GradeSummary{
		Grade:   g,
		Count:   len(priced),
		Top5Max: []domain.Listing{},
		Top5Min: []domain.Listing{},
	}
	if len(priced) == 0 {
		return s
	}

	values := make([]float64, len(priced))
	for i := range priced {
		values[i] = *priced[i].Price
	}

	s.Median = Median(values)
	s.Mean = stat.Mean(values, nil)
	s.Top5Max = top(priced, TopN, func(a, b float64) int { return cmp.Compare(b, a) })
	s.Top5Min = top(priced, TopN, cmp.Compare[float64])
	return s
}

// top returns up to n listings ordered by byPrice, ties broken by ascending
// SequenceIndex.
func top(listings []domain.Listing, n int, byPrice func(a, b float64) int) []domain.Listing {
	sorted := slices.Clone(listings)
	slices.SortStableFunc(sorted, func(a, b domain.Listing) int {
		if c := byPrice(*a.Price, *b.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.SequenceIndex, b.SequenceIndex)
	})
	return sorted[:min(n, len(sorted))]
}

// Median returns the median of values, averaging the two middle elements
// for an even count. It returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Grade returns the summary for g.
func (s Summary) Grade(g domain.Grade) (domain.GradeSummary, bool) {
	for _, gs := range s.Grades {
		if gs.Grade == g {
			return gs, true
		}
	}
	return domain.GradeSummary{}, false
}

// Medians returns the median of every grade in canonical order. Empty
// grades report 0.
func (s Summary) Medians() []domain.GradeMedian {
	out := make([]domain.GradeMedian, len(s.Grades))
	for i, gs := range s.Grades {
		out[i] = domain.GradeMedian{Grade: gs.Grade, Median: gs.Median}
	}
	return out
}

// RoundedMeans returns the mean of every grade rounded half to even. Empty
// grades report 0.
func (s Summary) RoundedMeans() []RoundedMean {
	out := make([]RoundedMean, len(s.Grades))
	for i, gs := range s.Grades {
		out[i] = RoundedMean{Grade: gs.Grade, Mean: int64(math.RoundToEven(gs.Mean))}
	}
	return out
}
