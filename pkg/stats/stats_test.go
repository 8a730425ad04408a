package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/pkg/stats"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func prices(ls []domain.Listing) []float64 {
	out := make([]float64, len(ls))
	for i := range ls {
		out[i] = *ls[i].Price
	}
	return out
}

func TestAggregate_ScenarioB(t *testing.T) {
	t.Parallel()

	in := []domain.Listing{
		{SequenceIndex: 0, Grade: domain.GradeNew, Price: ptr(100)},
		{SequenceIndex: 1, Grade: domain.GradeNew, Price: ptr(110)},
		{SequenceIndex: 2, Grade: domain.GradeNew, Price: ptr(120)},
		{SequenceIndex: 3, Grade: domain.GradeNew, Price: ptr(130)},
	}

	sum, errs := stats.Aggregate(in)
	assert.Empty(t, errs)

	gs, ok := sum.Grade(domain.GradeNew)
	require.True(t, ok)
	assert.Equal(t, 4, gs.Count)
	assert.InDelta(t, 115.0, gs.Median, 1e-9)
	assert.InDelta(t, 115.0, gs.Mean, 1e-9)
	assert.Equal(t, []float64{130, 120, 110, 100}, prices(gs.Top5Max))
	assert.Equal(t, []float64{100, 110, 120, 130}, prices(gs.Top5Min))
}

func TestAggregate_ScenarioD_EmptyGrade(t *testing.T) {
	t.Parallel()

	in := []domain.Listing{
		{SequenceIndex: 0, Grade: domain.GradeNew, Price: ptr(100)},
	}

	sum, errs := stats.Aggregate(in)
	assert.Empty(t, errs)
	require.Len(t, sum.Grades, len(domain.KnownGrades()))

	for i, g := range domain.KnownGrades() {
		assert.Equal(t, g, sum.Grades[i].Grade, "canonical order")
	}

	gs, ok := sum.Grade(domain.GradePoor)
	require.True(t, ok)
	assert.Zero(t, gs.Count)
	assert.Zero(t, gs.Median)
	assert.Zero(t, gs.Mean)
	assert.Empty(t, gs.Top5Max)
	assert.Empty(t, gs.Top5Min)
	assert.NotNil(t, gs.Top5Max)
}

func TestAggregate_ErrorSubset(t *testing.T) {
	t.Parallel()

	in := []domain.Listing{
		{SequenceIndex: 0, Grade: domain.GradeNew, Price: ptr(100)},
		{SequenceIndex: 1, Grade: domain.GradeNew, Price: ptr(1000), OutlierFlag: true},
		{SequenceIndex: 2, Grade: domain.GradeNew},
		{SequenceIndex: 3, Grade: domain.GradeError, Price: ptr(500)},
		{SequenceIndex: 4, Grade: domain.GradeError},
		{SequenceIndex: 5, Grade: domain.GradeDamaged, Price: ptr(40)},
	}

	sum, errs := stats.Aggregate(in)

	want := []struct {
		idx    int
		reason domain.ErrorReason
	}{
		{1, domain.ReasonOutlier},
		{2, domain.ReasonMalformedPrice},
		{3, domain.ReasonUnknownGrade},
		{4, domain.ReasonMalformedPrice},
	}
	require.Len(t, errs, len(want))
	for i, w := range want {
		assert.Equal(t, w.idx, errs[i].Listing.SequenceIndex)
		assert.Equal(t, w.reason, errs[i].Reason)
	}

	require.Len(t, sum.Inliers, 2)
	assert.Equal(t, 0, sum.Inliers[0].SequenceIndex)
	assert.Equal(t, 5, sum.Inliers[1].SequenceIndex)
	assert.Len(t, sum.Inliers, len(in)-len(errs))
}

func TestAggregate_OutliersDoNotChangeStatistics(t *testing.T) {
	t.Parallel()

	base := []domain.Listing{
		{SequenceIndex: 0, Grade: domain.GradeLikeNew, Price: ptr(200)},
		{SequenceIndex: 1, Grade: domain.GradeLikeNew, Price: ptr(220)},
		{SequenceIndex: 2, Grade: domain.GradeLikeNew, Price: ptr(260)},
	}
	before, _ := stats.Aggregate(base)

	withOutlier := append(base[:len(base):len(base)],
		domain.Listing{SequenceIndex: 3, Grade: domain.GradeLikeNew, Price: ptr(9999), OutlierFlag: true},
		domain.Listing{SequenceIndex: 4, Grade: domain.GradeError, Price: ptr(1)},
	)
	after, _ := stats.Aggregate(withOutlier)

	b, _ := before.Grade(domain.GradeLikeNew)
	a, _ := after.Grade(domain.GradeLikeNew)
	assert.Equal(t, b, a)
}

func TestSummarize_TopFiveTieBreak(t *testing.T) {
	t.Parallel()

	in := []domain.Listing{
		{SequenceIndex: 7, Grade: domain.GradeNew, Price: ptr(50)},
		{SequenceIndex: 2, Grade: domain.GradeNew, Price: ptr(50)},
		{SequenceIndex: 4, Grade: domain.GradeNew, Price: ptr(90)},
		{SequenceIndex: 1, Grade: domain.GradeNew, Price: ptr(10)},
		{SequenceIndex: 3, Grade: domain.GradeNew, Price: ptr(90)},
		{SequenceIndex: 5, Grade: domain.GradeNew, Price: ptr(30)},
		{SequenceIndex: 6, Grade: domain.GradeNew, Price: ptr(70)},
	}

	gs := stats.Summarize(domain.GradeNew, in)

	seq := func(ls []domain.Listing) []int {
		out := make([]int, len(ls))
		for i := range ls {
			out[i] = ls[i].SequenceIndex
		}
		return out
	}

	assert.Equal(t, []int{3, 4, 6, 2, 7}, seq(gs.Top5Max))
	assert.Equal(t, []int{1, 5, 2, 7, 6}, seq(gs.Top5Min))
	assert.InDelta(t, 50.0, gs.Median, 1e-9)
}

func TestMedian(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single", values: []float64{7}, want: 7},
		{name: "odd unsorted", values: []float64{3, 1, 2}, want: 2},
		{name: "even", values: []float64{130, 100, 120, 110}, want: 115},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, stats.Median(tt.values), 1e-9)
		})
	}
}

func TestSummary_MediansAndRoundedMeans(t *testing.T) {
	t.Parallel()

	in := []domain.Listing{
		{SequenceIndex: 0, Grade: domain.GradeNew, Price: ptr(100)},
		{SequenceIndex: 1, Grade: domain.GradeNew, Price: ptr(101)},
		{SequenceIndex: 2, Grade: domain.GradeDamaged, Price: ptr(10)},
		{SequenceIndex: 3, Grade: domain.GradeDamaged, Price: ptr(11)},
		{SequenceIndex: 4, Grade: domain.GradeDamaged, Price: ptr(11)},
	}
	sum, _ := stats.Aggregate(in)

	medians := sum.Medians()
	require.Len(t, medians, 6)
	assert.Equal(t, domain.GradeNew, medians[0].Grade)
	assert.InDelta(t, 100.5, medians[0].Median, 1e-9)
	assert.Zero(t, medians[1].Median)

	means := sum.RoundedMeans()
	require.Len(t, means, 6)
	assert.Equal(t, int64(100), means[0].Mean, "100.5 rounds half to even")
	assert.Equal(t, int64(11), means[4].Mean)
	assert.Equal(t, int64(0), means[5].Mean)
}
