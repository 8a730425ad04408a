package outlier_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/pkg/outlier"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func listings(g domain.Grade, prices ...float64) []domain.Listing {
	out := make([]domain.Listing, len(prices))
	for i, p := range prices {
		out[i] = domain.Listing{SequenceIndex: i, Grade: g, Price: ptr(p)}
	}
	return out
}

func flagged(records []domain.Listing) []float64 {
	var out []float64
	for i := range records {
		if records[i].OutlierFlag {
			out = append(out, *records[i].Price)
		}
	}
	return out
}

func TestQuantile(t *testing.T) {
	t.Parallel()

	sorted := []float64{100, 110, 120, 130, 1000}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{name: "min", p: 0, want: 100},
		{name: "first quartile", p: 0.25, want: 110},
		{name: "median", p: 0.5, want: 120},
		{name: "third quartile", p: 0.75, want: 130},
		{name: "max", p: 1, want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, outlier.Quantile(sorted, tt.p), 1e-9)
		})
	}
}

func TestQuantile_Interpolates(t *testing.T) {
	t.Parallel()

	// Position (4-1)*0.25 = 0.75 -> 100 + 0.75*(110-100).
	assert.InDelta(t, 107.5, outlier.Quantile([]float64{100, 110, 120, 130}, 0.25), 1e-9)
	assert.InDelta(t, 122.5, outlier.Quantile([]float64{100, 110, 120, 130}, 0.75), 1e-9)
	assert.InDelta(t, 42.0, outlier.Quantile([]float64{42}, 0.75), 1e-9)
	assert.True(t, math.IsNaN(outlier.Quantile(nil, 0.5)))
}

func TestQuartileRange_ScenarioA(t *testing.T) {
	t.Parallel()

	in := listings(domain.GradeNew, 100, 110, 120, 130, 1000)
	out := outlier.QuartileRange{Multiplier: 1.5}.Detect(in)

	require.Len(t, out, 5)
	assert.Equal(t, []float64{1000}, flagged(out))

	b := outlier.Fences([]float64{100, 110, 120, 130, 1000}, 1.5)
	assert.InDelta(t, 110.0, b.Q1, 1e-9)
	assert.InDelta(t, 130.0, b.Q3, 1e-9)
	assert.InDelta(t, 80.0, b.Lower, 1e-9)
	assert.InDelta(t, 160.0, b.Upper, 1e-9)
}

func TestQuartileRange_GroupsByGrade(t *testing.T) {
	t.Parallel()

	// 1000 is normal for like_new but extreme for new.
	in := append(
		listings(domain.GradeNew, 100, 110, 120, 130, 1000),
		listings(domain.GradeLikeNew, 990, 1000, 1010, 1020)...,
	)
	out := outlier.QuartileRange{Multiplier: 1.5}.Detect(in)

	var likeNewFlagged int
	for i := range out {
		if out[i].Grade == domain.GradeLikeNew && out[i].OutlierFlag {
			likeNewFlagged++
		}
	}
	assert.Zero(t, likeNewFlagged)
	assert.Equal(t, []float64{1000}, flagged(out))
}

func TestQuartileRange_DegenerateGroups(t *testing.T) {
	t.Parallel()

	t.Run("single priced record is an inlier", func(t *testing.T) {
		t.Parallel()
		out := outlier.QuartileRange{Multiplier: 1.5}.Detect(listings(domain.GradePoor, 5000))
		assert.False(t, out[0].OutlierFlag)
	})

	t.Run("zero IQR flags any other value", func(t *testing.T) {
		t.Parallel()
		out := outlier.QuartileRange{Multiplier: 1.5}.Detect(
			listings(domain.GradePoor, 100, 100, 100, 100, 100, 100, 101),
		)
		assert.Equal(t, []float64{101}, flagged(out))
	})
}

func TestQuartileRange_UnknownPriceNeverFlagged(t *testing.T) {
	t.Parallel()

	in := listings(domain.GradeNew, 100, 110, 120, 130, 1000)
	in = append(in, domain.Listing{SequenceIndex: 5, Grade: domain.GradeNew})

	out := outlier.QuartileRange{Multiplier: 1.5}.Detect(in)
	require.Len(t, out, 6)
	assert.False(t, out[5].OutlierFlag)
	assert.Nil(t, out[5].Price)
	assert.Equal(t, []float64{1000}, flagged(out))
}

func TestQuartileRange_PreservesOrderAndInput(t *testing.T) {
	t.Parallel()

	in := []domain.Listing{
		{SequenceIndex: 3, Grade: domain.GradeNew, Price: ptr(1000)},
		{SequenceIndex: 1, Grade: domain.GradeDamaged, Price: ptr(50)},
		{SequenceIndex: 0, Grade: domain.GradeNew, Price: ptr(100)},
		{SequenceIndex: 2, Grade: domain.GradeNew, Price: ptr(110)},
	}
	out := outlier.Detect(in, outlier.QuartileRange{Multiplier: 1.5})

	for i := range in {
		assert.Equal(t, in[i].SequenceIndex, out[i].SequenceIndex)
		assert.False(t, in[i].OutlierFlag, "input must not be modified")
	}
}

// Recomputes each grade's fences independently and checks every flag.
func TestQuartileRange_FlagsMatchIndependentFences(t *testing.T) {
	t.Parallel()

	in := append(
		listings(domain.GradeNew, 3200, 3500, 2900, 41000, 3300, 3100, 150, 3400),
		listings(domain.GradeDamaged, 800, 1200, 950, 990, 5000, 1010)...,
	)
	out := outlier.QuartileRange{Multiplier: 1.5}.Detect(in)

	values := map[domain.Grade][]float64{}
	for i := range in {
		values[in[i].Grade] = append(values[in[i].Grade], *in[i].Price)
	}

	for i := range out {
		b := outlier.Fences(values[out[i].Grade], 1.5)
		p := *out[i].Price
		want := p < b.Q1-1.5*(b.Q3-b.Q1) || p > b.Q3+1.5*(b.Q3-b.Q1)
		assert.Equal(t, want, out[i].OutlierFlag, "price %v grade %s", p, out[i].Grade)
	}
}

func TestFixedRange(t *testing.T) {
	t.Parallel()

	in := []domain.Listing{
		{SequenceIndex: 0, Grade: domain.GradeNew, Price: ptr(2999)},
		{SequenceIndex: 1, Grade: domain.GradeNew, Price: ptr(3000)},
		{SequenceIndex: 2, Grade: domain.GradePoor, Price: ptr(50000)},
		{SequenceIndex: 3, Grade: domain.GradeError, Price: ptr(50001)},
		{SequenceIndex: 4, Grade: domain.GradeLikeNew},
	}
	out := outlier.FixedRange{Min: 3000, Max: 50000}.Detect(in)

	want := []bool{true, false, false, true, false}
	for i := range out {
		assert.Equal(t, want[i], out[i].OutlierFlag, "index %d", i)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    string
		min     float64
		max     float64
		want    outlier.Detector
		wantErr bool
	}{
		{name: "quantile", mode: "quantile", want: outlier.QuartileRange{Multiplier: 1.5}},
		{name: "legacy IQR alias", mode: "IQR_based", want: outlier.QuartileRange{Multiplier: 1.5}},
		{name: "fixed range", mode: "fixed-range", min: 3000, max: 50000, want: outlier.FixedRange{Min: 3000, Max: 50000}},
		{name: "legacy range alias", mode: "range_based", min: 1, max: 2, want: outlier.FixedRange{Min: 1, Max: 2}},
		{name: "inverted range", mode: "fixed-range", min: 10, max: 1, wantErr: true},
		{name: "unknown mode", mode: "zscore", wantErr: true},
		{name: "empty mode", mode: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := outlier.New(tt.mode, 0, tt.min, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestNew_UnknownModeIsSentinel(t *testing.T) {
	t.Parallel()

	_, err := outlier.New("zscore", 0, 0, 0)
	require.ErrorIs(t, err, outlier.ErrUnknownMode)
}
