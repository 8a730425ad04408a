// Package pipeline composes the listing analysis stages: price normalization,
// outlier detection, per-grade statistics, threshold derivation and tier
// classification. Run is pure and deterministic.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/donaldgifford/market-suggest/pkg/outlier"
	"github.com/donaldgifford/market-suggest/pkg/price"
	"github.com/donaldgifford/market-suggest/pkg/stats"
	"github.com/donaldgifford/market-suggest/pkg/tier"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// ErrMissingInput is returned when Run is given no source table.
var ErrMissingInput = errors.New("missing input listings")

// Stage names a pipeline stage.
type Stage string

// Pipeline stages in execution order.
const (
	StageNormalize  Stage = "normalize"
	StageOutliers   Stage = "outliers"
	StageStatistics Stage = "statistics"
	StageThresholds Stage = "thresholds"
	StageTiers      Stage = "tiers"
)

// StageError reports a configuration error that stopped the pipeline at
// Stage. Outputs of earlier stages are still returned alongside it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Config is the numeric configuration of one run.
type Config struct {
	CleaningMode  string    `json:"cleaning_mode"`
	FixedRangeMin float64   `json:"fixed_range_min"`
	FixedRangeMax float64   `json:"fixed_range_max"`
	IQRMultiplier float64   `json:"iqr_multiplier"`
	PriceFloor    float64   `json:"price_floor"`
	DiscountRates []float64 `json:"discount_rates"`
	TierLabels    []string  `json:"tier_labels,omitempty"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		CleaningMode:  outlier.ModeQuantile,
		FixedRangeMin: 3000,
		FixedRangeMax: 50000,
		IQRMultiplier: outlier.DefaultMultiplier,
		PriceFloor:    17857,
		DiscountRates: []float64{0.25, 0.2, 0.15, 0.1, 0.05},
	}
}

// Rates returns the configured discount rates paired with their labels.
func (c Config) Rates() []tier.Rate {
	return tier.Rates(c.DiscountRates, c.TierLabels)
}

// Result holds the output of every stage that completed. Listings is the
// outlier-annotated table in input order.
type Result struct {
	Listings       []domain.Listing       `json:"listings"`
	Summary        []domain.GradeSummary  `json:"summary,omitempty"`
	Inliers        []domain.Listing       `json:"inliers,omitempty"`
	Errors         []domain.ErrorRecord   `json:"errors,omitempty"`
	Thresholds     *domain.ThresholdTable `json:"thresholds,omitempty"`
	Classification *domain.Classification `json:"classification,omitempty"`
	Counts         domain.RunCounts       `json:"counts"`
}

// Normalize converts raw rows into listings. SequenceIndex is the row's
// position in raw and SourceIndex carries the row's own Index; unparsable
// prices become unknown and unrecognized conditions become GradeError.
func Normalize(raw []domain.RawListing) []domain.Listing {
	out := make([]domain.Listing, len(raw))
	for i := range raw {
		out[i] = domain.Listing{
			SequenceIndex: i,
			SourceIndex:   raw[i].Index,
			Name:          raw[i].Name,
			Price:         price.Ptr(raw[i].Price),
			Grade:         domain.ParseGrade(raw[i].Condition),
			RawCondition:  raw[i].Condition,
			PostedDate:    raw[i].PostedDate,
			URL:           raw[i].URL,
		}
	}
	return out
}

// Run executes every stage over raw. A nil raw returns ErrMissingInput and no
// result; an empty slice is a valid, empty run. A configuration error stops
// the run at the failing stage and returns a *StageError together with the
// partial result.
func Run(raw []domain.RawListing, cfg Config) (*Result, error) {
	if raw == nil {
		return nil, ErrMissingInput
	}

	res := &Result{Listings: Normalize(raw)}
	res.Counts.Total = len(raw)

	det, err := outlier.New(cfg.CleaningMode, cfg.IQRMultiplier, cfg.FixedRangeMin, cfg.FixedRangeMax)
	if err != nil {
		return res, &StageError{Stage: StageOutliers, Err: err}
	}
	res.Listings = outlier.Detect(res.Listings, det)

	summary, errs := stats.Aggregate(res.Listings)
	res.Summary = summary.Grades
	res.Inliers = summary.Inliers
	res.Errors = errs
	res.Counts.Inliers = len(summary.Inliers)
	for _, e := range errs {
		switch e.Reason {
		case domain.ReasonOutlier:
			res.Counts.Outliers++
		case domain.ReasonMalformedPrice:
			res.Counts.MalformedPrice++
		case domain.ReasonUnknownGrade:
			res.Counts.UnknownGrade++
		}
	}

	table, err := tier.DeriveThresholds(summary.Medians(), cfg.Rates())
	if err != nil {
		return res, &StageError{Stage: StageThresholds, Err: err}
	}
	res.Thresholds = table

	cls := tier.Classify(summary.Inliers, cfg.PriceFloor, table)
	res.Classification = &cls
	for _, t := range cls.Tiers {
		res.Counts.Tiered += len(t.Listings)
	}
	res.Counts.Unassigned = len(cls.Unassigned)
	res.Counts.Excluded = len(cls.Excluded)
	res.Counts.Eligible = res.Counts.Tiered + res.Counts.Unassigned

	return res, nil
}
