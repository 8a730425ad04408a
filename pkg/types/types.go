// Package domain defines the core business types for market-suggest.
package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Grade represents the normalized condition grade of a listing.
type Grade string

// Grade constants, best condition first. GradeError is the sentinel for
// listings whose condition could not be recognized.
const (
	GradeNew             Grade = "new"
	GradeLikeNew         Grade = "like_new"
	GradeNoVisibleDamage Grade = "no_visible_damage"
	GradeSlightDamage    Grade = "slight_damage"
	GradeDamaged         Grade = "damaged"
	GradePoor            Grade = "poor"
	GradeError           Grade = "error"
)

var knownGrades = []Grade{
	GradeNew,
	GradeLikeNew,
	GradeNoVisibleDamage,
	GradeSlightDamage,
	GradeDamaged,
	GradePoor,
}

// gradeLabels maps grades to the marketplace's display labels.
var gradeLabels = map[Grade]string{
	GradeNew:             "新品、未使用",
	GradeLikeNew:         "未使用に近い",
	GradeNoVisibleDamage: "目立った傷や汚れなし",
	GradeSlightDamage:    "やや傷や汚れあり",
	GradeDamaged:         "傷や汚れあり",
	GradePoor:            "全体的に状態が悪い",
	GradeError:           "エラー",
}

var gradeByLabel = func() map[string]Grade {
	m := make(map[string]Grade, 2*len(gradeLabels))
	for g, label := range gradeLabels {
		m[label] = g
		m[string(g)] = g
	}
	return m
}()

// KnownGrades returns the six addressable grades in canonical order.
// The returned slice is a copy and may be modified by the caller.
func KnownGrades() []Grade {
	return slices.Clone(knownGrades)
}

// ParseGrade maps a marketplace label or a grade slug to a Grade.
// Unrecognized input maps to GradeError.
func ParseGrade(raw string) Grade {
	key := strings.TrimSpace(raw)
	if g, ok := gradeByLabel[key]; ok {
		return g
	}
	if g, ok := gradeByLabel[strings.ToLower(key)]; ok {
		return g
	}
	return GradeError
}

// Known reports whether g is one of the six addressable grades.
func (g Grade) Known() bool {
	return slices.Contains(knownGrades, g)
}

// Rank returns the canonical position of g (0 is best), or len(KnownGrades())
// for GradeError and unrecognized values.
func (g Grade) Rank() int {
	if i := slices.Index(knownGrades, g); i >= 0 {
		return i
	}
	return len(knownGrades)
}

// Label returns the marketplace display label for g.
func (g Grade) Label() string {
	if l, ok := gradeLabels[g]; ok {
		return l
	}
	return gradeLabels[GradeError]
}

// RawListing is a listing row as read from a source table, before any
// parsing. Price and Condition are kept as text.
type RawListing struct {
	Index      int    `json:"index"                 yaml:"index"`
	Name       string `json:"name"                  yaml:"name"`
	Price      string `json:"price"                 yaml:"price"`
	Condition  string `json:"condition"             yaml:"condition"`
	PostedDate string `json:"posted_date,omitempty" yaml:"posted_date"`
	URL        string `json:"url,omitempty"         yaml:"url"`
}

// Listing is a normalized listing record. Price is nil when the source text
// could not be parsed. SequenceIndex is the row's position within the run and
// is unique; SourceIndex is the index column of the source table as read.
type Listing struct {
	SequenceIndex int      `json:"sequence_index"          db:"sequence_index"`
	SourceIndex   int      `json:"source_index"            db:"source_index"`
	Name          string   `json:"name"                    db:"name"`
	Price         *float64 `json:"price"                   db:"price"`
	Grade         Grade    `json:"grade"                   db:"grade"`
	RawCondition  string   `json:"raw_condition,omitempty" db:"raw_condition"`
	PostedDate    string   `json:"posted_date,omitempty"   db:"posted_date"`
	URL           string   `json:"url,omitempty"           db:"url"`
	OutlierFlag   bool     `json:"outlier_flag"            db:"outlier_flag"`
}

// HasPrice reports whether the listing carries a parsed price.
func (l *Listing) HasPrice() bool {
	return l.Price != nil
}

// PriceValue returns the parsed price, or 0 when unknown.
func (l *Listing) PriceValue() float64 {
	if l.Price == nil {
		return 0
	}
	return *l.Price
}

// ErrorReason explains why a listing was set aside from statistics.
type ErrorReason string

// Error reason constants.
const (
	ReasonOutlier        ErrorReason = "outlier"
	ReasonMalformedPrice ErrorReason = "malformed_price"
	ReasonUnknownGrade   ErrorReason = "unknown_grade"
)

// ErrorRecord is a listing collected for review instead of aggregation.
type ErrorRecord struct {
	Listing Listing     `json:"listing"`
	Reason  ErrorReason `json:"reason"`
}

// GradeSummary holds the statistics of the inlier listings of one grade.
type GradeSummary struct {
	Grade   Grade     `json:"grade"`
	Count   int       `json:"count"`
	Top5Max []Listing `json:"top5_max"`
	Top5Min []Listing `json:"top5_min"`
	Median  float64   `json:"median"`
	Mean    float64   `json:"mean"`
}

// GradeMedian pairs a grade with its median inlier price.
type GradeMedian struct {
	Grade  Grade   `json:"grade"`
	Median float64 `json:"median"`
}

// GradeThreshold is the cutoff price of one grade for one discount rate.
type GradeThreshold struct {
	Grade     Grade   `json:"grade"`
	Median    float64 `json:"median"`
	Threshold float64 `json:"threshold"`
}

// RateThresholds holds the per-grade cutoffs for one discount rate. Index is
// the rate's position in the configured tier order.
type RateThresholds struct {
	Index      int              `json:"index"`
	Rate       float64          `json:"rate"`
	Label      string           `json:"label"`
	Thresholds []GradeThreshold `json:"thresholds"`
}

// ThresholdTable is the ordered set of discount rates with their per-grade
// cutoffs. The order of Rates is the tier evaluation order.
type ThresholdTable struct {
	Rates []RateThresholds `json:"rates"`
}

// Threshold returns the cutoff for grade g at tier position i.
func (t *ThresholdTable) Threshold(i int, g Grade) (float64, bool) {
	if t == nil || i < 0 || i >= len(t.Rates) {
		return 0, false
	}
	for _, gt := range t.Rates[i].Thresholds {
		if gt.Grade == g {
			return gt.Threshold, true
		}
	}
	return 0, false
}

// Tier is one bucket of the ordered discount partition.
type Tier struct {
	Index    int       `json:"index"`
	Rate     float64   `json:"rate"`
	Label    string    `json:"label"`
	Listings []Listing `json:"listings"`
}

// Classification is the output of tier classification. Excluded holds the
// listings that never entered the eligible pool (below the price floor,
// unknown price, or unknown grade).
type Classification struct {
	Tiers      []Tier    `json:"tiers"`
	Unassigned []Listing `json:"unassigned"`
	Excluded   []Listing `json:"excluded"`
}

// Run status constants.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunCounts accounts for every input listing of a run.
type RunCounts struct {
	Total          int `json:"total"           db:"total"`
	Inliers        int `json:"inliers"         db:"inliers"`
	Outliers       int `json:"outliers"        db:"outliers"`
	MalformedPrice int `json:"malformed_price" db:"malformed_price"`
	UnknownGrade   int `json:"unknown_grade"   db:"unknown_grade"`
	Eligible       int `json:"eligible"        db:"eligible"`
	Tiered         int `json:"tiered"          db:"tiered"`
	Unassigned     int `json:"unassigned"      db:"unassigned"`
	Excluded       int `json:"excluded"        db:"excluded"`
}

// Run records a single pipeline execution.
type Run struct {
	ID          string          `json:"id"                     db:"id"`
	Source      string          `json:"source"                 db:"source"`
	Status      string          `json:"status"                 db:"status"`
	StartedAt   time.Time       `json:"started_at"             db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	ErrorText   string          `json:"error_text,omitempty"   db:"error_text"`
	Config      json.RawMessage `json:"config,omitempty"       db:"config"`
	Counts      RunCounts       `json:"counts"                 db:"counts"`
	Summary     []GradeSummary  `json:"summary,omitempty"      db:"summary"`
	Thresholds  *ThresholdTable `json:"thresholds,omitempty"   db:"thresholds"`
}

// Listing outcome constants for persisted run listings.
const (
	OutcomeTier       = "tier"
	OutcomeUnassigned = "unassigned"
	OutcomeExcluded   = "excluded"
	OutcomeError      = "error"
)

// RunListing is a listing with its final outcome within a run.
type RunListing struct {
	RunID       string      `json:"run_id"                 db:"run_id"`
	Listing     Listing     `json:"listing"`
	Outcome     string      `json:"outcome"                db:"outcome"`
	TierIndex   *int        `json:"tier_index,omitempty"   db:"tier_index"`
	TierLabel   string      `json:"tier_label,omitempty"   db:"tier_label"`
	ErrorReason ErrorReason `json:"error_reason,omitempty" db:"error_reason"`
}
