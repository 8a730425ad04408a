// Package store defines the persistence abstraction for run history.
// The engine and API depend on the Store interface only, so they can be
// tested with mocks and run without a database at all.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunQuery defines optional filters for run listings.
type RunQuery struct {
	Status *string
	Source *string
	Limit  int // default 50
	Offset int
}

// RunListingQuery defines optional filters for the listings of one run.
type RunListingQuery struct {
	RunID     string
	Outcome   *string
	TierIndex *int
	Grade     *string
	Limit     int // default 50
	Offset    int
	OrderBy   string // "sequence", "price"
}

// RunResult is everything persisted when a run finishes.
type RunResult struct {
	Status     string
	ErrorText  string
	Counts     domain.RunCounts
	Summary    []domain.GradeSummary
	Thresholds *domain.ThresholdTable
}

// Store defines all data access operations for market-suggest.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, r *domain.Run) error
	CompleteRun(ctx context.Context, id string, res *RunResult) error
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, q *RunQuery) ([]domain.Run, int, error)
	RecoverStaleRuns(ctx context.Context, olderThan time.Duration) (int, error)
	DeleteRunsBefore(ctx context.Context, before time.Time) (int, error)

	// Run listings
	InsertRunListings(ctx context.Context, listings []domain.RunListing) (int, error)
	ListRunListings(ctx context.Context, q *RunListingQuery) ([]domain.RunListing, int, error)

	// Scheduler
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
