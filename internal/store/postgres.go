package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
// A non-positive poolSize uses the default.
func NewPostgresStore(ctx context.Context, connString string, poolSize int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	cfg.MaxConns = int32(min(poolSize, 1<<15)) //nolint:gosec // bounded above

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// CreateRun inserts a run in the running state and sets its StartedAt.
func (s *PostgresStore) CreateRun(ctx context.Context, r *domain.Run) error {
	status := r.Status
	if status == "" {
		status = domain.RunStatusRunning
	}

	var cfg []byte
	if len(r.Config) > 0 {
		cfg = r.Config
	}

	args := pgx.NamedArgs{
		"id":     r.ID,
		"source": r.Source,
		"status": status,
		"config": cfg,
	}
	if err := s.pool.QueryRow(ctx, queryCreateRun, args).Scan(&r.StartedAt); err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	r.Status = status
	return nil
}

// CompleteRun records the final status, counts, and statistics of a run.
func (s *PostgresStore) CompleteRun(ctx context.Context, id string, res *RunResult) error {
	counts, err := json.Marshal(res.Counts)
	if err != nil {
		return fmt.Errorf("marshaling counts: %w", err)
	}
	summary, err := marshalNullable(res.Summary, res.Summary == nil)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	thresholds, err := marshalNullable(res.Thresholds, res.Thresholds == nil)
	if err != nil {
		return fmt.Errorf("marshaling thresholds: %w", err)
	}

	tag, err := s.pool.Exec(ctx, queryCompleteRun, pgx.NamedArgs{
		"id":         id,
		"status":     res.Status,
		"error_text": res.ErrorText,
		"counts":     counts,
		"summary":    summary,
		"thresholds": thresholds,
	})
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun returns a run with its summary and thresholds.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	var (
		r                        domain.Run
		cfg, counts, sum, thresh []byte
	)
	err := s.pool.QueryRow(ctx, queryGetRun, id).Scan(
		&r.ID, &r.Source, &r.Status, &r.StartedAt, &r.CompletedAt,
		&r.ErrorText, &cfg, &counts, &sum, &thresh,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}

	if string(cfg) != "null" {
		r.Config = json.RawMessage(cfg)
	}
	if err := json.Unmarshal(counts, &r.Counts); err != nil {
		return nil, fmt.Errorf("decoding run counts: %w", err)
	}
	if err := json.Unmarshal(sum, &r.Summary); err != nil {
		return nil, fmt.Errorf("decoding run summary: %w", err)
	}
	if err := json.Unmarshal(thresh, &r.Thresholds); err != nil {
		return nil, fmt.Errorf("decoding run thresholds: %w", err)
	}
	return &r, nil
}

// ListRuns returns runs newest first and the total matching the filters.
// Summary and thresholds are omitted; use GetRun for the full record.
func (s *PostgresStore) ListRuns(ctx context.Context, q *RunQuery) ([]domain.Run, int, error) {
	if q == nil {
		q = &RunQuery{}
	}
	dataSQL, countSQL, args := q.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting runs: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			r      domain.Run
			counts []byte
		)
		if err := rows.Scan(
			&r.ID, &r.Source, &r.Status, &r.StartedAt, &r.CompletedAt,
			&r.ErrorText, &counts,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning run: %w", err)
		}
		if err := json.Unmarshal(counts, &r.Counts); err != nil {
			return nil, 0, fmt.Errorf("decoding run counts: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, total, rows.Err()
}

// RecoverStaleRuns marks runs stuck in the running state for longer than
// olderThan as failed. It returns the number of runs recovered.
func (s *PostgresStore) RecoverStaleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, queryMarkStaleRunsFailed, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("recovering stale runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteRunsBefore removes runs started before the cutoff together with
// their listings.
func (s *PostgresStore) DeleteRunsBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, queryDeleteRunsBefore, before)
	if err != nil {
		return 0, fmt.Errorf("deleting old runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// InsertRunListings bulk-loads run listings with COPY.
func (s *PostgresStore) InsertRunListings(ctx context.Context, listings []domain.RunListing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"run_listings"},
		runListingColumns,
		pgx.CopyFromSlice(len(listings), func(i int) ([]any, error) {
			rl := &listings[i]
			l := &rl.Listing
			return []any{
				rl.RunID, l.SequenceIndex, l.Name, l.Price, string(l.Grade), l.RawCondition,
				l.PostedDate, l.URL, l.OutlierFlag, rl.Outcome, rl.TierIndex, rl.TierLabel,
				string(rl.ErrorReason), l.SourceIndex,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copying run listings: %w", err)
	}
	return int(n), nil
}

// ListRunListings returns the listings of one run and the total matching
// the filters.
func (s *PostgresStore) ListRunListings(
	ctx context.Context,
	q *RunListingQuery,
) ([]domain.RunListing, int, error) {
	dataSQL, countSQL, args := q.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting run listings: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying run listings: %w", err)
	}
	defer rows.Close()

	var out []domain.RunListing
	for rows.Next() {
		var rl domain.RunListing
		if err := scanRunListing(rows, &rl); err != nil {
			return nil, 0, fmt.Errorf("scanning run listing: %w", err)
		}
		out = append(out, rl)
	}
	return out, total, rows.Err()
}

// AcquireSchedulerLock takes the named lock for ttl unless another holder
// owns an unexpired lock.
func (s *PostgresStore) AcquireSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
	ttl time.Duration,
) (bool, error) {
	var name string
	err := s.pool.QueryRow(ctx, queryAcquireSchedulerLock,
		jobName, holder, time.Now().Add(ttl),
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}
	return true, nil
}

// ReleaseSchedulerLock drops the named lock if holder owns it.
func (s *PostgresStore) ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error {
	if _, err := s.pool.Exec(ctx, queryReleaseSchedulerLock, jobName, holder); err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

// scannable abstracts pgx.Row and pgx.Rows for reuse.
type scannable interface {
	Scan(dest ...any) error
}

func scanRunListing(row scannable, rl *domain.RunListing) error {
	l := &rl.Listing
	return row.Scan(
		&rl.RunID, &l.SequenceIndex, &l.Name, &l.Price, &l.Grade,
		&l.RawCondition, &l.PostedDate, &l.URL, &l.OutlierFlag,
		&rl.Outcome, &rl.TierIndex, &rl.TierLabel, &rl.ErrorReason,
		&l.SourceIndex,
	)
}

// marshalNullable encodes v as JSON, or returns nil for a SQL NULL.
func marshalNullable(v any, isNil bool) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}
