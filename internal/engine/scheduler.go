package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/market-suggest/internal/ingest"
	"github.com/donaldgifford/market-suggest/internal/metrics"
	"github.com/donaldgifford/market-suggest/internal/store"
	"github.com/donaldgifford/market-suggest/pkg/logger"
)

// JobSource is the scheduler lock name of the periodic source run.
const JobSource = "source"

// Scheduler runs the engine over the newest source table on a fixed
// interval. When a store is configured, a database lock keeps replicas
// from running the same tick twice.
type Scheduler struct {
	cron     *cron.Cron
	engine   *Engine
	store    store.Store
	log      *slog.Logger
	holder   string
	interval time.Duration

	sourceEntryID cron.EntryID
}

// NewScheduler creates a Scheduler that runs eng every interval. s may be nil.
func NewScheduler(
	eng *Engine,
	s store.Store,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid source interval %s", interval)
	}

	c := cron.New(cron.WithChain(jobWrappers(log)...))

	host, _ := os.Hostname()
	sched := &Scheduler{
		cron:     c,
		engine:   eng,
		store:    s,
		log:      log,
		holder:   host + "/" + uuid.NewString(),
		interval: interval,
	}

	id, err := c.AddFunc("@every "+interval.String(), sched.runSource)
	if err != nil {
		return nil, fmt.Errorf("scheduling source run: %w", err)
	}
	sched.sourceEntryID = id

	return sched, nil
}

// jobWrappers recovers job panics into the log and skips a tick while the
// previous one is still running.
func jobWrappers(log *slog.Logger) []cron.JobWrapper {
	cl := cron.PrintfLogger(slog.NewLogLogger(logger.OrDiscard(log).Handler(), slog.LevelError))
	return []cron.JobWrapper{
		cron.Recover(cl),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	}
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "interval", s.interval)
	s.cron.Start()
	s.SyncNextRunTimestamp()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// SyncNextRunTimestamp publishes the next scheduled run time.
func (s *Scheduler) SyncNextRunTimestamp() {
	next := s.cron.Entry(s.sourceEntryID).Next
	if !next.IsZero() {
		metrics.SchedulerNextRunTimestamp.Set(float64(next.Unix()))
	}
}

func (s *Scheduler) runSource() {
	defer s.SyncNextRunTimestamp()
	s.RunSource(context.Background())
}

// RunSource executes one scheduled run. It is a no-op when another replica
// holds the lock, a run is already executing, or there is no source file.
func (s *Scheduler) RunSource(ctx context.Context) {
	if s.store != nil {
		ok, err := s.store.AcquireSchedulerLock(ctx, JobSource, s.holder, s.interval)
		if err != nil {
			s.log.Error("acquiring scheduler lock failed", "error", err)
			return
		}
		if !ok {
			s.log.Debug("scheduled run skipped, lock held elsewhere")
			return
		}
		defer func() {
			if err := s.store.ReleaseSchedulerLock(context.WithoutCancel(ctx), JobSource, s.holder); err != nil {
				s.log.Warn("releasing scheduler lock failed", "error", err)
			}
		}()
	}

	s.log.Info("scheduled run starting")
	rep, err := s.engine.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.log.Info("scheduled run skipped, run in progress")
	case errors.Is(err, ingest.ErrNoSource):
		s.log.Warn("scheduled run skipped, no source file", "error", err)
	case err != nil:
		s.log.Error("scheduled run failed", "error", err)
	default:
		s.log.Info("scheduled run finished", "run_id", rep.Run.ID)
	}
}
