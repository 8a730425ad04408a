// Package engine runs the listing pipeline end to end: it resolves a source
// table, analyzes it, writes reports, records the run, and delivers tiers.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/market-suggest/internal/ingest"
	"github.com/donaldgifford/market-suggest/internal/metrics"
	"github.com/donaldgifford/market-suggest/internal/notify"
	"github.com/donaldgifford/market-suggest/internal/report"
	"github.com/donaldgifford/market-suggest/internal/store"
	"github.com/donaldgifford/market-suggest/pkg/logger"
	"github.com/donaldgifford/market-suggest/pkg/pipeline"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

const tracerName = "github.com/donaldgifford/market-suggest/internal/engine"

// ErrRunInProgress is returned when a run is requested while another one
// is still executing.
var ErrRunInProgress = errors.New("run already in progress")

// Engine orchestrates ingestion, analysis, reporting, persistence, and
// delivery. The store, report writer, and dispatcher are optional.
type Engine struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	reports    *report.Writer
	cfg        pipeline.Config
	source     ingest.Source
	log        *slog.Logger
	tracer     trace.Tracer
	newID      func() string

	running atomic.Bool
}

// NewEngine creates a new Engine with injected dependencies. s and d may be
// nil to run without history or delivery.
func NewEngine(
	s store.Store,
	d *notify.Dispatcher,
	cfg pipeline.Config,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:      s,
		dispatcher: d,
		cfg:        cfg,
		log:        slog.Default(),
		tracer:     otel.Tracer(tracerName),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = logger.OrDiscard(l)
	}
}

// WithReports enables report files written by w.
func WithReports(w *report.Writer) EngineOption {
	return func(e *Engine) {
		e.reports = w
	}
}

// WithSource sets where RunOnce looks for the listings table.
func WithSource(src ingest.Source) EngineOption {
	return func(e *Engine) {
		e.source = src
	}
}

// WithTracer sets the tracer used for run spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		e.newID = fn
	}
}

// RunReport is the outcome of one engine run.
type RunReport struct {
	Run      domain.Run       `json:"run"`
	Result   *pipeline.Result `json:"result,omitempty"`
	Reports  []string         `json:"reports,omitempty"`
	Notified int              `json:"notified"`
}

// Config returns the pipeline configuration the engine runs with.
func (eng *Engine) Config() pipeline.Config {
	return eng.cfg
}

// Running reports whether a run is currently executing.
func (eng *Engine) Running() bool {
	return eng.running.Load()
}

// RunOnce resolves the configured source and runs the pipeline over it.
func (eng *Engine) RunOnce(ctx context.Context) (*RunReport, error) {
	path, err := eng.source.Resolve()
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues(domain.RunStatusFailed).Inc()
		return nil, fmt.Errorf("resolving source: %w", err)
	}
	return eng.RunFile(ctx, path)
}

// RunFile reads the listings table at path and runs the pipeline over it.
func (eng *Engine) RunFile(ctx context.Context, path string) (*RunReport, error) {
	raw, err := ingest.ReadFile(path)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues(domain.RunStatusFailed).Inc()
		return nil, err
	}
	return eng.Analyze(ctx, path, raw)
}

// Analyze runs the pipeline over raw rows labelled with source. Only one
// run executes at a time; a concurrent call returns ErrRunInProgress.
//
// A pipeline or report failure marks the run failed and returns the partial
// report together with the error. Delivery failures are logged only.
func (eng *Engine) Analyze(
	ctx context.Context,
	source string,
	raw []domain.RawListing,
) (*RunReport, error) {
	if !eng.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer eng.running.Store(false)

	start := time.Now()
	ctx, span := eng.tracer.Start(ctx, "engine.Analyze",
		trace.WithAttributes(attribute.String("source", source)))
	defer span.End()

	rep := &RunReport{Run: domain.Run{
		ID:        eng.newID(),
		Source:    source,
		Status:    domain.RunStatusRunning,
		StartedAt: start,
	}}
	if cfg, err := json.Marshal(eng.cfg); err == nil {
		rep.Run.Config = cfg
	}
	span.SetAttributes(attribute.String("run_id", rep.Run.ID))
	log := eng.log.With("run_id", rep.Run.ID, "source", source)

	if eng.store != nil {
		if err := eng.store.CreateRun(ctx, &rep.Run); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "creating run")
			metrics.PipelineRunsTotal.WithLabelValues(domain.RunStatusFailed).Inc()
			return nil, fmt.Errorf("creating run: %w", err)
		}
	}
	log.Info("run started", "rows", len(raw))

	res, err := eng.execute(ctx, raw)
	rep.Result = res
	if err != nil {
		return rep, eng.fail(ctx, span, log, rep, err)
	}

	if eng.reports != nil {
		paths, err := eng.reports.Write(rep.Run.ID, res)
		rep.Reports = paths
		metrics.ReportsWrittenTotal.Add(float64(len(paths)))
		if err != nil {
			return rep, eng.fail(ctx, span, log, rep, fmt.Errorf("writing reports: %w", err))
		}
	}

	completed := time.Now()
	rep.Run.Status = domain.RunStatusCompleted
	rep.Run.CompletedAt = &completed
	rep.Run.Counts = res.Counts
	rep.Run.Summary = res.Summary
	rep.Run.Thresholds = res.Thresholds

	outcomes := res.Outcomes(rep.Run.ID)
	if err := eng.persist(ctx, rep, outcomes); err != nil {
		return rep, eng.fail(ctx, span, log, rep, err)
	}

	recordRun(res, outcomes, start)

	if eng.dispatcher != nil && res.Classification != nil {
		sent, err := eng.dispatcher.Deliver(ctx, rep.Run.ID, source, res.Classification.Tiers)
		rep.Notified = sent
		if err != nil {
			log.Warn("tier delivery incomplete", "sent", sent, "error", err)
		}
	}

	span.SetAttributes(
		attribute.Int("listings.total", res.Counts.Total),
		attribute.Int("listings.tiered", res.Counts.Tiered),
	)
	log.Info("run completed",
		"total", res.Counts.Total,
		"inliers", res.Counts.Inliers,
		"outliers", res.Counts.Outliers,
		"tiered", res.Counts.Tiered,
		"unassigned", res.Counts.Unassigned,
		"reports", len(rep.Reports),
		"notified", rep.Notified,
		"duration", time.Since(start),
	)
	return rep, nil
}

// execute runs the pure pipeline inside its own span.
func (eng *Engine) execute(ctx context.Context, raw []domain.RawListing) (*pipeline.Result, error) {
	_, span := eng.tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.Int("rows", len(raw))))
	defer span.End()

	res, err := pipeline.Run(raw, eng.cfg)
	if err != nil {
		span.RecordError(err)
		var se *pipeline.StageError
		if errors.As(err, &se) {
			span.SetAttributes(attribute.String("stage", string(se.Stage)))
		}
		span.SetStatus(codes.Error, "pipeline failed")
	}
	return res, err
}

// persist stores the per-listing outcomes and completes the run record.
func (eng *Engine) persist(ctx context.Context, rep *RunReport, outcomes []domain.RunListing) error {
	if eng.store == nil {
		return nil
	}
	if _, err := eng.store.InsertRunListings(ctx, outcomes); err != nil {
		return fmt.Errorf("storing run listings: %w", err)
	}
	if err := eng.store.CompleteRun(ctx, rep.Run.ID, &store.RunResult{
		Status:     rep.Run.Status,
		Counts:     rep.Run.Counts,
		Summary:    rep.Run.Summary,
		Thresholds: rep.Run.Thresholds,
	}); err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	return nil
}

// fail records a failed run and returns err.
func (eng *Engine) fail(
	ctx context.Context,
	span trace.Span,
	log *slog.Logger,
	rep *RunReport,
	err error,
) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.PipelineRunsTotal.WithLabelValues(domain.RunStatusFailed).Inc()

	completed := time.Now()
	rep.Run.Status = domain.RunStatusFailed
	rep.Run.ErrorText = err.Error()
	rep.Run.CompletedAt = &completed
	if rep.Result != nil {
		rep.Run.Counts = rep.Result.Counts
		rep.Run.Summary = rep.Result.Summary
		rep.Run.Thresholds = rep.Result.Thresholds
	}

	if eng.store != nil {
		if serr := eng.store.CompleteRun(context.WithoutCancel(ctx), rep.Run.ID, &store.RunResult{
			Status:     rep.Run.Status,
			ErrorText:  rep.Run.ErrorText,
			Counts:     rep.Run.Counts,
			Summary:    rep.Run.Summary,
			Thresholds: rep.Run.Thresholds,
		}); serr != nil {
			log.Error("recording failed run", "error", serr)
		}
	}

	log.Error("run failed", "error", err)
	return err
}

// recordRun updates the pipeline metrics after a completed run.
func recordRun(res *pipeline.Result, outcomes []domain.RunListing, start time.Time) {
	metrics.PipelineRunsTotal.WithLabelValues(domain.RunStatusCompleted).Inc()
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	metrics.LastRunTimestamp.SetToCurrentTime()

	for i := range outcomes {
		metrics.PipelineListingsTotal.WithLabelValues(outcomes[i].Outcome).Inc()
	}

	metrics.GradeMedianPrice.Reset()
	for _, s := range res.Summary {
		if s.Count > 0 {
			metrics.GradeMedianPrice.WithLabelValues(string(s.Grade)).Set(s.Median)
		}
	}

	metrics.TierListings.Reset()
	if res.Classification != nil {
		for _, t := range res.Classification.Tiers {
			metrics.TierListings.WithLabelValues(strconv.Itoa(t.Index)).Set(float64(len(t.Listings)))
		}
	}
}

// RecoverStaleRuns marks runs left running by a previous process as failed.
func (eng *Engine) RecoverStaleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	if eng.store == nil {
		return 0, nil
	}
	n, err := eng.store.RecoverStaleRuns(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		eng.log.Warn("recovered stale runs", "count", n)
	}
	return n, nil
}
