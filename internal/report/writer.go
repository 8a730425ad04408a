// Package report writes run results to disk: CSV tables, a price
// distribution chart and the plain-text tier rendering used for chat
// delivery.
package report

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/donaldgifford/market-suggest/pkg/logger"
	"github.com/donaldgifford/market-suggest/pkg/pipeline"
)

// ErrInvalidRunID is returned for a run ID that is not a single path element.
var ErrInvalidRunID = errors.New("invalid run id")

// Writer writes the reports of a run into Dir/<run-id>/.
type Writer struct {
	dir    string
	charts bool
	log    *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithCharts enables the distribution chart.
func WithCharts(enabled bool) Option {
	return func(w *Writer) { w.charts = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.log = l }
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir, log: logger.Discard()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// RunDir returns the directory holding the reports of runID.
func (w *Writer) RunDir(runID string) string {
	return filepath.Join(w.dir, runID)
}

// Write writes every report that res has data for and returns the paths
// written. Reports of stages that did not run are skipped. Each file is
// written atomically; the first failure stops the write.
func (w *Writer) Write(runID string, res *pipeline.Result) ([]string, error) {
	if runID == "" || runID != filepath.Base(runID) || runID == "." || runID == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	if res == nil {
		return nil, pipeline.ErrMissingInput
	}

	dir := w.RunDir(runID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating run dir: %w", err)
	}

	type table struct {
		name string
		rows func() ([]string, [][]string)
	}
	tables := []table{
		{FileCleaned, func() ([]string, [][]string) { return CleanedRows(res.Listings) }},
	}
	if res.Summary != nil {
		tables = append(tables,
			table{FileStatistics, func() ([]string, [][]string) { return StatisticsRows(res.Summary) }},
			table{FileAverages, func() ([]string, [][]string) { return AverageRows(roundedMeans(res)) }},
			table{FileErrors, func() ([]string, [][]string) { return ErrorRows(res.Errors) }},
		)
	}
	if res.Thresholds != nil {
		tables = append(tables,
			table{FileThresholds, func() ([]string, [][]string) { return ThresholdRows(res.Thresholds) }},
		)
	}
	if res.Classification != nil {
		tables = append(tables,
			table{FileTiers, func() ([]string, [][]string) { return TierRows(res.Outcomes(runID)) }},
		)
	}

	written := make([]string, 0, len(tables)+1)
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		header, rows := t.rows()
		if err := WriteFileAtomic(path, func(f io.Writer) error {
			return writeCSV(f, header, rows)
		}); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if w.charts {
		path := filepath.Join(dir, FileDistribution)
		if err := WriteFileAtomic(path, func(f io.Writer) error {
			return Distribution(f, res.Listings)
		}); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	w.log.Info("reports written", "run_id", runID, "dir", dir, "files", len(written))
	return written, nil
}
