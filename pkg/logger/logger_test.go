package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "upper case", input: "DEBUG", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "warning alias", input: " warning ", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "unknown defaults to info", input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	require.NotNil(t, logger.New("info", "text"))
}

func TestNewWithWriter_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{name: "text", format: "text", want: []string{"level=INFO", "run_id=r1", "analysis done"}},
		{name: "json", format: "json", want: []string{`"level":"INFO"`, `"run_id":"r1"`, `"msg":"analysis done"`}},
		{name: "json any case", format: "JSON", want: []string{`"msg":"analysis done"`}},
		{name: "unknown falls back to text", format: "logfmt", want: []string{"msg=\"analysis done\""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger.NewWithWriter(&buf, "info", tt.format).Info("analysis done", "run_id", "r1")

			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		level      string
		logFunc    func(*slog.Logger)
		wantOutput bool
	}{
		{
			name:       "debug visible at debug",
			level:      "debug",
			logFunc:    func(l *slog.Logger) { l.Debug("tier claimed") },
			wantOutput: true,
		},
		{
			name:       "debug suppressed at info",
			level:      "info",
			logFunc:    func(l *slog.Logger) { l.Debug("tier claimed") },
			wantOutput: false,
		},
		{
			name:       "info suppressed at warn",
			level:      "warn",
			logFunc:    func(l *slog.Logger) { l.Info("tier claimed") },
			wantOutput: false,
		},
		{
			name:       "error visible at warn",
			level:      "warn",
			logFunc:    func(l *slog.Logger) { l.Error("tier claimed") },
			wantOutput: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.logFunc(logger.NewWithWriter(&buf, tt.level, "text"))

			if tt.wantOutput {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNewWithWriter_DebugAddsSource(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger.NewWithWriter(&buf, "debug", "text").Debug("x")
	assert.Contains(t, buf.String(), "source=")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	l := logger.Discard()
	require.NotNil(t, l)
	assert.False(t, l.Enabled(t.Context(), slog.LevelError))
	assert.Same(t, l, logger.OrDiscard(l))
	assert.NotNil(t, logger.OrDiscard(nil))
}
