package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/internal/api/handlers"
	"github.com/donaldgifford/market-suggest/internal/engine"
	"github.com/donaldgifford/market-suggest/internal/ingest"
	"github.com/donaldgifford/market-suggest/pkg/pipeline"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// mockRunner implements Runner for testing.
type mockRunner struct {
	report *engine.RunReport
	err    error
	called bool
}

func (m *mockRunner) RunOnce(_ context.Context) (*engine.RunReport, error) {
	m.called = true
	return m.report, m.err
}

func TestTrigger_Success(t *testing.T) {
	t.Parallel()

	r := &mockRunner{report: &engine.RunReport{
		Run:      domain.Run{ID: "run-1", Status: domain.RunStatusCompleted},
		Reports:  []string{"data/runs/run-1/cleaned.csv"},
		Notified: 2,
	}}

	_, api := humatest.New(t)
	handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(r))

	resp := api.Post("/api/v1/runs")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, r.called)
	assert.Contains(t, resp.Body.String(), `"id":"run-1"`)
	assert.Contains(t, resp.Body.String(), "cleaned.csv")
	assert.Contains(t, resp.Body.String(), `"notified":2`)
}

func TestTrigger_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "run in progress",
			err:        engine.ErrRunInProgress,
			wantStatus: http.StatusConflict,
			wantBody:   "already in progress",
		},
		{
			name:       "no source table",
			err:        fmt.Errorf("resolving source: %w", ingest.ErrNoSource),
			wantStatus: http.StatusNotFound,
			wantBody:   "no listings source found",
		},
		{
			name:       "stage failure",
			err:        &pipeline.StageError{Stage: pipeline.StageOutliers, Err: errors.New("bad mode")},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "outliers stage: bad mode",
		},
		{
			name:       "store failure",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "run failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(&mockRunner{err: tt.err}))

			resp := api.Post("/api/v1/runs")
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}
