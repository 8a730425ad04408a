package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/market-suggest/internal/engine"
	"github.com/donaldgifford/market-suggest/internal/ingest"
	"github.com/donaldgifford/market-suggest/pkg/pipeline"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Runner defines the interface for triggering a run over the configured
// source.
type Runner interface {
	RunOnce(ctx context.Context) (*engine.RunReport, error)
}

// TriggerHandler handles manual run requests.
type TriggerHandler struct {
	runner Runner
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(r Runner) *TriggerHandler {
	return &TriggerHandler{runner: r}
}

// TriggerOutput is the response body for a triggered run.
type TriggerOutput struct {
	Body struct {
		Run      domain.Run `json:"run"`
		Reports  []string   `json:"reports"`
		Notified int        `json:"notified" doc:"Tier messages delivered"`
	}
}

// Trigger runs the engine once over the newest source table.
func (h *TriggerHandler) Trigger(ctx context.Context, _ *struct{}) (*TriggerOutput, error) {
	rep, err := h.runner.RunOnce(ctx)
	if err != nil {
		var se *pipeline.StageError
		switch {
		case errors.Is(err, engine.ErrRunInProgress):
			return nil, huma.Error409Conflict("a run is already in progress")
		case errors.Is(err, ingest.ErrNoSource):
			return nil, huma.Error404NotFound(err.Error())
		case errors.As(err, &se):
			return nil, huma.Error422UnprocessableEntity(se.Error())
		default:
			return nil, huma.Error500InternalServerError("run failed: " + err.Error())
		}
	}

	resp := &TriggerOutput{}
	resp.Body.Run = rep.Run
	resp.Body.Reports = rep.Reports
	if resp.Body.Reports == nil {
		resp.Body.Reports = []string{}
	}
	resp.Body.Notified = rep.Notified
	return resp, nil
}

// RegisterTriggerRoutes registers the run trigger endpoint with the Huma API.
func RegisterTriggerRoutes(api huma.API, h *TriggerHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-run",
		Method:      http.MethodPost,
		Path:        "/api/v1/runs",
		Summary:     "Trigger a run",
		Description: "Runs the pipeline over the newest source table, writes reports, " +
			"records the run, and delivers the tiers.",
		Tags: []string{"runs"},
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, h.Trigger)
}
