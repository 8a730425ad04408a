package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/market-suggest/pkg/pipeline"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// AnalyzeHandler runs the pure pipeline over posted rows. Nothing is
// persisted, written, or delivered.
type AnalyzeHandler struct {
	cfg pipeline.Config
}

// NewAnalyzeHandler creates an AnalyzeHandler using cfg unless a request
// supplies its own configuration.
func NewAnalyzeHandler(cfg pipeline.Config) *AnalyzeHandler {
	return &AnalyzeHandler{cfg: cfg}
}

// AnalyzeInput is the request body for an ad hoc analysis.
type AnalyzeInput struct {
	Body struct {
		Listings []domain.RawListing `json:"listings" doc:"Listing rows with price and condition as text"`
		Config   *pipeline.Config    `json:"config,omitempty" doc:"Pipeline configuration; defaults to the server's"`
	}
}

// AnalyzeOutput is the full pipeline result.
type AnalyzeOutput struct {
	Body *pipeline.Result
}

// StageErrorModel is the 422 body returned when a configuration error stops
// the pipeline. Partial holds the outputs of the stages that completed.
type StageErrorModel struct {
	huma.ErrorModel
	Stage   pipeline.Stage   `json:"stage"`
	Partial *pipeline.Result `json:"partial,omitempty"`
}

func newStageError(se *pipeline.StageError, partial *pipeline.Result) *StageErrorModel {
	return &StageErrorModel{
		ErrorModel: huma.ErrorModel{
			Title:  http.StatusText(http.StatusUnprocessableEntity),
			Status: http.StatusUnprocessableEntity,
			Detail: se.Error(),
		},
		Stage:   se.Stage,
		Partial: partial,
	}
}

// Analyze runs every pipeline stage over the posted listings.
func (h *AnalyzeHandler) Analyze(_ context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	cfg := h.cfg
	if input.Body.Config != nil {
		cfg = *input.Body.Config
	}

	res, err := pipeline.Run(input.Body.Listings, cfg)
	if err != nil {
		var se *pipeline.StageError
		switch {
		case errors.Is(err, pipeline.ErrMissingInput):
			return nil, huma.Error400BadRequest("listings are required")
		case errors.As(err, &se):
			return nil, newStageError(se, res)
		default:
			return nil, huma.Error500InternalServerError("analysis failed: " + err.Error())
		}
	}

	return &AnalyzeOutput{Body: res}, nil
}

// RegisterAnalyzeRoutes registers the analyze endpoint with the Huma API.
func RegisterAnalyzeRoutes(api huma.API, h *AnalyzeHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze",
		Method:      http.MethodPost,
		Path:        "/api/v1/analyze",
		Summary:     "Analyze listings",
		Description: "Flags outliers, aggregates per-grade statistics, derives discount " +
			"thresholds, and classifies the posted listings into tiers.",
		Tags:   []string{"analyze"},
		Errors: []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, h.Analyze)
}
