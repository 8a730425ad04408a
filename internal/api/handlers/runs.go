package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/market-suggest/internal/store"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// RunsProvider defines the store methods required by the runs handler.
type RunsProvider interface {
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, q *store.RunQuery) ([]domain.Run, int, error)
	ListRunListings(ctx context.Context, q *store.RunListingQuery) ([]domain.RunListing, int, error)
}

// RunsHandler handles run history endpoints.
type RunsHandler struct {
	store RunsProvider
}

// NewRunsHandler creates a new RunsHandler.
func NewRunsHandler(s RunsProvider) *RunsHandler {
	return &RunsHandler{store: s}
}

// --- Input/Output types ---

// ListRunsInput is the input for listing runs.
type ListRunsInput struct {
	Status string `query:"status" doc:"Filter by run status"            enum:"running,completed,failed,"`
	Source string `query:"source" doc:"Filter by source file path"`
	Limit  int    `query:"limit"  doc:"Number of results (default 50)" minimum:"0" maximum:"500"`
	Offset int    `query:"offset" doc:"Pagination offset"              minimum:"0"`
}

// ListRunsOutput is the response for listing runs.
type ListRunsOutput struct {
	Body struct {
		Runs   []domain.Run `json:"runs"`
		Total  int          `json:"total"`
		Limit  int          `json:"limit"`
		Offset int          `json:"offset"`
	}
}

// GetRunInput is the input for getting a single run.
type GetRunInput struct {
	ID string `path:"id" doc:"Run UUID"`
}

// GetRunOutput is the response for getting a single run.
type GetRunOutput struct {
	Body domain.Run
}

// ListRunListingsInput is the input for listing the listings of a run.
type ListRunListingsInput struct {
	ID      string `path:"id"       doc:"Run UUID"`
	Tier    int    `query:"tier"    doc:"Tier position; -1 for all" default:"-1" minimum:"-1"`
	Outcome string `query:"outcome" doc:"Filter by outcome"                      enum:"tier,unassigned,excluded,error,"`
	Grade   string `query:"grade"   doc:"Filter by condition grade"`
	Limit   int    `query:"limit"   doc:"Number of results (default 50)"         minimum:"0" maximum:"500"`
	Offset  int    `query:"offset"  doc:"Pagination offset"                      minimum:"0"`
	OrderBy string `query:"order_by" doc:"Sort field"                            enum:"sequence,price,"`
}

// ListRunListingsOutput is the response for listing run listings.
type ListRunListingsOutput struct {
	Body struct {
		Listings []domain.RunListing `json:"listings"`
		Total    int                 `json:"total"`
		Limit    int                 `json:"limit"`
		Offset   int                 `json:"offset"`
	}
}

// --- Handlers ---

// ListRuns returns runs newest first.
func (h *RunsHandler) ListRuns(ctx context.Context, input *ListRunsInput) (*ListRunsOutput, error) {
	q := &store.RunQuery{Limit: input.Limit, Offset: input.Offset}
	if input.Status != "" {
		q.Status = &input.Status
	}
	if input.Source != "" {
		q.Source = &input.Source
	}

	runs, total, err := h.store.ListRuns(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing runs failed: " + err.Error())
	}
	if runs == nil {
		runs = []domain.Run{}
	}

	resp := &ListRunsOutput{}
	resp.Body.Runs = runs
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset
	return resp, nil
}

// GetRun returns a single run with its statistics and thresholds.
func (h *RunsHandler) GetRun(ctx context.Context, input *GetRunInput) (*GetRunOutput, error) {
	run, err := h.store.GetRun(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, huma.Error404NotFound("run not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("getting run failed: " + err.Error())
	}
	return &GetRunOutput{Body: *run}, nil
}

// ListRunListings returns the listings of a run with their outcomes.
func (h *RunsHandler) ListRunListings(
	ctx context.Context,
	input *ListRunListingsInput,
) (*ListRunListingsOutput, error) {
	q := &store.RunListingQuery{
		RunID:   input.ID,
		Limit:   input.Limit,
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}
	if input.Tier >= 0 {
		q.TierIndex = &input.Tier
	}
	if input.Outcome != "" {
		q.Outcome = &input.Outcome
	}
	if input.Grade != "" {
		g := string(domain.ParseGrade(input.Grade))
		q.Grade = &g
	}

	listings, total, err := h.store.ListRunListings(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing run listings failed: " + err.Error())
	}
	if listings == nil {
		listings = []domain.RunListing{}
	}

	resp := &ListRunListingsOutput{}
	resp.Body.Listings = listings
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset
	return resp, nil
}

// RegisterRunRoutes registers run history endpoints with the Huma API.
func RegisterRunRoutes(api huma.API, h *RunsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs",
		Summary:     "List runs",
		Description: "Returns pipeline runs newest first with optional status and source filters.",
		Tags:        []string{"runs"},
	}, h.ListRuns)

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs/{id}",
		Summary:     "Get a run",
		Description: "Returns a run with its per-grade statistics and threshold table.",
		Tags:        []string{"runs"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetRun)

	huma.Register(api, huma.Operation{
		OperationID: "list-run-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/runs/{id}/listings",
		Summary:     "List run listings",
		Description: "Returns the listings of a run with their outcome, optionally limited to one tier.",
		Tags:        []string{"runs"},
	}, h.ListRunListings)
}
