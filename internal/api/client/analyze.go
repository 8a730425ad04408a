package client

import (
	"context"

	"github.com/donaldgifford/market-suggest/pkg/pipeline"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// AnalyzeRequest is the body of an ad hoc analysis. A nil Config uses the
// server's pipeline configuration.
type AnalyzeRequest struct {
	Listings []domain.RawListing `json:"listings"`
	Config   *pipeline.Config    `json:"config,omitempty"`
}

// Analyze runs the server's pipeline over rows without recording a run.
func (c *Client) Analyze(ctx context.Context, req *AnalyzeRequest) (*pipeline.Result, error) {
	var out pipeline.Result
	if err := c.post(ctx, "/api/v1/analyze", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
