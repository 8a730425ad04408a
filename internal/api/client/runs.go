package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// RunList is a page of runs.
type RunList struct {
	Runs   []domain.Run `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// RunListingList is a page of run listings.
type RunListingList struct {
	Listings []domain.RunListing `json:"listings"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

// TriggerResult is the outcome of a triggered run.
type TriggerResult struct {
	Run      domain.Run `json:"run"`
	Reports  []string   `json:"reports"`
	Notified int        `json:"notified"`
}

// RunFilter holds the optional filters for ListRuns.
type RunFilter struct {
	Status string
	Source string
	Limit  int
	Offset int
}

// ListingFilter holds the optional filters for ListRunListings. Tier is
// ignored when negative.
type ListingFilter struct {
	Tier    int
	Outcome string
	Grade   string
	OrderBy string
	Limit   int
	Offset  int
}

// ListRuns returns runs newest first.
func (c *Client) ListRuns(ctx context.Context, f RunFilter) (*RunList, error) {
	q := url.Values{}
	setString(q, "status", f.Status)
	setString(q, "source", f.Source)
	setInt(q, "limit", f.Limit)
	setInt(q, "offset", f.Offset)

	var out RunList
	if err := c.get(ctx, withQuery("/api/v1/runs", q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRun returns a single run.
func (c *Client) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	var run domain.Run
	if err := c.get(ctx, fmt.Sprintf("/api/v1/runs/%s", url.PathEscape(id)), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRunListings returns the listings of a run with their outcomes.
func (c *Client) ListRunListings(ctx context.Context, id string, f ListingFilter) (*RunListingList, error) {
	q := url.Values{}
	if f.Tier >= 0 {
		q.Set("tier", strconv.Itoa(f.Tier))
	}
	setString(q, "outcome", f.Outcome)
	setString(q, "grade", f.Grade)
	setString(q, "order_by", f.OrderBy)
	setInt(q, "limit", f.Limit)
	setInt(q, "offset", f.Offset)

	var out RunListingList
	path := withQuery(fmt.Sprintf("/api/v1/runs/%s/listings", url.PathEscape(id)), q)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerRun runs the server's engine once over its configured source.
func (c *Client) TriggerRun(ctx context.Context) (*TriggerResult, error) {
	var out TriggerResult
	if err := c.post(ctx, "/api/v1/runs", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
