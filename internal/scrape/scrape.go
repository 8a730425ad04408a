// Package scrape fetches marketplace item pages and extracts listing rows
// from them.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/market-suggest/internal/metrics"
	"github.com/donaldgifford/market-suggest/pkg/logger"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// FailedText fills the text fields of a row whose page could not be fetched
// or parsed. It normalizes to an unknown price and the error grade.
const FailedText = "エラー"

// ErrStatus is returned by fetchers for non-success HTTP responses.
var ErrStatus = errors.New("unexpected response status")

// Fetcher retrieves the HTML document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Mode() string
}

// Scraper turns a list of item URLs into listing rows.
type Scraper struct {
	fetcher   Fetcher
	selectors Selectors
	log       *slog.Logger
	limit     int
}

// Option configures the Scraper.
type Option func(*Scraper)

// WithLogger sets the scraper logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) {
		s.log = logger.OrDiscard(l)
	}
}

// WithLimit caps the number of URLs scraped; 0 means no cap.
func WithLimit(n int) Option {
	return func(s *Scraper) {
		s.limit = n
	}
}

// New creates a Scraper.
func New(f Fetcher, sel Selectors, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:   f,
		selectors: sel,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches each URL in order and returns one row per URL. Index is
// 1-based. A page that fails is kept as a row of FailedText fields so the
// position is preserved; the returned count is the number of such failures.
// Only context cancellation stops the scrape early.
func (s *Scraper) Scrape(ctx context.Context, urls []string) ([]domain.RawListing, int, error) {
	if s.limit > 0 && len(urls) > s.limit {
		urls = urls[:s.limit]
	}

	rows := make([]domain.RawListing, 0, len(urls))
	failed := 0
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return rows, failed, err
		}

		row, err := s.scrapeOne(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return rows, failed, ctx.Err()
			}
			s.log.Warn("scraping item failed", "url", u, "error", err)
			failed++
			row = domain.RawListing{
				Name:      FailedText,
				Price:     FailedText,
				Condition: FailedText,
				URL:       u,
			}
		}
		row.Index = i + 1
		rows = append(rows, row)
	}

	s.log.Info("scrape complete", "count", len(rows), "failed", failed)
	return rows, failed, nil
}

func (s *Scraper) scrapeOne(ctx context.Context, u string) (domain.RawListing, error) {
	start := time.Now()
	body, err := s.fetcher.Fetch(ctx, u)
	metrics.ScrapeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ScrapeFetchesTotal.WithLabelValues(s.fetcher.Mode(), "error").Inc()
		return domain.RawListing{}, fmt.Errorf("fetching %s: %w", u, err)
	}

	item, err := Parse(body, s.selectors)
	if err != nil {
		metrics.ScrapeFetchesTotal.WithLabelValues(s.fetcher.Mode(), "parse_error").Inc()
		return domain.RawListing{}, fmt.Errorf("parsing %s: %w", u, err)
	}
	metrics.ScrapeFetchesTotal.WithLabelValues(s.fetcher.Mode(), "ok").Inc()

	item.URL = u
	return item, nil
}
