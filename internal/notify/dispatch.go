package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/time/rate"

	"github.com/donaldgifford/market-suggest/pkg/logger"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Dispatcher sends the tiers of a run one message at a time, paced by a
// rate limiter. Failed messages are not retried.
type Dispatcher struct {
	notifier Notifier
	limiter  *rate.Limiter
	tiers    []int
	log      *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTiers restricts delivery to the given tier indexes.
func WithTiers(indexes []int) DispatcherOption {
	return func(d *Dispatcher) { d.tiers = slices.Clone(indexes) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// NewDispatcher creates a Dispatcher sending at most perSecond messages per
// second with the given burst.
func NewDispatcher(n Notifier, perSecond float64, burst int, opts ...DispatcherOption) *Dispatcher {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	d := &Dispatcher{
		notifier: n,
		limiter:  rate.NewLimiter(limit, burst),
		log:      logger.Discard(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Deliver sends one message per non-empty tier, in tier order. It returns
// the number of messages sent; a failed message is logged and delivery
// continues with the next tier. The returned error reports the last
// failure, or a cancelled context.
func (d *Dispatcher) Deliver(ctx context.Context, runID, source string, tiers []domain.Tier) (int, error) {
	var (
		sent    int
		lastErr error
	)
	for i := range tiers {
		t := tiers[i]
		if len(t.Listings) == 0 {
			continue
		}
		if len(d.tiers) > 0 && !slices.Contains(d.tiers, t.Index) {
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return sent, fmt.Errorf("waiting to send tier %d: %w", t.Index, err)
		}

		msg := &TierMessage{RunID: runID, Source: source, Tier: t}
		if err := d.notifier.SendTier(ctx, msg); err != nil {
			d.log.Warn("tier notification failed",
				"run_id", runID, "tier", t.Label, "error", err)
			lastErr = fmt.Errorf("sending tier %d: %w", t.Index, err)
			continue
		}
		sent++
		d.log.Info("tier notification sent",
			"run_id", runID, "tier", t.Label, "count", len(t.Listings))
	}
	return sent, lastErr
}
