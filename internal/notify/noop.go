package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded messages. It is used
// when no chat backend is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards messages with a log line.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendTier logs and discards a tier message.
func (n *NoOpNotifier) SendTier(_ context.Context, msg *TierMessage) error {
	n.log.Debug("notification discarded (no backend configured)",
		"run_id", msg.RunID,
		"tier", msg.Tier.Label,
		"count", len(msg.Tier.Listings),
	)
	return nil
}
