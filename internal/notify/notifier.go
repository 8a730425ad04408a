// Package notify delivers discount tiers to chat webhooks.
package notify

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// Backend names used in metrics and logs.
const (
	BackendGoogleChat = "google_chat"
	BackendDiscord    = "discord"
)

// TierMessage is one tier of a run, delivered as a single chat message.
type TierMessage struct {
	RunID  string
	Source string
	Tier   domain.Tier
}

// Notifier delivers tier messages.
type Notifier interface {
	SendTier(ctx context.Context, msg *TierMessage) error
}

// Multi fans a message out to several notifiers. Every notifier is tried;
// failures are joined.
type Multi []Notifier

// SendTier implements Notifier.
func (m Multi) SendTier(ctx context.Context, msg *TierMessage) error {
	var errs []error
	for _, n := range m {
		if err := n.SendTier(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
