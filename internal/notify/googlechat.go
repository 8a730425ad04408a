package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/donaldgifford/market-suggest/internal/report"
)

// maxChatText keeps a Google Chat message under the API's text limit.
const maxChatText = 4000

// GoogleChatNotifier posts tiers to a Google Chat incoming webhook as plain
// text, one listing per line.
type GoogleChatNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewGoogleChatNotifier creates a new GoogleChatNotifier.
func NewGoogleChatNotifier(webhookURL string, opts ...Option) *GoogleChatNotifier {
	o := applyOptions(opts)
	return &GoogleChatNotifier{webhookURL: webhookURL, client: o.client}
}

type googleChatPayload struct {
	Text string `json:"text"`
}

// SendTier implements Notifier.
func (g *GoogleChatNotifier) SendTier(ctx context.Context, msg *TierMessage) error {
	return postJSON(ctx, g.client, BackendGoogleChat, g.webhookURL, googleChatPayload{
		Text: chatText(msg),
	})
}

// chatText renders msg, dropping trailing listings that would exceed
// maxChatText and noting how many were left out.
func chatText(msg *TierMessage) string {
	var b strings.Builder
	b.WriteString(report.TierTitle(msg.Tier))
	if msg.Source != "" {
		fmt.Fprintf(&b, "\nsource: %s", msg.Source)
	}

	for i, l := range msg.Tier.Listings {
		line := report.ListingLine(l)
		if b.Len()+len(line)+1 > maxChatText {
			fmt.Fprintf(&b, "\n... and %d more", len(msg.Tier.Listings)-i)
			break
		}
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}
