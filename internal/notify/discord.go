package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/donaldgifford/market-suggest/internal/report"
)

const (
	colorGreen  = 0x2ECC71 // first tier
	colorYellow = 0xF1C40F // second tier
	colorOrange = 0xE67E22 // later tiers
)

// Discord embed limits.
const (
	maxEmbedDescription = 4096
	maxEmbedFields      = 25
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...Option) *DiscordNotifier {
	o := applyOptions(opts)
	return &DiscordNotifier{webhookURL: webhookURL, client: o.client}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordFooter      `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// SendTier sends a tier as a single Discord embed.
func (d *DiscordNotifier) SendTier(ctx context.Context, msg *TierMessage) error {
	return d.post(ctx, discordWebhookPayload{Embeds: []discordEmbed{buildEmbed(msg)}})
}

func buildEmbed(msg *TierMessage) discordEmbed {
	embed := discordEmbed{
		Title: report.TierTitle(msg.Tier),
		Color: tierColor(msg.Tier.Index),
		Fields: []discordEmbedField{
			{Name: "Discount", Value: fmt.Sprintf("%g%%", msg.Tier.Rate*100), Inline: true},
			{Name: "Listings", Value: fmt.Sprintf("%d", len(msg.Tier.Listings)), Inline: true},
		},
	}
	if msg.RunID != "" {
		embed.Footer = &discordFooter{Text: "run " + msg.RunID}
	}

	var b strings.Builder
	for i, l := range msg.Tier.Listings {
		line := report.ListingLine(l)
		if b.Len()+len(line)+1 > maxEmbedDescription-32 {
			fmt.Fprintf(&b, "... and %d more", len(msg.Tier.Listings)-i)
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	embed.Description = strings.TrimSuffix(b.String(), "\n")

	if msg.Source != "" && len(embed.Fields) < maxEmbedFields {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "Source", Value: msg.Source})
	}
	return embed
}

func tierColor(index int) int {
	switch index {
	case 0:
		return colorGreen
	case 1:
		return colorYellow
	default:
		return colorOrange
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	return postJSON(ctx, d.client, BackendDiscord, d.webhookURL, payload)
}
