package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/internal/config"
	"github.com/donaldgifford/market-suggest/internal/notify"
	"github.com/donaldgifford/market-suggest/pkg/logger"
)

func TestBuildNotifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.NotificationsConfig
		wantNil bool
		wantLen int
	}{
		{name: "none enabled", wantNil: true},
		{
			name: "google chat only",
			cfg: config.NotificationsConfig{
				GoogleChat: config.WebhookConfig{Enabled: true, WebhookURL: "https://chat.example/hook"},
			},
			wantLen: 1,
		},
		{
			name: "both",
			cfg: config.NotificationsConfig{
				GoogleChat: config.WebhookConfig{Enabled: true, WebhookURL: "https://chat.example/hook"},
				Discord:    config.WebhookConfig{Enabled: true, WebhookURL: "https://discord.example/hook"},
			},
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := buildNotifier(&tt.cfg, logger.Discard())
			if tt.wantNil {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			if multi, ok := n.(notify.Multi); ok {
				assert.Len(t, multi, tt.wantLen)
			} else {
				assert.Equal(t, 1, tt.wantLen)
			}
		})
	}
}

func TestBuild_WithoutDatabase(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	c, err := build(context.Background(), cfg, logger.Discard(), buildOptions{persist: true, notify: true})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.store)
	assert.NotNil(t, c.engine)
	assert.Len(t, c.pipeline.DiscountRates, 5)
}
