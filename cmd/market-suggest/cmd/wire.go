package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/market-suggest/internal/config"
	"github.com/donaldgifford/market-suggest/internal/engine"
	"github.com/donaldgifford/market-suggest/internal/ingest"
	"github.com/donaldgifford/market-suggest/internal/notify"
	"github.com/donaldgifford/market-suggest/internal/report"
	"github.com/donaldgifford/market-suggest/internal/store"
	"github.com/donaldgifford/market-suggest/pkg/pipeline"
)

// components are the long-lived collaborators built from the config.
type components struct {
	store    store.Store
	pipeline pipeline.Config
	engine   *engine.Engine
	closeFn  func()
}

func (c *components) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

type buildOptions struct {
	persist bool
	notify  bool
	reports bool
}

// build wires the store, dispatcher, report writer, and engine.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger, opts buildOptions) (*components, error) {
	pc, err := cfg.Pipeline.ToPipeline()
	if err != nil {
		return nil, err
	}

	c := &components{pipeline: pc}

	if opts.persist && cfg.Database.Enabled() {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), cfg.Database.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		c.store = pg
		c.closeFn = pg.Close
	}

	var dispatcher *notify.Dispatcher
	if opts.notify {
		if n := buildNotifier(&cfg.Notifications, log); n != nil {
			dispatcher = notify.NewDispatcher(n,
				cfg.Notifications.RateLimit.PerSecond,
				cfg.Notifications.RateLimit.Burst,
				notify.WithTiers(cfg.Notifications.Tiers),
				notify.WithLogger(log),
			)
		}
	}

	engOpts := []engine.EngineOption{
		engine.WithLogger(log),
		engine.WithSource(ingest.Source{
			Mode:    cfg.Source.Mode,
			Dir:     cfg.Source.Dir,
			Pattern: cfg.Source.Pattern,
			File:    cfg.Source.File,
		}),
	}
	if opts.reports {
		engOpts = append(engOpts, engine.WithReports(report.NewWriter(cfg.Output.Dir,
			report.WithCharts(cfg.Output.Charts),
			report.WithLogger(log),
		)))
	}

	c.engine = engine.NewEngine(c.store, dispatcher, pc, engOpts...)
	return c, nil
}

// buildNotifier returns the configured chat notifiers, or nil when none is
// enabled.
func buildNotifier(cfg *config.NotificationsConfig, log *slog.Logger) notify.Notifier {
	var multi notify.Multi
	if cfg.GoogleChat.Enabled {
		multi = append(multi, notify.NewGoogleChatNotifier(cfg.GoogleChat.WebhookURL))
		log.Info("google chat notifications enabled")
	}
	if cfg.Discord.Enabled {
		multi = append(multi, notify.NewDiscordNotifier(cfg.Discord.WebhookURL))
		log.Info("discord notifications enabled")
	}
	switch len(multi) {
	case 0:
		return nil
	case 1:
		return multi[0]
	default:
		return multi
	}
}
