package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/donaldgifford/market-suggest/internal/api"
	"github.com/donaldgifford/market-suggest/internal/api/handlers"
	"github.com/donaldgifford/market-suggest/internal/engine"
	"github.com/donaldgifford/market-suggest/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and scheduler",
		RunE:  runServe,
	}
	cmd.Flags().Duration("stale-after", time.Hour, "mark runs still running after this long as interrupted at startup")
	rootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	staleAfter, _ := cmd.Flags().GetDuration("stale-after")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	c, err := build(ctx, cfg, log, buildOptions{persist: true, notify: true, reports: true})
	if err != nil {
		return err
	}
	defer c.Close()

	if c.store != nil {
		if err := c.store.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		n, err := c.engine.RecoverStaleRuns(ctx, staleAfter)
		if err != nil {
			return fmt.Errorf("recovering stale runs: %w", err)
		}
		if n > 0 {
			log.Warn("marked stale runs as interrupted", "count", n)
		}
	} else {
		log.Info("database not configured, run history disabled")
	}

	var sched *engine.Scheduler
	if cfg.Schedule.Enabled {
		sched, err = engine.NewScheduler(c.engine, c.store, cfg.Schedule.SourceInterval, log)
		if err != nil {
			return err
		}
		sched.Start()
	}

	var runner handlers.Runner = c.engine
	e, _ := api.NewServer(api.Deps{
		Store:          c.store,
		Runner:         runner,
		Pipeline:       c.pipeline,
		Logger:         log,
		TracerProvider: otel.GetTracerProvider(),
		Version:        Version,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "version", Version)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down server")

	if sched != nil {
		<-sched.Stop().Done()
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}
