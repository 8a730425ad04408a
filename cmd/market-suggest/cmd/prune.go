package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/market-suggest/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded runs older than a retention window",
		RunE:  runPrune,
	}
	cmd.Flags().Duration("older-than", 30*24*time.Hour, "delete runs started before now minus this duration")
	rootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return errNoDatabase
	}

	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive (got %s)", olderThan)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	s, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), cfg.Database.PoolSize)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer s.Close()

	cutoff := time.Now().Add(-olderThan)
	n, err := s.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}

	log.Info("pruned runs", "deleted", n, "before", cutoff.Format(time.RFC3339))
	return nil
}
