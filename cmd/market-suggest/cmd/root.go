// Package cmd implements the CLI commands for market-suggest.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/market-suggest/internal/config"
	"github.com/donaldgifford/market-suggest/pkg/logger"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "market-suggest",
	Short: "Find underpriced marketplace listings",
	Long: "market-suggest analyzes scraped marketplace listings: it flags price outliers,\n" +
		"aggregates per-grade statistics, derives discount thresholds from grade medians,\n" +
		"and sorts listings into discount tiers that are written as reports and posted\n" +
		"to chat.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(versionCommand())
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the dotenv file and the config. A missing default config
// file falls back to built-in defaults; a missing explicit one is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}

	log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}
