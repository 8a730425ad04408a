package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/market-suggest/internal/api/client"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

func runsCmd() *cobra.Command {
	runsRoot := &cobra.Command{
		Use:   "runs",
		Short: "Browse pipeline runs",
		Long: "Browse recorded pipeline runs: their counts, per-grade statistics,\n" +
			"discount thresholds, and the listings placed in each tier.",
	}

	runsRoot.AddCommand(
		runsListCmd(),
		runsGetCmd(),
		runsTiersCmd(),
	)

	return runsRoot
}

func runsListCmd() *cobra.Command {
	var f apiclient.RunFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Example: `  msctl runs list
  msctl runs list --status failed --limit 10 --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			out, err := c.ListRuns(context.Background(), f)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(out)
			}
			if len(out.Runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}
			if err := printRunsTable(os.Stdout, out.Runs); err != nil {
				return err
			}
			fmt.Printf("\nShowing %d of %d runs.\n", len(out.Runs), out.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Status, "status", "", "filter by status (running, completed, failed)")
	cmd.Flags().StringVar(&f.Source, "source", "", "filter by source file path")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "number of runs to return")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "pagination offset")

	return cmd
}

func runsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a run with its statistics and thresholds",
		Args:  cobra.ExactArgs(1),
		Example: `  msctl runs get 5f0c...
  msctl runs get 5f0c... --output json`,
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			run, err := c.GetRun(context.Background(), args[0])
			var apiErr *apiclient.APIError
			if errors.As(err, &apiErr) && apiErr.NotFound() {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(run)
			}
			return printRunDetail(os.Stdout, run)
		},
	}
}

func runsTiersCmd() *cobra.Command {
	f := apiclient.ListingFilter{Outcome: domain.OutcomeTier}

	cmd := &cobra.Command{
		Use:   "tiers <id>",
		Short: "List the tiered listings of a run",
		Args:  cobra.ExactArgs(1),
		Example: `  msctl runs tiers 5f0c...
  msctl runs tiers 5f0c... --tier 0
  msctl runs tiers 5f0c... --outcome unassigned`,
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			out, err := c.ListRunListings(context.Background(), args[0], f)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(out)
			}
			if len(out.Listings) == 0 {
				fmt.Println("No listings found.")
				return nil
			}
			return printRunListingsTable(os.Stdout, out.Listings)
		},
	}

	cmd.Flags().IntVar(&f.Tier, "tier", -1, "tier position (0 is the deepest discount); -1 for all")
	cmd.Flags().StringVar(&f.Outcome, "outcome", domain.OutcomeTier, "outcome (tier, unassigned, excluded, error); empty for all")
	cmd.Flags().StringVar(&f.Grade, "grade", "", "condition grade")
	cmd.Flags().StringVar(&f.OrderBy, "order-by", "price", "sort field (sequence, price)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "number of listings to return")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "pagination offset")

	return cmd
}

func triggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Run the pipeline over the server's newest source table",
		Example: `  msctl trigger
  msctl trigger --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			out, err := c.TriggerRun(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(out)
			}
			if err := printRunDetail(os.Stdout, &out.Run); err != nil {
				return err
			}
			fmt.Printf("\nReports written: %d, tier messages delivered: %d\n", len(out.Reports), out.Notified)
			return nil
		},
	}
}
