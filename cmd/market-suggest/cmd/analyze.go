package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/market-suggest/internal/engine"
	"github.com/donaldgifford/market-suggest/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze [listings.csv]",
		Short: "Analyze a listings table and write tier reports",
		Long: "Analyze runs the pipeline once. With no argument the table is chosen by the\n" +
			"configured source (newest matching file, or the manual file).",
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
	cmd.Flags().Bool("persist", false, "record the run in the database")
	cmd.Flags().Bool("notify", false, "post tiers to the configured chat webhooks")
	cmd.Flags().Bool("no-reports", false, "skip writing report files")
	rootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	persist, _ := cmd.Flags().GetBool("persist")
	notifyTiers, _ := cmd.Flags().GetBool("notify")
	noReports, _ := cmd.Flags().GetBool("no-reports")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg, log, buildOptions{
		persist: persist,
		notify:  notifyTiers,
		reports: !noReports,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	var rep *engine.RunReport
	if len(args) == 1 {
		rep, err = c.engine.RunFile(ctx, args[0])
	} else {
		rep, err = c.engine.RunOnce(ctx)
	}
	if err != nil {
		return err
	}

	printReport(cmd, rep)
	return nil
}

func printReport(cmd *cobra.Command, rep *engine.RunReport) {
	out := cmd.OutOrStdout()
	counts := rep.Run.Counts

	fmt.Fprintf(out, "run %s (%s)\n", rep.Run.ID, rep.Run.Source)
	fmt.Fprintf(out, "  listings: %d total, %d inliers, %d outliers, %d malformed price, %d unknown grade\n",
		counts.Total, counts.Inliers, counts.Outliers, counts.MalformedPrice, counts.UnknownGrade)
	fmt.Fprintf(out, "  tiers:    %d eligible, %d tiered, %d unassigned, %d excluded\n",
		counts.Eligible, counts.Tiered, counts.Unassigned, counts.Excluded)

	if rep.Result != nil && rep.Result.Classification != nil {
		for _, t := range rep.Result.Classification.Tiers {
			fmt.Fprintf(out, "  %s\n", report.TierTitle(t))
		}
	}
	if rep.Notified > 0 {
		fmt.Fprintf(out, "  notified: %d tiers\n", rep.Notified)
	}
	for _, path := range rep.Reports {
		fmt.Fprintf(out, "  wrote %s\n", path)
	}
}
