package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/market-suggest/internal/api/client"
	"github.com/donaldgifford/market-suggest/internal/ingest"
)

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <listings.csv>",
		Short: "Analyze a local listings table on the server",
		Long: "Posts the rows of a local listings CSV to the server and prints the\n" +
			"resulting statistics and tiers. Nothing is recorded or delivered.",
		Args: cobra.ExactArgs(1),
		Example: `  msctl analyze data/products/latest.csv
  msctl analyze data/products/latest.csv --output json`,
		RunE: func(_ *cobra.Command, args []string) error {
			rows, err := ingest.ReadFile(args[0])
			if err != nil {
				return err
			}

			c := newClient()
			res, err := c.Analyze(context.Background(), &apiclient.AnalyzeRequest{Listings: rows})
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}

			if err := printSummaryTable(os.Stdout, res.Summary); err != nil {
				return err
			}
			fmt.Println()
			if res.Classification == nil {
				return nil
			}
			return printTiers(os.Stdout, res.Classification.Tiers)
		},
	}
}
