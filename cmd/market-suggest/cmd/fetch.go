package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/market-suggest/internal/config"
	"github.com/donaldgifford/market-suggest/internal/ingest"
	"github.com/donaldgifford/market-suggest/internal/report"
	"github.com/donaldgifford/market-suggest/internal/scrape"
)

func init() {
	cmd := &cobra.Command{
		Use:   "fetch <urls.csv>",
		Short: "Scrape item pages into a listings table",
		Long: "Fetch reads a table of item URLs (a url column, or one URL per line), scrapes\n" +
			"each page, and writes a listings CSV into the source directory so the next\n" +
			"analyze run picks it up.",
		Args: cobra.ExactArgs(1),
		RunE: runFetch,
	}
	cmd.Flags().Int("limit", 0, "scrape at most this many URLs (0 for all)")
	cmd.Flags().String("out", "", "output file (default: <source.dir>/output_<timestamp>_<name>.csv)")
	rootCmd.AddCommand(cmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	out, _ := cmd.Flags().GetString("out")

	urls, err := readURLFile(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, closeFn, err := newFetcher(ctx, &cfg.Scrape)
	if err != nil {
		return err
	}
	defer closeFn()

	s := scrape.New(fetcher, scrape.Selectors{
		Name:       cfg.Scrape.Selectors.Name,
		Price:      cfg.Scrape.Selectors.Price,
		Condition:  cfg.Scrape.Selectors.Condition,
		PostedDate: cfg.Scrape.Selectors.PostedDate,
	}, scrape.WithLogger(log), scrape.WithLimit(limit))

	rows, failed, err := s.Scrape(ctx, urls)
	if err != nil {
		return err
	}

	if out == "" {
		out = outputPath(cfg.Source.Dir, args[0], time.Now())
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := report.WriteFileAtomic(out, func(w io.Writer) error {
		return ingest.WriteRaw(w, rows)
	}); err != nil {
		return err
	}

	log.Info("fetch complete", "rows", len(rows), "failed", failed, "mode", fetcher.Mode(), "path", out)
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path from CLI argument
	if err != nil {
		return nil, fmt.Errorf("opening url list: %w", err)
	}
	defer f.Close()

	urls, err := ingest.ReadURLs(f)
	if err != nil {
		return nil, fmt.Errorf("reading url list %s: %w", path, err)
	}
	return urls, nil
}

// newFetcher builds the fetcher selected by cfg.Mode. The returned func
// releases browser resources and must always be called.
func newFetcher(ctx context.Context, cfg *config.ScrapeConfig) (scrape.Fetcher, func(), error) {
	switch cfg.Mode {
	case config.FetchBrowser:
		headless := cfg.Headless == nil || *cfg.Headless
		f, err := scrape.NewBrowserFetcher(ctx, scrape.BrowserConfig{
			ExecPath:     cfg.ChromePath,
			Headless:     headless,
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.Timeout,
			WaitSelector: cfg.Selectors.Price,
			PerSecond:    cfg.RateLimit.PerSecond,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return f, f.Close, nil
	default:
		opts := []scrape.HTTPOption{scrape.WithRate(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)}
		if cfg.UserAgent != "" {
			opts = append(opts, scrape.WithUserAgent(cfg.UserAgent))
		}
		return scrape.NewHTTPFetcher(cfg.Timeout, opts...), func() {}, nil
	}
}

// outputPath names a scraped table after the URL list it came from, e.g.
// data/products/output_2026_10_16_09_30_watches.csv.
func outputPath(dir, urlFile string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(urlFile), filepath.Ext(urlFile))
	return filepath.Join(dir, fmt.Sprintf("output_%s_%s.csv", now.Format("2006_01_02_15_04"), base))
}
