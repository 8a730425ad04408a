package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

// ModeBrowser is the Mode of BrowserFetcher.
const ModeBrowser = "browser"

// BrowserConfig configures the headless Chrome fetcher.
type BrowserConfig struct {
	ExecPath  string
	Headless  bool
	UserAgent string
	Timeout   time.Duration
	// WaitSelector is awaited before the document is captured, so pages
	// that render client side are complete.
	WaitSelector string
	PerSecond    float64
}

// BrowserFetcher renders pages in a shared Chrome instance. Each fetch opens
// its own tab.
type BrowserFetcher struct {
	cfg     BrowserConfig
	browser context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
}

// AllocatorOptions returns the Chrome flags used for cfg.
func AllocatorOptions(cfg BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// NewBrowserFetcher starts Chrome. Close must be called to stop it.
func NewBrowserFetcher(ctx context.Context, cfg BrowserConfig) (*BrowserFetcher, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	f := &BrowserFetcher{
		cfg:     cfg,
		browser: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}
	if cfg.PerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.PerSecond), 1)
	}
	return f, nil
}

// Mode implements Fetcher.
func (*BrowserFetcher) Mode() string { return ModeBrowser }

// Fetch implements Fetcher.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	tab, cancelTab := chromedp.NewContext(f.browser)
	defer cancelTab()
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		tab, cancel = context.WithTimeout(tab, f.cfg.Timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if f.cfg.WaitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(f.cfg.WaitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tab, actions...); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return []byte(html), nil
}

// Close stops the browser.
func (f *BrowserFetcher) Close() {
	f.cancel()
}
