package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/donaldgifford/market-suggest/internal/metrics"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// postJSON sends payload to url and records the call under backend.
func postJSON(ctx context.Context, client *http.Client, backend, url string, payload any) (err error) {
	defer func() {
		if err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues(backend).Inc()
			return
		}
		metrics.NotificationsSentTotal.WithLabelValues(backend).Inc()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", backend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", backend, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	start := time.Now()
	resp, err := client.Do(req)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("sending %s webhook: %w", backend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s rate limited (429)", backend)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return fmt.Errorf("%s returned %d (body unreadable)", backend, resp.StatusCode)
		}
		return fmt.Errorf("%s returned %d: %s", backend, resp.StatusCode, respBody)
	}

	return nil
}

// Option configures a webhook notifier.
type Option func(*webhookOptions)

type webhookOptions struct {
	client *http.Client
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *webhookOptions) {
		o.client = c
	}
}

func applyOptions(opts []Option) webhookOptions {
	o := webhookOptions{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
