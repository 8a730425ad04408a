package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/pkg/logger"
	"github.com/donaldgifford/market-suggest/pkg/price"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Mode() string { return "fake" }

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	p, ok := f.pages[url]
	if !ok {
		return nil, errors.New("connection reset")
	}
	return []byte(p), nil
}

func itemPage(name, amount, condition string) string {
	return `<html><body><h1 data-testid="name">` + name + `</h1>` +
		`<div data-testid="price"><span>¥</span><span>` + amount + `</span></div>` +
		`<span data-testid="商品の状態">` + condition + `</span>` +
		`<p class="posted">1時間前</p></body></html>`
}

func TestScraper_Scrape(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://example.com/item/1": itemPage("Camera", "24,000", "新品、未使用"),
		"https://example.com/item/3": `<html><body><h1>No price</h1></body></html>`,
	}}
	s := New(f, testSelectors, WithLogger(logger.Discard()))

	rows, failed, err := s.Scrape(context.Background(), []string{
		"https://example.com/item/1",
		"https://example.com/item/2",
		"https://example.com/item/3",
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, failed)

	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, "Camera", rows[0].Name)
	assert.Equal(t, "24,000", rows[0].Price)
	assert.Equal(t, "1時間前", rows[0].PostedDate)
	assert.Equal(t, "https://example.com/item/1", rows[0].URL)
	assert.Equal(t, domain.GradeNew, domain.ParseGrade(rows[0].Condition))

	for _, row := range rows[1:] {
		assert.Equal(t, FailedText, row.Name)
		assert.Nil(t, price.Ptr(row.Price))
		assert.Equal(t, domain.GradeError, domain.ParseGrade(row.Condition))
	}
	assert.Equal(t, 3, rows[2].Index)
}

func TestScraper_Limit(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{}}
	s := New(f, testSelectors, WithLimit(2))

	rows, _, err := s.Scrape(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, f.calls)
}

func TestScraper_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(&fakeFetcher{}, testSelectors)
	rows, _, err := s.Scrape(ctx, []string{"a"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rows)
}

func TestAllocatorOptions(t *testing.T) {
	t.Parallel()

	base := AllocatorOptions(BrowserConfig{Headless: true})
	full := AllocatorOptions(BrowserConfig{Headless: true, UserAgent: "ua", ExecPath: "/usr/bin/chromium"})
	assert.Len(t, full, len(base)+2)
}
