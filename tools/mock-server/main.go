// Package main implements a mock marketplace server for local development.
// It renders item pages from a JSON fixture with the markup the default
// scrape selectors expect, so the fetch command can run without network
// access.
package main

import (
	"bytes"
	"compress/gzip"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

//go:embed testdata/items.json
var defaultFixture []byte

type item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	Condition string `json:"condition"`
	Posted    string `json:"posted"`
}

type fixture struct {
	Items []item `json:"items"`
}

var itemPage = template.Must(template.New("item").Funcs(template.FuncMap{
	"yen": func(v int) string { return formatYen(v) },
}).Parse(`<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>{{.Name}}</title></head>
<body>
<h1 data-testid="name">{{.Name}}</h1>
<div data-testid="price"><span>¥</span><span>{{yen .Price}}</span></div>
<span data-testid="商品の状態">{{.Condition}}</span>
{{if .Posted}}<p data-testid="posted-date">出品日時</p><p data-testid="posted-date">{{.Posted}}</p>{{end}}
</body>
</html>
`))

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "", "path to an items fixture (default: embedded sample)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := defaultFixture
	if *fixtureFile != "" {
		b, err := os.ReadFile(*fixtureFile) //nolint:gosec // fixture path from trusted CLI flag
		if err != nil {
			logger.Error("failed to read fixture", "path", *fixtureFile, "error", err)
			os.Exit(1)
		}
		data = b
	}

	fx, err := parseFixture(data)
	if err != nil {
		logger.Error("failed to load fixture", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "items", len(fx.Items))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, fx, "http://localhost"+addr)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func parseFixture(data []byte) (*fixture, error) {
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &fx, nil
}

func newMux(logger *slog.Logger, fx *fixture, baseURL string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /item/{id}", itemHandler(logger, fx))
	mux.HandleFunc("GET /urls.csv", urlsHandler(fx, baseURL))
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// itemHandler renders one item page. Responses are gzip encoded when the
// client accepts it.
func itemHandler(logger *slog.Logger, fx *fixture) http.HandlerFunc {
	byID := make(map[string]item, len(fx.Items))
	for _, it := range fx.Items {
		byID[it.ID] = it
	}

	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := byID[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}

		var buf bytes.Buffer
		if err := itemPage.Execute(&buf, it); err != nil {
			logger.Error("rendering item", "id", it.ID, "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			defer gz.Close()
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			gz.Write(buf.Bytes())
			return
		}
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		w.Write(buf.Bytes())
	}
}

// urlsHandler lists every item URL as a one-column CSV ready for fetch.
func urlsHandler(fx *fixture, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		cw := csv.NewWriter(w)
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		cw.Write([]string{"url"})
		for _, it := range fx.Items {
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			cw.Write([]string{baseURL + "/item/" + it.ID})
		}
		cw.Flush()
	}
}

// formatYen renders v with thousands separators, e.g. 18500 -> "18,500".
func formatYen(v int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
