// Package api assembles the Echo server, the Huma operations, and the
// middleware chain of the market-suggest HTTP API.
package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/market-suggest/api/openapi"
	"github.com/donaldgifford/market-suggest/internal/api/handlers"
	"github.com/donaldgifford/market-suggest/internal/api/middleware"
	"github.com/donaldgifford/market-suggest/internal/store"
	"github.com/donaldgifford/market-suggest/pkg/logger"
	"github.com/donaldgifford/market-suggest/pkg/pipeline"
)

// Title is the OpenAPI document title.
const Title = "market-suggest API"

// Deps holds the collaborators of the HTTP server. Store and Runner may be
// nil; the run history and trigger routes are then not registered.
type Deps struct {
	Store          store.Store
	Runner         handlers.Runner
	Pipeline       pipeline.Config
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Version        string
}

// NewServer builds the Echo instance with every route registered and
// returns it together with the Huma API describing the typed operations.
func NewServer(d Deps) (*echo.Echo, huma.API) {
	log := logger.OrDiscard(d.Logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.Tracing(d.TracerProvider))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	var pinger handlers.Pinger
	if d.Store != nil {
		pinger = d.Store
	}
	health := handlers.NewHealthHandler(pinger)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig(Title, d.Version))
	Register(api, d)

	if d.Store != nil {
		report := handlers.NewReportHandler(d.Store)
		e.GET("/runs/:id/report", report.Report)
	}

	openapi.RegisterRoutes(e, api.OpenAPI())

	return e, api
}

// Register adds the Huma operations selected by d to api.
func Register(api huma.API, d Deps) {
	handlers.RegisterAnalyzeRoutes(api, handlers.NewAnalyzeHandler(d.Pipeline))
	if d.Runner != nil {
		handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(d.Runner))
	}
	if d.Store != nil {
		handlers.RegisterRunRoutes(api, handlers.NewRunsHandler(d.Store))
	}
}
