// Package middleware provides the Echo middleware chain of the market-suggest
// API: panic recovery, trace propagation, request logging, and metrics.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/market-suggest/internal/metrics"
)

// UnmatchedRoute is the path label of requests that matched no route.
const UnmatchedRoute = "unmatched"

// probeGauges maps probe paths to their up/down gauge. Probes are not
// counted as requests.
var probeGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// unmeteredPrefixes are served without request metrics.
var unmeteredPrefixes = []string{"/metrics", "/swagger"}

// Metrics returns Echo middleware that records request duration and count
// by method, route template, and status. Requests that match no route share
// the UnmatchedRoute label so arbitrary URLs cannot grow the label set.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := routeLabel(c)

			if gauge, ok := probeGauges[route]; ok {
				err := next(c)
				setProbe(gauge, c.Response().Status)
				return err
			}
			if unmetered(route) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// The error handler writes the status that is recorded below.
				c.Error(err)
			}

			labels := []string{c.Request().Method, route, strconv.Itoa(c.Response().Status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()

			return err
		}
	}
}

func routeLabel(c echo.Context) string {
	path := c.Path()
	if path == "" || path == "/*" {
		return UnmatchedRoute
	}
	return path
}

func unmetered(route string) bool {
	for _, p := range unmeteredPrefixes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

func setProbe(gauge prometheus.Gauge, status int) {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		gauge.Set(1)
		return
	}
	gauge.Set(0)
}
