package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// RequestIDKey is the echo context key holding the request ID.
const RequestIDKey = "request_id"

// probePaths are logged only on their first success and on failures.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// probeState remembers whether the last request to each probe succeeded.
type probeState struct {
	mu      sync.Mutex
	healthy map[string]bool
}

// quiet reports whether a probe response can be skipped: the probe
// succeeded now and the last time.
func (p *probeState) quiet(path string, status int) bool {
	ok := status >= 200 && status < 300

	p.mu.Lock()
	defer p.mu.Unlock()

	was, seen := p.healthy[path]
	p.healthy[path] = ok
	return ok && seen && was
}

// RequestLog returns Echo middleware that logs requests with structured
// fields. It generates a request ID if none is provided and propagates it
// through the response header and echo context. Successful health probes
// are logged once; probe failures are always logged at warn.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	probes := &probeState{healthy: make(map[string]bool)}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set(RequestIDKey, reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			if _, probe := probePaths[path]; probe && probes.quiet(path, status) {
				return err
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			log.Log(c.Request().Context(), level, "request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)

			return err
		}
	}
}
