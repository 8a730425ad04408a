package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DefaultReadyTimeout bounds the database ping of one readiness probe.
const DefaultReadyTimeout = 2 * time.Second

// Database states reported by Readyz.
const (
	DatabaseOK          = "ok"
	DatabaseUnavailable = "unavailable"
	DatabaseDisabled    = "disabled"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. A nil db means the server
// runs without run history; it is then always ready and analysis still works.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: DefaultReadyTimeout}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 when the server can take runs: either no database is
// configured or the database answers a ping within the timeout. It returns
// 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	if h.db == nil {
		return c.JSON(http.StatusOK, StatusResponse{Status: "ready", Database: DatabaseDisabled})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{
			Status:   "unavailable",
			Database: DatabaseUnavailable,
		})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready", Database: DatabaseOK})
}
