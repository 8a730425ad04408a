package handlers

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/market-suggest/internal/api/views"
	"github.com/donaldgifford/market-suggest/internal/store"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// reportListingLimit bounds the tiered listings rendered on one page.
const reportListingLimit = 500

// ReportHandler renders the HTML report page of a run.
type ReportHandler struct {
	store RunsProvider
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(s RunsProvider) *ReportHandler {
	return &ReportHandler{store: s}
}

// Report renders GET /runs/:id/report.
func (h *ReportHandler) Report(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	run, err := h.store.GetRun(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return render(c, http.StatusNotFound, views.NotFoundPage(id))
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "getting run failed: " + err.Error()})
	}

	outcome := domain.OutcomeTier
	listings, _, err := h.store.ListRunListings(ctx, &store.RunListingQuery{
		RunID:   id,
		Outcome: &outcome,
		Limit:   reportListingLimit,
		OrderBy: "price",
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "listing run listings failed: " + err.Error()})
	}

	return render(c, http.StatusOK, views.RunPage(run, listings))
}

func render(c echo.Context, status int, page templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return page.Render(c.Request().Context(), c.Response())
}
