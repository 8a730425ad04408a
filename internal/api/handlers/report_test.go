package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/market-suggest/internal/api/handlers"
	"github.com/donaldgifford/market-suggest/internal/store"
	"github.com/donaldgifford/market-suggest/internal/store/mocks"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

func serveReport(t *testing.T, ms *mocks.MockStore) *httptest.ResponseRecorder {
	t.Helper()

	h := handlers.NewReportHandler(ms)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/runs/run-1/report", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("run-1")

	require.NoError(t, h.Report(c))
	return rec
}

func TestReport_Success(t *testing.T) {
	t.Parallel()

	run := sampleRun("run-1")
	tierIdx := 0
	ms := mocks.NewMockStore(t)
	ms.EXPECT().GetRun(mock.Anything, "run-1").Return(&run, nil).Once()
	ms.EXPECT().
		ListRunListings(mock.Anything, mock.MatchedBy(func(q *store.RunListingQuery) bool {
			return q.RunID == "run-1" && q.Outcome != nil && *q.Outcome == domain.OutcomeTier
		})).
		Return([]domain.RunListing{{RunID: "run-1", TierIndex: &tierIdx, Outcome: domain.OutcomeTier}}, 1, nil).
		Once()

	rec := serveReport(t, ms)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>Run run-1</title>")
}

func TestReport_NotFound(t *testing.T) {
	t.Parallel()

	ms := mocks.NewMockStore(t)
	ms.EXPECT().GetRun(mock.Anything, "run-1").Return(nil, store.ErrNotFound).Once()

	rec := serveReport(t, ms)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Run not found")
}

func TestReport_StoreError(t *testing.T) {
	t.Parallel()

	ms := mocks.NewMockStore(t)
	ms.EXPECT().GetRun(mock.Anything, "run-1").Return(nil, errors.New("db error")).Once()

	rec := serveReport(t, ms)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "getting run failed")
}
