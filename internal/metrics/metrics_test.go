package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Counters(t *testing.T) {
	tr := New(false)

	tr.BidPlaced()
	tr.BidPlaced()
	tr.BidAccepted(2)
	tr.BidRejectedByOwner()
	tr.AcceptanceConflict()
	tr.InvalidationFailed(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(tr.bidsPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.bidsAccepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(tr.bidsRejected.WithLabelValues("acceptance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.bidsRejected.WithLabelValues("owner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.acceptanceConflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(tr.invalidationErrors))
}

func TestTracker_NilIsNoop(t *testing.T) {
	var tr *Tracker
	assert.NotPanics(t, func() {
		tr.BidPlaced()
		tr.BidAccepted(1)
		tr.AcceptanceConflict()
		tr.InvalidationFailed(1)
	})
}

func TestTracker_MiddlewareAndHandler(t *testing.T) {
	tr := New(false)
	e := echo.New()
	e.Use(tr.Middleware())
	e.GET("/api/bids/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(tr.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bids/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(tr.requestTotal.WithLabelValues(http.MethodGet, "/api/bids/:id", "200")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "opensails_http_requests_total"))
}
