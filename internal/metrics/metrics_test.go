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

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	m := New("test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/v1/tables/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", m.Handler())

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tables/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/v1/tables/:id", "200"))
	assert.Equal(t, 3.0, got)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "test_http_requests_total"))
}

func TestDomainRecorders(t *testing.T) {
	m := New("")
	m.RecordAssigned(3)
	m.RecordCheckIn("token")
	m.RecordImport(2, 1, 0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.SeatsAssigned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckIns.WithLabelValues("token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuestsImported.WithLabelValues("duplicate")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordAssigned(1)
		nilMetrics.RecordUnassigned()
		nilMetrics.RecordTxTimeout("assign")
	})
}
