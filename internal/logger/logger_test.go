package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })

	e := echo.New()
	e.GET("/v1/tables", func(c echo.Context) error {
		assert.NotNil(t, FromEcho(c))
		return c.NoContent(http.StatusTeapot)
	}, Middleware())

	req := httptest.NewRequest(http.MethodGet, "/v1/tables", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "/v1/tables", fields["path"])
}

func TestInitFallsBackToInfo(t *testing.T) {
	prev := log
	t.Cleanup(func() { log = prev })

	l, err := Init(LogConfig{Level: "loud", Environment: "dev", ServiceName: "seatplan"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.Same(t, l, L())
}
