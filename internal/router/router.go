package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/seatplan/internal/auth"
	"github.com/iliyamo/seatplan/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/seatplan/internal/metrics"    // Prometheus endpoint
	"github.com/iliyamo/seatplan/internal/middleware" // JWT authentication and capability checks
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", m.Handler())
	}
}

// RegisterAuth registers the session endpoints.  Login, refresh and logout
// live under /v1/auth and need no access token; login is throttled per
// client.  /v1/me requires a valid access token of any role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, loginLimiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, loginLimiter)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// Protected bundles what the /v1 business routes need.
type Protected struct {
	JWTSecret  string
	Authorizer auth.Authorizer
	// Middlewares run after JWTAuth, in order (rate limit, cache).
	Middlewares []echo.MiddlewareFunc

	Tables   *handler.TableHandler
	Seats    *handler.SeatHandler
	Guests   *handler.GuestHandler
	FloorMap *handler.FloorMapHandler
	Users    *handler.UserHandler
}
