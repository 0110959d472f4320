package handler // declare the package name; contains HTTP handlers

import (
    "context"      // bounds the database ping
    "database/sql" // pool to ping
    "net/http"     // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is used by load balancers and monitoring systems to verify that
// the service is running and its database answers.  It returns "ok" with
// 200, or 503 when the ping fails.
func Health(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "database unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
