package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

// RequestID keeps a client-supplied X-Request-ID or generates a UUID, and
// echoes it on the response.  The logger middleware picks it up from the
// request header, so RequestID must run first.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(echo.HeaderXRequestID)
            if id == "" || len(id) > 128 {
                id = uuid.NewString()
                c.Request().Header.Set(echo.HeaderXRequestID, id)
            }
            c.Response().Header().Set(echo.HeaderXRequestID, id)
            return next(c)
        }
    }
}
