package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/seatplan/internal/auth"
)

// Authorize returns a middleware that lets the request through only when the
// authorizer grants the caller the given action.  It assumes JWTAuth ran
// first and stored the principal in the context.
func Authorize(az auth.Authorizer, action auth.Action) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !az.CanPerform(PrincipalFrom(c), action) {
                return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "forbidden"})
            }
            return next(c)
        }
    }
}
