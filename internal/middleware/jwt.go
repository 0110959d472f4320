package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/seatplan/internal/utils" // access token parsing
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role into the request context.  Handlers
// read them via `c.Get("user_id")` (uint64) and `c.Get("role")` (string).
// Refresh tokens and check-in tokens are rejected: only tokens with
// typ=access pass.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token"})
            }

            c.Set(ctxUserID, claims.UserID)
            c.Set(ctxRole, claims.Role)
            return next(c)
        }
    }
}
