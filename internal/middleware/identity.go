package middleware

// identity.go holds the context keys JWTAuth fills and the helpers the other
// middleware use to read them back.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seatplan/internal/auth"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// PrincipalFrom returns the authenticated caller, or the zero Principal when
// JWTAuth has not run.
func PrincipalFrom(c echo.Context) auth.Principal {
    uid, _ := c.Get(ctxUserID).(uint64)
    role, _ := c.Get(ctxRole).(string)
    return auth.Principal{UserID: uid, Role: role}
}

// userID returns the caller's id as a key segment, "anon" when nobody is
// authenticated.
func userID(c echo.Context) string {
    if uid, ok := c.Get(ctxUserID).(uint64); ok && uid != 0 {
        return strconv.FormatUint(uid, 10)
    }
    return "anon"
}
