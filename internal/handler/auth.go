package handler

import (
    "context"  // provides context with cancellation for DB calls
    "errors"   // sentinel comparison
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/seatplan/internal/config"     // app configuration
    "github.com/iliyamo/seatplan/internal/repository" // DB repositories
    "github.com/iliyamo/seatplan/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issuePair signs an access token and stores a fresh refresh token.
func (h *AuthHandler) issuePair(ctx context.Context, u userPart) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, "email/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return fail(c, http.StatusUnauthorized, "invalid credentials")
        }
        return fail(c, http.StatusInternalServerError, "query failed")
    }
    if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return fail(c, http.StatusUnauthorized, "invalid credentials")
    }

    resp, err := h.issuePair(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
    if err != nil {
        return fail(c, http.StatusInternalServerError, "issue tokens failed")
    }
    return ok(c, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return fail(c, http.StatusBadRequest, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        if errors.Is(err, repository.ErrRefreshInvalid) {
            return fail(c, http.StatusUnauthorized, "invalid refresh")
        }
        return fail(c, http.StatusInternalServerError, "query failed")
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return fail(c, http.StatusInternalServerError, "revoke failed")
    }

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return fail(c, http.StatusUnauthorized, "invalid refresh")
        }
        return fail(c, http.StatusInternalServerError, "load user failed")
    }
    if !u.IsActive {
        return fail(c, http.StatusUnauthorized, "invalid refresh")
    }

    resp, err := h.issuePair(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
    if err != nil {
        return fail(c, http.StatusInternalServerError, "issue tokens failed")
    }
    return ok(c, resp)
}

// Logout revokes one session when a refresh_token is sent, or every session
// of the caller when only a valid bearer access token is present.
func (h *AuthHandler) Logout(c echo.Context) error {
    var (
        uid       uint64
        hasBearer bool
    )
    if authHeader := c.Request().Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
        claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(authHeader, "Bearer "))
        if err == nil {
            uid, hasBearer = claims.UserID, true
        }
    }

    // invalid JSON just leaves the token empty; the bearer may suffice
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    switch {
    case refreshToken != "":
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return fail(c, http.StatusUnauthorized, "invalid refresh token")
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return fail(c, http.StatusInternalServerError, "logout failed")
        }
        return c.NoContent(http.StatusNoContent)
    case hasBearer:
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return fail(c, http.StatusInternalServerError, "logout failed")
        }
        return c.NoContent(http.StatusNoContent)
    }
    return fail(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return fail(c, http.StatusUnauthorized, "unauthorized")
        }
        return fail(c, http.StatusInternalServerError, "load user failed")
    }
    return ok(c, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}
