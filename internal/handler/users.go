package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seatplan/internal/service"
)

// UserHandler serves POST /v1/users.
type UserHandler struct {
    Accounts *service.AccountService
}

func NewUserHandler(a *service.AccountService) *UserHandler {
    return &UserHandler{Accounts: a}
}

// Create adds an operator account.  A taken e-mail answers 409.
func (h *UserHandler) Create(c echo.Context) error {
    var req struct {
        Email    string `json:"email"`
        Password string `json:"password"`
        Role     string `json:"role"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    u, err := h.Accounts.CreateUser(c.Request().Context(), req.Email, req.Password, req.Role)
    if err != nil {
        var ce *service.ConflictError
        if errors.As(err, &ce) {
            return fail(c, http.StatusConflict, ce.Error())
        }
        return respondError(c, err)
    }
    return created(c, u)
}
