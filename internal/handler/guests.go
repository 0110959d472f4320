package handler // handler package contains guest list handlers

import (
    "net/http" // http defines status code constants

    "github.com/labstack/echo/v4" // echo framework provides context and JSON helpers

    "github.com/iliyamo/seatplan/internal/model"
    "github.com/iliyamo/seatplan/internal/service"
)

// GuestHandler serves /v1/guests.
type GuestHandler struct {
    Guests *service.GuestService
}

func NewGuestHandler(g *service.GuestService) *GuestHandler {
    return &GuestHandler{Guests: g}
}

// Add handles POST /v1/guests.
func (h *GuestHandler) Add(c echo.Context) error {
    var req model.NewGuest
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    g, err := h.Guests.AddGuest(c.Request().Context(), req)
    if err != nil {
        return respondError(c, err)
    }
    return created(c, g)
}

// List handles GET /v1/guests?filter=all|assigned|unassigned.
func (h *GuestHandler) List(c echo.Context) error {
    guests, err := h.Guests.ListGuests(c.Request().Context(), c.QueryParam("filter"))
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, guests)
}

// Import handles POST /v1/guests/import.  Partial success still answers
// 200; the counts tell the client what happened.
func (h *GuestHandler) Import(c echo.Context) error {
    var req struct {
        Guests []model.NewGuest `json:"guests"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    res, err := h.Guests.ImportGuests(c.Request().Context(), req.Guests)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, res)
}

// Delete handles DELETE /v1/guests/:id.
func (h *GuestHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.Guests.DeleteGuest(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "guest deleted")
}

// RemoveDuplicates handles POST /v1/guests/remove-duplicates.
func (h *GuestHandler) RemoveDuplicates(c echo.Context) error {
    res, err := h.Guests.RemoveDuplicateGuests(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, res)
}
