package handler // handler package contains seat, assignment and check-in handlers

import (
    "net/http" // http defines status code constants

    "github.com/labstack/echo/v4" // echo framework provides context and JSON helpers

    "github.com/iliyamo/seatplan/internal/model"
    "github.com/iliyamo/seatplan/internal/service"
)

// SeatHandler serves assignments, seat state, check-in and the read-side
// queries.
type SeatHandler struct {
    Assign  *service.AssignmentService
    CheckIn *service.CheckInService
    Query   *service.QueryService
}

func NewSeatHandler(a *service.AssignmentService, ci *service.CheckInService, q *service.QueryService) *SeatHandler {
    return &SeatHandler{Assign: a, CheckIn: ci, Query: q}
}

type assignReq struct {
    TableID     uint64   `json:"tableId"`
    TableNumber *int     `json:"tableNumber"`
    GuestIDs    []uint64 `json:"guestIds"`
}

// AssignGuests handles POST /v1/assignments.  tableId wins over tableNumber
// when both are sent.
func (h *SeatHandler) AssignGuests(c echo.Context) error {
    var req assignReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    ref := model.TableRef{ID: req.TableID}
    if ref.ID == 0 {
        ref.Number = req.TableNumber
    }
    out, err := h.Assign.AssignGuestsToTable(c.Request().Context(), ref, req.GuestIDs)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, out)
}

// Book handles PUT /v1/seats/:id/booking.
func (h *SeatHandler) Book(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    var req struct {
        UserID uint64 `json:"userId"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    if err := h.Assign.BookSingleSeat(c.Request().Context(), id, req.UserID); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "seat booked")
}

// Unassign handles DELETE /v1/seats/:id/booking.
func (h *SeatHandler) Unassign(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.Assign.UnassignSeat(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "seat unassigned")
}

// SetReceived handles PUT /v1/seats/:id/received.
func (h *SeatHandler) SetReceived(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    var req struct {
        IsReceived *bool `json:"isReceived"`
    }
    if err := c.Bind(&req); err != nil || req.IsReceived == nil {
        return fail(c, http.StatusBadRequest, "isReceived is required")
    }
    if err := h.CheckIn.SetReceived(c.Request().Context(), id, *req.IsReceived); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "seat updated")
}

// CheckInToken handles GET /v1/seats/:id/checkin-token.
func (h *SeatHandler) CheckInToken(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    tok, err := h.CheckIn.IssueCheckInToken(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, tok)
}

// ResolveCheckIn handles POST /v1/checkin with the scanned QR payload.
func (h *SeatHandler) ResolveCheckIn(c echo.Context) error {
    var req struct {
        Token string `json:"token"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    seat, err := h.CheckIn.ResolveCheckInToken(c.Request().Context(), req.Token)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, seat)
}

// List handles GET /v1/seats.
func (h *SeatHandler) List(c echo.Context) error {
    seats, err := h.Query.ListSeats(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, seats)
}

// Search handles POST /v1/seats/search.  No match is an empty list.
func (h *SeatHandler) Search(c echo.Context) error {
    var req struct {
        Name string `json:"name"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    seats, err := h.Query.SearchSeatByName(c.Request().Context(), req.Name)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, seats)
}

// GuestSeat handles GET /v1/guests/:id/seat.
func (h *SeatHandler) GuestSeat(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    seat, err := h.Query.FindGuestSeat(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, seat)
}

// Stats handles GET /v1/stats.
func (h *SeatHandler) Stats(c echo.Context) error {
    st, err := h.Query.Stats(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, st)
}
