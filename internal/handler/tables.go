package handler // handler package contains table management handlers

import (
    "net/http" // http defines status code constants
    "strconv"  // strconv parses table numbers from path params

    "github.com/labstack/echo/v4" // echo framework provides context and JSON helpers

    "github.com/iliyamo/seatplan/internal/model"
    "github.com/iliyamo/seatplan/internal/service"
)

// TableHandler serves /v1/tables.
type TableHandler struct {
    Seating *service.SeatingService
}

func NewTableHandler(s *service.SeatingService) *TableHandler {
    return &TableHandler{Seating: s}
}

type createTableReq struct {
    TableNumber *int    `json:"tableNumber"`
    Name        string  `json:"name"`
    Seats       int     `json:"seats"`
    Notes       *string `json:"notes"`
}

type bulkTablesReq struct {
    Tables []model.BulkTableConfig `json:"tables"`
}

type updateTableReq struct {
    NewName       string `json:"newName"`
    NewSeatsCount int    `json:"newSeatsCount"`
}

// Create handles POST /v1/tables.
func (h *TableHandler) Create(c echo.Context) error {
    var req createTableReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    t, err := h.Seating.CreateTable(c.Request().Context(), service.CreateTableInput{
        Number: req.TableNumber,
        Name:   req.Name,
        Seats:  req.Seats,
        Notes:  req.Notes,
    })
    if err != nil {
        return respondError(c, err)
    }
    return created(c, t)
}

// CreateBulk handles POST /v1/tables/bulk.  Seats per table are either a
// count or an explicit list of seat numbers.
func (h *TableHandler) CreateBulk(c echo.Context) error {
    var req bulkTablesReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
    }
    n, err := h.Seating.CreateBulkTables(c.Request().Context(), req.Tables)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, envelope{
        Success: true,
        Data:    echo.Map{"created": n},
        Message: strconv.Itoa(n) + " tables created",
    })
}

// List handles GET /v1/tables.
func (h *TableHandler) List(c echo.Context) error {
    tables, err := h.Seating.ListTables(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, tables)
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    t, err := h.Seating.GetTable(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, t)
}

// Update handles PATCH /v1/tables/:id: rename and resize together.
func (h *TableHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    var req updateTableReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    if err := h.Seating.UpdateTableCapacity(c.Request().Context(), id, req.NewName, req.NewSeatsCount); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "table updated")
}

// Rename handles PUT /v1/tables/:id/name.
func (h *TableHandler) Rename(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    var req struct {
        Name string `json:"name"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    if err := h.Seating.RenameTable(c.Request().Context(), id, req.Name); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "table renamed")
}

// UpdateNotes handles PUT /v1/tables/:id/notes.  Empty notes clear them.
func (h *TableHandler) UpdateNotes(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    var req struct {
        Notes string `json:"notes"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    if err := h.Seating.UpdateTableNotes(c.Request().Context(), id, req.Notes); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "notes updated")
}

// Delete handles DELETE /v1/tables/:id.
func (h *TableHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    if err := h.Seating.DeleteTable(c.Request().Context(), model.TableRef{ID: id}); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "table deleted")
}

// DeleteByNumber handles DELETE /v1/tables/number/:number.
func (h *TableHandler) DeleteByNumber(c echo.Context) error {
    n, err := strconv.Atoi(c.Param("number"))
    if err != nil || n <= 0 {
        return fail(c, http.StatusBadRequest, "invalid number")
    }
    if err := h.Seating.DeleteTable(c.Request().Context(), model.TableRef{Number: &n}); err != nil {
        return respondError(c, err)
    }
    return okMessage(c, "table deleted")
}

// DeleteAll handles DELETE /v1/tables.
func (h *TableHandler) DeleteAll(c echo.Context) error {
    n, err := h.Seating.DeleteAllTables(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, envelope{Success: true, Data: echo.Map{"deleted": n}, Message: "all tables deleted"})
}
