package handler // handler package holds the HTTP layer of the seating service

import (
    "errors"   // errors inspects typed service errors
    "net/http" // http defines status code constants
    "strconv"  // strconv parses identifiers from path params

    "github.com/labstack/echo/v4" // echo framework provides context and JSON helpers
    "go.uber.org/zap"

    "github.com/iliyamo/seatplan/internal/logger"
    "github.com/iliyamo/seatplan/internal/service"
)

// envelope is the body of every JSON response under /v1.
type envelope struct {
    Success bool   `json:"success"`
    Data    any    `json:"data,omitempty"`
    Message string `json:"message,omitempty"`
}

func ok(c echo.Context, data any) error {
    return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c echo.Context, data any) error {
    return c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func okMessage(c echo.Context, msg string) error {
    return c.JSON(http.StatusOK, envelope{Success: true, Message: msg})
}

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, envelope{Success: false, Message: msg})
}

// respondError maps service errors to HTTP statuses.  Client errors carry
// the service message; 5xx responses carry only the failed operation and the
// cause is logged.
func respondError(c echo.Context, err error) error {
    var (
        ve *service.ValidationError
        ne *service.NotFoundError
        ce *service.CapacityError
        fe *service.ConflictError
        pe *service.PersistenceError
    )
    switch {
    case errors.As(err, &ve):
        return fail(c, http.StatusBadRequest, ve.Error())
    case errors.As(err, &ce):
        return fail(c, http.StatusBadRequest, ce.Error())
    case errors.As(err, &fe):
        return fail(c, http.StatusBadRequest, fe.Error())
    case errors.As(err, &ne):
        return fail(c, http.StatusNotFound, ne.Error())
    case service.Retryable(err):
        logger.FromEcho(c).Error("transaction timed out", zap.Error(err))
        return fail(c, http.StatusInternalServerError, "operation timed out; retry with fewer items")
    case errors.As(err, &pe):
        logger.FromEcho(c).Error("persistence failure", zap.String("op", pe.Op), zap.Error(pe.Err))
        return fail(c, http.StatusInternalServerError, pe.Op+" failed")
    }
    logger.FromEcho(c).Error("unexpected error", zap.Error(err))
    return fail(c, http.StatusInternalServerError, "internal error")
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// getUserID extracts the authenticated user's ID from the Echo context.
// JWTAuth stores it as uint64; other representations are tolerated.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}
