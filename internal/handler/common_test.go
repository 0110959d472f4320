package handler

import (
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/seatplan/internal/service"
)

func TestRespondErrorStatuses(t *testing.T) {
    cases := []struct {
        name   string
        err    error
        status int
        body   string
    }{
        {"validation", &service.ValidationError{Msg: "bad"}, http.StatusBadRequest, `{"success":false,"message":"bad"}`},
        {"capacity", &service.CapacityError{Available: 1, Requested: 2, Msg: "full"}, http.StatusBadRequest, `{"success":false,"message":"full"}`},
        {"conflict", &service.ConflictError{Msg: "taken"}, http.StatusBadRequest, `{"success":false,"message":"taken"}`},
        {"timeout", fmt.Errorf("bulk: %w", service.ErrTransactionTimeout), http.StatusInternalServerError,
            `{"success":false,"message":"operation timed out; retry with fewer items"}`},
        {"persistence", &service.PersistenceError{Op: "load seats", Err: errors.New("disk")}, http.StatusInternalServerError,
            `{"success":false,"message":"load seats failed"}`},
        {"unknown", errors.New("boom"), http.StatusInternalServerError, `{"success":false,"message":"internal error"}`},
    }
    e := echo.New()
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := httptest.NewRecorder()
            c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
            assert.NoError(t, respondError(c, tc.err))
            assert.Equal(t, tc.status, rec.Code)
            assert.JSONEq(t, tc.body, rec.Body.String())
        })
    }
}

func TestRespondErrorNotFound(t *testing.T) {
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
    assert.NoError(t, respondError(c, &service.NotFoundError{Resource: "table", Key: 9}))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}
