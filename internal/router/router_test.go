package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatplan/internal/auth"
	"github.com/iliyamo/seatplan/internal/config"
	"github.com/iliyamo/seatplan/internal/handler"
	"github.com/iliyamo/seatplan/internal/metrics"
	"github.com/iliyamo/seatplan/internal/repository"
	"github.com/iliyamo/seatplan/internal/service"
	"github.com/iliyamo/seatplan/internal/testutil"
)

const jwtSecret = "router-secret"

type apiResp struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// newServer wires the full route table over an in-memory database and
// seeds one admin and one staff account.
func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db := testutil.NewDB(t)
	m := metrics.New("router_test")
	deps := service.Deps{DB: db, Metrics: m}
	az := auth.NewRoleAuthorizer()
	accounts := service.NewAccountService(deps, az, 4)

	ctx := context.Background()
	require.NoError(t, accounts.EnsureAdmin(ctx, "admin@example.com", "admin-password"))
	_, err := accounts.CreateUser(ctx, "door@example.com", "staff-password", "STAFF")
	require.NoError(t, err)

	cfg := config.Config{JWTSecret: jwtSecret, AccessTTLMin: 15, RefreshTTLDays: 7}
	checkIn := config.CheckInConfig{Secret: jwtSecret, TTL: time.Hour, BaseURL: "/checkin"}

	e := echo.New()
	RegisterRoutes(e, db, m)
	RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), jwtSecret,
		func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	RegisterSeating(e, Protected{
		JWTSecret:  jwtSecret,
		Authorizer: az,
		Tables:     handler.NewTableHandler(service.NewSeatingService(deps)),
		Seats: handler.NewSeatHandler(
			service.NewAssignmentService(deps),
			service.NewCheckInService(deps, checkIn),
			service.NewQueryService(deps),
		),
		Guests:   handler.NewGuestHandler(service.NewGuestService(deps)),
		FloorMap: handler.NewFloorMapHandler(service.NewFloorMapService(deps, 1<<20)),
		Users:    handler.NewUserHandler(accounts),
	})
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, token string, body any) (int, apiResp) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out apiResp
	if rec.Body.Len() > 0 && rec.Header().Get(echo.HeaderContentType) != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func login(t *testing.T, e *echo.Echo, email, password string) string {
	t.Helper()
	code, resp := call(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, resp.Message)

	var data struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Access.Token)
	return data.Access.Token
}

func TestHealthAndMetrics(t *testing.T) {
	e := newServer(t)
	code, _ := call(t, e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, e, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	e := newServer(t)
	code, resp := call(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
}

func TestSeatingFlow(t *testing.T) {
	e := newServer(t)
	admin := login(t, e, "admin@example.com", "admin-password")

	code, _ := call(t, e, http.MethodGet, "/v1/tables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := call(t, e, http.MethodPost, "/v1/tables", admin, echo.Map{"tableNumber": 4, "seats": 3})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var tbl struct {
		ID    uint64 `json:"id"`
		Name  string `json:"name"`
		Seats []struct {
			Seat int `json:"seat"`
		} `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &tbl))
	assert.Equal(t, "Table 4", tbl.Name)
	assert.Len(t, tbl.Seats, 3)

	guestIDs := make([]uint64, 0, 2)
	for _, name := range []string{"Ada", "Alan"} {
		code, resp = call(t, e, http.MethodPost, "/v1/guests", admin, echo.Map{"firstname": name, "lastname": "Guest"})
		require.Equal(t, http.StatusCreated, code, resp.Message)
		var g struct {
			ID uint64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &g))
		guestIDs = append(guestIDs, g.ID)
	}

	code, resp = call(t, e, http.MethodPost, "/v1/assignments", admin, echo.Map{"tableNumber": 4, "guestIds": guestIDs})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var assigned []struct {
		Seat int `json:"seat"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &assigned))
	require.Len(t, assigned, 2)
	assert.Equal(t, 1, assigned[0].Seat)
	assert.Equal(t, 2, assigned[1].Seat)

	// Seating the same guests again is rejected as a client error.
	code, resp = call(t, e, http.MethodPost, "/v1/assignments", admin, echo.Map{"tableId": tbl.ID, "guestIds": guestIDs})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)

	code, resp = call(t, e, http.MethodGet, "/v1/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"tables":1,"seats":3,"booked":2,"received":0,"guests":2,"unassignedGuests":0}`, string(resp.Data))

	code, _ = call(t, e, http.MethodGet, "/v1/tables/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStaffCannotRunDestructiveOperations(t *testing.T) {
	e := newServer(t)
	staff := login(t, e, "door@example.com", "staff-password")

	code, _ := call(t, e, http.MethodGet, "/v1/tables", staff, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp := call(t, e, http.MethodDelete, "/v1/tables", staff, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", resp.Message)

	code, _ = call(t, e, http.MethodPost, "/v1/users", staff, echo.Map{"email": "x@example.com", "password": "long-enough", "role": "STAFF"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCreateUserConflict(t *testing.T) {
	e := newServer(t)
	admin := login(t, e, "admin@example.com", "admin-password")

	code, _ := call(t, e, http.MethodPost, "/v1/users", admin, echo.Map{"email": "door@example.com", "password": "long-enough", "role": "STAFF"})
	assert.Equal(t, http.StatusConflict, code)
}
