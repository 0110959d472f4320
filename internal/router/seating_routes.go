package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seatplan/internal/auth"
	"github.com/iliyamo/seatplan/internal/middleware" // JWT + capability middlewares
)

// RegisterSeating registers the seating plan endpoints under /v1.  Every
// route requires a valid access token; each one is additionally gated by the
// capability it needs.
func RegisterSeating(e *echo.Echo, p Protected) {
	mws := append([]echo.MiddlewareFunc{middleware.JWTAuth(p.JWTSecret)}, p.Middlewares...)
	g := e.Group("/v1", mws...)
	can := func(a auth.Action) echo.MiddlewareFunc { return middleware.Authorize(p.Authorizer, a) }

	// ---- Tables ----
	t := p.Tables
	g.POST("/tables", t.Create, can(auth.ActionManageTables))
	g.POST("/tables/bulk", t.CreateBulk, can(auth.ActionManageTables))
	g.GET("/tables", t.List, can(auth.ActionView))
	g.GET("/tables/:id", t.Get, can(auth.ActionView))
	g.PATCH("/tables/:id", t.Update, can(auth.ActionManageTables))
	g.PUT("/tables/:id/name", t.Rename, can(auth.ActionManageTables))
	g.PUT("/tables/:id/notes", t.UpdateNotes, can(auth.ActionManageTables))
	g.DELETE("/tables/:id", t.Delete, can(auth.ActionManageTables))
	g.DELETE("/tables/number/:number", t.DeleteByNumber, can(auth.ActionManageTables))
	g.DELETE("/tables", t.DeleteAll, can(auth.ActionDestructive))

	// ---- Assignments and seats ----
	s := p.Seats
	g.POST("/assignments", s.AssignGuests, can(auth.ActionAssignSeats))
	g.PUT("/seats/:id/booking", s.Book, can(auth.ActionAssignSeats))
	g.DELETE("/seats/:id/booking", s.Unassign, can(auth.ActionAssignSeats))
	g.PUT("/seats/:id/received", s.SetReceived, can(auth.ActionCheckIn))
	g.GET("/seats/:id/checkin-token", s.CheckInToken, can(auth.ActionCheckIn))
	g.POST("/checkin", s.ResolveCheckIn, can(auth.ActionCheckIn))
	g.GET("/seats", s.List, can(auth.ActionView))
	g.POST("/seats/search", s.Search, can(auth.ActionView))
	g.GET("/stats", s.Stats, can(auth.ActionView))

	// ---- Guests ----
	gu := p.Guests
	g.POST("/guests", gu.Add, can(auth.ActionManageGuests))
	g.GET("/guests", gu.List, can(auth.ActionView))
	g.GET("/guests/:id/seat", s.GuestSeat, can(auth.ActionView))
	g.POST("/guests/import", gu.Import, can(auth.ActionManageGuests))
	g.DELETE("/guests/:id", gu.Delete, can(auth.ActionManageGuests))
	g.POST("/guests/remove-duplicates", gu.RemoveDuplicates, can(auth.ActionDestructive))

	// ---- Floor map ----
	g.GET("/floor-map", p.FloorMap.Get, can(auth.ActionView))
	g.PUT("/floor-map", p.FloorMap.Put, can(auth.ActionManageTables))

	// ---- Operators ----
	g.POST("/users", p.Users.Create, can(auth.ActionManageUsers))
}
