// Package testutil opens throwaway databases and seeds them for tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatplan/internal/database"
	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/repository"
)

// NewDB returns an in-memory SQLite database with the full schema.  It is
// closed when the test ends.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateSchema(context.Background(), db, database.DriverSQLite), "create schema")
	return db
}

// SeedTable creates a numbered table whose seats carry exactly the given
// seat numbers.
func SeedTable(t *testing.T, db *sql.DB, number int, seatNumbers ...int) *model.Table {
	t.Helper()
	ctx := context.Background()

	n := number
	tbl := &model.Table{Number: &n, Name: fmt.Sprintf("Table %d", number)}
	require.NoError(t, repository.NewTableRepo(db).Create(ctx, tbl))
	require.NoError(t, repository.NewSeatRepo(db).CreateBulk(ctx, tbl.ID, seatNumbers))
	return tbl
}

// SeedGuest inserts a guest.
func SeedGuest(t *testing.T, db *sql.DB, firstname, lastname string) *model.Guest {
	t.Helper()

	g := &model.Guest{Firstname: firstname, Lastname: lastname}
	require.NoError(t, repository.NewGuestRepo(db).Create(context.Background(), g))
	return g
}

// BookSeat binds the seat with the given number at a table to a guest.
func BookSeat(t *testing.T, db *sql.DB, tableID uint64, seatNumber int, guestID uint64) *model.Seat {
	t.Helper()

	seat := SeatByNumber(t, db, tableID, seatNumber)
	require.NoError(t, repository.NewSeatRepo(db).Bind(context.Background(), seat.ID, guestID))
	seat.IsBooked, seat.UserID = true, &guestID
	return seat
}

// SeatByNumber looks up one seat of a table.
func SeatByNumber(t *testing.T, db *sql.DB, tableID uint64, seatNumber int) *model.Seat {
	t.Helper()

	seats, err := repository.NewSeatRepo(db).ListByTable(context.Background(), tableID)
	require.NoError(t, err)
	for i := range seats {
		if seats[i].SeatNumber == seatNumber {
			return &seats[i]
		}
	}
	require.FailNowf(t, "seat not found", "table %d has no seat %d", tableID, seatNumber)
	return nil
}

// SeatNumbers returns the seat numbers of a table in ascending order.
func SeatNumbers(t *testing.T, db *sql.DB, tableID uint64) []int {
	t.Helper()

	seats, err := repository.NewSeatRepo(db).ListByTable(context.Background(), tableID)
	require.NoError(t, err)
	out := make([]int, 0, len(seats))
	for _, s := range seats {
		out = append(out, s.SeatNumber)
	}
	return out
}
