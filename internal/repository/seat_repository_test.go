package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatplan/internal/repository"
	"github.com/iliyamo/seatplan/internal/testutil"
)

func TestBindRefusesBookedSeat(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 1, 1, 2)
	ada := testutil.SeedGuest(t, db, "Ada", "Lovelace")
	alan := testutil.SeedGuest(t, db, "Alan", "Turing")
	seat := testutil.SeatByNumber(t, db, tbl.ID, 1)

	seats := repository.NewSeatRepo(db)
	require.NoError(t, seats.Bind(ctx, seat.ID, ada.ID))
	assert.ErrorIs(t, seats.Bind(ctx, seat.ID, alan.ID), repository.ErrSeatTaken)

	got := testutil.SeatByNumber(t, db, tbl.ID, 1)
	require.NotNil(t, got.UserID)
	assert.Equal(t, ada.ID, *got.UserID, "first binder keeps the seat")
}

func TestBindRefusesSeatedGuest(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 1, 1, 2)
	ada := testutil.SeedGuest(t, db, "Ada", "Lovelace")

	seats := repository.NewSeatRepo(db)
	require.NoError(t, seats.Bind(ctx, testutil.SeatByNumber(t, db, tbl.ID, 1).ID, ada.ID))
	err := seats.Bind(ctx, testutil.SeatByNumber(t, db, tbl.ID, 2).ID, ada.ID)
	assert.ErrorIs(t, err, repository.ErrGuestSeated)
	assert.False(t, testutil.SeatByNumber(t, db, tbl.ID, 2).IsBooked)
}

func TestFindByNameKey(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	first := testutil.SeedGuest(t, db, "Émile", "Zola")
	testutil.SeedGuest(t, db, "ÉMILE", "ZOLA")

	guests := repository.NewGuestRepo(db)
	g, err := guests.FindByNameKey(ctx, "émile\tzola")
	require.NoError(t, err)
	assert.Equal(t, first.ID, g.ID, "oldest match wins")

	_, err = guests.FindByNameKey(ctx, "emile\tzola")
	assert.ErrorIs(t, err, repository.ErrGuestNotFound)
}
