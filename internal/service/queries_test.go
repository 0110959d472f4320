package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatplan/internal/auth"
	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/testutil"
	"github.com/iliyamo/seatplan/internal/utils"
)

func TestSearchSeatByName(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewQueryService(d)
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 2, 1, 2, 3)
	ada := testutil.SeedGuest(t, db, "Ada", "Lovelace")
	alan := testutil.SeedGuest(t, db, "Alan", "Turing")
	testutil.SeedGuest(t, db, "Adam", "Unseated")
	testutil.BookSeat(t, db, tbl.ID, 1, ada.ID)
	testutil.BookSeat(t, db, tbl.ID, 3, alan.ID)

	got, err := svc.SearchSeatByName(ctx, "ada love")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].SeatNumber)
	require.NotNil(t, got[0].TableNumber)
	assert.Equal(t, 2, *got[0].TableNumber)

	got, err = svc.SearchSeatByName(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got, 2, "unseated guests never match")

	got, err = svc.SearchSeatByName(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.SearchSeatByName(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.SearchSeatByName(ctx, "   ")
	require.NoError(t, err, "a blank name is an empty result, not an error")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindGuestSeatAndStats(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewQueryService(d)
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 1, 1, 2)
	testutil.SeedTable(t, db, 2, 1)
	ada := testutil.SeedGuest(t, db, "Ada", "Lovelace")
	alan := testutil.SeedGuest(t, db, "Alan", "Turing")
	testutil.BookSeat(t, db, tbl.ID, 2, ada.ID)

	seat, err := svc.FindGuestSeat(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, seat.SeatNumber)

	var nf *NotFoundError
	_, err = svc.FindGuestSeat(ctx, alan.ID)
	assert.ErrorAs(t, err, &nf)
	_, err = svc.FindGuestSeat(ctx, 999)
	assert.ErrorAs(t, err, &nf)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Tables: 2, Seats: 3, Booked: 1, Received: 0, Guests: 2, UnassignedGuests: 1}, st)

	seats, err := svc.ListSeats(ctx)
	require.NoError(t, err)
	assert.Len(t, seats, 3)
}

func TestFloorMapReplace(t *testing.T) {
	d, _ := newTestDeps(t)
	svc := NewFloorMapService(d, 16)
	ctx := context.Background()

	_, err := svc.Get(ctx)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	img, err := svc.Replace(ctx, "hall.png", "image/png", "data:image/png;base64,"+payload)
	require.NoError(t, err)
	assert.Equal(t, 9, img.Size)

	img, err = svc.Replace(ctx, "hall2.png", "image/png", payload)
	require.NoError(t, err)

	cur, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hall2.png", cur.Filename)
	assert.Equal(t, img.ID, cur.ID)

	var ve *ValidationError
	_, err = svc.Replace(ctx, "a.pdf", "application/pdf", payload)
	assert.ErrorAs(t, err, &ve)
	_, err = svc.Replace(ctx, "big.png", "image/png", base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 17))))
	assert.ErrorAs(t, err, &ve)
	_, err = svc.Replace(ctx, "bad.png", "image/png", "not base64!")
	assert.ErrorAs(t, err, &ve)

	// URLs count their own length against the limit.
	_, err = svc.Replace(ctx, "remote.png", "image/png", "https://x.io/m")
	require.NoError(t, err)
	_, err = svc.Replace(ctx, "remote.png", "image/png", "https://cdn.example/map.png")
	assert.ErrorAs(t, err, &ve)
}

func TestAccounts(t *testing.T) {
	d, _ := newTestDeps(t)
	svc := NewAccountService(d, auth.NewRoleAuthorizer(), 4)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "Admin@Example.com", "correct-horse"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "ignored-now"))

	u, err := svc.CreateUser(ctx, "staff@example.com", "long-enough", "staff")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "long-enough"))

	var ce *ConflictError
	_, err = svc.CreateUser(ctx, "ADMIN@example.com", "long-enough", "STAFF")
	assert.ErrorAs(t, err, &ce)

	var ve *ValidationError
	_, err = svc.CreateUser(ctx, "x@example.com", "short", "STAFF")
	assert.ErrorAs(t, err, &ve)
	_, err = svc.CreateUser(ctx, "x@example.com", "long-enough", "OWNER")
	assert.ErrorAs(t, err, &ve)
}
