package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatplan/internal/config"
	"github.com/iliyamo/seatplan/internal/testutil"
	"github.com/iliyamo/seatplan/internal/utils"
)

func checkInConfig(allowPlain bool) config.CheckInConfig {
	return config.CheckInConfig{
		Secret:       "checkin-secret",
		TTL:          time.Hour,
		BaseURL:      "https://venue.example/checkin",
		AllowPlainID: allowPlain,
	}
}

func TestResolveCheckInToken(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewCheckInService(d, checkInConfig(false))
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 8, 1, 2)
	g := testutil.SeedGuest(t, db, "Ada", "Lovelace")
	seat := testutil.BookSeat(t, db, tbl.ID, 2, g.ID)

	tok, err := svc.IssueCheckInToken(ctx, seat.ID)
	require.NoError(t, err)
	assert.Contains(t, tok.URL, "https://venue.example/checkin?token=")

	detail, err := svc.ResolveCheckInToken(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, seat.ID, detail.ID)
	assert.True(t, detail.IsReceived)
	assert.True(t, detail.IsBooked)
	assert.Equal(t, "Table 8", detail.TableName)
	require.NotNil(t, detail.Guest)
	assert.Equal(t, "Lovelace", detail.Guest.Lastname)

	// The scanned URL works as well as the bare token.
	_, err = svc.ResolveCheckInToken(ctx, tok.URL)
	require.NoError(t, err)
}

func TestResolveCheckInTokenRejectsForgeries(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewCheckInService(d, checkInConfig(false))
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 1, 1)
	seat := testutil.SeatByNumber(t, db, tbl.ID, 1)

	forged, err := utils.NewCheckInToken("other-secret", seat.ID, time.Hour, "/checkin")
	require.NoError(t, err)

	var ve *ValidationError
	_, err = svc.ResolveCheckInToken(ctx, forged.Token)
	assert.ErrorAs(t, err, &ve)
	_, err = svc.ResolveCheckInToken(ctx, strconv.FormatUint(seat.ID, 10))
	assert.ErrorAs(t, err, &ve, "plain ids are disabled")
	_, err = svc.ResolveCheckInToken(ctx, "")
	assert.ErrorAs(t, err, &ve)

	assert.False(t, testutil.SeatByNumber(t, db, tbl.ID, 1).IsReceived)
}

func TestResolveCheckInPlainID(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewCheckInService(d, checkInConfig(true))
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 1, 1)
	seat := testutil.SeatByNumber(t, db, tbl.ID, 1)

	detail, err := svc.ResolveCheckInToken(ctx, strconv.FormatUint(seat.ID, 10))
	require.NoError(t, err)
	assert.True(t, detail.IsReceived)
	assert.Nil(t, detail.Guest)

	var nf *NotFoundError
	_, err = svc.ResolveCheckInToken(ctx, "9999")
	assert.ErrorAs(t, err, &nf)
}

func TestSetReceivedIgnoresBooking(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewCheckInService(d, checkInConfig(true))
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 1, 1)
	seat := testutil.SeatByNumber(t, db, tbl.ID, 1)

	require.NoError(t, svc.MarkArrived(ctx, seat.ID))
	got := testutil.SeatByNumber(t, db, tbl.ID, 1)
	assert.True(t, got.IsReceived)
	assert.False(t, got.IsBooked)

	require.NoError(t, svc.SetReceived(ctx, seat.ID, false))
	assert.False(t, testutil.SeatByNumber(t, db, tbl.ID, 1).IsReceived)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.SetReceived(ctx, 999, true), &nf)
	_, err := svc.IssueCheckInToken(ctx, 999)
	assert.ErrorAs(t, err, &nf)
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", extractToken("https://x.example/checkin?token=abc"))
	assert.Equal(t, "abc", extractToken("/checkin?event=1&token=abc"))
	assert.Equal(t, "42", extractToken("42"))
}
