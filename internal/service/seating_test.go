package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/repository"
	"github.com/iliyamo/seatplan/internal/testutil"
)

func intPtr(n int) *int { return &n }

func TestCreateTable(t *testing.T) {
	d, _ := newTestDeps(t)
	svc := NewSeatingService(d)
	ctx := context.Background()

	tbl, err := svc.CreateTable(ctx, CreateTableInput{Number: intPtr(4), Seats: 6})
	require.NoError(t, err)
	assert.Equal(t, "Table 4", tbl.Name)
	require.Len(t, tbl.Seats, 6)
	for i, s := range tbl.Seats {
		assert.Equal(t, i+1, s.SeatNumber)
		assert.False(t, s.IsBooked)
		assert.False(t, s.IsReceived)
		assert.Nil(t, s.UserID)
	}

	named, err := svc.CreateTable(ctx, CreateTableInput{Name: "  Family  ", Seats: 2})
	require.NoError(t, err)
	assert.Equal(t, "Family", named.Name)
	assert.Nil(t, named.Number)
}

func TestCreateTableValidation(t *testing.T) {
	d, _ := newTestDeps(t)
	svc := NewSeatingService(d)
	ctx := context.Background()

	cases := map[string]CreateTableInput{
		"no seats":       {Number: intPtr(1), Seats: 0},
		"too many seats": {Number: intPtr(1), Seats: 11},
		"no name":        {Seats: 3},
		"bad number":     {Number: intPtr(-2), Seats: 3},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateTable(ctx, in)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestCreateTableNumberTaken(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	testutil.SeedTable(t, db, 1, 1, 2)

	_, err := svc.CreateTable(context.Background(), CreateTableInput{Number: intPtr(1), Seats: 2})
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)
}

func TestCreateBulkTables(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	ctx := context.Background()

	configs := make([]model.BulkTableConfig, 0, 12)
	for n := 1; n <= 11; n++ {
		configs = append(configs, model.BulkTableConfig{TableNumber: n, Seats: model.SeatSpec{Count: 4}})
	}
	configs = append(configs, model.BulkTableConfig{TableNumber: 20, Seats: model.SeatSpec{Numbers: []int{2, 4, 9}}})

	n, err := svc.CreateBulkTables(ctx, configs)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	tables, err := svc.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 12)
	assert.Len(t, tables[0].Seats, 4)
	assert.Equal(t, []int{2, 4, 9}, testutil.SeatNumbers(t, db, tables[11].ID))
}

func TestCreateBulkTablesIsAllOrNothing(t *testing.T) {
	d, _ := newTestDeps(t)
	svc := NewSeatingService(d)
	ctx := context.Background()

	_, err := svc.CreateTable(ctx, CreateTableInput{Number: intPtr(7), Seats: 2})
	require.NoError(t, err)

	_, err = svc.CreateBulkTables(ctx, []model.BulkTableConfig{
		{TableNumber: 6, Seats: model.SeatSpec{Count: 2}},
		{TableNumber: 7, Seats: model.SeatSpec{Count: 2}},
	})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)

	tables, err := svc.ListTables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func TestCreateBulkTablesValidation(t *testing.T) {
	d, _ := newTestDeps(t)
	svc := NewSeatingService(d)
	ctx := context.Background()

	cases := map[string][]model.BulkTableConfig{
		"empty":              nil,
		"duplicate number":   {{TableNumber: 1, Seats: model.SeatSpec{Count: 2}}, {TableNumber: 1, Seats: model.SeatSpec{Count: 2}}},
		"zero number":        {{TableNumber: 0, Seats: model.SeatSpec{Count: 2}}},
		"too many seats":     {{TableNumber: 1, Seats: model.SeatSpec{Count: 11}}},
		"duplicate seat":     {{TableNumber: 1, Seats: model.SeatSpec{Numbers: []int{1, 1}}}},
		"non-positive seat":  {{TableNumber: 1, Seats: model.SeatSpec{Numbers: []int{0, 1}}}},
		"empty seat numbers": {{TableNumber: 1, Seats: model.SeatSpec{Numbers: []int{}}}},
	}
	for name, configs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateBulkTables(ctx, configs)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestCreateBulkTablesTimeout(t *testing.T) {
	d, _ := newTestDeps(t)
	svc := NewSeatingService(d)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := svc.CreateBulkTables(ctx, []model.BulkTableConfig{{TableNumber: 1, Seats: model.SeatSpec{Count: 2}}})
	assert.ErrorIs(t, err, ErrTransactionTimeout)
	assert.True(t, Retryable(err))
	assert.Equal(t, float64(1), counterValue(t, d, "create bulk tables"))
}

func TestUpdateTableCapacityGrowFromHighestSeat(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	tbl := testutil.SeedTable(t, db, 1, 1, 2, 4)

	require.NoError(t, svc.UpdateTableCapacity(context.Background(), tbl.ID, "", 5))
	assert.Equal(t, []int{1, 2, 4, 5, 6}, testutil.SeatNumbers(t, db, tbl.ID))
}

func TestUpdateTableCapacityShrinkRemovesHighestFree(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	tbl := testutil.SeedTable(t, db, 1, 1, 2, 3, 4, 5)
	a := testutil.SeedGuest(t, db, "Ada", "Lovelace")
	b := testutil.SeedGuest(t, db, "Alan", "Turing")
	testutil.BookSeat(t, db, tbl.ID, 4, a.ID)
	testutil.BookSeat(t, db, tbl.ID, 5, b.ID)

	require.NoError(t, svc.UpdateTableCapacity(context.Background(), tbl.ID, "Head table", 3))
	assert.Equal(t, []int{1, 4, 5}, testutil.SeatNumbers(t, db, tbl.ID))

	got, err := svc.GetTable(context.Background(), tbl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Head table", got.Name)
}

func TestUpdateTableCapacityShrinkFailureChangesNothing(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	tbl := testutil.SeedTable(t, db, 1, 1, 2, 3)
	for i, seat := range []int{2, 3} {
		g := testutil.SeedGuest(t, db, "Guest", string(rune('A'+i)))
		testutil.BookSeat(t, db, tbl.ID, seat, g.ID)
	}

	err := svc.UpdateTableCapacity(context.Background(), tbl.ID, "Renamed", 1)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Available)
	assert.Equal(t, 2, capErr.Requested)

	assert.Equal(t, []int{1, 2, 3}, testutil.SeatNumbers(t, db, tbl.ID))
	got, err := svc.GetTable(context.Background(), tbl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Table 1", got.Name)
}

func TestUpdateTableCapacityValidation(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	tbl := testutil.SeedTable(t, db, 1, 1)
	ctx := context.Background()

	var ve *ValidationError
	assert.ErrorAs(t, svc.UpdateTableCapacity(ctx, tbl.ID, "", 0), &ve)
	assert.ErrorAs(t, svc.UpdateTableCapacity(ctx, tbl.ID, "", 21), &ve)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.UpdateTableCapacity(ctx, 999, "", 3), &nf)
}

func TestRenameAndNotes(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	tbl := testutil.SeedTable(t, db, 1, 1)
	ctx := context.Background()

	require.NoError(t, svc.RenameTable(ctx, tbl.ID, "Bride's family"))
	require.NoError(t, svc.UpdateTableNotes(ctx, tbl.ID, "near the stage"))

	got, err := svc.GetTable(ctx, tbl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bride's family", got.Name)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "near the stage", *got.Notes)

	require.NoError(t, svc.UpdateTableNotes(ctx, tbl.ID, " "))
	got, err = svc.GetTable(ctx, tbl.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Notes)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.RenameTable(ctx, 999, "x"), &nf)
	var ve *ValidationError
	assert.ErrorAs(t, svc.RenameTable(ctx, tbl.ID, "  "), &ve)
}

func TestDeleteTableUnseatsGuests(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	ctx := context.Background()
	tbl := testutil.SeedTable(t, db, 3, 1, 2)
	g := testutil.SeedGuest(t, db, "Ada", "Lovelace")
	testutil.BookSeat(t, db, tbl.ID, 1, g.ID)

	require.NoError(t, svc.DeleteTable(ctx, model.TableRef{Number: intPtr(3)}))

	_, err := repository.NewTableRepo(db).GetByID(ctx, tbl.ID)
	assert.ErrorIs(t, err, repository.ErrTableNotFound)
	seated, err := repository.NewGuestRepo(db).HasSeat(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, seated)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.DeleteTable(ctx, model.TableRef{ID: tbl.ID}), &nf)
}

func TestDeleteAllTables(t *testing.T) {
	d, db := newTestDeps(t)
	svc := NewSeatingService(d)
	testutil.SeedTable(t, db, 1, 1, 2)
	testutil.SeedTable(t, db, 2, 1)

	n, err := svc.DeleteAllTables(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	tables, err := svc.ListTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}
