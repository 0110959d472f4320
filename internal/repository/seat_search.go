package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/seatplan/internal/model"
)

// Read-side queries joining seats with their table and guest.

const seatDetailSelect = `SELECT ` + seatColumns + `, t.number, t.name, g.id, g.firstname, g.lastname
	FROM seats s
	JOIN seating_tables t ON t.id = s.table_id
	LEFT JOIN guests g ON g.id = s.guest_id`

const seatDetailOrder = ` ORDER BY CASE WHEN t.number IS NULL THEN 1 ELSE 0 END, t.number, t.id, s.seat_number`

func scanSeatDetail(row interface{ Scan(...any) error }) (*model.SeatDetail, error) {
	var (
		d         model.SeatDetail
		guestRef  sql.NullInt64
		tableNum  sql.NullInt64
		guestID   sql.NullInt64
		firstname sql.NullString
		lastname  sql.NullString
	)
	if err := row.Scan(
		&d.ID, &d.TableID, &d.SeatNumber, &d.IsBooked, &d.IsReceived, &guestRef,
		&tableNum, &d.TableName, &guestID, &firstname, &lastname,
	); err != nil {
		return nil, err
	}
	if guestRef.Valid {
		g := uint64(guestRef.Int64)
		d.UserID = &g
	}
	if tableNum.Valid {
		n := int(tableNum.Int64)
		d.TableNumber = &n
	}
	if guestID.Valid {
		d.Guest = &model.Guest{
			ID:        uint64(guestID.Int64),
			Firstname: firstname.String,
			Lastname:  lastname.String,
		}
	}
	return &d, nil
}

func (r *SeatRepo) queryDetails(ctx context.Context, q string, args ...any) ([]model.SeatDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SeatDetail{}
	for rows.Next() {
		d, err := scanSeatDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetDetail returns one seat with its table and guest.
func (r *SeatRepo) GetDetail(ctx context.Context, id uint64) (*model.SeatDetail, error) {
	d, err := scanSeatDetail(r.db.QueryRowContext(ctx, seatDetailSelect+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return d, err
}

// ListDetails returns all seats joined with table and guest.
func (r *SeatRepo) ListDetails(ctx context.Context) ([]model.SeatDetail, error) {
	return r.queryDetails(ctx, seatDetailSelect+seatDetailOrder)
}

// GetByGuest returns the seat held by a guest or ErrSeatNotFound.
func (r *SeatRepo) GetByGuest(ctx context.Context, guestID uint64) (*model.SeatDetail, error) {
	d, err := scanSeatDetail(r.db.QueryRowContext(ctx, seatDetailSelect+` WHERE s.guest_id = ?`, guestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return d, err
}

// SearchByGuestName returns booked seats whose guest matches every token as
// a case-insensitive substring of the first or last name.
func (r *SeatRepo) SearchByGuestName(ctx context.Context, tokens []string) ([]model.SeatDetail, error) {
	if len(tokens) == 0 {
		return []model.SeatDetail{}, nil
	}
	var (
		where strings.Builder
		args  = make([]any, 0, len(tokens)*2)
	)
	where.WriteString(` WHERE s.guest_id IS NOT NULL`)
	for _, tok := range tokens {
		pattern := "%" + escapeLike(strings.ToLower(tok)) + "%"
		where.WriteString(` AND (LOWER(g.firstname) LIKE ? ESCAPE '!' OR LOWER(g.lastname) LIKE ? ESCAPE '!')`)
		args = append(args, pattern, pattern)
	}
	return r.queryDetails(ctx, seatDetailSelect+where.String()+seatDetailOrder, args...)
}

// Stats counts tables, seats and guests in one round trip per figure.
func (r *SeatRepo) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	queries := []struct {
		q   string
		dst *int
	}{
		{`SELECT COUNT(*) FROM seating_tables`, &st.Tables},
		{`SELECT COUNT(*) FROM seats`, &st.Seats},
		{`SELECT COUNT(*) FROM seats WHERE is_booked = 1`, &st.Booked},
		{`SELECT COUNT(*) FROM seats WHERE is_received = 1`, &st.Received},
		{`SELECT COUNT(*) FROM guests`, &st.Guests},
		{`SELECT COUNT(*) FROM guests g WHERE NOT EXISTS (SELECT 1 FROM seats s WHERE s.guest_id = g.id)`, &st.UnassignedGuests},
	}
	for _, q := range queries {
		if err := r.db.QueryRowContext(ctx, q.q).Scan(q.dst); err != nil {
			return model.Stats{}, err
		}
	}
	return st, nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
