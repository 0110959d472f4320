package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"
	"strings"

	"github.com/iliyamo/seatplan/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db DBTX
}

// NewSeatRepo constructs a SeatRepo with the given handle.
func NewSeatRepo(db DBTX) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `s.id, s.table_id, s.seat_number, s.is_booked, s.is_received, s.guest_id`

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
	var (
		s     model.Seat
		guest sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.TableID, &s.SeatNumber, &s.IsBooked, &s.IsReceived, &guest); err != nil {
		return nil, err
	}
	if guest.Valid {
		g := uint64(guest.Int64)
		s.UserID = &g
	}
	return &s, nil
}

func (r *SeatRepo) querySeats(ctx context.Context, q string, args ...any) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CreateBulk inserts unbooked seats with the given numbers in a single
// statement.
func (r *SeatRepo) CreateBulk(ctx context.Context, tableID uint64, numbers []int) error {
	if len(numbers) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (table_id, seat_number, is_booked, is_received) VALUES `)
	args := make([]any, 0, len(numbers)*4)
	for i, n := range numbers {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, tableID, n, false, false)
	}
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	s, err := scanSeat(r.db.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM seats s WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// ListByTable returns the seats of one table ordered by seat number.
func (r *SeatRepo) ListByTable(ctx context.Context, tableID uint64) ([]model.Seat, error) {
	return r.querySeats(ctx,
		`SELECT `+seatColumns+` FROM seats s WHERE s.table_id = ? ORDER BY s.seat_number`, tableID)
}

// ListAll returns every seat ordered by table then seat number.
func (r *SeatRepo) ListAll(ctx context.Context) ([]model.Seat, error) {
	return r.querySeats(ctx,
		`SELECT `+seatColumns+` FROM seats s ORDER BY s.table_id, s.seat_number`)
}

// UnbookedByTable returns the free seats of a table, lowest number first.
// The assignment engine binds guests in exactly this order.
func (r *SeatRepo) UnbookedByTable(ctx context.Context, tableID uint64) ([]model.Seat, error) {
	return r.querySeats(ctx,
		`SELECT `+seatColumns+` FROM seats s
		 WHERE s.table_id = ? AND s.is_booked = 0
		 ORDER BY s.seat_number`, tableID)
}

// MaxSeatNumber returns the highest seat number at a table, 0 when empty.
func (r *SeatRepo) MaxSeatNumber(ctx context.Context, tableID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seat_number), 0) FROM seats WHERE table_id = ?`, tableID).Scan(&n)
	return n, err
}

// DeleteUnbooked removes the given seats if they are still unbooked and
// returns how many were deleted.
func (r *SeatRepo) DeleteUnbooked(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM seats WHERE is_booked = 0 AND id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByTable removes all seats associated with a table.
func (r *SeatRepo) DeleteByTable(ctx context.Context, tableID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM seats WHERE table_id = ?`, tableID)
	return err
}

// DeleteAll removes every seat.
func (r *SeatRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seats`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Bind books a free seat for a guest.  The update only matches while the
// seat is unbooked, so a concurrent binder that got there first leaves zero
// affected rows and ErrSeatTaken.  The unique index on guest_id turns a
// guest seated elsewhere into ErrGuestSeated.
func (r *SeatRepo) Bind(ctx context.Context, seatID, guestID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats SET is_booked = 1, guest_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND is_booked = 0`, guestID, seatID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrGuestSeated
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrSeatTaken
	}
	return nil
}

// Book sets the seat's guest without looking at the previous occupant.
func (r *SeatRepo) Book(ctx context.Context, seatID, guestID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats SET is_booked = 1, guest_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		guestID, seatID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrGuestSeated
		}
		return err
	}
	return affectedOrMissing(ctx, r.db, res, "seats", seatID, ErrSeatNotFound)
}

// Release clears booking, arrival and guest.  Releasing a free seat is a
// no-op.
func (r *SeatRepo) Release(ctx context.Context, seatID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats SET is_booked = 0, is_received = 0, guest_id = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, seatID)
	if err != nil {
		return err
	}
	return affectedOrMissing(ctx, r.db, res, "seats", seatID, ErrSeatNotFound)
}

// SetReceived flips the arrival flag only.
func (r *SeatRepo) SetReceived(ctx context.Context, seatID uint64, received bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats SET is_received = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		received, seatID)
	if err != nil {
		return err
	}
	return affectedOrMissing(ctx, r.db, res, "seats", seatID, ErrSeatNotFound)
}
