package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/seatplan/internal/model"
)

// GuestRepo provides access to guests.
type GuestRepo struct {
	db DBTX
}

func NewGuestRepo(db DBTX) *GuestRepo {
	return &GuestRepo{db: db}
}

// GuestFilter narrows List by seating state.
type GuestFilter string

const (
	GuestsAll        GuestFilter = "all"
	GuestsAssigned   GuestFilter = "assigned"
	GuestsUnassigned GuestFilter = "unassigned"
)

// Create inserts a guest and sets g.ID.  The name key is derived here so
// every insert path agrees with FindByNameKey.
func (r *GuestRepo) Create(ctx context.Context, g *model.Guest) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO guests (firstname, lastname, name_key) VALUES (?, ?, ?)`,
		g.Firstname, g.Lastname, model.GuestNameKey(g.Firstname, g.Lastname))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// GetByID returns a guest or ErrGuestNotFound.
func (r *GuestRepo) GetByID(ctx context.Context, id uint64) (*model.Guest, error) {
	var g model.Guest
	err := r.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, created_at FROM guests WHERE id = ?`, id).
		Scan(&g.ID, &g.Firstname, &g.Lastname, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FindByNameKey returns the oldest guest stored under key (see
// model.GuestNameKey).  The comparison is byte-exact on both drivers.
func (r *GuestRepo) FindByNameKey(ctx context.Context, key string) (*model.Guest, error) {
	var g model.Guest
	err := r.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname FROM guests WHERE name_key = ? ORDER BY id LIMIT 1`, key).
		Scan(&g.ID, &g.Firstname, &g.Lastname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ExistingIDs returns which of ids belong to a guest.
func (r *GuestRepo) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	found := make(map[uint64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM guests WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}

// SeatedIDs returns which of ids already hold a seat.
func (r *GuestRepo) SeatedIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	seated := make(map[uint64]bool)
	if len(ids) == 0 {
		return seated, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT guest_id FROM seats WHERE guest_id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seated[id] = true
	}
	return seated, rows.Err()
}

// HasSeat reports whether any seat references the guest.
func (r *GuestRepo) HasSeat(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE guest_id = ?`, id).Scan(&n)
	return n > 0, err
}

// List returns guests with their seat, if any, ordered by id.
func (r *GuestRepo) List(ctx context.Context, filter GuestFilter) ([]model.GuestWithSeat, error) {
	q := `SELECT g.id, g.firstname, g.lastname, s.id, s.table_id, s.seat_number, s.is_received
	      FROM guests g
	      LEFT JOIN seats s ON s.guest_id = g.id`
	switch filter {
	case GuestsAssigned:
		q += ` WHERE s.id IS NOT NULL`
	case GuestsUnassigned:
		q += ` WHERE s.id IS NULL`
	}
	q += ` ORDER BY g.id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.GuestWithSeat{}
	for rows.Next() {
		var (
			g        model.GuestWithSeat
			seatID   sql.NullInt64
			tableID  sql.NullInt64
			seatNum  sql.NullInt64
			received sql.NullBool
		)
		if err := rows.Scan(&g.ID, &g.Firstname, &g.Lastname, &seatID, &tableID, &seatNum, &received); err != nil {
			return nil, err
		}
		if seatID.Valid {
			sid, tid, n := uint64(seatID.Int64), uint64(tableID.Int64), int(seatNum.Int64)
			g.SeatID, g.TableID, g.SeatNumber = &sid, &tid, &n
			g.IsReceived = received.Bool
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Delete removes a guest.  The caller checks HasSeat first; the foreign key
// rejects the delete otherwise.
func (r *GuestRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGuestNotFound
	}
	return nil
}
