package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/seatplan/internal/model"
)

// TableRepo provides access to seating_tables.
type TableRepo struct {
	db DBTX
}

// NewTableRepo constructs a TableRepo on a pool or a transaction.
func NewTableRepo(db DBTX) *TableRepo {
	return &TableRepo{db: db}
}

const tableColumns = `id, number, name, notes, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
	var (
		t      model.Table
		number sql.NullInt64
		notes  sql.NullString
	)
	if err := row.Scan(&t.ID, &number, &t.Name, &notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if number.Valid {
		n := int(number.Int64)
		t.Number = &n
	}
	if notes.Valid {
		s := notes.String
		t.Notes = &s
	}
	return &t, nil
}

// Create inserts a table.  On success t.ID is populated.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	var number, notes any
	if t.Number != nil {
		number = *t.Number
	}
	if t.Notes != nil {
		notes = *t.Notes
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seating_tables (number, name, notes) VALUES (?, ?, ?)`,
		number, t.Name, notes)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTableNumberTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID returns a table or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM seating_tables WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	return t, err
}

// GetByNumber resolves the stable table number.  The display name is never
// used as a key.
func (r *TableRepo) GetByNumber(ctx context.Context, number int) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM seating_tables WHERE number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	return t, err
}

// Resolve looks a table up by id when set, otherwise by number.
func (r *TableRepo) Resolve(ctx context.Context, ref model.TableRef) (*model.Table, error) {
	switch {
	case ref.ID != 0:
		return r.GetByID(ctx, ref.ID)
	case ref.Number != nil:
		return r.GetByNumber(ctx, *ref.Number)
	default:
		return nil, ErrTableNotFound
	}
}

// List returns all tables ordered by number (unnumbered last) then id.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tableColumns+` FROM seating_tables
		 ORDER BY CASE WHEN number IS NULL THEN 1 ELSE 0 END, number, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ExistingNumbers returns which of numbers are already used by a table.
func (r *TableRepo) ExistingNumbers(ctx context.Context, numbers []int) ([]int, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	args := make([]any, len(numbers))
	for i, n := range numbers {
		args[i] = n
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT number FROM seating_tables WHERE number IN (`+placeholders(len(numbers))+`) ORDER BY number`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Rename sets the display label.
func (r *TableRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seating_tables SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return affectedOrMissing(ctx, r.db, res, "seating_tables", id, ErrTableNotFound)
}

// UpdateNotes replaces the notes; nil clears them.
func (r *TableRepo) UpdateNotes(ctx context.Context, id uint64, notes *string) error {
	var v any
	if notes != nil {
		v = *notes
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE seating_tables SET notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, v, id)
	if err != nil {
		return err
	}
	return affectedOrMissing(ctx, r.db, res, "seating_tables", id, ErrTableNotFound)
}

// Delete removes one table.  Seats must be deleted first.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seating_tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// DeleteAll removes every table and returns how many were deleted.
func (r *TableRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seating_tables`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
