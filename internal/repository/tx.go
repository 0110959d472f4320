package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back otherwise, including on panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// rowExists checks a primary key in one of the repository tables.  MySQL
// reports zero affected rows when an UPDATE leaves a row unchanged, so
// updates fall back to this before claiming "not found".
func rowExists(ctx context.Context, db DBTX, table string, id uint64) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// affectedOrMissing turns a zero-row UPDATE into notFound when the row does
// not exist.
func affectedOrMissing(ctx context.Context, db DBTX, res sql.Result, table string, id uint64, notFound error) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	ok, err := rowExists(ctx, db, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}
