// Package repository holds the SQL data access for the seating plan.  Every
// repository accepts a DBTX so the same methods run on the pool or inside a
// transaction.  Lookups that find nothing return the sentinel errors below
// instead of sql.ErrNoRows so services can translate them with errors.Is.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrTableNumberTaken = errors.New("table number already in use")
	ErrSeatNotFound     = errors.New("seat not found")
	// ErrSeatTaken means a conditional bind found the seat already booked.
	ErrSeatTaken = errors.New("seat already booked")
	// ErrGuestSeated means the guest already holds another seat.
	ErrGuestSeated      = errors.New("guest already has a seat")
	ErrGuestNotFound    = errors.New("guest not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrFloorMapNotFound = errors.New("floor map not found")
	ErrRefreshInvalid   = errors.New("refresh token invalid")
)

// isUniqueViolation reports whether err is a duplicate-key error from either
// supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
