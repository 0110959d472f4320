package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before anything is written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing resource and the key it was looked up by.
type NotFoundError struct {
	Resource string
	Key      any
}

func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.Key)
}

// CapacityError reports a table without enough unbooked seats.
type CapacityError struct {
	Available int
	Requested int
	Msg       string
}

func (e *CapacityError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("not enough free seats: %d available, %d requested", e.Available, e.Requested)
}

// ConflictError covers state that forbids the operation, such as deleting a
// seated guest or seating a guest twice.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// PersistenceError wraps an unexpected storage failure.  Op is safe to show
// to clients; Err is not.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrTransactionTimeout is returned when the database closed a transaction
// because its deadline passed.  Retrying with less work may succeed.
var ErrTransactionTimeout = errors.New("operation timed out")

// Retryable reports whether the caller may retry err unchanged or with a
// smaller batch.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransactionTimeout)
}

// wrapStore keeps typed service errors and classifies everything else as a
// timeout or a persistence failure.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		ne *NotFoundError
		ce *CapacityError
		fe *ConflictError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ne), errors.As(err, &ce),
		errors.As(err, &fe), errors.As(err, &pe), errors.Is(err, ErrTransactionTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, sql.ErrTxDone):
		return ErrTransactionTimeout
	}
	return &PersistenceError{Op: op, Err: err}
}
