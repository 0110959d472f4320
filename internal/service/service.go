// Package service implements the seating plan: tables and seats, guest
// management, the assignment engine and check-in.  Every operation that
// writes runs in exactly one database transaction (guest import uses one
// per batch) and publishes an event only after commit.
package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/seatplan/internal/metrics"
	"github.com/iliyamo/seatplan/internal/repository"
)

// Timeouts bound each class of transaction.
type Timeouts struct {
	Bulk    time.Duration // bulk table creation
	Assign  time.Duration // guest assignment
	Default time.Duration // everything else
}

// Deps are shared by all services.
type Deps struct {
	DB        *sql.DB
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	Timeouts  Timeouts
}

type base struct {
	db       *sql.DB
	pub      EventPublisher
	metrics  *metrics.Metrics
	log      *zap.Logger
	timeouts Timeouts
}

func newBase(d Deps) base {
	t := d.Timeouts
	if t.Bulk <= 0 {
		t.Bulk = 30 * time.Second
	}
	if t.Assign <= 0 {
		t.Assign = 10 * time.Second
	}
	if t.Default <= 0 {
		t.Default = 5 * time.Second
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return base{db: d.DB, pub: d.Publisher, metrics: d.Metrics, log: log, timeouts: t}
}

// inTx runs fn in a transaction bounded by timeout and classifies the
// resulting error for op.
func (b base) inTx(ctx context.Context, op string, timeout time.Duration, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := wrapStore(op, repository.WithTx(ctx, b.db, func(tx *sql.Tx) error {
		return fn(ctx, tx)
	}))
	if err == ErrTransactionTimeout {
		b.metrics.RecordTxTimeout(op)
		b.log.Warn("transaction deadline exceeded", zap.String("op", op), zap.Duration("timeout", timeout))
	}
	return err
}

// read runs fn against the pool with the default timeout.
func (b base) read(ctx context.Context, op string, fn func(ctx context.Context, db repository.DBTX) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeouts.Default)
	defer cancel()
	return wrapStore(op, fn(ctx, b.db))
}
