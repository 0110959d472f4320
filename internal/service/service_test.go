package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seatplan/internal/metrics"
	"github.com/iliyamo/seatplan/internal/queue"
	dbtest "github.com/iliyamo/seatplan/internal/testutil"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev queue.SeatingEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func newTestDeps(t *testing.T) (Deps, *sql.DB) {
	t.Helper()
	db := dbtest.NewDB(t)
	return Deps{DB: db, Metrics: metrics.New("test")}, db
}

func counterValue(t *testing.T, d Deps, op string) float64 {
	t.Helper()
	return testutil.ToFloat64(d.Metrics.TxTimeouts.WithLabelValues(op))
}

func TestWrapStoreClassifies(t *testing.T) {
	assert.Nil(t, wrapStore("op", nil))

	ve := invalid("bad")
	assert.Same(t, ve, wrapStore("op", ve))

	assert.ErrorIs(t, wrapStore("op", context.DeadlineExceeded), ErrTransactionTimeout)
	assert.ErrorIs(t, wrapStore("op", sql.ErrTxDone), ErrTransactionTimeout)

	err := wrapStore("load seats", errors.New("disk on fire"))
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "load seats", pe.Op)
	assert.False(t, Retryable(err))
	assert.True(t, Retryable(ErrTransactionTimeout))
}

func TestEmitSwallowsPublisherErrors(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	assert.NotPanics(t, func() {
		emit(context.Background(), pub, nil, queue.SeatingEvent{Type: queue.EventTablesChanged})
	})
	pub.AssertExpectations(t)

	emit(context.Background(), nil, nil, queue.SeatingEvent{Type: queue.EventTablesChanged})
}

func TestEmitOutlivesCanceledRequest(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }),
		mock.MatchedBy(func(ev queue.SeatingEvent) bool { return !ev.OccurredAt.IsZero() })).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	emit(ctx, pub, nil, queue.SeatingEvent{Type: queue.EventSeatReleased})
	pub.AssertExpectations(t)
}
