package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/seatplan/internal/queue"
)

// EventPublisher delivers seating events after a transaction commits.
// *queue.Publisher and queue.NoopPublisher implement it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SeatingEvent) error
}

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 2 * time.Second

// emit publishes ev without failing the caller: the data is already
// committed, so a broker outage only loses the notification.
func emit(ctx context.Context, pub EventPublisher, log *zap.Logger, ev queue.SeatingEvent) {
	if pub == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil && log != nil {
		log.Warn("publish seating event", zap.String("type", ev.Type), zap.Error(err))
	}
}
