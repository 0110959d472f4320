package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher sends SeatingEvents to RabbitMQ.  The connection is opened
// lazily and reopened after the broker drops it.  Failures are logged and
// returned; callers treat them as non-fatal because the database already
// committed.
type Publisher struct {
    url   string
    queue string
    log   *zap.Logger

    sem  chan struct{} // one publisher at a time; waiting honours ctx
    conn *amqp.Connection
}

// NewPublisher does not dial; the first Publish does.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, queue: SeatingQueue, log: log, sem: make(chan struct{}, 1)}
}

// dialTimeout bounds a dial when the caller's context has no deadline.
const dialTimeout = 5 * time.Second

// connection returns the open connection or dials a new one.  The dial and
// the AMQP handshake both stop at ctx's deadline, so a broker that accepts
// TCP but never answers cannot stall a caller past it.
func (p *Publisher) connection(ctx context.Context) (*amqp.Connection, error) {
    if p.conn != nil && !p.conn.IsClosed() {
        return p.conn, nil
    }
    if err := ctx.Err(); err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    timeout := dialTimeout
    if dl, ok := ctx.Deadline(); ok {
        if timeout = time.Until(dl); timeout <= 0 {
            return nil, fmt.Errorf("dial: %w", context.DeadlineExceeded)
        }
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    p.conn = conn
    return conn, nil
}

// Publish declares the queue (idempotent, durable) and sends ev as a
// persistent JSON message on the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev SeatingEvent) error {
    if ev.OccurredAt.IsZero() {
        ev.OccurredAt = time.Now().UTC()
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    select {
    case p.sem <- struct{}{}:
    case <-ctx.Done():
        p.log.Warn("rabbitmq publish skipped", zap.String("type", ev.Type), zap.Error(ctx.Err()))
        return ctx.Err()
    }
    defer func() { <-p.sem }()

    conn, err := p.connection(ctx)
    if err != nil {
        p.log.Warn("rabbitmq publish skipped", zap.String("type", ev.Type), zap.Error(err))
        return err
    }
    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        p.log.Warn("rabbitmq queue declare failed", zap.Error(err))
        return err
    }

    err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    ev.OccurredAt,
        Type:         ev.Type,
        Body:         body,
    })
    if err != nil {
        p.log.Warn("rabbitmq publish failed", zap.String("type", ev.Type), zap.Error(err))
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.sem <- struct{}{}
    defer func() { <-p.sem }()
    if p.conn == nil || p.conn.IsClosed() {
        return nil
    }
    return p.conn.Close()
}

// NoopPublisher drops every event.  It is used when EVENTS_ENABLED is off.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, SeatingEvent) error { return nil }
