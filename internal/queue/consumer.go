package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Consumer drains SeatingQueue and appends one line per event to a plain
// text activity log (logs/checkin.log by default) that door staff can tail.
type Consumer struct {
    URL     string
    LogPath string
    Log     *zap.Logger
}

// Run connects, consumes and reconnects with exponential backoff (capped at
// 30s) until ctx is cancelled.  It only returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
    log := c.Log
    if log == nil {
        log = zap.NewNop()
    }
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Warn("seating-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("seating-consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("seating-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(SeatingQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(SeatingQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.HandleMessage(d.Body); err != nil {
                log.Warn("seating-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends it to the activity log.
func (c *Consumer) HandleMessage(body []byte) error {
    var ev SeatingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }

    path := c.LogPath
    if path == "" {
        path = filepath.Join("logs", "checkin.log")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatEvent(ev) + "\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatEvent renders an event as a single human-friendly line.
func FormatEvent(ev SeatingEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type)
    if ev.TableID != 0 {
        fmt.Fprintf(&b, " | table_id=%d", ev.TableID)
    }
    if ev.TableName != "" {
        fmt.Fprintf(&b, " | table=%q", ev.TableName)
    }
    if len(ev.SeatIDs) > 0 {
        fmt.Fprintf(&b, " | seats=%s", joinIDs(ev.SeatIDs))
    }
    if len(ev.GuestIDs) > 0 {
        fmt.Fprintf(&b, " | guests=%s", joinIDs(ev.GuestIDs))
    }
    if ev.GuestName != "" {
        fmt.Fprintf(&b, " | guest=%q", ev.GuestName)
    }
    if ev.Count != 0 {
        fmt.Fprintf(&b, " | count=%d", ev.Count)
    }
    if ev.Source != "" {
        fmt.Fprintf(&b, " | source=%s", ev.Source)
    }
    return b.String()
}

func joinIDs(ids []uint64) string {
    parts := make([]string, len(ids))
    for i, id := range ids {
        parts[i] = fmt.Sprint(id)
    }
    return "[" + strings.Join(parts, ",") + "]"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
