// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// SeatingQueue is the durable queue every seating event goes to.
const SeatingQueue = "seating.events"

// Event types carried in SeatingEvent.Type.
const (
    EventSeatsAssigned = "seats.assigned"
    EventSeatReleased  = "seat.released"
    EventSeatBooked    = "seat.booked"
    EventGuestArrived  = "guest.arrived"
    EventTablesChanged = "tables.changed"
    EventGuestsChanged = "guests.changed"
)

// SeatingEvent is published after a seating transaction commits.  It holds
// enough for the check-in log and for any dashboard that wants to refresh
// without polling.
type SeatingEvent struct {
    Type       string    `json:"type"`
    TableID    uint64    `json:"table_id,omitempty"`
    TableName  string    `json:"table_name,omitempty"`
    SeatIDs    []uint64  `json:"seat_ids,omitempty"`
    GuestIDs   []uint64  `json:"guest_ids,omitempty"`
    GuestName  string    `json:"guest_name,omitempty"`
    Count      int       `json:"count,omitempty"`
    Source     string    `json:"source,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}
