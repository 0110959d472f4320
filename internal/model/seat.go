package model

// Seat is one seat at a table.  IsBooked is true exactly when UserID is set.
// IsReceived (the guest arrived) is tracked independently of booking.
//
// Fields:
//  ID         – primary key identifier.
//  TableID    – owning table.
//  SeatNumber – 1-based position, unique within the table.
//  IsBooked   – whether a guest holds the seat.
//  IsReceived – whether the guest has checked in.
//  UserID     – guest holding the seat (nullable).
type Seat struct {
    ID         uint64  `json:"id"`         // seats.id
    TableID    uint64  `json:"tableId"`    // seats.table_id
    SeatNumber int     `json:"seat"`       // seats.seat_number
    IsBooked   bool    `json:"isBooked"`   // seats.is_booked
    IsReceived bool    `json:"isReceived"` // seats.is_received
    UserID     *uint64 `json:"userId"`     // seats.guest_id (nullable)
}

// SeatDetail is a seat joined with its table and, when booked, its guest.
type SeatDetail struct {
    Seat
    TableNumber *int   `json:"tableNumber,omitempty"`
    TableName   string `json:"tableName"`
    Guest       *Guest `json:"guest,omitempty"`
}

// Stats summarises the seating plan.
type Stats struct {
    Tables           int `json:"tables"`
    Seats            int `json:"seats"`
    Booked           int `json:"booked"`
    Received         int `json:"received"`
    Guests           int `json:"guests"`
    UnassignedGuests int `json:"unassignedGuests"`
}
