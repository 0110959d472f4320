package model

import (
    "encoding/json"
    "errors"
    "time"
)

// Table is a physical table owning one or more seats.  ID is the canonical
// key.  Number is an optional stable integer for callers that address
// tables by number; Name is a display label only.
//
// Fields:
//  ID        – primary key identifier.
//  Number    – unique table number (nullable).
//  Name      – display label, e.g. "Table 4".
//  Notes     – free text for the organiser (nullable).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Table struct {
    ID        uint64    `json:"id"`                // seating_tables.id
    Number    *int      `json:"number,omitempty"`  // seating_tables.number (nullable)
    Name      string    `json:"name"`              // seating_tables.name
    Notes     *string   `json:"notes,omitempty"`   // seating_tables.notes (nullable)
    CreatedAt time.Time `json:"-"`                 // seating_tables.created_at
    UpdatedAt time.Time `json:"-"`                 // seating_tables.updated_at
}

// TableWithSeats is a table together with its seats ordered by number.
type TableWithSeats struct {
    Table
    Seats []Seat `json:"seats"`
}

// TableRef addresses a table either by id or by its stable number.  ID wins
// when both are set.
type TableRef struct {
    ID     uint64
    Number *int
}

// SeatSpec is the "seats" field of a bulk table config: either a seat count
// (seats 1..n) or an explicit list of seat numbers.
type SeatSpec struct {
    Count   int
    Numbers []int
}

// UnmarshalJSON accepts `4` or `[1, 2, 5]`.
func (s *SeatSpec) UnmarshalJSON(b []byte) error {
    var n int
    if err := json.Unmarshal(b, &n); err == nil {
        *s = SeatSpec{Count: n}
        return nil
    }
    var list []int
    if err := json.Unmarshal(b, &list); err != nil {
        return errors.New("seats must be a number or a list of seat numbers")
    }
    *s = SeatSpec{Count: len(list), Numbers: list}
    return nil
}

// MarshalJSON writes the list form when explicit numbers were given.
func (s SeatSpec) MarshalJSON() ([]byte, error) {
    if s.Numbers != nil {
        return json.Marshal(s.Numbers)
    }
    return json.Marshal(s.Count)
}

// SeatNumbers returns the explicit numbers, or 1..Count.
func (s SeatSpec) SeatNumbers() []int {
    if s.Numbers != nil {
        return s.Numbers
    }
    out := make([]int, 0, s.Count)
    for i := 1; i <= s.Count; i++ {
        out = append(out, i)
    }
    return out
}

// BulkTableConfig is one entry of a bulk table creation request.
type BulkTableConfig struct {
    TableNumber int      `json:"tableNumber"`
    Seats       SeatSpec `json:"seats"`
}
