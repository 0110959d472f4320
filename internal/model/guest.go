package model

import (
    "strings"
    "time"
)

// Guest is an invitee who can be seated at most once.  Names are stored
// trimmed with internal whitespace collapsed; duplicate detection compares
// them case-insensitively.
//
// Fields:
//  ID        – primary key identifier.
//  Firstname – given name.
//  Lastname  – family name.
//  CreatedAt – creation timestamp.
type Guest struct {
    ID        uint64    `json:"id"`        // guests.id
    Firstname string    `json:"firstname"` // guests.firstname
    Lastname  string    `json:"lastname"`  // guests.lastname
    CreatedAt time.Time `json:"-"`         // guests.created_at
}

// GuestWithSeat is a guest row joined with the seat it holds, if any.
type GuestWithSeat struct {
    Guest
    SeatID      *uint64 `json:"seatId"`
    TableID     *uint64 `json:"tableId"`
    SeatNumber  *int    `json:"seat"`
    IsReceived  bool    `json:"isReceived"`
}

// NewGuest is one row of an import request or an add-guest call, before
// it has been validated.
type NewGuest struct {
    Firstname string `json:"firstname"`
    Lastname  string `json:"lastname"`
}

// GuestNameKey is the identity duplicate detection compares: both names
// with whitespace collapsed and Unicode lower-cased, joined by a tab (which
// never survives the collapse).  It is stored in guests.name_key.
func GuestNameKey(firstname, lastname string) string {
    norm := func(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }
    return norm(firstname) + "\t" + norm(lastname)
}
