package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/queue"
	"github.com/iliyamo/seatplan/internal/repository"
)

// AssignmentService binds guests to seats.
type AssignmentService struct {
	base
}

func NewAssignmentService(d Deps) *AssignmentService {
	return &AssignmentService{base: newBase(d)}
}

// Assignment is one guest placed by AssignGuestsToTable.
type Assignment struct {
	GuestID    uint64 `json:"guestId"`
	SeatID     uint64 `json:"seatId"`
	SeatNumber int    `json:"seat"`
}

// AssignGuestsToTable seats guestIDs at the table, first-fit: guestIDs[i]
// takes the i-th unbooked seat in ascending seat-number order.  Either every
// guest is seated or nothing changes.
func (s *AssignmentService) AssignGuestsToTable(ctx context.Context, ref model.TableRef, guestIDs []uint64) ([]Assignment, error) {
	if ref.ID == 0 && ref.Number == nil {
		return nil, invalid("tableId or tableNumber is required")
	}
	if len(guestIDs) == 0 {
		return nil, invalid("guestIds must not be empty")
	}
	seen := make(map[uint64]bool, len(guestIDs))
	for _, id := range guestIDs {
		if id == 0 {
			return nil, invalid("guest ids must be positive integers")
		}
		if seen[id] {
			return nil, invalid("duplicate guest id %d", id)
		}
		seen[id] = true
	}

	var (
		table *model.Table
		out   []Assignment
	)
	err := s.inTx(ctx, "assign guests", s.timeouts.Assign, func(ctx context.Context, tx *sql.Tx) error {
		seats := repository.NewSeatRepo(tx)
		guests := repository.NewGuestRepo(tx)

		t, err := repository.NewTableRepo(tx).Resolve(ctx, ref)
		if err != nil {
			return notFound(err, "table", refKey(ref))
		}
		table = t

		existing, err := guests.ExistingIDs(ctx, guestIDs)
		if err != nil {
			return err
		}
		for _, id := range guestIDs {
			if !existing[id] {
				return &NotFoundError{Resource: "guest", Key: id}
			}
		}
		seated, err := guests.SeatedIDs(ctx, guestIDs)
		if err != nil {
			return err
		}
		for _, id := range guestIDs {
			if seated[id] {
				return &ConflictError{Msg: fmt.Sprintf("guest %d already has a seat", id)}
			}
		}

		free, err := seats.UnbookedByTable(ctx, t.ID)
		if err != nil {
			return err
		}
		if len(free) < len(guestIDs) {
			return &CapacityError{
				Available: len(free),
				Requested: len(guestIDs),
				Msg:       fmt.Sprintf("not enough free seats at %s: %d available, %d requested", t.Name, len(free), len(guestIDs)),
			}
		}

		out = make([]Assignment, len(guestIDs))
		for i, gid := range guestIDs {
			seat := free[i]
			if err := seats.Bind(ctx, seat.ID, gid); err != nil {
				switch {
				case errors.Is(err, repository.ErrSeatTaken):
					return &ConflictError{Msg: fmt.Sprintf("seat %d was booked concurrently; try again", seat.SeatNumber)}
				case errors.Is(err, repository.ErrGuestSeated):
					return &ConflictError{Msg: fmt.Sprintf("guest %d already has a seat", gid)}
				}
				return err
			}
			out[i] = Assignment{GuestID: gid, SeatID: seat.ID, SeatNumber: seat.SeatNumber}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAssigned(len(out))
	seatIDs := make([]uint64, len(out))
	for i, a := range out {
		seatIDs[i] = a.SeatID
	}
	emit(ctx, s.pub, s.log, queue.SeatingEvent{
		Type:      queue.EventSeatsAssigned,
		TableID:   table.ID,
		TableName: table.Name,
		SeatIDs:   seatIDs,
		GuestIDs:  guestIDs,
		Count:     len(out),
	})
	return out, nil
}

// UnassignSeat frees a seat and clears its arrival flag.  Freeing an
// already free seat succeeds.
func (s *AssignmentService) UnassignSeat(ctx context.Context, seatID uint64) error {
	var prior *model.Seat
	err := s.inTx(ctx, "unassign seat", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		seats := repository.NewSeatRepo(tx)
		seat, err := seats.GetByID(ctx, seatID)
		if err != nil {
			return notFound(err, "seat", seatID)
		}
		prior = seat
		return notFound(seats.Release(ctx, seatID), "seat", seatID)
	})
	if err != nil {
		return err
	}
	if !prior.IsBooked {
		return nil
	}

	s.metrics.RecordUnassigned()
	ev := queue.SeatingEvent{Type: queue.EventSeatReleased, TableID: prior.TableID, SeatIDs: []uint64{seatID}}
	if prior.UserID != nil {
		ev.GuestIDs = []uint64{*prior.UserID}
	}
	emit(ctx, s.pub, s.log, ev)
	return nil
}

// BookSingleSeat points a seat at a guest without looking at the previous
// occupant.  A guest who already sits elsewhere is rejected by the unique
// guest index.
func (s *AssignmentService) BookSingleSeat(ctx context.Context, seatID, guestID uint64) error {
	if guestID == 0 {
		return invalid("userId must be a positive integer")
	}
	var tableID uint64
	err := s.inTx(ctx, "book seat", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		seats := repository.NewSeatRepo(tx)
		seat, err := seats.GetByID(ctx, seatID)
		if err != nil {
			return notFound(err, "seat", seatID)
		}
		tableID = seat.TableID
		if _, err := repository.NewGuestRepo(tx).GetByID(ctx, guestID); err != nil {
			return notFound(err, "guest", guestID)
		}
		if err := seats.Book(ctx, seatID, guestID); err != nil {
			if errors.Is(err, repository.ErrGuestSeated) {
				return &ConflictError{Msg: fmt.Sprintf("guest %d already has a seat", guestID)}
			}
			return notFound(err, "seat", seatID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordAssigned(1)
	emit(ctx, s.pub, s.log, queue.SeatingEvent{
		Type:     queue.EventSeatBooked,
		TableID:  tableID,
		SeatIDs:  []uint64{seatID},
		GuestIDs: []uint64{guestID},
		Count:    1,
	})
	return nil
}
