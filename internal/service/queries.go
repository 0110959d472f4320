package service

import (
	"context"
	"strings"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/repository"
)

// QueryService answers read-only questions about the seating plan.
type QueryService struct {
	base
}

func NewQueryService(d Deps) *QueryService {
	return &QueryService{base: newBase(d)}
}

// ListSeats returns every seat with its table and guest.
func (s *QueryService) ListSeats(ctx context.Context) ([]model.SeatDetail, error) {
	var out []model.SeatDetail
	err := s.read(ctx, "list seats", func(ctx context.Context, db repository.DBTX) error {
		var err error
		out, err = repository.NewSeatRepo(db).ListDetails(ctx)
		return err
	})
	return out, err
}

// SearchSeatByName finds booked seats whose guest matches every
// whitespace-separated token of name.  No match, including a blank name,
// is an empty list.
func (s *QueryService) SearchSeatByName(ctx context.Context, name string) ([]model.SeatDetail, error) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return []model.SeatDetail{}, nil
	}
	var out []model.SeatDetail
	err := s.read(ctx, "search seats", func(ctx context.Context, db repository.DBTX) error {
		var err error
		out, err = repository.NewSeatRepo(db).SearchByGuestName(ctx, tokens)
		return err
	})
	return out, err
}

// FindGuestSeat returns the seat a guest holds.
func (s *QueryService) FindGuestSeat(ctx context.Context, guestID uint64) (*model.SeatDetail, error) {
	var out *model.SeatDetail
	err := s.read(ctx, "find guest seat", func(ctx context.Context, db repository.DBTX) error {
		if _, err := repository.NewGuestRepo(db).GetByID(ctx, guestID); err != nil {
			return notFound(err, "guest", guestID)
		}
		var err error
		out, err = repository.NewSeatRepo(db).GetByGuest(ctx, guestID)
		return notFound(err, "seat for guest", guestID)
	})
	return out, err
}

// Stats counts tables, seats and guests.
func (s *QueryService) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.read(ctx, "stats", func(ctx context.Context, db repository.DBTX) error {
		var err error
		st, err = repository.NewSeatRepo(db).Stats(ctx)
		return err
	})
	return st, err
}
