package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/queue"
	"github.com/iliyamo/seatplan/internal/repository"
)

// importBatchSize guests are written per import transaction.
const importBatchSize = 30

// GuestService manages the guest list.
type GuestService struct {
	base
}

func NewGuestService(d Deps) *GuestService {
	return &GuestService{base: newBase(d)}
}

// ImportResult summarises an import.  Imported+Duplicates+Failed equals the
// number of submitted rows.
type ImportResult struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}

// DedupResult summarises RemoveDuplicateGuests.
type DedupResult struct {
	Groups     int `json:"groups"`
	Removed    int `json:"removed"`
	KeptSeated int `json:"keptSeated"`
}

// cleanName trims and collapses internal whitespace.
func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// AddGuest inserts a guest without a duplicate check.
func (s *GuestService) AddGuest(ctx context.Context, in model.NewGuest) (*model.Guest, error) {
	g := &model.Guest{Firstname: cleanName(in.Firstname), Lastname: cleanName(in.Lastname)}
	if g.Firstname == "" || g.Lastname == "" {
		return nil, invalid("firstname and lastname are required")
	}
	err := s.inTx(ctx, "add guest", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		return repository.NewGuestRepo(tx).Create(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventGuestsChanged, GuestIDs: []uint64{g.ID}, Count: 1})
	return g, nil
}

// ImportGuests inserts guests in batches of importBatchSize, one transaction
// per batch.  A name already present (or repeated earlier in the same
// request) counts as a duplicate.  Blank rows fail on their own; a batch
// whose transaction fails counts all of its rows as failed and the import
// carries on with the next batch.
func (s *GuestService) ImportGuests(ctx context.Context, rows []model.NewGuest) (ImportResult, error) {
	res := ImportResult{Errors: []string{}}
	if len(rows) == 0 {
		return res, invalid("guests must not be empty")
	}

	for start, batchNo := 0, 1; start < len(rows); start, batchNo = start+importBatchSize, batchNo+1 {
		end := min(start+importBatchSize, len(rows))
		batch := rows[start:end]

		var local ImportResult
		err := s.inTx(ctx, "import guests", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
			local = ImportResult{}
			guests := repository.NewGuestRepo(tx)
			for i, row := range batch {
				first, last := cleanName(row.Firstname), cleanName(row.Lastname)
				if first == "" || last == "" {
					local.Failed++
					local.Errors = append(local.Errors, fmt.Sprintf("row %d: firstname and lastname are required", start+i+1))
					continue
				}
				_, err := guests.FindByNameKey(ctx, model.GuestNameKey(first, last))
				switch {
				case err == nil:
					local.Duplicates++
					continue
				case !errors.Is(err, repository.ErrGuestNotFound):
					return err
				}
				if err := guests.Create(ctx, &model.Guest{Firstname: first, Lastname: last}); err != nil {
					return err
				}
				local.Imported++
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return res, err
			}
			s.log.Warn("guest import batch failed", zap.Int("batch", batchNo), zap.Error(err))
			res.Failed += len(batch)
			res.Errors = append(res.Errors, fmt.Sprintf("batch %d: %s", batchNo, batchMessage(err)))
			continue
		}
		res.Imported += local.Imported
		res.Duplicates += local.Duplicates
		res.Failed += local.Failed
		res.Errors = append(res.Errors, local.Errors...)
	}

	s.metrics.RecordImport(res.Imported, res.Duplicates, res.Failed)
	if res.Imported > 0 {
		emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventGuestsChanged, Count: res.Imported, Source: "import"})
	}
	return res, nil
}

// batchMessage keeps driver details out of the client-facing error list.
func batchMessage(err error) string {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Op + " failed"
	}
	return err.Error()
}

// DeleteGuest removes a guest who holds no seat.
func (s *GuestService) DeleteGuest(ctx context.Context, guestID uint64) error {
	err := s.inTx(ctx, "delete guest", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		guests := repository.NewGuestRepo(tx)
		if _, err := guests.GetByID(ctx, guestID); err != nil {
			return notFound(err, "guest", guestID)
		}
		seated, err := guests.HasSeat(ctx, guestID)
		if err != nil {
			return err
		}
		if seated {
			return &ConflictError{Msg: "cannot delete a guest who has a seat; unassign the seat first"}
		}
		return notFound(guests.Delete(ctx, guestID), "guest", guestID)
	})
	if err != nil {
		return err
	}
	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventGuestsChanged, GuestIDs: []uint64{guestID}, Source: "delete"})
	return nil
}

// RemoveDuplicateGuests groups guests by normalized name.  Each group keeps
// its first seated guest, or its lowest id when nobody is seated; the others
// are deleted unless they hold a seat themselves.
func (s *GuestService) RemoveDuplicateGuests(ctx context.Context) (DedupResult, error) {
	var res DedupResult
	err := s.inTx(ctx, "remove duplicate guests", s.timeouts.Bulk, func(ctx context.Context, tx *sql.Tx) error {
		res = DedupResult{}
		guests := repository.NewGuestRepo(tx)
		all, err := guests.List(ctx, repository.GuestsAll)
		if err != nil {
			return err
		}

		var order []string
		groups := make(map[string][]model.GuestWithSeat)
		for _, g := range all {
			k := model.GuestNameKey(g.Firstname, g.Lastname)
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], g)
		}

		for _, k := range order {
			members := groups[k]
			if len(members) < 2 {
				continue
			}
			res.Groups++
			keep := members[0].ID
			for _, m := range members {
				if m.SeatID != nil {
					keep = m.ID
					res.KeptSeated++
					break
				}
			}
			for _, m := range members {
				if m.ID == keep || m.SeatID != nil {
					continue
				}
				if err := guests.Delete(ctx, m.ID); err != nil {
					return err
				}
				res.Removed++
			}
		}
		return nil
	})
	if err != nil {
		return DedupResult{}, err
	}
	if res.Removed > 0 {
		emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventGuestsChanged, Count: res.Removed, Source: "dedup"})
	}
	return res, nil
}

// ListGuests returns guests with their seat; filter is all, assigned or
// unassigned (empty means all).
func (s *GuestService) ListGuests(ctx context.Context, filter string) ([]model.GuestWithSeat, error) {
	f := repository.GuestFilter(strings.ToLower(strings.TrimSpace(filter)))
	switch f {
	case "":
		f = repository.GuestsAll
	case repository.GuestsAll, repository.GuestsAssigned, repository.GuestsUnassigned:
	default:
		return nil, invalid("filter must be one of all, assigned, unassigned")
	}
	var out []model.GuestWithSeat
	err := s.read(ctx, "list guests", func(ctx context.Context, db repository.DBTX) error {
		var err error
		out, err = repository.NewGuestRepo(db).List(ctx, f)
		return err
	})
	return out, err
}

// GetGuest returns one guest.
func (s *GuestService) GetGuest(ctx context.Context, guestID uint64) (*model.Guest, error) {
	var g *model.Guest
	err := s.read(ctx, "get guest", func(ctx context.Context, db repository.DBTX) error {
		var err error
		g, err = repository.NewGuestRepo(db).GetByID(ctx, guestID)
		return notFound(err, "guest", guestID)
	})
	return g, err
}
