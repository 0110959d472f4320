package service

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/seatplan/internal/config"
	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/queue"
	"github.com/iliyamo/seatplan/internal/repository"
	"github.com/iliyamo/seatplan/internal/utils"
)

// Check-in sources reported in metrics and events.
const (
	SourceToken   = "token"
	SourcePlainID = "plain"
	SourceManual  = "manual"
)

// CheckInService tracks guest arrival.
type CheckInService struct {
	base
	cfg config.CheckInConfig
}

func NewCheckInService(d Deps, cfg config.CheckInConfig) *CheckInService {
	return &CheckInService{base: newBase(d), cfg: cfg}
}

// SetReceived sets the arrival flag of a seat.  Booking state is not
// consulted.
func (s *CheckInService) SetReceived(ctx context.Context, seatID uint64, received bool) error {
	detail, err := s.markReceived(ctx, seatID, received)
	if err != nil {
		return err
	}
	if received {
		s.arrived(ctx, detail, SourceManual)
	}
	return nil
}

// MarkArrived is SetReceived(seatID, true).
func (s *CheckInService) MarkArrived(ctx context.Context, seatID uint64) error {
	return s.SetReceived(ctx, seatID, true)
}

// IssueCheckInToken signs a QR token for an existing seat.
func (s *CheckInService) IssueCheckInToken(ctx context.Context, seatID uint64) (utils.CheckInToken, error) {
	err := s.read(ctx, "issue check-in token", func(ctx context.Context, db repository.DBTX) error {
		_, err := repository.NewSeatRepo(db).GetByID(ctx, seatID)
		return notFound(err, "seat", seatID)
	})
	if err != nil {
		return utils.CheckInToken{}, err
	}
	tok, err := utils.NewCheckInToken(s.cfg.Secret, seatID, s.cfg.TTL, s.cfg.BaseURL)
	if err != nil {
		return utils.CheckInToken{}, &PersistenceError{Op: "sign check-in token", Err: err}
	}
	return tok, nil
}

// ResolveCheckInToken accepts a scanned QR payload (a signed token, or a URL
// carrying one in its token parameter), marks the seat received and returns
// it with table and guest.  A bare numeric seat id is accepted only when
// plain ids are enabled.
func (s *CheckInService) ResolveCheckInToken(ctx context.Context, raw string) (*model.SeatDetail, error) {
	raw = extractToken(strings.TrimSpace(raw))
	if raw == "" {
		return nil, invalid("token is required")
	}

	source := SourceToken
	seatID, err := utils.ParseCheckInToken(s.cfg.Secret, raw)
	if err != nil {
		id, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil || id == 0 || !s.cfg.AllowPlainID {
			return nil, invalid("invalid or expired check-in token")
		}
		seatID, source = id, SourcePlainID
	}

	detail, err := s.markReceived(ctx, seatID, true)
	if err != nil {
		return nil, err
	}
	s.arrived(ctx, detail, source)
	return detail, nil
}

func (s *CheckInService) markReceived(ctx context.Context, seatID uint64, received bool) (*model.SeatDetail, error) {
	var detail *model.SeatDetail
	err := s.inTx(ctx, "set received", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		seats := repository.NewSeatRepo(tx)
		if err := seats.SetReceived(ctx, seatID, received); err != nil {
			return notFound(err, "seat", seatID)
		}
		var err error
		detail, err = seats.GetDetail(ctx, seatID)
		return notFound(err, "seat", seatID)
	})
	return detail, err
}

func (s *CheckInService) arrived(ctx context.Context, d *model.SeatDetail, source string) {
	s.metrics.RecordCheckIn(source)
	ev := queue.SeatingEvent{
		Type:      queue.EventGuestArrived,
		TableID:   d.TableID,
		TableName: d.TableName,
		SeatIDs:   []uint64{d.ID},
		Source:    source,
	}
	if d.Guest != nil {
		ev.GuestIDs = []uint64{d.Guest.ID}
		ev.GuestName = d.Guest.Firstname + " " + d.Guest.Lastname
	}
	emit(ctx, s.pub, s.log, ev)
}

// extractToken pulls the token query parameter out of a scanned URL and
// returns anything else unchanged.
func extractToken(raw string) string {
	if !strings.Contains(raw, "token=") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if t := u.Query().Get("token"); t != "" {
		return t
	}
	return raw
}
