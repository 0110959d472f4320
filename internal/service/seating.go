package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/queue"
	"github.com/iliyamo/seatplan/internal/repository"
)

const (
	// MaxSeatsNewTable caps seats on a freshly created table.
	MaxSeatsNewTable = 10
	// MaxSeatsResize caps seats when resizing an existing table.
	MaxSeatsResize = 20
	// bulkBatchSize tables are inserted per round inside the bulk transaction.
	bulkBatchSize = 5
	// maxBulkTables keeps one bulk request well inside its timeout.
	maxBulkTables = 200
)

// SeatingService manages tables and their seats.
type SeatingService struct {
	base
}

func NewSeatingService(d Deps) *SeatingService {
	return &SeatingService{base: newBase(d)}
}

// CreateTableInput describes a single new table.  Name defaults to
// "Table {Number}" when only a number is given.
type CreateTableInput struct {
	Number *int
	Name   string
	Seats  int
	Notes  *string
}

// DefaultTableName is the display label given to numbered tables.
func DefaultTableName(number int) string {
	return fmt.Sprintf("Table %d", number)
}

// CreateTable inserts a table and seats 1..Seats in one transaction.
func (s *SeatingService) CreateTable(ctx context.Context, in CreateTableInput) (*model.TableWithSeats, error) {
	name := strings.TrimSpace(in.Name)
	if in.Number != nil && *in.Number <= 0 {
		return nil, invalid("tableNumber must be a positive integer")
	}
	if name == "" {
		if in.Number == nil {
			return nil, invalid("name or tableNumber is required")
		}
		name = DefaultTableName(*in.Number)
	}
	if in.Seats < 1 || in.Seats > MaxSeatsNewTable {
		return nil, invalid("seats must be between 1 and %d", MaxSeatsNewTable)
	}

	t := &model.Table{Number: in.Number, Name: name, Notes: trimmedOrNil(in.Notes)}
	var seats []model.Seat
	err := s.inTx(ctx, "create table", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		if err := createTableTx(ctx, tx, t, seatRange(1, in.Seats)); err != nil {
			return err
		}
		var err error
		seats, err = repository.NewSeatRepo(tx).ListByTable(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventTablesChanged, TableID: t.ID, TableName: t.Name, Count: 1})
	return &model.TableWithSeats{Table: *t, Seats: seats}, nil
}

func createTableTx(ctx context.Context, tx *sql.Tx, t *model.Table, seatNumbers []int) error {
	if err := repository.NewTableRepo(tx).Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrTableNumberTaken) {
			return &ConflictError{Msg: fmt.Sprintf("table number %d already exists", derefInt(t.Number))}
		}
		return err
	}
	return repository.NewSeatRepo(tx).CreateBulk(ctx, t.ID, seatNumbers)
}

// CreateBulkTables validates every config, then creates all tables in a
// single transaction, batchSize tables at a time.  Any failure rolls back
// the whole request.  A transaction closed by its deadline surfaces as
// ErrTransactionTimeout.
func (s *SeatingService) CreateBulkTables(ctx context.Context, configs []model.BulkTableConfig) (int, error) {
	if len(configs) == 0 {
		return 0, invalid("at least one table is required")
	}
	if len(configs) > maxBulkTables {
		return 0, invalid("at most %d tables per request", maxBulkTables)
	}
	seen := make(map[int]bool, len(configs))
	numbers := make([]int, 0, len(configs))
	for i, c := range configs {
		if c.TableNumber <= 0 {
			return 0, invalid("table %d: tableNumber must be a positive integer", i+1)
		}
		if seen[c.TableNumber] {
			return 0, invalid("duplicate table number %d in request", c.TableNumber)
		}
		seen[c.TableNumber] = true
		numbers = append(numbers, c.TableNumber)
		if err := validateSeatSpec(c.TableNumber, c.Seats); err != nil {
			return 0, err
		}
	}

	err := s.inTx(ctx, "create bulk tables", s.timeouts.Bulk, func(ctx context.Context, tx *sql.Tx) error {
		taken, err := repository.NewTableRepo(tx).ExistingNumbers(ctx, numbers)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return &ConflictError{Msg: fmt.Sprintf("table numbers already exist: %v", taken)}
		}
		for start := 0; start < len(configs); start += bulkBatchSize {
			end := min(start+bulkBatchSize, len(configs))
			for _, c := range configs[start:end] {
				n := c.TableNumber
				t := &model.Table{Number: &n, Name: DefaultTableName(n)}
				if err := createTableTx(ctx, tx, t, c.Seats.SeatNumbers()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventTablesChanged, Count: len(configs), Source: "bulk"})
	return len(configs), nil
}

func validateSeatSpec(tableNumber int, spec model.SeatSpec) error {
	if spec.Numbers == nil {
		if spec.Count < 1 || spec.Count > MaxSeatsNewTable {
			return invalid("table %d: seats must be between 1 and %d", tableNumber, MaxSeatsNewTable)
		}
		return nil
	}
	if len(spec.Numbers) < 1 || len(spec.Numbers) > MaxSeatsNewTable {
		return invalid("table %d: between 1 and %d seat numbers are allowed", tableNumber, MaxSeatsNewTable)
	}
	used := make(map[int]bool, len(spec.Numbers))
	for _, n := range spec.Numbers {
		if n <= 0 {
			return invalid("table %d: seat numbers must be positive", tableNumber)
		}
		if used[n] {
			return invalid("table %d: duplicate seat number %d", tableNumber, n)
		}
		used[n] = true
	}
	return nil
}

// UpdateTableCapacity renames (when newName is non-empty) and resizes a
// table in one transaction.  Growing appends seats numbered from the current
// maximum + 1.  Shrinking removes the highest-numbered unbooked seats and
// fails with CapacityError, leaving name and seats unchanged, when too few
// seats are unbooked.
func (s *SeatingService) UpdateTableCapacity(ctx context.Context, tableID uint64, newName string, newCount int) error {
	if newCount < 1 || newCount > MaxSeatsResize {
		return invalid("newSeatsCount must be between 1 and %d", MaxSeatsResize)
	}
	newName = strings.TrimSpace(newName)

	var tableName string
	err := s.inTx(ctx, "update table capacity", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		tables := repository.NewTableRepo(tx)
		seatsRepo := repository.NewSeatRepo(tx)

		t, err := tables.GetByID(ctx, tableID)
		if err != nil {
			return notFound(err, "table", tableID)
		}
		tableName = t.Name
		if newName != "" && newName != t.Name {
			if err := tables.Rename(ctx, tableID, newName); err != nil {
				return err
			}
			tableName = newName
		}

		seats, err := seatsRepo.ListByTable(ctx, tableID)
		if err != nil {
			return err
		}
		current := len(seats)
		switch {
		case newCount > current:
			top, err := seatsRepo.MaxSeatNumber(ctx, tableID)
			if err != nil {
				return err
			}
			return seatsRepo.CreateBulk(ctx, tableID, seatRange(top+1, newCount-current))
		case newCount < current:
			return shrinkTx(ctx, seatsRepo, seats, current-newCount)
		}
		return nil
	})
	if err != nil {
		return err
	}

	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventTablesChanged, TableID: tableID, TableName: tableName, Count: newCount, Source: "resize"})
	return nil
}

// shrinkTx removes the `remove` highest-numbered unbooked seats.
func shrinkTx(ctx context.Context, seatsRepo *repository.SeatRepo, seats []model.Seat, remove int) error {
	free := make([]model.Seat, 0, len(seats))
	for _, seat := range seats {
		if !seat.IsBooked {
			free = append(free, seat)
		}
	}
	if len(free) < remove {
		return &CapacityError{
			Available: len(free),
			Requested: remove,
			Msg:       fmt.Sprintf("cannot remove %d seats: only %d unbooked seats", remove, len(free)),
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i].SeatNumber > free[j].SeatNumber })

	ids := make([]uint64, remove)
	for i := range ids {
		ids[i] = free[i].ID
	}
	deleted, err := seatsRepo.DeleteUnbooked(ctx, ids)
	if err != nil {
		return err
	}
	if deleted != int64(remove) {
		return &ConflictError{Msg: "seats were booked while resizing; try again"}
	}
	return nil
}

// RenameTable changes the display label.
func (s *SeatingService) RenameTable(ctx context.Context, tableID uint64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name is required")
	}
	err := s.inTx(ctx, "rename table", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		return notFound(repository.NewTableRepo(tx).Rename(ctx, tableID, name), "table", tableID)
	})
	if err != nil {
		return err
	}
	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventTablesChanged, TableID: tableID, TableName: name, Source: "rename"})
	return nil
}

// UpdateTableNotes replaces the notes; an empty string clears them.
func (s *SeatingService) UpdateTableNotes(ctx context.Context, tableID uint64, notes string) error {
	return s.inTx(ctx, "update table notes", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		return notFound(repository.NewTableRepo(tx).UpdateNotes(ctx, tableID, trimmedOrNil(&notes)), "table", tableID)
	})
}

// DeleteTable removes a table, addressed by id or number, and its seats.
// Guests seated there become unassigned.
func (s *SeatingService) DeleteTable(ctx context.Context, ref model.TableRef) error {
	var deleted *model.Table
	err := s.inTx(ctx, "delete table", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		tables := repository.NewTableRepo(tx)
		t, err := tables.Resolve(ctx, ref)
		if err != nil {
			return notFound(err, "table", refKey(ref))
		}
		if err := repository.NewSeatRepo(tx).DeleteByTable(ctx, t.ID); err != nil {
			return err
		}
		deleted = t
		return tables.Delete(ctx, t.ID)
	})
	if err != nil {
		return err
	}
	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventTablesChanged, TableID: deleted.ID, TableName: deleted.Name, Source: "delete"})
	return nil
}

// DeleteAllTables removes every seat and then every table.
func (s *SeatingService) DeleteAllTables(ctx context.Context) (int64, error) {
	var n int64
	err := s.inTx(ctx, "delete all tables", s.timeouts.Bulk, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := repository.NewSeatRepo(tx).DeleteAll(ctx); err != nil {
			return err
		}
		var err error
		n, err = repository.NewTableRepo(tx).DeleteAll(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	emit(ctx, s.pub, s.log, queue.SeatingEvent{Type: queue.EventTablesChanged, Count: int(n), Source: "delete_all"})
	return n, nil
}

// ListTables returns every table with its seats.
func (s *SeatingService) ListTables(ctx context.Context) ([]model.TableWithSeats, error) {
	out := []model.TableWithSeats{}
	err := s.read(ctx, "list tables", func(ctx context.Context, db repository.DBTX) error {
		tables, err := repository.NewTableRepo(db).List(ctx)
		if err != nil {
			return err
		}
		seats, err := repository.NewSeatRepo(db).ListAll(ctx)
		if err != nil {
			return err
		}
		byTable := make(map[uint64][]model.Seat, len(tables))
		for _, seat := range seats {
			byTable[seat.TableID] = append(byTable[seat.TableID], seat)
		}
		for _, t := range tables {
			ts := byTable[t.ID]
			if ts == nil {
				ts = []model.Seat{}
			}
			out = append(out, model.TableWithSeats{Table: t, Seats: ts})
		}
		return nil
	})
	return out, err
}

// GetTable returns one table with its seats.
func (s *SeatingService) GetTable(ctx context.Context, tableID uint64) (*model.TableWithSeats, error) {
	var out *model.TableWithSeats
	err := s.read(ctx, "get table", func(ctx context.Context, db repository.DBTX) error {
		t, err := repository.NewTableRepo(db).GetByID(ctx, tableID)
		if err != nil {
			return notFound(err, "table", tableID)
		}
		seats, err := repository.NewSeatRepo(db).ListByTable(ctx, tableID)
		if err != nil {
			return err
		}
		if seats == nil {
			seats = []model.Seat{}
		}
		out = &model.TableWithSeats{Table: *t, Seats: seats}
		return nil
	})
	return out, err
}

// notFound converts repository not-found sentinels into a NotFoundError for
// resource/key and passes every other error through.
func notFound(err error, resource string, key any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrSeatNotFound),
		errors.Is(err, repository.ErrGuestNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrFloorMapNotFound):
		return &NotFoundError{Resource: resource, Key: key}
	}
	return err
}

func refKey(ref model.TableRef) any {
	if ref.ID != 0 {
		return ref.ID
	}
	if ref.Number != nil {
		return fmt.Sprintf("number %d", *ref.Number)
	}
	return nil
}

func seatRange(from, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
