package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Tx is the view of the store available inside one booking transaction.
// Every method runs on the same *sql.Tx.
type Tx interface {
	// LockTables row-locks the tables until commit and returns them.
	LockTables(ctx context.Context, ids []uint64) ([]model.Table, error)
	// ConflictingTables reports which tables a confirmed reservation other
	// than exclude holds within turnaround of at.
	ConflictingTables(ctx context.Context, ids []uint64, at time.Time, turnaround time.Duration, exclude uint64) ([]uint64, error)
	// InsertReservation stores a reservation with its tables.
	InsertReservation(ctx context.Context, res *model.Reservation) error
	// ReservationByReference loads and locks a reservation.
	ReservationByReference(ctx context.Context, reference string) (*model.Reservation, error)
	// MoveReservation changes the time and tables of a reservation.
	MoveReservation(ctx context.Context, id uint64, at time.Time, tableIDs []uint64) error
	// SetReservationStatus changes the status of a reservation.
	SetReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error
	// AddItems appends pre-ordered menu lines to a reservation.
	AddItems(ctx context.Context, reservationID uint64, items []model.ReservationItem) error
}

// PurgeResult counts what a purge touched.
type PurgeResult struct {
	Sections     int64 `json:"sections"`
	Tables       int64 `json:"tables"`
	Reservations int64 `json:"reservations"`
}

// Store bundles the repositories behind the reservation service.
type Store struct {
	db           *sql.DB
	Sections     *SectionRepo
	Tables       *TableRepo
	Reservations *ReservationRepo
	Menu         *MenuRepo
}

// NewStore wires the repositories to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Sections:     NewSectionRepo(db),
		Tables:       NewTableRepo(db),
		Reservations: NewReservationRepo(db),
		Menu:         NewMenuRepo(db),
	}
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ListSections(ctx context.Context) ([]model.Section, error) {
	return s.Sections.List(ctx)
}

func (s *Store) ListTables(ctx context.Context) ([]model.Table, error) { return s.Tables.List(ctx) }

func (s *Store) BookingsBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	return s.Reservations.BookingsBetween(ctx, from, to)
}

func (s *Store) ReservationByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	return s.Reservations.GetByReference(ctx, reference)
}

func (s *Store) ListReservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	return s.Reservations.List(ctx, f)
}

func (s *Store) Customers(ctx context.Context) ([]model.Customer, error) {
	return s.Reservations.Customers(ctx)
}

func (s *Store) ListMenu(ctx context.Context) ([]model.MenuItem, error) { return s.Menu.List(ctx) }

func (s *Store) SeedMenuItem(ctx context.Context, m *model.MenuItem) error {
	return s.Menu.Upsert(ctx, m)
}

func (s *Store) ReservationItems(ctx context.Context, reservationID uint64) ([]model.ReservationItem, error) {
	return s.Reservations.Items(ctx, reservationID)
}

func (s *Store) CreateTable(ctx context.Context, t *model.Table) error {
	return s.Tables.Create(ctx, t)
}

func (s *Store) SetTableActive(ctx context.Context, id uint64, active bool, now time.Time) error {
	return s.Tables.SetActive(ctx, id, active, now)
}

// WithTx runs fn in a READ COMMITTED transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise.  Read committed
// lets the conflict check that follows a row lock see bookings committed
// by whoever held the lock before.
func (s *Store) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SeedSection creates or refreshes a section and gives it tables when it
// has none yet.  It returns how many tables were created.
func (s *Store) SeedSection(ctx context.Context, sec *model.Section, tables []model.Table) (int, error) {
	created := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.Sections.UpsertTx(ctx, tx, sec); err != nil {
			return err
		}
		n, err := s.Tables.CountBySectionTx(ctx, tx, sec.ID)
		if err != nil || n > 0 {
			return err
		}
		for i := range tables {
			tables[i].SectionID = sec.ID
		}
		if err := s.Tables.CreateBulkTx(ctx, tx, tables); err != nil {
			return err
		}
		created = len(tables)
		return nil
	})
	return created, err
}

// PurgeSections retires the named sections.  A soft purge deactivates the
// sections and their tables and cancels every reservation on them; a hard
// purge deletes all of it.  Running it again changes nothing.
func (s *Store) PurgeSections(ctx context.Context, names []string, hard bool) (PurgeResult, error) {
	var out PurgeResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ids, err := s.Sections.IDsByNameTx(ctx, tx, names)
		if err != nil || len(ids) == 0 {
			return err
		}
		resIDs, err := s.Reservations.IDsBySectionsTx(ctx, tx, ids)
		if err != nil {
			return err
		}
		if hard {
			if out.Reservations, err = s.Reservations.DeleteManyTx(ctx, tx, resIDs); err != nil {
				return err
			}
			if out.Tables, err = s.Tables.CountBySectionsTx(ctx, tx, ids); err != nil {
				return err
			}
			out.Sections, err = s.Sections.DeleteTx(ctx, tx, ids)
			return err
		}
		if out.Reservations, err = s.Reservations.CancelManyTx(ctx, tx, resIDs); err != nil {
			return err
		}
		if out.Tables, err = s.Tables.DeactivateBySectionsTx(ctx, tx, ids); err != nil {
			return err
		}
		out.Sections, err = s.Sections.DeactivateTx(ctx, tx, ids)
		return err
	})
	return out, err
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlTx adapts the repositories' Tx methods to the Tx interface.
type sqlTx struct {
	tx    *sql.Tx
	store *Store
}

func (t *sqlTx) LockTables(ctx context.Context, ids []uint64) ([]model.Table, error) {
	return t.store.Tables.LockTx(ctx, t.tx, ids)
}

func (t *sqlTx) ConflictingTables(ctx context.Context, ids []uint64, at time.Time, turnaround time.Duration, exclude uint64) ([]uint64, error) {
	return t.store.Reservations.ConflictingTablesTx(ctx, t.tx, ids, at, turnaround, exclude)
}

func (t *sqlTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	return t.store.Reservations.CreateTx(ctx, t.tx, res)
}

func (t *sqlTx) ReservationByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	return t.store.Reservations.GetByReferenceTx(ctx, t.tx, reference)
}

func (t *sqlTx) MoveReservation(ctx context.Context, id uint64, at time.Time, tableIDs []uint64) error {
	return t.store.Reservations.UpdateSlotTx(ctx, t.tx, id, at, tableIDs)
}

func (t *sqlTx) SetReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	return t.store.Reservations.UpdateStatusTx(ctx, t.tx, id, status)
}

func (t *sqlTx) AddItems(ctx context.Context, reservationID uint64, items []model.ReservationItem) error {
	return t.store.Reservations.AddItemsTx(ctx, t.tx, reservationID, items)
}
