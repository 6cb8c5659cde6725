package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// memStore is an in-memory Store.  WithTx holds one mutex for the whole
// transaction, which serializes commits the way row locks do, and rolls
// back on error.
type memStore struct {
	mu           sync.Mutex
	sections     []model.Section
	tables       []model.Table
	reservations []model.Reservation
	nextID       uint64

	menu  []model.MenuItem
	items []model.ReservationItem

	fail   error           // returned by every call when set
	onTx   func(*memStore) // runs once at the start of the next transaction, lock held
	purges [][]string
	seeded []string
}

func newMemStore() *memStore {
	return &memStore{
		sections: []model.Section{
			{ID: 1, Name: "Lake View", Priority: 1, CanCombineTables: true, CombineLimits: map[int]int{2: 2}, IsActive: true},
			{ID: 2, Name: "Garden View", Priority: 2, IsActive: true},
			{ID: 3, Name: "Rooftop", Priority: 3, IsActive: false},
		},
		tables: []model.Table{
			{ID: 1, Label: "L1", Capacity: 2, SectionID: 1, IsActive: true},
			{ID: 2, Label: "L2", Capacity: 2, SectionID: 1, IsActive: true},
			{ID: 3, Label: "L3", Capacity: 4, SectionID: 1, IsActive: true},
			{ID: 4, Label: "L4", Capacity: 6, SectionID: 1, IsActive: true},
			{ID: 5, Label: "G1", Capacity: 4, SectionID: 2, IsActive: true},
			{ID: 6, Label: "G2", Capacity: 8, SectionID: 2, IsActive: true},
			{ID: 7, Label: "R1", Capacity: 20, SectionID: 3, IsActive: false},
		},
		menu: []model.MenuItem{
			{ID: 1, Name: "Lobster Risotto", Price: 1450, IsSpecial: true, IsActive: true},
			{ID: 2, Name: "Paneer Tikka", Price: 650, IsActive: true},
		},
	}
}

func (m *memStore) ListSections(ctx context.Context) ([]model.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return append([]model.Section(nil), m.sections...), nil
}

func (m *memStore) ListTables(ctx context.Context) ([]model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return append([]model.Table(nil), m.tables...), nil
}

func (m *memStore) BookingsBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []model.Booking
	for _, r := range m.reservations {
		if r.Status != model.StatusConfirmed || r.ReservationTime.Before(from) || !r.ReservationTime.Before(to) {
			continue
		}
		for _, id := range r.TableIDs {
			t := m.table(id)
			out = append(out, model.Booking{
				ReservationID:   r.ID,
				TableID:         id,
				TableLabel:      t.Label,
				SectionID:       t.SectionID,
				CustomerName:    r.CustomerName,
				PartySize:       r.PartySize,
				ReservationTime: r.ReservationTime,
			})
		}
	}
	return out, nil
}

func (m *memStore) ReservationByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return m.byReference(reference)
}

func (m *memStore) WithTx(ctx context.Context, fn func(repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if hook := m.onTx; hook != nil {
		m.onTx = nil
		hook(m)
	}
	saved := make([]model.Reservation, len(m.reservations))
	for i, r := range m.reservations {
		r.TableIDs = append([]uint64(nil), r.TableIDs...)
		saved[i] = r
	}
	savedID := m.nextID
	savedItems := len(m.items)
	if err := fn(memTx{m}); err != nil {
		m.reservations, m.nextID = saved, savedID
		m.items = m.items[:savedItems]
		return err
	}
	return nil
}

func (m *memStore) SeedSection(ctx context.Context, sec *model.Section, tables []model.Table) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeded = append(m.seeded, sec.Name)
	return len(tables), nil
}

func (m *memStore) PurgeSections(ctx context.Context, names []string, hard bool) (repository.PurgeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purges = append(m.purges, names)
	var out repository.PurgeResult
	for i, sec := range m.sections {
		for _, n := range names {
			if strings.EqualFold(sec.Name, n) && sec.IsActive {
				m.sections[i].IsActive = false
				out.Sections++
			}
		}
	}
	return out, nil
}

func (m *memStore) CreateTable(ctx context.Context, t *model.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.tables {
		if x.SectionID == t.SectionID && x.Label == t.Label {
			return repository.ErrDuplicate
		}
	}
	t.ID = uint64(len(m.tables) + 1)
	m.tables = append(m.tables, *t)
	return nil
}

func (m *memStore) SetTableActive(ctx context.Context, id uint64, active bool, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tables {
		if m.tables[i].ID == id {
			m.tables[i].IsActive = active
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) ListReservations(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []model.Reservation
	for _, r := range m.reservations {
		switch {
		case !f.From.IsZero() && r.ReservationTime.Before(f.From),
			!f.To.IsZero() && !r.ReservationTime.Before(f.To),
			f.Status != "" && r.Status != f.Status:
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) ListMenu(ctx context.Context) ([]model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	return append([]model.MenuItem(nil), m.menu...), nil
}

func (m *memStore) SeedMenuItem(ctx context.Context, item *model.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.menu {
		if strings.EqualFold(m.menu[i].Name, item.Name) {
			item.ID = m.menu[i].ID
			m.menu[i] = *item
			return nil
		}
	}
	item.ID = uint64(len(m.menu) + 1)
	m.menu = append(m.menu, *item)
	return nil
}

func (m *memStore) ReservationItems(ctx context.Context, reservationID uint64) ([]model.ReservationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ReservationItem{}
	for _, it := range m.items {
		if it.ReservationID == reservationID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) Customers(ctx context.Context) ([]model.Customer, error) { return nil, nil }

func (m *memStore) table(id uint64) model.Table {
	for _, t := range m.tables {
		if t.ID == id {
			return t
		}
	}
	return model.Table{}
}

func (m *memStore) byReference(ref string) (*model.Reservation, error) {
	for _, r := range m.reservations {
		if r.Reference == ref {
			r.TableIDs = append([]uint64(nil), r.TableIDs...)
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

// insert adds a confirmed reservation directly, as another process would.
func (m *memStore) insert(ref string, party int, at time.Time, tableIDs ...uint64) {
	m.nextID++
	m.reservations = append(m.reservations, model.Reservation{
		ID: m.nextID, Reference: ref, CustomerName: "Walk In", CustomerPhone: "555-0100",
		PartySize: party, ReservationTime: at.UTC(), TableIDs: tableIDs, Status: model.StatusConfirmed,
	})
}

func (m *memStore) confirmed() []model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.Status == model.StatusConfirmed {
			out = append(out, r)
		}
	}
	return out
}

type memTx struct{ m *memStore }

func (t memTx) LockTables(ctx context.Context, ids []uint64) ([]model.Table, error) {
	var out []model.Table
	for _, tb := range t.m.tables {
		for _, id := range ids {
			if tb.ID == id {
				out = append(out, tb)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t memTx) ConflictingTables(ctx context.Context, ids []uint64, at time.Time, turnaround time.Duration, exclude uint64) ([]uint64, error) {
	want := make(map[uint64]bool)
	for _, id := range ids {
		want[id] = true
	}
	seen := make(map[uint64]bool)
	var busy []uint64
	for _, r := range t.m.reservations {
		if r.Status != model.StatusConfirmed || r.ID == exclude {
			continue
		}
		if !r.ReservationTime.After(at.Add(-turnaround)) || !r.ReservationTime.Before(at.Add(turnaround)) {
			continue
		}
		for _, id := range r.TableIDs {
			if want[id] && !seen[id] {
				seen[id] = true
				busy = append(busy, id)
			}
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i] < busy[j] })
	return busy, nil
}

func (t memTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	t.m.nextID++
	res.ID = t.m.nextID
	cp := *res
	cp.TableIDs = append([]uint64(nil), res.TableIDs...)
	t.m.reservations = append(t.m.reservations, cp)
	return nil
}

func (t memTx) ReservationByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	return t.m.byReference(reference)
}

func (t memTx) MoveReservation(ctx context.Context, id uint64, at time.Time, tableIDs []uint64) error {
	for i := range t.m.reservations {
		if t.m.reservations[i].ID == id {
			t.m.reservations[i].ReservationTime = at.UTC()
			t.m.reservations[i].TableIDs = append([]uint64(nil), tableIDs...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (t memTx) SetReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	for i := range t.m.reservations {
		if t.m.reservations[i].ID == id {
			t.m.reservations[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (t memTx) AddItems(ctx context.Context, reservationID uint64, items []model.ReservationItem) error {
	for _, it := range items {
		it.ID = uint64(len(t.m.items) + 1)
		it.ReservationID = reservationID
		t.m.items = append(t.m.items, it)
	}
	return nil
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (r *recorder) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
