package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// InventoryStore is the persistence behind the floor plan and the admin
// views.
type InventoryStore interface {
	ListSections(ctx context.Context) ([]model.Section, error)
	ListTables(ctx context.Context) ([]model.Table, error)
	SeedSection(ctx context.Context, sec *model.Section, tables []model.Table) (int, error)
	SeedMenuItem(ctx context.Context, m *model.MenuItem) error
	PurgeSections(ctx context.Context, names []string, hard bool) (repository.PurgeResult, error)
	CreateTable(ctx context.Context, t *model.Table) error
	SetTableActive(ctx context.Context, id uint64, active bool, now time.Time) error
	ListReservations(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error)
	Customers(ctx context.Context) ([]model.Customer, error)
}

// InventoryService manages sections and tables.
type InventoryService struct {
	store InventoryStore
	log   *zap.Logger
	now   func() time.Time
}

func NewInventoryService(store InventoryStore, log *zap.Logger) *InventoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryService{store: store, log: log, now: time.Now}
}

// SeedReport says what Seed did.
type SeedReport struct {
	Sections int                    `json:"sections"`
	Tables   int                    `json:"tables"`
	Menu     int                    `json:"menu_items"`
	Purged   repository.PurgeResult `json:"purged"`
	Retired  []string               `json:"retired"`
}

// Seed brings the database in line with the layout: retired sections are
// purged first, then every other section is created or refreshed.  Tables
// are only created for sections that have none.  Running Seed twice is
// harmless.
func (s *InventoryService) Seed(ctx context.Context, layout *config.Layout, extraRetired []string) (SeedReport, error) {
	if layout == nil {
		return SeedReport{}, invalid("layout is required")
	}
	if err := layout.Validate(); err != nil {
		return SeedReport{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	report := SeedReport{Retired: layout.Retired(extraRetired...)}

	if len(report.Retired) > 0 {
		purged, err := s.store.PurgeSections(ctx, report.Retired, false)
		if err != nil {
			return report, storeErr(err)
		}
		report.Purged = purged
	}

	for _, def := range layout.ActiveSections(report.Retired) {
		sec := &model.Section{
			Name:             def.Name,
			Description:      def.Description,
			Priority:         def.Priority,
			CanCombineTables: def.CanCombineTables,
			CombineLimits:    def.CombineLimits,
			IsActive:         true,
		}
		tables := make([]model.Table, 0, len(def.Tables))
		for _, t := range def.Tables {
			tables = append(tables, model.Table{Label: t.Label, Capacity: t.Capacity, IsActive: true})
		}
		n, err := s.store.SeedSection(ctx, sec, tables)
		if err != nil {
			return report, storeErr(err)
		}
		report.Sections++
		report.Tables += n
	}
	for _, def := range layout.Menu {
		item := &model.MenuItem{
			Name:        strings.TrimSpace(def.Name),
			Description: def.Description,
			Price:       def.Price,
			IsSpecial:   def.Special,
		}
		if err := s.store.SeedMenuItem(ctx, item); err != nil {
			return report, storeErr(err)
		}
		report.Menu++
	}
	s.log.Info("inventory: layout seeded",
		zap.Int("sections", report.Sections),
		zap.Int("tables_created", report.Tables),
		zap.Int("menu_items", report.Menu),
		zap.Strings("retired", report.Retired),
		zap.Int64("purged_sections", report.Purged.Sections))
	return report, nil
}

// Purge retires the named sections.  See repository.Store.PurgeSections
// for what soft and hard mean.
func (s *InventoryService) Purge(ctx context.Context, names []string, hard bool) (repository.PurgeResult, error) {
	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return repository.PurgeResult{}, invalid("at least one section name is required")
	}
	res, err := s.store.PurgeSections(ctx, clean, hard)
	if err != nil {
		return res, storeErr(err)
	}
	s.log.Warn("inventory: sections purged",
		zap.Strings("sections", clean),
		zap.Bool("hard", hard),
		zap.Int64("tables", res.Tables),
		zap.Int64("reservations", res.Reservations))
	return res, nil
}

// SectionView is a section with its tables.
type SectionView struct {
	model.Section
	Tables []model.Table `json:"tables"`
}

// Sections lists sections by priority.  Inactive sections and tables are
// only included when all is set.
func (s *InventoryService) Sections(ctx context.Context, all bool) ([]SectionView, error) {
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	bySection := make(map[uint64][]model.Table)
	for _, t := range tables {
		if t.IsActive || all {
			bySection[t.SectionID] = append(bySection[t.SectionID], t)
		}
	}
	out := make([]SectionView, 0, len(sections))
	for _, sec := range sections {
		if !sec.IsActive && !all {
			continue
		}
		ts := bySection[sec.ID]
		if ts == nil {
			ts = []model.Table{}
		}
		out = append(out, SectionView{Section: sec, Tables: ts})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddTable adds a table to an active section.
func (s *InventoryService) AddTable(ctx context.Context, section, label string, capacity int) (*model.Table, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, invalid("label is required")
	}
	if capacity <= 0 {
		return nil, invalid("capacity must be positive")
	}
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	var sec *model.Section
	for i := range sections {
		if strings.EqualFold(sections[i].Name, strings.TrimSpace(section)) {
			sec = &sections[i]
			break
		}
	}
	if sec == nil {
		return nil, fmt.Errorf("%w: section %q", ErrNotFound, section)
	}
	if !sec.IsActive {
		return nil, invalid("section %s is retired", sec.Name)
	}
	t := &model.Table{Label: label, Capacity: capacity, SectionID: sec.ID, IsActive: true}
	if err := s.store.CreateTable(ctx, t); err != nil {
		return nil, storeErr(err)
	}
	s.log.Info("inventory: table added", zap.String("section", sec.Name), zap.String("label", label), zap.Int("capacity", capacity))
	return t, nil
}

// SetTableActive takes a table in or out of service.  A table with
// upcoming confirmed bookings cannot be taken out.
func (s *InventoryService) SetTableActive(ctx context.Context, id uint64, active bool) error {
	if id == 0 {
		return invalid("table id is required")
	}
	return storeErr(s.store.SetTableActive(ctx, id, active, s.now().UTC()))
}

// Reservations lists reservations for the admin views.
func (s *InventoryService) Reservations(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return nil, invalid("to must be after from")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("unknown status %q", f.Status)
	}
	out, err := s.store.ListReservations(ctx, f)
	return out, storeErr(err)
}

// Customers lists distinct guests.
func (s *InventoryService) Customers(ctx context.Context) ([]model.Customer, error) {
	out, err := s.store.Customers(ctx)
	return out, storeErr(err)
}

// Stats are the dashboard counters.  Bookings are counted by visit time:
// the week is the seven days ending today and the month is the calendar
// month, both in the restaurant's time zone.  Only confirmed reservations
// count.
type Stats struct {
	BookingsWeek  int            `json:"bookings_week"`
	PeopleWeek    int            `json:"people_week"`
	BookingsMonth int            `json:"bookings_month"`
	PeopleMonth   int            `json:"people_month"`
	Week          booking.Window `json:"week"`
	Month         booking.Window `json:"month"`
}

// Stats computes the dashboard counters as of now.
func (s *InventoryService) Stats(ctx context.Context, loc *time.Location) (Stats, error) {
	if loc == nil {
		loc = time.UTC
	}
	now := s.now().In(loc)
	today := booking.DayWindow(now, loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	st := Stats{
		Week:  booking.Window{Start: today.Start.AddDate(0, 0, -6), End: today.End},
		Month: booking.Window{Start: first, End: first.AddDate(0, 1, 0)},
	}

	from, to := st.Month.Start, st.Month.End
	if st.Week.Start.Before(from) {
		from = st.Week.Start
	}
	if st.Week.End.After(to) {
		to = st.Week.End
	}
	list, err := s.store.ListReservations(ctx, repository.ReservationFilter{
		From: from.UTC(), To: to.UTC(), Status: model.StatusConfirmed,
	})
	if err != nil {
		return Stats{}, storeErr(err)
	}
	for _, r := range list {
		if r.Status != model.StatusConfirmed {
			continue
		}
		if st.Week.Contains(r.ReservationTime) {
			st.BookingsWeek++
			st.PeopleWeek += r.PartySize
		}
		if st.Month.Contains(r.ReservationTime) {
			st.BookingsMonth++
			st.PeopleMonth += r.PartySize
		}
	}
	return st, nil
}
