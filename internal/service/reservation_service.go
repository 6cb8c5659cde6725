package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// Store is the persistence the reservation service runs on.
// repository.Store implements it over MySQL.
type Store interface {
	ListSections(ctx context.Context) ([]model.Section, error)
	ListTables(ctx context.Context) ([]model.Table, error)
	BookingsBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	ReservationByReference(ctx context.Context, reference string) (*model.Reservation, error)
	ListMenu(ctx context.Context) ([]model.MenuItem, error)
	ReservationItems(ctx context.Context, reservationID uint64) ([]model.ReservationItem, error)
	// WithTx runs fn in one transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(repository.Tx) error) error
}

// Publisher receives reservation events after a successful commit.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Contact is how the guest can be reached.  Email or phone is required.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BookingRequest asks for a table.  Date is YYYY-MM-DD and Time is HH:MM,
// both in the restaurant's time zone.  An empty Section lets the service
// pick by section priority.
type BookingRequest struct {
	PartySize       int     `json:"party_size"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	Section         string  `json:"section,omitempty"`
	Contact         Contact `json:"contact"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

// CommitRequest books an option the guest already picked.
type CommitRequest struct {
	TableIDs        []uint64 `json:"table_ids"`
	PartySize       int      `json:"party_size"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	Contact         Contact  `json:"contact"`
	SpecialRequests string   `json:"special_requests,omitempty"`
}

// AvailabilityQuery selects the window and sections to summarize.
type AvailabilityQuery struct {
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Section   string `json:"section,omitempty"`
	NextHours int    `json:"next_hours,omitempty"`
}

// ItemRequest pre-orders one dish.  A zero quantity means one.
type ItemRequest struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// maxQuantity caps one pre-order line.
const maxQuantity = 50

type OutcomeKind string

const (
	OutcomeConfirmed   OutcomeKind = "confirmed"
	OutcomeSuggestions OutcomeKind = "suggestions"
	OutcomeConflict    OutcomeKind = "conflict"
)

// Outcome is the result of a booking attempt.  Suggestions with no
// options means the restaurant is fully booked for that party and time.
type Outcome struct {
	Kind        OutcomeKind        `json:"status"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
	Section     string             `json:"section,omitempty"`
	Tables      []string           `json:"tables,omitempty"`
	Options     []booking.Option   `json:"options,omitempty"`
	Message     string             `json:"message"`
}

// ReservationService plans and commits reservations.
type ReservationService struct {
	store  Store
	rules  config.BookingConfig
	events Publisher
	log    *zap.Logger

	now    func() time.Time
	newRef func() string
}

// NewReservationService builds the service.  events may be nil.
func NewReservationService(store Store, rules config.BookingConfig, events Publisher, log *zap.Logger) *ReservationService {
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationService{
		store:  store,
		rules:  rules,
		events: events,
		log:    log,
		now:    time.Now,
		newRef: uuid.NewString,
	}
}

// Location is the restaurant time zone.
func (s *ReservationService) Location() *time.Location { return s.rules.Location }

// Now returns the service clock in the restaurant time zone.
func (s *ReservationService) Now() time.Time { return s.now().In(s.rules.Location) }

// CheckAvailability summarizes how many tables are booked in the window
// the query resolves to.
func (s *ReservationService) CheckAvailability(ctx context.Context, q AvailabilityQuery) (booking.Summary, error) {
	var wq booking.WindowQuery
	if d := strings.TrimSpace(q.Date); d != "" {
		date, err := booking.ParseDate(d, s.rules.Location)
		if err != nil {
			return booking.Summary{}, invalid("%v", err)
		}
		wq.Date = &date
	}
	if t := strings.TrimSpace(q.Time); t != "" {
		clock, err := booking.ParseClock(t)
		if err != nil {
			return booking.Summary{}, invalid("%v", err)
		}
		wq.Clock = &clock
	}
	if q.NextHours < 0 {
		return booking.Summary{}, invalid("next_hours must not be negative")
	}
	wq.NextHours = q.NextHours

	w := booking.ResolveWindow(wq, s.Now(), s.rules.Location, s.rules.Tolerance)
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return booking.Summary{}, storeErr(err)
	}
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return booking.Summary{}, storeErr(err)
	}
	bookings, err := s.store.BookingsBetween(ctx, w.Start, w.End)
	if err != nil {
		return booking.Summary{}, storeErr(err)
	}
	return booking.Summarize(sections, tables, bookings, w, strings.TrimSpace(q.Section)), nil
}

// Suggest lists the sections, other than excluded, that can seat the
// party at the given date and time.
func (s *ReservationService) Suggest(ctx context.Context, partySize int, date, clock, excluded string) ([]booking.Option, error) {
	if partySize <= 0 {
		return nil, invalid("party size must be at least 1")
	}
	at, err := s.slot(date, clock)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, at)
	if err != nil {
		return nil, err
	}
	return snap.SuggestAlternatives(partySize, at, excluded), nil
}

// AvailableTimes lists, for each active section, the service slots on
// date at which that section can seat the party.  Slots already past are
// left out.  A non-empty section narrows the result to that section.
func (s *ReservationService) AvailableTimes(ctx context.Context, date string, partySize int, section string) (map[string][]string, error) {
	if partySize <= 0 {
		return nil, invalid("party size must be at least 1")
	}
	if strings.TrimSpace(date) == "" {
		return nil, invalid("date is required")
	}
	day, err := booking.ParseDate(date, s.rules.Location)
	if err != nil {
		return nil, invalid("%v", err)
	}

	dw := booking.DayWindow(day, s.rules.Location)
	snap, err := s.snapshotBetween(ctx, dw.Start.Add(-s.rules.Turnaround), dw.End.Add(s.rules.Turnaround))
	if err != nil {
		return nil, err
	}
	sections := snap.ActiveSections()
	if name := strings.TrimSpace(section); name != "" {
		sec, ok := snap.Section(name)
		if !ok {
			return nil, invalid("no open section called %q", name)
		}
		sections = []model.Section{sec}
	}

	out := make(map[string][]string, len(sections))
	for _, sec := range sections {
		out[sec.Name] = []string{}
	}
	now := s.now()
	for _, off := range s.rules.Slots() {
		c := booking.Clock{Hour: int(off / time.Hour), Minute: int(off % time.Hour / time.Minute)}
		at := booking.At(day, c, s.rules.Location).UTC()
		if at.Before(now) {
			continue
		}
		for _, sec := range sections {
			if _, ok := snap.PlanSection(sec, partySize, at); ok {
				out[sec.Name] = append(out[sec.Name], c.String())
			}
		}
	}
	return out, nil
}

// Book plans a table for the request and commits it.  When the preferred
// section cannot seat the party the outcome carries alternatives instead.
// If the planned tables are taken before the commit lands, Book returns an
// OutcomeConflict with fresh options together with ErrConflict.
func (s *ReservationService) Book(ctx context.Context, req BookingRequest) (Outcome, error) {
	at, err := s.slot(req.Date, req.Time)
	if err != nil {
		return Outcome{}, err
	}
	if err := validateGuest(req.PartySize, req.Contact); err != nil {
		return Outcome{}, err
	}
	if err := s.checkFuture(at); err != nil {
		return Outcome{}, err
	}

	snap, err := s.snapshot(ctx, at)
	if err != nil {
		return Outcome{}, err
	}

	section := strings.TrimSpace(req.Section)
	if section != "" {
		sec, ok := snap.Section(section)
		if !ok {
			out := s.suggestions(snap, req.PartySize, at, "")
			out.Message = fmt.Sprintf("We don't have an open section called %q. %s", section, out.Message)
			return out, nil
		}
		section = sec.Name
	}

	opt, ok := snap.Plan(req.PartySize, section, at)
	if !ok {
		return s.suggestions(snap, req.PartySize, at, section), nil
	}

	res := s.newReservation(req.PartySize, at, req.Contact, req.SpecialRequests)
	if err := s.commit(ctx, res, opt.Tables); err != nil {
		if errors.Is(err, ErrConflict) {
			return s.conflict(ctx, req.PartySize, at), err
		}
		return Outcome{}, err
	}
	s.log.Info("reservation: confirmed",
		zap.String("reference", res.Reference),
		zap.Int("party_size", res.PartySize),
		zap.String("section", opt.Section.Name),
		zap.Uint64s("tables", res.TableIDs),
		zap.Time("at", res.ReservationTime))
	s.publish(ctx, queue.EventConfirmed, res, opt.Section.Name, model.TableLabels(opt.Tables))
	return s.confirmed(res, opt), nil
}

// Commit books an explicitly chosen set of tables.  The tables must exist,
// be active, belong to one active section and seat the party; more than
// one table needs a section that allows combining.
func (s *ReservationService) Commit(ctx context.Context, req CommitRequest) (*model.Reservation, error) {
	at, err := s.slot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if err := validateGuest(req.PartySize, req.Contact); err != nil {
		return nil, err
	}
	if err := s.checkFuture(at); err != nil {
		return nil, err
	}
	ids := uniqueIDs(req.TableIDs)
	if len(ids) == 0 {
		return nil, invalid("at least one table is required")
	}

	snap, err := s.snapshot(ctx, at)
	if err != nil {
		return nil, err
	}
	opt, err := chosenOption(snap, ids, req.PartySize)
	if err != nil {
		return nil, err
	}
	busy := snap.Busy(at)
	for _, id := range ids {
		if busy[id] {
			return nil, fmt.Errorf("%w: table %d is booked within %s of %s", ErrConflict, id, s.rules.Turnaround, s.local(at))
		}
	}

	res := s.newReservation(req.PartySize, at, req.Contact, req.SpecialRequests)
	if err := s.commit(ctx, res, opt.Tables); err != nil {
		return nil, err
	}
	s.log.Info("reservation: committed chosen option",
		zap.String("reference", res.Reference),
		zap.Uint64s("tables", res.TableIDs))
	s.publish(ctx, queue.EventConfirmed, res, opt.Section.Name, model.TableLabels(opt.Tables))
	return res, nil
}

// Reschedule moves a confirmed reservation.  The current tables are kept
// when they are free at the new time, ignoring the reservation's own
// booking; otherwise the party is re-planned in the same section.  When
// that section is full the outcome lists alternatives and nothing changes.
func (s *ReservationService) Reschedule(ctx context.Context, reference, date, clock string) (Outcome, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Outcome{}, invalid("reference is required")
	}
	at, err := s.slot(date, clock)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.checkFuture(at); err != nil {
		return Outcome{}, err
	}

	cur, err := s.store.ReservationByReference(ctx, reference)
	if err != nil {
		return Outcome{}, storeErr(err)
	}
	if cur.Status != model.StatusConfirmed {
		return Outcome{}, invalid("only confirmed reservations can be rescheduled, this one is %s", cur.Status)
	}

	snap, err := s.snapshot(ctx, at)
	if err != nil {
		return Outcome{}, err
	}
	snap = snap.Excluding(cur.ID)

	sec, _ := sectionOf(snap, cur.TableIDs)
	opt, ok := keepTables(snap, sec, cur.TableIDs, at)
	if !ok {
		opt, ok = snap.PlanSection(sec, cur.PartySize, at)
	}
	if !ok {
		return s.suggestions(snap, cur.PartySize, at, sec.Name), nil
	}

	ids := opt.TableIDs()
	var moved model.Reservation
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.ReservationByReference(ctx, reference)
		if err != nil {
			return err
		}
		if locked.Status != model.StatusConfirmed {
			return invalid("only confirmed reservations can be rescheduled, this one is %s", locked.Status)
		}
		if err := s.lockAndCheck(ctx, tx, ids, locked.PartySize, at, locked.ID); err != nil {
			return err
		}
		if err := tx.MoveReservation(ctx, locked.ID, at, ids); err != nil {
			return err
		}
		moved = *locked
		moved.ReservationTime = at
		moved.TableIDs = ids
		return nil
	})
	if err != nil {
		err = storeErr(err)
		if errors.Is(err, ErrConflict) {
			return s.conflict(ctx, cur.PartySize, at), err
		}
		return Outcome{}, err
	}

	s.log.Info("reservation: rescheduled",
		zap.String("reference", moved.Reference),
		zap.Time("from", cur.ReservationTime),
		zap.Time("to", at),
		zap.Uint64s("tables", ids))
	s.publish(ctx, queue.EventRescheduled, &moved, opt.Section.Name, model.TableLabels(opt.Tables))
	return s.confirmed(&moved, opt), nil
}

// Cancel marks a reservation cancelled and frees its tables.  Cancelling
// an already cancelled reservation succeeds without changing anything.
func (s *ReservationService) Cancel(ctx context.Context, reference string) (*model.Reservation, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, invalid("reference is required")
	}
	var (
		out     *model.Reservation
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.ReservationByReference(ctx, reference)
		if err != nil {
			return err
		}
		out = r
		if r.Status == model.StatusCancelled {
			return nil
		}
		if err := tx.SetReservationStatus(ctx, r.ID, model.StatusCancelled); err != nil {
			return err
		}
		r.Status = model.StatusCancelled
		changed = true
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if changed {
		s.log.Info("reservation: cancelled", zap.String("reference", out.Reference))
		section, tables := s.describe(ctx, out.TableIDs)
		s.publish(ctx, queue.EventCancelled, out, section, tables)
	}
	return out, nil
}

// Get looks a reservation up by its public reference.
func (s *ReservationService) Get(ctx context.Context, reference string) (*model.Reservation, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, invalid("reference is required")
	}
	r, err := s.store.ReservationByReference(ctx, reference)
	if err != nil {
		return nil, storeErr(err)
	}
	return r, nil
}

// Menu lists the dishes guests can pre-order.
func (s *ReservationService) Menu(ctx context.Context) ([]model.MenuItem, error) {
	out, err := s.store.ListMenu(ctx)
	return out, storeErr(err)
}

// AddItems pre-orders dishes on a reservation and returns every line the
// reservation now carries.  Cancelled reservations take no orders.
func (s *ReservationService) AddItems(ctx context.Context, reference string, items []ItemRequest) ([]model.ReservationItem, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, invalid("reference is required")
	}
	if len(items) == 0 {
		return nil, invalid("at least one item is required")
	}
	menu, err := s.store.ListMenu(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	known := make(map[uint64]model.MenuItem, len(menu))
	for _, m := range menu {
		known[m.ID] = m
	}
	lines := make([]model.ReservationItem, 0, len(items))
	for _, it := range items {
		m, ok := known[it.MenuItemID]
		if !ok {
			return nil, invalid("unknown menu item %d", it.MenuItemID)
		}
		q := it.Quantity
		if q == 0 {
			q = 1
		}
		if q < 0 || q > maxQuantity {
			return nil, invalid("quantity must be between 1 and %d", maxQuantity)
		}
		lines = append(lines, model.ReservationItem{MenuItemID: m.ID, Name: m.Name, Price: m.Price, Quantity: q})
	}

	var id uint64
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.ReservationByReference(ctx, reference)
		if err != nil {
			return err
		}
		if r.Status == model.StatusCancelled {
			return invalid("reservation %s is cancelled", r.Reference)
		}
		id = r.ID
		return tx.AddItems(ctx, r.ID, lines)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	s.log.Info("reservation: items added", zap.String("reference", reference), zap.Int("lines", len(lines)))
	out, err := s.store.ReservationItems(ctx, id)
	return out, storeErr(err)
}

// commit runs the commit protocol: lock the tables, re-check conflicts
// under the locks, insert.  Nothing is written when any table is taken.
func (s *ReservationService) commit(ctx context.Context, res *model.Reservation, tables []model.Table) error {
	ids := model.TableIDs(tables)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := s.lockAndCheck(ctx, tx, ids, res.PartySize, res.ReservationTime, 0); err != nil {
			return err
		}
		res.TableIDs = ids
		return tx.InsertReservation(ctx, res)
	})
	return storeErr(err)
}

func (s *ReservationService) lockAndCheck(ctx context.Context, tx repository.Tx, ids []uint64, partySize int, at time.Time, exclude uint64) error {
	locked, err := tx.LockTables(ctx, ids)
	if err != nil {
		return err
	}
	if len(locked) != len(ids) {
		return fmt.Errorf("%w: a chosen table was removed", ErrConflict)
	}
	for _, t := range locked {
		if !t.IsActive {
			return fmt.Errorf("%w: table %s is out of service", ErrConflict, t.Label)
		}
	}
	if model.TotalCapacity(locked) < partySize {
		return invalid("tables seat %d, party is %d", model.TotalCapacity(locked), partySize)
	}
	busy, err := tx.ConflictingTables(ctx, ids, at, s.rules.Turnaround, exclude)
	if err != nil {
		return err
	}
	if len(busy) > 0 {
		return fmt.Errorf("%w: table(s) %v booked within %s of %s", ErrConflict, busy, s.rules.Turnaround, s.local(at))
	}
	return nil
}

// snapshot loads everything needed to plan a booking at at.
func (s *ReservationService) snapshot(ctx context.Context, at time.Time) (booking.Snapshot, error) {
	return s.snapshotBetween(ctx, at.Add(-s.rules.Turnaround), at.Add(s.rules.Turnaround))
}

// snapshotBetween loads the floor plan and the bookings starting in
// [from, to).
func (s *ReservationService) snapshotBetween(ctx context.Context, from, to time.Time) (booking.Snapshot, error) {
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return booking.Snapshot{}, storeErr(err)
	}
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return booking.Snapshot{}, storeErr(err)
	}
	bookings, err := s.store.BookingsBetween(ctx, from, to)
	if err != nil {
		return booking.Snapshot{}, storeErr(err)
	}
	return booking.Snapshot{
		Sections:   sections,
		Tables:     tables,
		Bookings:   bookings,
		Turnaround: s.rules.Turnaround,
	}, nil
}

func (s *ReservationService) suggestions(snap booking.Snapshot, partySize int, at time.Time, excluded string) Outcome {
	opts := snap.SuggestAlternatives(partySize, at, excluded)
	out := Outcome{Kind: OutcomeSuggestions, Options: opts}
	switch {
	case len(opts) == 0:
		out.Message = fmt.Sprintf("Sorry, we are fully booked for %d at %s.", partySize, s.local(at))
	case excluded != "":
		out.Message = fmt.Sprintf("%s has no table for %d at %s, but these sections do.", excluded, partySize, s.local(at))
	default:
		out.Message = fmt.Sprintf("These sections can seat %d at %s.", partySize, s.local(at))
	}
	return out
}

// conflict reports a lost commit race with whatever is still open.
func (s *ReservationService) conflict(ctx context.Context, partySize int, at time.Time) Outcome {
	out := Outcome{
		Kind:    OutcomeConflict,
		Message: "That table was just taken by another booking.",
	}
	snap, err := s.snapshot(ctx, at)
	if err != nil {
		s.log.Warn("reservation: reload after conflict failed", zap.Error(err))
		return out
	}
	out.Options = snap.SuggestAlternatives(partySize, at, "")
	if len(out.Options) == 0 {
		out.Message += " Nothing else is free at that time."
	}
	return out
}

func (s *ReservationService) confirmed(res *model.Reservation, opt booking.Option) Outcome {
	msg := fmt.Sprintf("Confirmed: %d guests in %s at %s, table %s.",
		res.PartySize, opt.Section.Name, s.local(res.ReservationTime), strings.Join(model.TableLabels(opt.Tables), "+"))
	return Outcome{
		Kind:        OutcomeConfirmed,
		Reservation: res,
		Section:     opt.Section.Name,
		Tables:      model.TableLabels(opt.Tables),
		Message:     msg,
	}
}

func (s *ReservationService) newReservation(partySize int, at time.Time, c Contact, special string) *model.Reservation {
	now := s.now().UTC()
	return &model.Reservation{
		Reference:       s.newRef(),
		CustomerName:    strings.TrimSpace(c.Name),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(c.Email)),
		CustomerPhone:   strings.TrimSpace(c.Phone),
		PartySize:       partySize,
		ReservationTime: at.UTC(),
		Status:          model.StatusConfirmed,
		SpecialRequests: strings.TrimSpace(special),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// slot reads a date and clock time in the restaurant time zone.
func (s *ReservationService) slot(date, clock string) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, invalid("date is required")
	}
	if clock == "" {
		return time.Time{}, invalid("time is required")
	}
	d, err := booking.ParseDate(date, s.rules.Location)
	if err != nil {
		return time.Time{}, invalid("%v", err)
	}
	c, err := booking.ParseClock(clock)
	if err != nil {
		return time.Time{}, invalid("%v", err)
	}
	return booking.At(d, c, s.rules.Location).UTC(), nil
}

func (s *ReservationService) checkFuture(at time.Time) error {
	if at.Before(s.now()) {
		return invalid("%s is in the past", s.local(at))
	}
	return nil
}

func (s *ReservationService) local(at time.Time) string {
	return at.In(s.rules.Location).Format("Mon 2 Jan 15:04")
}

func (s *ReservationService) publish(ctx context.Context, typ string, res *model.Reservation, section string, tables []string) {
	if s.events == nil {
		return
	}
	ev := queue.ReservationEvent{
		Type:            typ,
		Reference:       res.Reference,
		ReservationID:   res.ID,
		CustomerName:    res.CustomerName,
		CustomerEmail:   res.CustomerEmail,
		CustomerPhone:   res.CustomerPhone,
		PartySize:       res.PartySize,
		ReservationTime: res.ReservationTime,
		LocalTime:       res.ReservationTime.In(s.rules.Location).Format("2006-01-02 15:04"),
		Section:         section,
		Tables:          tables,
		OccurredAt:      s.now().UTC(),
	}
	// the booking is already committed; a slow broker must not fail it
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.Warn("reservation: event not published",
			zap.String("type", typ),
			zap.String("reference", res.Reference),
			zap.Error(err))
	}
}

// describe resolves table IDs to their section name and labels.  Lookup
// failures leave the description empty.
func (s *ReservationService) describe(ctx context.Context, ids []uint64) (string, []string) {
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return "", nil
	}
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return "", nil
	}
	snap := booking.Snapshot{Sections: sections, Tables: tables}
	sec, held := sectionOf(snap, ids)
	return sec.Name, model.TableLabels(held)
}

func validateGuest(partySize int, c Contact) error {
	if partySize <= 0 {
		return invalid("party size must be at least 1")
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name is required")
	}
	email, phone := strings.TrimSpace(c.Email), strings.TrimSpace(c.Phone)
	if email == "" && phone == "" {
		return invalid("an email address or phone number is required")
	}
	if email != "" && (!strings.Contains(email, "@") || strings.ContainsAny(email, " \t")) {
		return invalid("email address %q is not valid", email)
	}
	return nil
}

// chosenOption validates an explicit table choice against the floor plan.
func chosenOption(snap booking.Snapshot, ids []uint64, partySize int) (booking.Option, error) {
	byID := make(map[uint64]model.Table, len(snap.Tables))
	for _, t := range snap.Tables {
		byID[t.ID] = t
	}
	var chosen []model.Table
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return booking.Option{}, fmt.Errorf("%w: table %d", ErrNotFound, id)
		}
		if !t.IsActive {
			return booking.Option{}, invalid("table %s is out of service", t.Label)
		}
		if t.SectionID != byID[ids[0]].SectionID {
			return booking.Option{}, invalid("tables must belong to one section")
		}
		chosen = append(chosen, t)
	}
	sec, ok := findSection(snap.Sections, chosen[0].SectionID)
	if !ok || !sec.IsActive {
		return booking.Option{}, invalid("section of table %s is closed", chosen[0].Label)
	}
	if len(chosen) > 1 {
		if !sec.CanCombineTables {
			return booking.Option{}, invalid("%s does not combine tables", sec.Name)
		}
		for _, t := range chosen {
			if t.IsCombined {
				return booking.Option{}, invalid("table %s is already a combination", t.Label)
			}
		}
	}
	if c := model.TotalCapacity(chosen); c < partySize {
		return booking.Option{}, invalid("tables seat %d, party is %d", c, partySize)
	}
	return booking.Option{Section: sec, Tables: chosen, Combined: len(chosen) > 1}, nil
}

// keepTables returns the reservation's own tables as an option when all
// of them are still free at at.
func keepTables(snap booking.Snapshot, sec model.Section, ids []uint64, at time.Time) (booking.Option, bool) {
	if len(ids) == 0 || sec.ID == 0 {
		return booking.Option{}, false
	}
	free := make(map[uint64]model.Table)
	for _, t := range snap.FreeTables(sec.ID, at) {
		free[t.ID] = t
	}
	var kept []model.Table
	for _, id := range ids {
		t, ok := free[id]
		if !ok {
			return booking.Option{}, false
		}
		kept = append(kept, t)
	}
	return booking.Option{Section: sec, Tables: kept, Combined: len(kept) > 1}, true
}

// sectionOf finds the section holding the tables, plus the tables in
// ID order.
func sectionOf(snap booking.Snapshot, ids []uint64) (model.Section, []model.Table) {
	want := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var held []model.Table
	for _, t := range snap.Tables {
		if want[t.ID] {
			held = append(held, t)
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].ID < held[j].ID })
	if len(held) == 0 {
		return model.Section{}, nil
	}
	sec, _ := findSection(snap.Sections, held[0].SectionID)
	return sec, held
}

func findSection(sections []model.Section, id uint64) (model.Section, bool) {
	for _, sec := range sections {
		if sec.ID == id {
			return sec, true
		}
	}
	return model.Section{}, false
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
