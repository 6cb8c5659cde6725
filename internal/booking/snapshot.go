package booking

import (
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Snapshot is a read-only view of the floor plan and the confirmed
// bookings around the time being planned.  It is cheap to build and is
// discarded after one request.
type Snapshot struct {
	Sections   []model.Section
	Tables     []model.Table
	Bookings   []model.Booking
	Turnaround time.Duration
	// Exclude names a reservation whose own tables are treated as free,
	// so a reservation never collides with itself when it moves.
	Exclude uint64
}

// Excluding returns a copy of the snapshot that ignores reservation id.
func (s Snapshot) Excluding(id uint64) Snapshot {
	s.Exclude = id
	return s
}

// ActiveSections lists active sections by priority, lowest first, ties
// broken by ID.
func (s Snapshot) ActiveSections() []model.Section {
	out := make([]model.Section, 0, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.IsActive {
			out = append(out, sec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Section resolves a guest supplied section name.  An exact
// case-insensitive match wins; otherwise the highest priority active
// section whose name contains the text is returned.
func (s Snapshot) Section(name string) (model.Section, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Section{}, false
	}
	active := s.ActiveSections()
	for _, sec := range active {
		if strings.EqualFold(sec.Name, name) {
			return sec, true
		}
	}
	for _, sec := range active {
		if MatchSection(sec.Name, name) {
			return sec, true
		}
	}
	return model.Section{}, false
}

// Busy returns the tables held by a confirmed booking that conflicts
// with a new booking at at.
func (s Snapshot) Busy(at time.Time) map[uint64]bool {
	busy := make(map[uint64]bool)
	for _, b := range s.Bookings {
		if s.Exclude != 0 && b.ReservationID == s.Exclude {
			continue
		}
		if Conflicts(b.ReservationTime, at, s.Turnaround) {
			busy[b.TableID] = true
		}
	}
	return busy
}

// FreeTables lists the active, unbooked tables of section sectionID at
// at, ordered by ID.  A zero sectionID means every active section.
func (s Snapshot) FreeTables(sectionID uint64, at time.Time) []model.Table {
	active := make(map[uint64]bool)
	for _, sec := range s.Sections {
		if sec.IsActive {
			active[sec.ID] = true
		}
	}
	busy := s.Busy(at)
	out := make([]model.Table, 0)
	for _, t := range s.Tables {
		if !t.IsActive || !active[t.SectionID] || busy[t.ID] {
			continue
		}
		if sectionID != 0 && t.SectionID != sectionID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Availability summarizes the window for the sections matching filter.
func (s Snapshot) Availability(w Window, filter string) Summary {
	return Summarize(s.Sections, s.Tables, s.Bookings, w, filter)
}
