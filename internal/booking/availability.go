package booking

import (
	"sort"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Summary answers "how many tables are free" for a window.
type Summary struct {
	Window        Window          `json:"window"`
	Section       string          `json:"section,omitempty"`
	Total         int             `json:"total_tables"`
	Booked        int             `json:"booked_tables"`
	Available     int             `json:"available_tables"`
	BookedDetails []model.Booking `json:"booked_details"`
}

// MatchSection reports whether a section name satisfies a guest supplied
// filter.  Matching ignores case and accepts a partial name, so "garden"
// selects "Garden View".  An empty filter matches everything.
func MatchSection(name, filter string) bool {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), f)
}

// Summarize counts tables in the active sections matching filter and the
// confirmed bookings that fall inside w.  A table booked several times in
// the window is counted once.  A filter that matches nothing yields an
// all-zero summary.
func Summarize(sections []model.Section, tables []model.Table, bookings []model.Booking, w Window, filter string) Summary {
	sum := Summary{Window: w, Section: strings.TrimSpace(filter), BookedDetails: []model.Booking{}}

	inScope := make(map[uint64]bool)
	for _, s := range sections {
		if s.IsActive && MatchSection(s.Name, filter) {
			inScope[s.ID] = true
		}
	}
	counted := make(map[uint64]bool)
	for _, t := range tables {
		if t.IsActive && inScope[t.SectionID] {
			counted[t.ID] = true
		}
	}
	sum.Total = len(counted)

	booked := make(map[uint64]bool)
	for _, b := range bookings {
		if !counted[b.TableID] || !w.Contains(b.ReservationTime) {
			continue
		}
		booked[b.TableID] = true
		sum.BookedDetails = append(sum.BookedDetails, b)
	}
	sort.SliceStable(sum.BookedDetails, func(i, j int) bool {
		a, b := sum.BookedDetails[i], sum.BookedDetails[j]
		if !a.ReservationTime.Equal(b.ReservationTime) {
			return a.ReservationTime.Before(b.ReservationTime)
		}
		return a.TableID < b.TableID
	})
	sum.Booked = len(booked)
	sum.Available = sum.Total - sum.Booked
	return sum
}
