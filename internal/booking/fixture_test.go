package booking_test

import (
	"strconv"
	"time"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
)

var evening = time.Date(2026, 7, 14, 19, 0, 0, 0, time.UTC)

const (
	lakeView    uint64 = 1
	gardenView  uint64 = 2
	indoors     uint64 = 3
	privateArea uint64 = 4
)

func floorPlan() booking.Snapshot {
	sections := []model.Section{
		{ID: lakeView, Name: "Lake View", Priority: 1, CanCombineTables: true, IsActive: true, CombineLimits: map[int]int{2: 2, 4: 2, 12: 2}},
		{ID: gardenView, Name: "Garden View", Priority: 2, CanCombineTables: true, IsActive: true, CombineLimits: map[int]int{2: 2, 4: 2, 12: 2}},
		{ID: indoors, Name: "Indoors", Priority: 3, CanCombineTables: true, IsActive: true, CombineLimits: map[int]int{2: 4, 4: 2, 12: 1}},
		{ID: privateArea, Name: "Private Area", Priority: 4, IsActive: true, CombineLimits: map[int]int{30: 1}},
	}
	layout := []struct {
		id, section uint64
		capacity    int
	}{
		{1, indoors, 12}, {2, indoors, 2}, {3, indoors, 2}, {4, indoors, 4}, {5, indoors, 4},
		{6, indoors, 2}, {7, indoors, 2}, {8, indoors, 2}, {9, indoors, 2},
		{10, lakeView, 12}, {11, lakeView, 12}, {12, lakeView, 4}, {13, lakeView, 4}, {14, lakeView, 2}, {15, lakeView, 2},
		{16, gardenView, 12}, {17, gardenView, 12}, {18, gardenView, 4}, {19, gardenView, 4}, {20, gardenView, 2}, {21, gardenView, 2},
		{22, privateArea, 30},
	}
	tables := make([]model.Table, 0, len(layout))
	for _, l := range layout {
		tables = append(tables, model.Table{ID: l.id, Label: labelOf(l.id), Capacity: l.capacity, SectionID: l.section, IsActive: true})
	}
	return booking.Snapshot{Sections: sections, Tables: tables, Turnaround: 2 * time.Hour}
}

func labelOf(id uint64) string { return strconv.FormatUint(id, 10) }

// book marks tables as held by reservation resID at at.
func book(s booking.Snapshot, resID uint64, at time.Time, tableIDs ...uint64) booking.Snapshot {
	for _, id := range tableIDs {
		s.Bookings = append(s.Bookings, model.Booking{
			ReservationID:   resID,
			TableID:         id,
			ReservationTime: at,
			CustomerName:    "guest",
			PartySize:       2,
		})
	}
	return s
}
