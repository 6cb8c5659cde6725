package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
)

func TestAllocateBestFit(t *testing.T) {
	tests := []struct {
		name    string
		party   int
		section string
		booked  []uint64
		kind    booking.AllocationKind
		tableID uint64
	}{
		{name: "smallest table across sections", party: 3, kind: booking.SingleTable, tableID: 4},
		{name: "smallest table in section", party: 3, section: "Lake View", kind: booking.SingleTable, tableID: 12},
		{name: "section filter ignores case", party: 2, section: "garden view", kind: booking.SingleTable, tableID: 20},
		{name: "exact capacity preferred", party: 12, section: "Garden View", kind: booking.SingleTable, tableID: 16},
		{name: "lowest id among equal capacities", party: 4, section: "Lake View", booked: []uint64{12}, kind: booking.SingleTable, tableID: 13},
		{name: "skips booked tables", party: 5, section: "Lake View", booked: []uint64{10}, kind: booking.SingleTable, tableID: 11},
		{name: "no single table fits combinable section", party: 14, section: "Lake View", kind: booking.NeedsCombination},
		{name: "no single table fits private area", party: 31, section: "Private Area", kind: booking.NoFit},
		{name: "unknown section", party: 2, section: "Rooftop", kind: booking.NoFit},
		{name: "invalid party size", party: 0, kind: booking.NoFit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := book(floorPlan(), 99, evening, tc.booked...)
			got := snap.Allocate(tc.party, tc.section, evening)
			require.Equal(t, tc.kind, got.Kind)
			if tc.kind == booking.SingleTable {
				assert.Equal(t, tc.tableID, got.Table.ID)
			}
		})
	}
}

func TestAllocateNeverReturnsUnavailableTables(t *testing.T) {
	snap := floorPlan()
	for i := range snap.Tables {
		if snap.Tables[i].ID == 4 {
			snap.Tables[i].IsActive = false
		}
	}
	snap = book(snap, 7, evening.Add(-90*time.Minute), 5)

	got := snap.Allocate(3, "Indoors", evening)
	require.Equal(t, booking.SingleTable, got.Kind)
	assert.Equal(t, uint64(1), got.Table.ID, "inactive table 4 and busy table 5 are skipped")
}

func TestAllocateIgnoresInactiveSections(t *testing.T) {
	snap := floorPlan()
	for i := range snap.Sections {
		if snap.Sections[i].ID == privateArea {
			snap.Sections[i].IsActive = false
		}
	}
	got := snap.Allocate(20, "", evening)
	assert.Equal(t, booking.NeedsCombination, got.Kind)
}

func TestTurnaroundBoundary(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		busy   bool
	}{
		{name: "same time", offset: 0, busy: true},
		{name: "just inside before", offset: -119 * time.Minute, busy: true},
		{name: "just inside after", offset: 119 * time.Minute, busy: true},
		{name: "exactly turnaround before", offset: -2 * time.Hour, busy: false},
		{name: "exactly turnaround after", offset: 2 * time.Hour, busy: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := book(floorPlan(), 1, evening.Add(tc.offset), 14)
			assert.Equal(t, tc.busy, snap.Busy(evening)[14])
		})
	}
}

func TestExcludingOwnReservation(t *testing.T) {
	snap := book(floorPlan(), 42, evening, 14, 15)

	got := snap.Allocate(2, "Lake View", evening.Add(time.Hour))
	require.Equal(t, booking.SingleTable, got.Kind)
	assert.Equal(t, uint64(12), got.Table.ID)

	got = snap.Excluding(42).Allocate(2, "Lake View", evening.Add(time.Hour))
	require.Equal(t, booking.SingleTable, got.Kind)
	assert.Equal(t, uint64(14), got.Table.ID)
}

func TestFreeTablesOrderedByID(t *testing.T) {
	snap := floorPlan()
	snap.Tables = append([]model.Table{{ID: 30, Capacity: 2, SectionID: lakeView, IsActive: true}}, snap.Tables...)
	free := snap.FreeTables(lakeView, evening)
	ids := model.TableIDs(free)
	assert.Equal(t, []uint64{10, 11, 12, 13, 14, 15, 30}, ids)
}
