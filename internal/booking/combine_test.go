package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
)

func TestCombineSameSizeSmallTablesFirst(t *testing.T) {
	snap := floorPlan()

	got := snap.Combine(4, "Lake View", evening)
	assert.Equal(t, []uint64{14, 15}, model.TableIDs(got))
}

func TestPlanPrefersCombinationOverLargeTable(t *testing.T) {
	snap := book(floorPlan(), 5, evening, 12, 13)

	opt, ok := snap.PlanSection(snap.Sections[0], 4, evening)
	require.True(t, ok)
	assert.True(t, opt.Combined)
	assert.Equal(t, []uint64{14, 15}, opt.TableIDs())
}

func TestPlanPrefersExactSingleTable(t *testing.T) {
	snap := floorPlan()

	opt, ok := snap.PlanSection(snap.Sections[0], 4, evening)
	require.True(t, ok)
	assert.False(t, opt.Combined)
	assert.Equal(t, []uint64{12}, opt.TableIDs())
}

func TestCombineEscalatesSizeClass(t *testing.T) {
	// Four 2-seaters would exceed the Lake View limit of two, so the
	// 4-seaters are joined instead.
	snap := floorPlan()

	got := snap.Combine(8, "Lake View", evening)
	assert.Equal(t, []uint64{12, 13}, model.TableIDs(got))
}

func TestCombineMixedFallback(t *testing.T) {
	snap := floorPlan()

	got := snap.Combine(14, "Indoors", evening)
	assert.Equal(t, []uint64{1, 2}, model.TableIDs(got))
}

func TestCombineRejectsNonCombinableSection(t *testing.T) {
	snap := floorPlan()
	assert.Nil(t, snap.Combine(31, "Private Area", evening))
}

func TestCombineNothingLeft(t *testing.T) {
	snap := book(floorPlan(), 8, evening, 10, 11)
	assert.Nil(t, snap.Combine(14, "Lake View", evening))
}

func TestCombineIsMinimal(t *testing.T) {
	base := floorPlan()
	layouts := map[string]booking.Snapshot{
		"all free":        base,
		"lake busy":       book(base, 1, evening, 10, 11, 12),
		"indoors crowded": book(base, 2, evening, 1, 4, 6),
	}
	for name, snap := range layouts {
		busy := snap.Busy(evening)
		for _, sec := range snap.ActiveSections() {
			for party := 2; party <= 40; party++ {
				combo := snap.Combine(party, sec.Name, evening)
				if combo == nil {
					continue
				}
				total := model.TotalCapacity(combo)
				require.GreaterOrEqual(t, total, party, "%s/%s/%d", name, sec.Name, party)
				seen := map[uint64]bool{}
				for _, tbl := range combo {
					assert.False(t, busy[tbl.ID], "busy table %d offered", tbl.ID)
					assert.Equal(t, sec.ID, tbl.SectionID)
					assert.False(t, seen[tbl.ID], "duplicate table %d", tbl.ID)
					seen[tbl.ID] = true
					assert.Less(t, total-tbl.Capacity, party, "%s/%s/%d: table %d is redundant", name, sec.Name, party, tbl.ID)
				}
			}
		}
	}
}

func TestCombineGreedyForLargeSections(t *testing.T) {
	sec := model.Section{ID: 9, Name: "Terrace", Priority: 1, CanCombineTables: true, IsActive: true}
	snap := booking.Snapshot{Sections: []model.Section{sec}, Turnaround: 2 * time.Hour}
	for i := 1; i <= 20; i++ {
		capacity := 2
		if i%5 == 0 {
			capacity = 6
		}
		snap.Tables = append(snap.Tables, model.Table{ID: uint64(i), Capacity: capacity, SectionID: sec.ID, IsActive: true})
	}

	// Uniform: 6-seaters cannot cover 50 (only four of them), 2-seaters
	// cannot either (sixteen of them), so the greedy path runs.
	got := snap.Combine(50, "Terrace", evening)
	require.NotNil(t, got)
	total := model.TotalCapacity(got)
	assert.GreaterOrEqual(t, total, 50)
	for _, tbl := range got {
		assert.Less(t, total-tbl.Capacity, 50)
	}
}
