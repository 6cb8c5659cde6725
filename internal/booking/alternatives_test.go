package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestAlternativesWhenSectionFull(t *testing.T) {
	snap := book(floorPlan(), 3, evening, 10, 11)

	_, ok := snap.Plan(14, "Lake View", evening)
	require.False(t, ok)

	opts := snap.SuggestAlternatives(14, evening, "Lake View")
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.Section.Name)
		assert.GreaterOrEqual(t, o.Capacity(), 14)
	}
	assert.Equal(t, []string{"Garden View", "Indoors", "Private Area"}, names)
	assert.Equal(t, []uint64{16, 17}, opts[0].TableIDs())
	assert.True(t, opts[0].Combined)
	assert.Equal(t, []uint64{1, 2}, opts[1].TableIDs())
	assert.Equal(t, []uint64{22}, opts[2].TableIDs())
	assert.False(t, opts[2].Combined)
}

func TestSuggestAlternativesOrderedByPriority(t *testing.T) {
	snap := floorPlan()
	for i := range snap.Sections {
		if snap.Sections[i].ID == indoors {
			snap.Sections[i].Priority = 0
		}
	}
	opts := snap.SuggestAlternatives(2, evening, "")
	require.Len(t, opts, 4)
	assert.Equal(t, "Indoors", opts[0].Section.Name)
	assert.Equal(t, "Lake View", opts[1].Section.Name)
}

func TestSuggestAlternativesOmitsSectionsWithoutFit(t *testing.T) {
	snap := book(floorPlan(), 4, evening, 22)

	opts := snap.SuggestAlternatives(40, evening, "")
	assert.Empty(t, opts, "nobody can seat forty once the private room is taken")
}

func TestPlanWithoutSectionUsesPriority(t *testing.T) {
	snap := book(floorPlan(), 6, evening, 10, 11, 12, 13, 14, 15)

	opt, ok := snap.Plan(2, "", evening)
	require.True(t, ok)
	assert.Equal(t, "Garden View", opt.Section.Name)
	assert.Equal(t, []uint64{20}, opt.TableIDs())
}

func TestPlanRejectsInactiveTables(t *testing.T) {
	snap := floorPlan()
	for i := range snap.Tables {
		if snap.Tables[i].SectionID == privateArea {
			snap.Tables[i].IsActive = false
		}
	}
	_, ok := snap.Plan(20, "Private Area", evening)
	assert.False(t, ok)
}
