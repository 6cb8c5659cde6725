package booking

import (
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// AllocationKind tells the caller what Allocate found.
type AllocationKind int

const (
	// NoFit means neither a single table nor a combination can work here.
	NoFit AllocationKind = iota
	// SingleTable means Allocation.Table seats the whole party.
	SingleTable
	// NeedsCombination means no single table is large enough but the
	// section allows joining tables.
	NeedsCombination
)

func (k AllocationKind) String() string {
	switch k {
	case SingleTable:
		return "table"
	case NeedsCombination:
		return "needs_combination"
	default:
		return "no_fit"
	}
}

// Allocation is the result of a single-table search.
type Allocation struct {
	Kind  AllocationKind
	Table model.Table
}

// Allocate finds the best single table for a party at at.  When section
// is empty every active section is searched.  Best fit is the smallest
// free table with enough seats; equal capacities go to the lowest ID.
func (s Snapshot) Allocate(partySize int, section string, at time.Time) Allocation {
	if partySize <= 0 {
		return Allocation{Kind: NoFit}
	}
	var (
		sectionID  uint64
		canCombine bool
	)
	if section != "" {
		sec, ok := s.Section(section)
		if !ok {
			return Allocation{Kind: NoFit}
		}
		sectionID, canCombine = sec.ID, sec.CanCombineTables
	} else {
		for _, sec := range s.ActiveSections() {
			canCombine = canCombine || sec.CanCombineTables
		}
	}

	if t, ok := bestFit(s.FreeTables(sectionID, at), partySize); ok {
		return Allocation{Kind: SingleTable, Table: t}
	}
	if canCombine {
		return Allocation{Kind: NeedsCombination}
	}
	return Allocation{Kind: NoFit}
}

// bestFit expects tables ordered by ID.
func bestFit(tables []model.Table, partySize int) (model.Table, bool) {
	var (
		best  model.Table
		found bool
	)
	for _, t := range tables {
		if t.Capacity < partySize {
			continue
		}
		if !found || t.Capacity < best.Capacity {
			best, found = t, true
		}
	}
	return best, found
}
