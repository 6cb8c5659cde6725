package booking

import (
	"sort"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// maxExhaustive bounds the mixed-size search to 2^16 subsets.  Larger
// sections fall back to a greedy pick.
const maxExhaustive = 16

// Combine looks for a set of free tables in section that together seat
// the party.  Same-size tables are preferred, smallest size first, so
// two 2-seaters are joined for a party of four before anything larger
// is touched.  Mixed sizes are only tried when no single size works.
// Every returned set is minimal: dropping any table leaves too few seats.
func (s Snapshot) Combine(partySize int, section string, at time.Time) []model.Table {
	sec, ok := s.Section(section)
	if !ok || !sec.CanCombineTables || partySize <= 0 {
		return nil
	}
	return combineTables(sec, s.FreeTables(sec.ID, at), partySize)
}

// combineTables expects free ordered by ID.
func combineTables(sec model.Section, free []model.Table, partySize int) []model.Table {
	if !sec.CanCombineTables {
		return nil
	}
	// A table that seats the party alone would make every partner redundant.
	members := make([]model.Table, 0, len(free))
	for _, t := range free {
		if !t.IsCombined && t.Capacity < partySize {
			members = append(members, t)
		}
	}
	if combo := uniformCombination(sec, members, partySize); combo != nil {
		return combo
	}
	return mixedCombination(sec, members, partySize)
}

func uniformCombination(sec model.Section, members []model.Table, partySize int) []model.Table {
	byCapacity := make(map[int][]model.Table)
	capacities := make([]int, 0)
	for _, t := range members {
		if _, seen := byCapacity[t.Capacity]; !seen {
			capacities = append(capacities, t.Capacity)
		}
		byCapacity[t.Capacity] = append(byCapacity[t.Capacity], t)
	}
	sort.Ints(capacities)

	for _, c := range capacities {
		need := (partySize + c - 1) / c
		if limit, ok := sec.CombineLimit(c); ok && need > limit {
			continue
		}
		group := byCapacity[c]
		if len(group) < need {
			continue
		}
		return append([]model.Table(nil), group[:need]...)
	}
	return nil
}

// mixedCombination picks the subset with the least wasted seats, then the
// fewest tables, then the lowest table IDs.
func mixedCombination(sec model.Section, members []model.Table, partySize int) []model.Table {
	if model.TotalCapacity(members) < partySize {
		return nil
	}
	if len(members) > maxExhaustive {
		return greedyCombination(sec, members, partySize)
	}

	var (
		best      uint32
		bestWaste int
		bestCount int
	)
	n := len(members)
	for mask := uint32(1); mask < 1<<n; mask++ {
		total, count := 0, 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				total += members[i].Capacity
				count++
			}
		}
		if total < partySize || count < 2 {
			continue
		}
		waste := total - partySize
		if best != 0 {
			if waste > bestWaste || (waste == bestWaste && count > bestCount) {
				continue
			}
			if waste == bestWaste && count == bestCount && !lowerIDs(mask, best) {
				continue
			}
		}
		if !withinLimits(sec, members, mask) {
			continue
		}
		best, bestWaste, bestCount = mask, waste, count
	}
	if best == 0 {
		return nil
	}
	out := make([]model.Table, 0, bestCount)
	for i := 0; i < n; i++ {
		if best&(1<<i) != 0 {
			out = append(out, members[i])
		}
	}
	return out
}

// lowerIDs reports whether subset a lists smaller table IDs than b.  With
// members ordered by ID, the set owning the lowest differing bit wins.
func lowerIDs(a, b uint32) bool {
	diff := a ^ b
	return a&(diff&-diff) != 0
}

func withinLimits(sec model.Section, members []model.Table, mask uint32) bool {
	counts := make(map[int]int)
	for i := range members {
		if mask&(1<<i) != 0 {
			counts[members[i].Capacity]++
		}
	}
	for c, n := range counts {
		if limit, ok := sec.CombineLimit(c); ok && n > limit {
			return false
		}
	}
	return true
}

// greedyCombination takes the largest tables first and then drops any
// table the party no longer needs.
func greedyCombination(sec model.Section, members []model.Table, partySize int) []model.Table {
	sorted := append([]model.Table(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Capacity != sorted[j].Capacity {
			return sorted[i].Capacity > sorted[j].Capacity
		}
		return sorted[i].ID < sorted[j].ID
	})

	counts := make(map[int]int)
	picked := make([]model.Table, 0)
	total := 0
	for _, t := range sorted {
		if total >= partySize {
			break
		}
		if limit, ok := sec.CombineLimit(t.Capacity); ok && counts[t.Capacity] >= limit {
			continue
		}
		picked = append(picked, t)
		counts[t.Capacity]++
		total += t.Capacity
	}
	if total < partySize || len(picked) < 2 {
		return nil
	}

	// Smallest tables are at the tail; try dropping them first.
	for i := len(picked) - 1; i >= 0 && len(picked) > 2; i-- {
		if total-picked[i].Capacity >= partySize {
			total -= picked[i].Capacity
			picked = append(picked[:i], picked[i+1:]...)
		}
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i].ID < picked[j].ID })
	return picked
}
