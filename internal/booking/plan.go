package booking

import (
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Option is one way to seat a party: a single table or a combination of
// tables from one section.
type Option struct {
	Section  model.Section `json:"section"`
	Tables   []model.Table `json:"tables"`
	Combined bool          `json:"combined"`
}

// TableIDs lists the tables of the option.
func (o Option) TableIDs() []uint64 { return model.TableIDs(o.Tables) }

// Capacity is the number of seats the option provides.
func (o Option) Capacity() int { return model.TotalCapacity(o.Tables) }

// PlanSection picks how to seat a party in one section.  The best single
// table is used unless the section allows combining and a combination
// wastes strictly fewer seats, which keeps large tables free for large
// parties.  ok is false when the section cannot take the party.
func (s Snapshot) PlanSection(sec model.Section, partySize int, at time.Time) (Option, bool) {
	if !sec.IsActive || partySize <= 0 {
		return Option{}, false
	}
	free := s.FreeTables(sec.ID, at)
	single, hasSingle := bestFit(free, partySize)

	if sec.CanCombineTables {
		combo := combineTables(sec, free, partySize)
		if combo != nil && (!hasSingle || model.TotalCapacity(combo) < single.Capacity) {
			return Option{Section: sec, Tables: combo, Combined: true}, true
		}
	}
	if hasSingle {
		return Option{Section: sec, Tables: []model.Table{single}}, true
	}
	return Option{}, false
}

// Plan seats a party in the named section, or in the first active
// section by priority that can take it when no section is named.
func (s Snapshot) Plan(partySize int, section string, at time.Time) (Option, bool) {
	if section != "" {
		sec, ok := s.Section(section)
		if !ok {
			return Option{}, false
		}
		return s.PlanSection(sec, partySize, at)
	}
	for _, sec := range s.ActiveSections() {
		if opt, ok := s.PlanSection(sec, partySize, at); ok {
			return opt, true
		}
	}
	return Option{}, false
}
