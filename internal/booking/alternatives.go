package booking

import "time"

// SuggestAlternatives offers the party a seat in every other active
// section that can take it, best priority first.  excluded is the section
// the guest asked for; it may be empty.  Sections with no fit are left
// out, so an empty result means the restaurant is full at that time.
func (s Snapshot) SuggestAlternatives(partySize int, at time.Time, excluded string) []Option {
	var skip uint64
	if sec, ok := s.Section(excluded); ok {
		skip = sec.ID
	}
	out := make([]Option, 0)
	for _, sec := range s.ActiveSections() {
		if sec.ID == skip {
			continue
		}
		if opt, ok := s.PlanSection(sec, partySize, at); ok {
			out = append(out, opt)
		}
	}
	return out
}
