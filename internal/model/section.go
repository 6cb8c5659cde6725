package model

import "time"

// Section represents a named dining area of the restaurant such as
// "Lake View" or "Indoors".  Sections are seeded from the layout file
// at startup and are never hard-deleted outside of an administrative
// purge.  Lower Priority values are preferred when suggesting
// alternatives; priorities are unique among active sections.
//
// Fields:
//
//	ID               – primary key identifier.
//	Name             – unique display name.
//	Description      – optional free text shown to guests.
//	Priority         – suggestion order (1 is offered first).
//	CanCombineTables – whether smaller tables may be joined for a party.
//	CombineLimits    – optional cap on how many tables of a capacity
//	                   may be joined in one combination (capacity -> max).
//	IsActive         – whether the section takes bookings.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Section struct {
	ID               uint64      `json:"id"`                       // sections.id
	Name             string      `json:"name"`                     // sections.name
	Description      string      `json:"description,omitempty"`    // sections.description
	Priority         int         `json:"priority"`                 // sections.priority
	CanCombineTables bool        `json:"can_combine_tables"`       // sections.can_combine_tables
	CombineLimits    map[int]int `json:"combine_limits,omitempty"` // section_combine_limits rows
	IsActive         bool        `json:"is_active"`                // sections.is_active
	CreatedAt        time.Time   `json:"created_at"`               // sections.created_at
	UpdatedAt        time.Time   `json:"updated_at"`               // sections.updated_at
}

// CombineLimit reports the maximum number of tables with the given
// capacity that may be joined in this section.  ok is false when the
// section places no limit on that capacity.
func (s Section) CombineLimit(capacity int) (limit int, ok bool) {
	if s.CombineLimits == nil {
		return 0, false
	}
	limit, ok = s.CombineLimits[capacity]
	return limit, ok
}
