package model

import "time"

// Table describes a physical dining table.  A table belongs to exactly
// one section for its whole life; moving a table means retiring it and
// creating a new one.
//
// Fields:
//
//	ID         – primary key identifier.
//	Label      – number or name painted on the table (e.g. "14").
//	Capacity   – seats at the table, always positive.
//	SectionID  – owning section.
//	IsActive   – inactive tables are never offered.
//	IsCombined – marks a synthetic table made by merging smaller ones;
//	             such tables never take part in a further combination.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type Table struct {
	ID         uint64    `json:"id"`          // dining_tables.id
	Label      string    `json:"label"`       // dining_tables.label
	Capacity   int       `json:"capacity"`    // dining_tables.capacity
	SectionID  uint64    `json:"section_id"`  // dining_tables.section_id
	IsActive   bool      `json:"is_active"`   // dining_tables.is_active
	IsCombined bool      `json:"is_combined"` // dining_tables.is_combined
	CreatedAt  time.Time `json:"created_at"`  // dining_tables.created_at
	UpdatedAt  time.Time `json:"updated_at"`  // dining_tables.updated_at
}

// TableIDs returns the identifiers of the given tables in order.
func TableIDs(tables []Table) []uint64 {
	ids := make([]uint64, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ID)
	}
	return ids
}

// TotalCapacity sums the seats of the given tables.
func TotalCapacity(tables []Table) int {
	n := 0
	for _, t := range tables {
		n += t.Capacity
	}
	return n
}

// TableLabels returns the labels of the given tables in order.
func TableLabels(tables []Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Label
	}
	return out
}
