package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
)

// SectionRepo provides persistence for sections and their combine limits.
type SectionRepo struct{ db *sql.DB }

// NewSectionRepo returns a new SectionRepo bound to the given database.
func NewSectionRepo(db *sql.DB) *SectionRepo { return &SectionRepo{db: db} }

const sectionColumns = `id, name, description, priority, can_combine_tables, is_active, created_at, updated_at`

// List returns every section ordered by priority with its combine limits.
// Inactive sections are included; callers filter as needed.
func (r *SectionRepo) List(ctx context.Context) ([]model.Section, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sectionColumns+` FROM sections ORDER BY priority, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Section
	index := make(map[uint64]int)
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Priority, &s.CanCombineTables, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lrows, err := r.db.QueryContext(ctx, `SELECT section_id, capacity, max_tables FROM section_combine_limits`)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var sectionID uint64
		var capacity, maxTables int
		if err := lrows.Scan(&sectionID, &capacity, &maxTables); err != nil {
			return nil, err
		}
		i, ok := index[sectionID]
		if !ok {
			continue
		}
		if out[i].CombineLimits == nil {
			out[i].CombineLimits = make(map[int]int)
		}
		out[i].CombineLimits[capacity] = maxTables
	}
	return out, lrows.Err()
}

// GetByName finds a section by name, ignoring case.
func (r *SectionRepo) GetByName(ctx context.Context, name string) (*model.Section, error) {
	var s model.Section
	err := r.db.QueryRowContext(ctx, `SELECT `+sectionColumns+` FROM sections WHERE name = ? LIMIT 1`, strings.TrimSpace(name)).
		Scan(&s.ID, &s.Name, &s.Description, &s.Priority, &s.CanCombineTables, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertTx creates the section or refreshes an existing one of the same
// name, reactivating it, and replaces its combine limits.  created reports
// whether a new row was inserted.  The name column uses a case-insensitive
// collation, so "lake view" updates "Lake View".
func (r *SectionRepo) UpsertTx(ctx context.Context, tx *sql.Tx, s *model.Section) (created bool, err error) {
	err = tx.QueryRowContext(ctx, `SELECT id FROM sections WHERE name = ? FOR UPDATE`, s.Name).Scan(&s.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sections (name, description, priority, can_combine_tables, is_active) VALUES (?, ?, ?, ?, 1)`,
			s.Name, s.Description, s.Priority, s.CanCombineTables)
		if err != nil {
			return false, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, err
		}
		s.ID, created = uint64(id), true
	case err != nil:
		return false, err
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE sections SET description = ?, priority = ?, can_combine_tables = ?, is_active = 1 WHERE id = ?`,
			s.Description, s.Priority, s.CanCombineTables, s.ID); err != nil {
			return false, err
		}
	}
	s.IsActive = true

	if _, err := tx.ExecContext(ctx, `DELETE FROM section_combine_limits WHERE section_id = ?`, s.ID); err != nil {
		return false, err
	}
	if len(s.CombineLimits) == 0 {
		return created, nil
	}
	query := `INSERT INTO section_combine_limits (section_id, capacity, max_tables) VALUES `
	args := make([]interface{}, 0, len(s.CombineLimits)*3)
	i := 0
	for capacity, maxTables := range s.CombineLimits {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.ID, capacity, maxTables)
		i++
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return created, err
}

// IDsByNameTx returns the IDs of the named sections, locking the rows.
func (r *SectionRepo) IDsByNameTx(ctx context.Context, tx *sql.Tx, names []string) ([]uint64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = strings.TrimSpace(n)
	}
	rows, err := tx.QueryContext(ctx, `SELECT id FROM sections WHERE name IN (`+placeholders(len(names))+`) ORDER BY id FOR UPDATE`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeactivateTx marks sections inactive and returns how many changed.
func (r *SectionRepo) DeactivateTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := tx.ExecContext(ctx, `UPDATE sections SET is_active = 0 WHERE is_active = 1 AND id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTx removes sections; their tables and limits cascade.
func (r *SectionRepo) DeleteTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
