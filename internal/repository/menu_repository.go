package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
)

// MenuRepo provides persistence for the pre-order menu.
type MenuRepo struct{ db *sql.DB }

// NewMenuRepo returns a new MenuRepo bound to the given database.
func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

// List returns the active menu ordered by ID.
func (r *MenuRepo) List(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, is_special, is_active, created_at FROM menu_items WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MenuItem, 0)
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.IsSpecial, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Upsert creates the item or refreshes the one with the same name and
// fills in its ID.
func (r *MenuRepo) Upsert(ctx context.Context, m *model.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (name, description, price, is_special, is_active) VALUES (?, ?, ?, ?, 1)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), description = VALUES(description),
		price = VALUES(price), is_special = VALUES(is_special), is_active = 1`,
		strings.TrimSpace(m.Name), m.Description, m.Price, m.IsSpecial)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID, m.IsActive = uint64(id), true
	return nil
}
