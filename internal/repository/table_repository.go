package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// TableRepo provides persistence for dining tables.  The SQL table is
// called dining_tables because TABLES is reserved in MySQL.
type TableRepo struct{ db *sql.DB }

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, label, capacity, section_id, is_active, is_combined, created_at, updated_at`

func scanTable(sc interface{ Scan(...interface{}) error }) (model.Table, error) {
	var t model.Table
	err := sc.Scan(&t.ID, &t.Label, &t.Capacity, &t.SectionID, &t.IsActive, &t.IsCombined, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func collectTables(rows *sql.Rows) ([]model.Table, error) {
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// List returns every table ordered by ID.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tableColumns+` FROM dining_tables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectTables(rows)
}

// GetByID returns one table.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM dining_tables WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a single table and fills in its ID.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO dining_tables (label, capacity, section_id, is_active, is_combined) VALUES (?, ?, ?, 1, ?)`,
		t.Label, t.Capacity, t.SectionID, t.IsCombined)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.IsActive = true
	return nil
}

// CountBySectionTx counts the tables of a section, active or not.
func (r *TableRepo) CountBySectionTx(ctx context.Context, tx *sql.Tx, sectionID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM dining_tables WHERE section_id = ?`, sectionID).Scan(&n)
	return n, err
}

// CreateBulkTx inserts many tables in one statement.  An empty slice is
// a no-op.
func (r *TableRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tables []model.Table) error {
	if len(tables) == 0 {
		return nil
	}
	query := `INSERT INTO dining_tables (label, capacity, section_id, is_active, is_combined) VALUES `
	args := make([]interface{}, 0, len(tables)*4)
	for i, t := range tables {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, 1, ?)"
		args = append(args, t.Label, t.Capacity, t.SectionID, t.IsCombined)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// SetActive toggles a table.  Deactivating a table with upcoming
// confirmed bookings returns ErrConflict.
func (r *TableRepo) SetActive(ctx context.Context, id uint64, active bool, now time.Time) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if !active {
		var upcoming int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservation_tables rt
			JOIN reservations res ON res.id = rt.reservation_id
			WHERE rt.table_id = ? AND res.status = 'confirmed' AND res.reservation_time >= ?`, id, now).Scan(&upcoming)
		if err != nil {
			return err
		}
		if upcoming > 0 {
			return ErrConflict
		}
	}
	_, err := r.db.ExecContext(ctx, `UPDATE dining_tables SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// LockTx takes row locks on the given tables for the rest of the
// transaction and returns them ordered by ID.  Locking in ID order keeps
// two commits on overlapping combinations from deadlocking.
func (r *TableRepo) LockTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.Table, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT `+tableColumns+` FROM dining_tables WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id FOR UPDATE`,
		idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	return collectTables(rows)
}

// DeactivateBySectionsTx marks every table of the sections inactive.
func (r *TableRepo) DeactivateBySectionsTx(ctx context.Context, tx *sql.Tx, sectionIDs []uint64) (int64, error) {
	if len(sectionIDs) == 0 {
		return 0, nil
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE dining_tables SET is_active = 0 WHERE is_active = 1 AND section_id IN (`+placeholders(len(sectionIDs))+`)`,
		idArgs(sectionIDs)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountBySectionsTx counts the tables that a hard purge is about to remove.
func (r *TableRepo) CountBySectionsTx(ctx context.Context, tx *sql.Tx, sectionIDs []uint64) (int64, error) {
	if len(sectionIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dining_tables WHERE section_id IN (`+placeholders(len(sectionIDs))+`)`,
		idArgs(sectionIDs)...).Scan(&n)
	return n, err
}
