package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations and the tables
// they hold.  Held tables are stored in reservation_tables, one row per
// table, so a combined booking is a single reservation with several rows.
// All timestamps are stored in UTC.
type ReservationRepo struct{ db *sql.DB }

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationFilter narrows List.  Zero values mean "any".
type ReservationFilter struct {
	From   time.Time
	To     time.Time
	Status model.ReservationStatus
	Limit  int
}

const reservationSelect = `SELECT r.id, r.reference, r.customer_name, r.customer_email, r.customer_phone,
	r.party_size, r.reservation_time, r.status, r.special_requests, r.created_at, r.updated_at,
	COALESCE(GROUP_CONCAT(rt.table_id ORDER BY rt.table_id), '')
	FROM reservations r
	LEFT JOIN reservation_tables rt ON rt.reservation_id = r.id`

const reservationGroup = ` GROUP BY r.id, r.reference, r.customer_name, r.customer_email, r.customer_phone,
	r.party_size, r.reservation_time, r.status, r.special_requests, r.created_at, r.updated_at`

func scanReservation(sc interface{ Scan(...interface{}) error }) (model.Reservation, error) {
	var (
		res                   model.Reservation
		email, phone, special sql.NullString
		status, tableList     string
	)
	err := sc.Scan(&res.ID, &res.Reference, &res.CustomerName, &email, &phone,
		&res.PartySize, &res.ReservationTime, &status, &special, &res.CreatedAt, &res.UpdatedAt, &tableList)
	if err != nil {
		return res, err
	}
	res.CustomerEmail = email.String
	res.CustomerPhone = phone.String
	res.SpecialRequests = special.String
	res.Status = model.ReservationStatus(status)
	res.ReservationTime = res.ReservationTime.UTC()
	res.TableIDs = parseIDList(tableList)
	return res, nil
}

func parseIDList(s string) []uint64 {
	ids := []uint64{}
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}

// CreateTx inserts a reservation and its table rows within the caller's
// transaction and fills in the generated ID and timestamps.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (reference, customer_name, customer_email, customer_phone, party_size,
		reservation_time, status, special_requests) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.Reference, res.CustomerName, nullString(res.CustomerEmail),
		nullString(res.CustomerPhone), res.PartySize, res.ReservationTime.UTC(), string(res.Status), nullString(res.SpecialRequests))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	if err := r.insertTablesTx(ctx, tx, res.ID, res.TableIDs); err != nil {
		return err
	}
	return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM reservations WHERE id = ?`, res.ID).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

func (r *ReservationRepo) insertTablesTx(ctx context.Context, tx *sql.Tx, reservationID uint64, tableIDs []uint64) error {
	if len(tableIDs) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_tables (reservation_id, table_id) VALUES `
	args := make([]interface{}, 0, len(tableIDs)*2)
	for i, id := range tableIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, reservationID, id)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ConflictingTablesTx returns which of tableIDs are held by a confirmed
// reservation starting less than turnaround away from at.  exclude names
// a reservation to ignore (zero for none).  It must run after the tables
// were locked with TableRepo.LockTx.
func (r *ReservationRepo) ConflictingTablesTx(ctx context.Context, tx *sql.Tx, tableIDs []uint64, at time.Time, turnaround time.Duration, exclude uint64) ([]uint64, error) {
	if len(tableIDs) == 0 {
		return nil, nil
	}
	q := `SELECT DISTINCT rt.table_id FROM reservation_tables rt
		JOIN reservations r ON r.id = rt.reservation_id
		WHERE rt.table_id IN (` + placeholders(len(tableIDs)) + `)
		AND r.status = 'confirmed'
		AND r.reservation_time > ? AND r.reservation_time < ?
		AND r.id <> ?
		ORDER BY rt.table_id`
	args := idArgs(tableIDs)
	args = append(args, at.Add(-turnaround).UTC(), at.Add(turnaround).UTC(), exclude)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var busy []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		busy = append(busy, id)
	}
	return busy, rows.Err()
}

// AddItemsTx appends pre-ordered lines to a reservation.
func (r *ReservationRepo) AddItemsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, items []model.ReservationItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_items (reservation_id, menu_item_id, quantity) VALUES `
	args := make([]interface{}, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, reservationID, it.MenuItemID, it.Quantity)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Items lists the pre-ordered lines of a reservation in the order they
// were added.
func (r *ReservationRepo) Items(ctx context.Context, reservationID uint64) ([]model.ReservationItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ri.id, ri.reservation_id, ri.menu_item_id, m.name, m.price, ri.quantity
		FROM reservation_items ri
		JOIN menu_items m ON m.id = ri.menu_item_id
		WHERE ri.reservation_id = ?
		ORDER BY ri.id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationItem, 0)
	for rows.Next() {
		var it model.ReservationItem
		if err := rows.Scan(&it.ID, &it.ReservationID, &it.MenuItemID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetByReference loads one reservation by its public reference.
func (r *ReservationRepo) GetByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	return r.getByReference(ctx, r.db, reference, false)
}

// GetByReferenceTx loads and locks one reservation.
func (r *ReservationRepo) GetByReferenceTx(ctx context.Context, tx *sql.Tx, reference string) (*model.Reservation, error) {
	return r.getByReference(ctx, tx, reference, true)
}

func (r *ReservationRepo) getByReference(ctx context.Context, q querier, reference string, lock bool) (*model.Reservation, error) {
	if lock {
		var id uint64
		err := q.QueryRowContext(ctx, `SELECT id FROM reservations WHERE reference = ? FOR UPDATE`, reference).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
	}
	res, err := scanReservation(q.QueryRowContext(ctx, reservationSelect+` WHERE r.reference = ?`+reservationGroup, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateSlotTx moves a reservation to a new time and table set.
func (r *ReservationRepo) UpdateSlotTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time, tableIDs []uint64) error {
	if _, err := tx.ExecContext(ctx, `UPDATE reservations SET reservation_time = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_tables WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	return r.insertTablesTx(ctx, tx, id, tableIDs)
}

// UpdateStatusTx sets the status of a reservation.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// BookingsBetween flattens the confirmed reservations starting in
// [from, to) into one row per held table.
func (r *ReservationRepo) BookingsBetween(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	const q = `SELECT r.id, rt.table_id, t.label, t.section_id, s.name, r.customer_name, r.party_size, r.reservation_time
		FROM reservations r
		JOIN reservation_tables rt ON rt.reservation_id = r.id
		JOIN dining_tables t ON t.id = rt.table_id
		JOIN sections s ON s.id = t.section_id
		WHERE r.status = 'confirmed' AND r.reservation_time >= ? AND r.reservation_time < ?
		ORDER BY r.reservation_time, rt.table_id`
	rows, err := r.db.QueryContext(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ReservationID, &b.TableID, &b.TableLabel, &b.SectionID, &b.SectionName,
			&b.CustomerName, &b.PartySize, &b.ReservationTime); err != nil {
			return nil, err
		}
		b.ReservationTime = b.ReservationTime.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// List returns reservations matching f, earliest first.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	var (
		where []string
		args  []interface{}
	)
	if !f.From.IsZero() {
		where = append(where, "r.reservation_time >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "r.reservation_time < ?")
		args = append(args, f.To.UTC())
	}
	if f.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, string(f.Status))
	}
	q := reservationSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += reservationGroup + " ORDER BY r.reservation_time, r.id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Customers lists distinct guests, one row per email (or phone when no
// email was left), most recent visit first.
func (r *ReservationRepo) Customers(ctx context.Context) ([]model.Customer, error) {
	const q = `SELECT MAX(customer_name), MAX(COALESCE(customer_email, '')), MAX(COALESCE(customer_phone, '')),
		COUNT(*), MAX(reservation_time)
		FROM reservations
		GROUP BY LOWER(COALESCE(NULLIF(customer_email, ''), customer_phone))
		ORDER BY MAX(reservation_time) DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Customer, 0)
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.Name, &c.Email, &c.Phone, &c.Reservations, &c.LastVisit); err != nil {
			return nil, err
		}
		c.LastVisit = c.LastVisit.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// IDsBySectionsTx returns the reservations holding any table of the sections.
func (r *ReservationRepo) IDsBySectionsTx(ctx context.Context, tx *sql.Tx, sectionIDs []uint64) ([]uint64, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT rt.reservation_id FROM reservation_tables rt
		JOIN dining_tables t ON t.id = rt.table_id
		WHERE t.section_id IN (`+placeholders(len(sectionIDs))+`)
		ORDER BY rt.reservation_id`, idArgs(sectionIDs)...)
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

// CancelManyTx cancels the listed reservations that are not cancelled yet.
func (r *ReservationRepo) CancelManyTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = 'cancelled' WHERE status <> 'cancelled' AND id IN (`+placeholders(len(ids))+`)`,
		idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteManyTx removes reservations; their table rows cascade.
func (r *ReservationRepo) DeleteManyTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
