package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// ReservationRepo provides transactional access to the reservations table.
// All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, screening_id, user_id, seat_label, status, created_at, cancelled_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		r         model.Reservation
		cancelled sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.ScreeningID, &r.UserID, &r.SeatLabel, &r.Status, &r.CreatedAt, &cancelled); err != nil {
		return model.Reservation{}, err
	}
	if cancelled.Valid {
		t := cancelled.Time
		r.CancelledAt = &t
	}
	return r, nil
}

// WithTx begins a transaction, hands it to fn and commits when fn returns
// nil.  Any error from fn, or a panic, rolls the transaction back.
func (r *ReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &mysqlReservationTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetForUser returns the reservation with the given id if it belongs to
// userID.  Missing and foreign rows both yield ErrReservationNotFound.
func (r *ReservationRepo) GetForUser(ctx context.Context, id, userID uint64) (model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND user_id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

// ListByUser returns a page of the user's reservations ordered by id.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, offset, limit int) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit, offset)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveSeatLabels lists the seats held by active reservations of a
// screening.  It is a plain read outside any transaction.
func (r *ReservationRepo) ActiveSeatLabels(ctx context.Context, screeningID uint64) ([]string, error) {
	const q = `SELECT seat_label FROM reservations WHERE screening_id = ? AND status = 'active'`
	rows, err := r.db.QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	labels := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// mysqlReservationTx implements ReservationTx on top of a *sql.Tx.
type mysqlReservationTx struct {
	tx *sql.Tx
}

func (t *mysqlReservationTx) SeatTaken(ctx context.Context, screeningID uint64, seatLabel string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE screening_id = ? AND seat_label = ? AND status = 'active')`
	var taken bool
	if err := t.tx.QueryRowContext(ctx, q, screeningID, seatLabel).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (t *mysqlReservationTx) CountActive(ctx context.Context, screeningID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE screening_id = ? AND status = 'active'`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, screeningID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *mysqlReservationTx) Insert(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	const q = `INSERT INTO reservations (screening_id, user_id, seat_label, status, created_at) VALUES (?, ?, ?, ?, ?)`
	r.CreatedAt = r.CreatedAt.UTC()
	res, err := t.tx.ExecContext(ctx, q, r.ScreeningID, r.UserID, r.SeatLabel, r.Status, r.CreatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return model.Reservation{}, ErrDuplicateActiveSeat
		}
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	r.ID = uint64(id)
	return r, nil
}

func (t *mysqlReservationTx) LockForUser(ctx context.Context, id, userID uint64) (model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND user_id = ? FOR UPDATE`
	res, err := scanReservation(t.tx.QueryRowContext(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

func (t *mysqlReservationTx) MarkCancelled(ctx context.Context, id uint64, at time.Time) error {
	const q = `UPDATE reservations SET status = 'cancelled', cancelled_at = ? WHERE id = ? AND status = 'active'`
	res, err := t.tx.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotActive
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
