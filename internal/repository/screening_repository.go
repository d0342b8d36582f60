package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// ScreeningRepo manages persistence for screenings.  Show times are stored
// as UTC DATETIME values; the DSN sets loc=UTC so scanned times are UTC too.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo { return &ScreeningRepo{db: db} }

const screeningColumns = `id, movie_id, show_time, total_seats, price_cents, created_at`

func scanScreening(row interface{ Scan(...any) error }) (model.Screening, error) {
	var s model.Screening
	err := row.Scan(&s.ID, &s.MovieID, &s.ShowTime, &s.TotalSeats, &s.PriceCents, &s.CreatedAt)
	return s, err
}

// GetByID retrieves a screening by its id.  It returns ErrScreeningNotFound
// if there is no matching row.
func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	s, err := scanScreening(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Screening{}, ErrScreeningNotFound
		}
		return model.Screening{}, err
	}
	return s, nil
}

// List returns screenings ordered by show time.
func (r *ScreeningRepo) List(ctx context.Context, offset, limit int) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings ORDER BY show_time, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screening, 0)
	for rows.Next() {
		s, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountAfter counts screenings that start after t.
func (r *ScreeningRepo) CountAfter(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM screenings WHERE show_time > ?`, t.UTC()).Scan(&n)
	return n, err
}

// InsertIfAbsent inserts the screening unless one already exists for the
// same movie and show time.  The unique key on (movie_id, show_time) makes
// the check atomic: on a duplicate the statement touches no row and
// LAST_INSERT_ID carries the existing id.
func (r *ScreeningRepo) InsertIfAbsent(ctx context.Context, s model.Screening) (model.Screening, bool, error) {
	const q = `INSERT INTO screenings (movie_id, show_time, total_seats, price_cents, created_at)
			   VALUES (?, ?, ?, ?, ?)
			   ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	s.ShowTime = s.ShowTime.UTC()
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.ShowTime, s.TotalSeats, s.PriceCents, s.CreatedAt)
	if err != nil {
		return model.Screening{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Screening{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Screening{}, false, err
	}
	s.ID = uint64(id)
	return s, n == 1, nil
}
