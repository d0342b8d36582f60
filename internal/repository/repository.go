package repository

import (
	"context"
	"time"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// MovieRepository reads and seeds the movie catalogue.
type MovieRepository interface {
	List(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, m model.Movie) (model.Movie, error)
}

// ScreeningRepository is the screening read-model consumed by the ledger,
// the availability calculator and the scheduler.
type ScreeningRepository interface {
	GetByID(ctx context.Context, id uint64) (model.Screening, error)
	List(ctx context.Context, offset, limit int) ([]model.Screening, error)
	// CountAfter counts screenings whose show time is strictly after t.
	CountAfter(ctx context.Context, t time.Time) (int, error)
	// InsertIfAbsent inserts s unless a screening for the same movie and
	// exact show time exists.  It reports whether a row was created.
	InsertIfAbsent(ctx context.Context, s model.Screening) (model.Screening, bool, error)
}

// ReservationRepository persists reservations.  Every write goes through
// WithTx so that the reads guarding it run in the same transaction.
type ReservationRepository interface {
	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error
	GetForUser(ctx context.Context, id, userID uint64) (model.Reservation, error)
	// ListByUser returns the user's reservations in insertion order.
	ListByUser(ctx context.Context, userID uint64, offset, limit int) ([]model.Reservation, error)
	// ActiveSeatLabels returns the seats held by active reservations.
	ActiveSeatLabels(ctx context.Context, screeningID uint64) ([]string, error)
}

// ReservationTx is the set of operations available inside WithTx.
type ReservationTx interface {
	SeatTaken(ctx context.Context, screeningID uint64, seatLabel string) (bool, error)
	CountActive(ctx context.Context, screeningID uint64) (int, error)
	// Insert stores r as a new row and returns it with its id assigned.  A
	// uniqueness violation is reported as ErrDuplicateActiveSeat.
	Insert(ctx context.Context, r model.Reservation) (model.Reservation, error)
	// LockForUser loads a reservation owned by userID and locks it for the
	// rest of the transaction.
	LockForUser(ctx context.Context, id, userID uint64) (model.Reservation, error)
	// MarkCancelled flips an active reservation to cancelled.
	MarkCancelled(ctx context.Context, id uint64, at time.Time) error
}
