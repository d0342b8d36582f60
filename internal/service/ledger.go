package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/payment"
	"github.com/iliyamo/movie-reservation/internal/queue"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/seating"
)

// publishTimeout bounds the post-commit event publish.
const publishTimeout = 5 * time.Second

// EventPublisher receives reservation events once their transaction has
// committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Ledger creates, cancels and reads reservations.  At most one active
// reservation exists per (screening, seat); the storage layer enforces
// this so concurrent bookings cannot both succeed.
type Ledger struct {
	screenings   repository.ScreeningRepository
	reservations repository.ReservationRepository
	payments     *payment.Simulator
	events       EventPublisher
	log          zerolog.Logger
	now          func() time.Time
}

type LedgerOption func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithPublisher sets where reservation events go.  Without it events are
// dropped.
func WithPublisher(p EventPublisher) LedgerOption {
	return func(l *Ledger) {
		if p != nil {
			l.events = p
		}
	}
}

func WithLogger(log zerolog.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

func WithPayments(p *payment.Simulator) LedgerOption {
	return func(l *Ledger) {
		if p != nil {
			l.payments = p
		}
	}
}

func NewLedger(screenings repository.ScreeningRepository, reservations repository.ReservationRepository, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		screenings:   screenings,
		reservations: reservations,
		payments:     &payment.Simulator{},
		events:       queue.Discard{},
		log:          zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type CreateInput struct {
	ScreeningID uint64
	UserID      uint64
	SeatLabel   string
	CardNumber  string
}

// Create books one seat.  Checks run in a fixed order: the screening
// exists, it has not started, the seat is free, the screening has room,
// the label is valid for the screening, and the card is authorized.  The
// seat and capacity reads and the insert share one transaction.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (model.Reservation, payment.Record, error) {
	var (
		created model.Reservation
		record  payment.Record
	)
	err := l.reservations.WithTx(ctx, func(ctx context.Context, tx repository.ReservationTx) error {
		screening, err := l.screenings.GetByID(ctx, in.ScreeningID)
		if err != nil {
			if errors.Is(err, repository.ErrScreeningNotFound) {
				return ErrScreeningNotFound
			}
			return err
		}
		now := l.now().UTC()
		if screening.ShowTime.Before(now) {
			return ErrScreeningInPast
		}

		taken, err := tx.SeatTaken(ctx, screening.ID, in.SeatLabel)
		if err != nil {
			return err
		}
		if taken {
			return ErrSeatAlreadyReserved
		}
		active, err := tx.CountActive(ctx, screening.ID)
		if err != nil {
			return err
		}
		if active >= screening.TotalSeats {
			return ErrScreeningFull
		}
		if !seating.InLayout(in.SeatLabel, screening.TotalSeats) {
			return ErrInvalidSeatFormat
		}

		record, err = l.payments.Authorize(in.CardNumber, screening.PriceCents)
		if err != nil {
			return err
		}

		created, err = tx.Insert(ctx, model.Reservation{
			ScreeningID: screening.ID,
			UserID:      in.UserID,
			SeatLabel:   in.SeatLabel,
			Status:      model.StatusActive,
			CreatedAt:   now,
		})
		if errors.Is(err, repository.ErrDuplicateActiveSeat) {
			return ErrSeatAlreadyReserved
		}
		return err
	})
	if err != nil {
		return model.Reservation{}, payment.Record{}, err
	}

	l.log.Info().
		Uint64("reservation_id", created.ID).
		Uint64("screening_id", created.ScreeningID).
		Uint64("user_id", created.UserID).
		Str("seat", created.SeatLabel).
		Str("transaction_id", record.TransactionID).
		Msg("reservation created")

	ev := queue.NewReservationEvent(queue.TypeReservationCreated, created.CreatedAt)
	ev.TransactionID = record.TransactionID
	ev.AmountCents = record.AmountCents
	l.publish(ctx, ev, created)
	return created, record, nil
}

// Cancel moves an active reservation owned by userID to cancelled and
// frees its seat.
func (l *Ledger) Cancel(ctx context.Context, reservationID, userID uint64) (model.Reservation, error) {
	var updated model.Reservation
	err := l.reservations.WithTx(ctx, func(ctx context.Context, tx repository.ReservationTx) error {
		res, err := tx.LockForUser(ctx, reservationID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if !res.Active() {
			return ErrAlreadyCancelled
		}
		at := l.now().UTC()
		if err := tx.MarkCancelled(ctx, res.ID, at); err != nil {
			if errors.Is(err, repository.ErrNotActive) {
				return ErrAlreadyCancelled
			}
			return err
		}
		res.Status = model.StatusCancelled
		res.CancelledAt = &at
		updated = res
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	l.log.Info().
		Uint64("reservation_id", updated.ID).
		Uint64("user_id", updated.UserID).
		Str("seat", updated.SeatLabel).
		Msg("reservation cancelled")

	l.publish(ctx, queue.NewReservationEvent(queue.TypeReservationCancelled, *updated.CancelledAt), updated)
	return updated, nil
}

// Get returns a reservation owned by userID.  A reservation owned by
// someone else is reported as not found.
func (l *Ledger) Get(ctx context.Context, reservationID, userID uint64) (model.Reservation, error) {
	res, err := l.reservations.GetForUser(ctx, reservationID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

// List returns a page of the user's reservations in booking order.
func (l *Ledger) List(ctx context.Context, userID uint64, offset, limit int) ([]model.Reservation, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	return l.reservations.ListByUser(ctx, userID, offset, limit)
}

// publish hands the event to the publisher on a context detached from the
// request; a failure is logged and never undoes the committed write.
func (l *Ledger) publish(ctx context.Context, ev queue.ReservationEvent, r model.Reservation) {
	ev.ReservationID = r.ID
	ev.ScreeningID = r.ScreeningID
	ev.UserID = r.UserID
	ev.SeatLabel = r.SeatLabel

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := l.events.Publish(ctx, ev); err != nil {
		l.log.Warn().Err(err).Str("event", ev.Type).Uint64("reservation_id", r.ID).Msg("publish reservation event failed")
	}
}
