package service

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/seating"
)

// SeatAvailability is a point-in-time view of a screening's seats.
// AvailableSeats keeps layout order.
type SeatAvailability struct {
	ScreeningID    uint64   `json:"screening_id"`
	TotalSeats     int      `json:"total_seats"`
	AvailableSeats []string `json:"available_seats"`
	TakenSeats     []string `json:"taken_seats"`
	AvailableCount int      `json:"available_count"`
	TakenCount     int      `json:"taken_count"`
}

// Availability computes seat availability without taking locks; a booking
// made from its answer can still fail with ErrSeatAlreadyReserved.
type Availability struct {
	screenings   repository.ScreeningRepository
	reservations repository.ReservationRepository
}

func NewAvailability(screenings repository.ScreeningRepository, reservations repository.ReservationRepository) *Availability {
	return &Availability{screenings: screenings, reservations: reservations}
}

func (a *Availability) Get(ctx context.Context, screeningID uint64) (SeatAvailability, error) {
	screening, err := a.screenings.GetByID(ctx, screeningID)
	if err != nil {
		if errors.Is(err, repository.ErrScreeningNotFound) {
			return SeatAvailability{}, ErrScreeningNotFound
		}
		return SeatAvailability{}, err
	}
	labels, err := a.reservations.ActiveSeatLabels(ctx, screening.ID)
	if err != nil {
		return SeatAvailability{}, err
	}
	taken := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		taken[l] = struct{}{}
	}

	layout := seating.Layout(screening.TotalSeats)
	out := SeatAvailability{
		ScreeningID:    screening.ID,
		TotalSeats:     screening.TotalSeats,
		AvailableSeats: make([]string, 0, len(layout)),
		TakenSeats:     make([]string, 0, len(taken)),
	}
	for _, seat := range layout {
		if _, ok := taken[seat]; ok {
			out.TakenSeats = append(out.TakenSeats, seat)
			continue
		}
		out.AvailableSeats = append(out.AvailableSeats, seat)
	}
	out.AvailableCount = len(out.AvailableSeats)
	out.TakenCount = len(out.TakenSeats)
	return out, nil
}
