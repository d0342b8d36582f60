package model

import "time"

// Reservation statuses.  A reservation only ever moves from active to
// cancelled.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Reservation records one seat held by one user for one screening.
//
// Fields:
//  ID          – primary key identifier, assigned on insert.
//  ScreeningID – screening the seat belongs to.
//  UserID      – user who booked the seat.
//  SeatLabel   – seat label such as "A1" or "C10".
//  Status      – active or cancelled.
//  CreatedAt   – booking timestamp.
//  CancelledAt – cancellation timestamp, nil while active.
type Reservation struct {
	ID          uint64     `json:"id"`           // reservations.id
	ScreeningID uint64     `json:"screening_id"` // reservations.screening_id
	UserID      uint64     `json:"user_id"`      // reservations.user_id
	SeatLabel   string     `json:"seat_number"`  // reservations.seat_label
	Status      string     `json:"status"`       // reservations.status
	CreatedAt   time.Time  `json:"created_at"`   // reservations.created_at
	CancelledAt *time.Time `json:"cancelled_at"` // reservations.cancelled_at (nullable)
}

// Active reports whether the reservation still holds its seat.
func (r Reservation) Active() bool { return r.Status == StatusActive }
