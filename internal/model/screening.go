package model

import "time"

// Screening is a scheduled showing of a movie.  It is immutable from the
// point of view of the reservation core: the ledger reads the show time,
// capacity and price and never writes the row.
//
// Fields:
//  ID          – primary key identifier.
//  MovieID     – movie being shown.
//  ShowTime    – when the screening starts (UTC).
//  TotalSeats  – seat capacity, always > 0.
//  PriceCents  – ticket price in cents.
//  CreatedAt   – creation timestamp.
type Screening struct {
	ID         uint64    `json:"id"`          // screenings.id
	MovieID    uint64    `json:"movie_id"`    // screenings.movie_id
	ShowTime   time.Time `json:"show_time"`   // screenings.show_time
	TotalSeats int       `json:"total_seats"` // screenings.total_seats
	PriceCents int64     `json:"price_cents"` // screenings.price_cents
	CreatedAt  time.Time `json:"created_at"`  // screenings.created_at
}
