// Package queue defines the reservation events exchanged over RabbitMQ, the
// publisher used by the ledger and the audit consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the ledger.
const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published after a reservation transaction commits.
// It carries enough information for downstream consumers to log or notify
// without querying the primary database.
type ReservationEvent struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	ScreeningID   uint64 `json:"screening_id"`
	UserID        uint64 `json:"user_id"`
	SeatLabel     string `json:"seat_number"`
	TransactionID string `json:"transaction_id,omitempty"`
	AmountCents   int64  `json:"amount_cents,omitempty"`
	OccurredAt    string `json:"occurred_at"` // RFC 3339, UTC
}

// NewReservationEvent stamps an event with a fresh id and the given time.
func NewReservationEvent(eventType string, at time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
}
