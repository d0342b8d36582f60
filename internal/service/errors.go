// Package service holds the reservation core: the ledger that books and
// cancels seats and the availability calculator.
package service

import (
	"errors"

	"github.com/iliyamo/movie-reservation/internal/payment"
)

var (
	ErrScreeningNotFound   = errors.New("screening not found")
	ErrScreeningInPast     = errors.New("cannot reserve seats for past screenings")
	ErrSeatAlreadyReserved = errors.New("seat already reserved")
	ErrScreeningFull       = errors.New("screening is fully booked")
	ErrInvalidSeatFormat   = errors.New("invalid seat number")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrAlreadyCancelled    = errors.New("reservation already cancelled")

	ErrInvalidCardFormat = payment.ErrInvalidCardFormat
	ErrPaymentDeclined   = payment.ErrPaymentDeclined
)

// Kind classifies a failure so transports can pick a response code
// without knowing every sentinel.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindBusinessRule
	KindDeclined
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindBusinessRule:
		return "business_rule"
	case KindDeclined:
		return "declined"
	}
	return "internal"
}

// KindOf reports the kind of err.  Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrScreeningNotFound), errors.Is(err, ErrReservationNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidSeatFormat), errors.Is(err, ErrInvalidCardFormat):
		return KindValidation
	case errors.Is(err, ErrSeatAlreadyReserved), errors.Is(err, ErrScreeningFull):
		return KindConflict
	case errors.Is(err, ErrScreeningInPast), errors.Is(err, ErrAlreadyCancelled):
		return KindBusinessRule
	case errors.Is(err, ErrPaymentDeclined):
		return KindDeclined
	}
	return KindInternal
}
