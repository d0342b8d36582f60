// Package payment contains the simulated card processor used when booking a
// seat.  It performs no network I/O: a card either passes the format and
// issuer checks or it does not.
package payment

import (
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Payment outcomes.
var (
	// ErrInvalidCardFormat is returned when the cleaned card number is not
	// exactly sixteen digits.
	ErrInvalidCardFormat = errors.New("invalid card number format: must be 16 digits")
	// ErrPaymentDeclined is returned for cards that are not issued by the
	// simulated Visa network (first digit 4).
	ErrPaymentDeclined = errors.New("payment declined: only Visa cards (starting with 4) are accepted")
)

const (
	StatusSuccess  = "success"
	successMessage = "Payment processed successfully (simulated)"
)

// Record is the outcome of a successful authorization.  It is returned to
// the caller alongside the reservation and never persisted.
type Record struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	AmountCents   int64  `json:"amount_cents"`
	Message       string `json:"message"`
}

// Simulator authorizes card payments without contacting any processor.
// The zero value is ready to use.
type Simulator struct {
	// NewID overrides transaction id generation; tests use it for stable
	// output.
	NewID func() string
}

// Authorize validates cardNumber and, when it passes, returns a success
// record for amountCents.
func (s Simulator) Authorize(cardNumber string, amountCents int64) (Record, error) {
	clean := cleanCardNumber(cardNumber)
	if len(clean) != 16 || !allDigits(clean) {
		return Record{}, ErrInvalidCardFormat
	}
	if clean[0] != '4' {
		return Record{}, ErrPaymentDeclined
	}
	newID := s.NewID
	if newID == nil {
		newID = transactionID
	}
	return Record{
		TransactionID: newID(),
		Status:        StatusSuccess,
		AmountCents:   amountCents,
		Message:       successMessage,
	}, nil
}

// cleanCardNumber drops whitespace and hyphens.
func cleanCardNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// transactionID returns "TXN-" followed by 12 uppercase hex characters.
func transactionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TXN-" + strings.ToUpper(hex[:12])
}
