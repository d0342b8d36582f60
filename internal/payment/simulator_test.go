package payment

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txnPattern = regexp.MustCompile(`^TXN-[0-9A-F]{12}$`)

func TestAuthorize_Success(t *testing.T) {
	var sim Simulator

	for _, card := range []string{"4111 1111 1111 1111", "4111-1111-1111-1111", "4111111111111111", " 4111\t1111 1111-1111 "} {
		rec, err := sim.Authorize(card, 1250)
		require.NoError(t, err, card)
		assert.Equal(t, StatusSuccess, rec.Status)
		assert.Equal(t, int64(1250), rec.AmountCents)
		assert.Equal(t, successMessage, rec.Message)
		assert.Regexp(t, txnPattern, rec.TransactionID)
	}
}

func TestAuthorize_Failures(t *testing.T) {
	var sim Simulator

	tests := []struct {
		name string
		card string
		want error
	}{
		{"declined non visa", "5111111111111111", ErrPaymentDeclined},
		{"twelve digits", "411111111111", ErrInvalidCardFormat},
		{"seventeen digits", "41111111111111111", ErrInvalidCardFormat},
		{"letters", "4111a11111111111", ErrInvalidCardFormat},
		{"empty", "", ErrInvalidCardFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sim.Authorize(tc.card, 1000)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthorize_FormatCheckedBeforeIssuer(t *testing.T) {
	// a short non-Visa number is a format problem, not a decline
	_, err := Simulator{}.Authorize("5111", 1000)
	assert.ErrorIs(t, err, ErrInvalidCardFormat)
}

func TestAuthorize_UniqueTransactionIDs(t *testing.T) {
	var sim Simulator
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		rec, err := sim.Authorize("4111111111111111", 1)
		require.NoError(t, err)
		_, dup := seen[rec.TransactionID]
		require.False(t, dup, "duplicate transaction id %s", rec.TransactionID)
		seen[rec.TransactionID] = struct{}{}
	}
}

func TestAuthorize_CustomIDGenerator(t *testing.T) {
	sim := Simulator{NewID: func() string { return "TXN-000000000001" }}
	rec, err := sim.Authorize("4000000000000000", 999)
	require.NoError(t, err)
	assert.Equal(t, "TXN-000000000001", rec.TransactionID)
}
