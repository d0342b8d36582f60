package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailability_SubtractsActiveSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sc := f.screening(t, testNow.Add(time.Hour), 25)
	avail := NewAvailability(f.store.Screenings(), f.store.Reservations())

	before, err := avail.Get(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, before.AvailableCount)
	assert.Equal(t, "A1", before.AvailableSeats[0])
	assert.Equal(t, "C5", before.AvailableSeats[24])

	res, _, err := f.ledger.Create(ctx, CreateInput{ScreeningID: sc.ID, UserID: 7, SeatLabel: "A1", CardNumber: goodCard})
	require.NoError(t, err)

	after, err := avail.Get(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, 24, after.AvailableCount)
	assert.Equal(t, []string{"A1"}, after.TakenSeats)
	assert.NotContains(t, after.AvailableSeats, "A1")
	assert.Equal(t, "A2", after.AvailableSeats[0])

	_, err = f.ledger.Cancel(ctx, res.ID, 7)
	require.NoError(t, err)

	restored, err := avail.Get(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, before.AvailableSeats, restored.AvailableSeats)
	assert.Zero(t, restored.TakenCount)
}

func TestAvailability_MissingScreening(t *testing.T) {
	f := newFixture(t)
	_, err := NewAvailability(f.store.Screenings(), f.store.Reservations()).Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrScreeningNotFound)
}
