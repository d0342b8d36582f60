package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/model"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *ReservationRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewReservationRepo(db)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	mock, repo := newMock(t)
	created := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM reservations WHERE screening_id = ? AND seat_label = ? AND status = 'active')`)).
		WithArgs(uint64(7), "A1").
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservations`)).
		WithArgs(uint64(7), uint64(3), "A1", model.StatusActive, created).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	var got model.Reservation
	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ReservationTx) error {
		taken, err := tx.SeatTaken(ctx, 7, "A1")
		if err != nil {
			return err
		}
		require.False(t, taken)
		got, err = tx.Insert(ctx, model.Reservation{ScreeningID: 7, UserID: 3, SeatLabel: "A1", Status: model.StatusActive, CreatedAt: created})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	mock, repo := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ReservationTx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DuplicateEntryMapsToSentinel(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservations`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-A1' for key 'uq_reservations_active_seat'"})
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ReservationTx) error {
		_, err := tx.Insert(ctx, model.Reservation{ScreeningID: 7, UserID: 3, SeatLabel: "A1", Status: model.StatusActive})
		return err
	})
	assert.ErrorIs(t, err, ErrDuplicateActiveSeat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockForUser_NotFound(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations WHERE id = ? AND user_id = ? FOR UPDATE`)).
		WithArgs(uint64(9), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ReservationTx) error {
		_, err := tx.LockForUser(ctx, 9, 3)
		return err
	})
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCancelled_NoRowsIsNotActive(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE reservations SET status = 'cancelled', cancelled_at = ? WHERE id = ? AND status = 'active'`)).
		WithArgs(sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx ReservationTx) error {
		return tx.MarkCancelled(ctx, 5, time.Now())
	})
	assert.ErrorIs(t, err, ErrNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUser_ScansCancelledAt(t *testing.T) {
	mock, repo := newMock(t)
	created := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	cancelled := created.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations WHERE id = ? AND user_id = ?`)).
		WithArgs(uint64(5), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "screening_id", "user_id", "seat_label", "status", "created_at", "cancelled_at"}).
			AddRow(int64(5), int64(7), int64(3), "B2", model.StatusCancelled, created, cancelled))

	got, err := repo.GetForUser(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, "B2", got.SeatLabel)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, got.CancelledAt.Equal(cancelled))
	assert.False(t, got.Active())
}

func TestGetForUser_ForeignOwnerIsNotFound(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations WHERE id = ? AND user_id = ?`)).
		WithArgs(uint64(5), uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForUser(context.Background(), 5, 99)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestListByUser_PassesPaging(t *testing.T) {
	mock, repo := newMock(t)
	created := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "screening_id", "user_id", "seat_label", "status", "created_at", "cancelled_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`)).
		WithArgs(uint64(3), 2, 1).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), int64(7), int64(3), "A2", model.StatusActive, created, nil).
			AddRow(int64(3), int64(7), int64(3), "A3", model.StatusActive, created, nil))

	got, err := repo.ListByUser(context.Background(), 3, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].ID)
	assert.Nil(t, got[0].CancelledAt)
}

func TestActiveSeatLabels(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seat_label FROM reservations WHERE screening_id = ? AND status = 'active'`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("A1").AddRow("C4"))

	got, err := repo.ActiveSeatLabels(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "C4"}, got)
}
