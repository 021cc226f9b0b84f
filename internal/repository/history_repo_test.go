package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyColumns = []string{
	"booking_id", "schedule_id", "travel_date", "departure_time", "arrival_time",
	"name", "train_number", "route", "passenger_name", "seat_number", "class_type",
	"ticket_id", "status", "amount", "method", "payment_date", "history_id",
}

func TestHistory_ListByTravelerDerivesStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	paidAt := day.Add(-48 * time.Hour)
	mock.ExpectQuery(q("WHERE b.user_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(historyColumns).
			AddRow(int64(9), int64(4), day, "16:35:00", "08:35:00", "Rajdhani", "12951", "Mumbai - Delhi", "Asha Verma", "A1", "AC",
				int64(3), "Paid", int64(125000), "upi", paidAt, int64(1)).
			AddRow(int64(10), int64(4), day, "16:35:00", "08:35:00", "Rajdhani", "12951", "Mumbai - Delhi", "Asha Verma", "S1", "SL",
				nil, nil, nil, nil, nil, nil))

	entries, err := NewHistoryRepository(db).ListByTraveler(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.HistoryStatusCompleted, entries[0].Status)
	require.NotNil(t, entries[0].TicketID)
	assert.Equal(t, int64(3), *entries[0].TicketID)
	require.NotNil(t, entries[0].HistoryID)

	assert.Equal(t, domain.HistoryStatusPending, entries[1].Status)
	assert.Nil(t, entries[1].TicketID)
	assert.Nil(t, entries[1].Amount)
	assert.Nil(t, entries[1].HistoryID)
	assert.Equal(t, domain.SeatClassSL, entries[1].SeatClass)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(q("WHERE b.booking_id = $2 AND b.user_id = $1")).
		WithArgs(int64(2), int64(9), day).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q("INSERT INTO travel_history")).
		WithArgs(int64(2), int64(10), day).
		WillReturnError(errors.New("connection reset"))

	repo := NewHistoryRepository(db)
	require.NoError(t, repo.Upsert(context.Background(), 2, 9, day))
	assert.Error(t, repo.Upsert(context.Background(), 2, 10, day))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_Upsert_ForeignBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(q("INSERT INTO travel_history")).
		WithArgs(int64(3), int64(9), day).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewHistoryRepository(db)
	assert.ErrorIs(t, repo.Upsert(context.Background(), 3, 9, day), domain.ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
