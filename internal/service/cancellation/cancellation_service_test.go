package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/kafka"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository"
	"github.com/Domenick1991/railbooking/internal/repository/memory"
	"github.com/Domenick1991/railbooking/internal/repository/mocks"
	"github.com/Domenick1991/railbooking/internal/service/events"
)

type MockSeatMapCache struct {
	mock.Mock
}

func (m *MockSeatMapCache) InvalidateSeatMap(ctx context.Context, scheduleID int64) error {
	args := m.Called(ctx, scheduleID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e kafka.ReservationEvent) bool { return e.Type == eventType })
}

func TestCancellationService_ReleaseSeat_NotLast(t *testing.T) {
	ledger := &mocks.MockLedgerRepository{}
	seatMaps := &MockSeatMapCache{}
	producer := &MockProducer{}
	s := NewCancellationService(ledger,
		WithSeatMapCache(seatMaps),
		WithEvents(events.NewPublisher(producer, "booking-events", "", logger.Discard())),
	)

	result := &domain.ReleaseResult{SeatID: 11, SeatNumber: "A1", BookingID: 40}
	ledger.On("ReleaseSeat", mock.Anything, int64(3), "A1").Return(result, nil).Once()
	seatMaps.On("InvalidateSeatMap", mock.Anything, int64(3)).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking-events", "40", eventOfType(kafka.EventSeatReleased)).Return(nil).Once()

	got, err := s.ReleaseSeat(context.Background(), 3, " a1 ")

	require.NoError(t, err)
	assert.False(t, got.BookingRemoved)
	ledger.AssertExpectations(t)
	seatMaps.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestCancellationService_ReleaseSeat_LastSeat(t *testing.T) {
	ledger := &mocks.MockLedgerRepository{}
	producer := &MockProducer{}
	s := NewCancellationService(ledger, WithEvents(events.NewPublisher(producer, "booking-events", "", logger.Discard())))

	result := &domain.ReleaseResult{SeatID: 12, SeatNumber: "A2", BookingID: 40, BookingRemoved: true}
	ledger.On("ReleaseSeat", mock.Anything, int64(3), "A2").Return(result, nil).Once()
	producer.On("Publish", mock.Anything, "booking-events", "40", eventOfType(kafka.EventSeatReleased)).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking-events", "40", eventOfType(kafka.EventBookingRemoved)).Return(nil).Once()

	got, err := s.ReleaseSeat(context.Background(), 3, "A2")

	require.NoError(t, err)
	assert.True(t, got.BookingRemoved)
	ledger.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestCancellationService_ReleaseSeat_DetailMissingWarns(t *testing.T) {
	ledger := &mocks.MockLedgerRepository{}
	log, hook := test.NewNullLogger()
	s := NewCancellationService(ledger, WithLogger(log))

	ledger.On("ReleaseSeat", mock.Anything, int64(3), "S9").
		Return(&domain.ReleaseResult{SeatID: 29, SeatNumber: "S9", DetailMissing: true}, nil).Once()

	_, err := s.ReleaseSeat(context.Background(), 3, "S9")

	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	ledger.AssertExpectations(t)
}

func TestCancellationService_ReleaseSeat_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"seat not found", domain.ErrSeatNotFound},
		{"seat not booked", domain.ErrSeatNotBooked},
		{"storage", errors.New("tx aborted")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mocks.MockLedgerRepository{}
			producer := &MockProducer{}
			s := NewCancellationService(ledger, WithEvents(events.NewPublisher(producer, "booking-events", "", logger.Discard())))
			ledger.On("ReleaseSeat", mock.Anything, int64(3), "A1").Return(nil, tt.err).Once()

			_, err := s.ReleaseSeat(context.Background(), 3, "A1")

			assert.ErrorIs(t, err, tt.err)
			ledger.AssertExpectations(t)
			producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCancellationService_ReleaseSeat_Validation(t *testing.T) {
	s := NewCancellationService(&mocks.MockLedgerRepository{})

	_, err := s.ReleaseSeat(context.Background(), 0, "A1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = s.ReleaseSeat(context.Background(), 3, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCancellationService_MemoryScenarios(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.April, 10, 9, 30, 0, 0, time.UTC)
	store := memory.NewStore()
	trainID := store.AddTrain("12951", "Rajdhani", "Mumbai - Delhi")
	travelerID := store.AddTraveler(domain.Traveler{FirstName: "Asha"})
	sc := &domain.Schedule{TrainID: trainID, TravelDate: now}
	require.NoError(t, store.Create(ctx, sc, domain.SeatPlan(15, 15)))
	seats, err := store.ListSeats(ctx, sc.ID)
	require.NoError(t, err)

	b, err := store.Reserve(ctx, repository.ReserveParams{ScheduleID: sc.ID, TravelerID: travelerID, SeatIDs: []int64{seats[0].ID, seats[1].ID}, BookedAt: now})
	require.NoError(t, err)
	_, err = store.Settle(ctx, repository.SettleParams{BookingID: b.ID, Amount: 3000, Method: "credit", PaidAt: now}, nil)
	require.NoError(t, err)
	ticket, _, err := store.IssueTicket(ctx, b.ID, "TKT-1", now)
	require.NoError(t, err)

	s := NewCancellationService(store)

	res, err := s.ReleaseSeat(ctx, sc.ID, "A1")
	require.NoError(t, err)
	assert.False(t, res.BookingRemoved)
	kept, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, kept.SeatNumbers())
	require.NotNil(t, kept.Payment)
	_, err = store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)

	res, err = s.ReleaseSeat(ctx, sc.ID, "A2")
	require.NoError(t, err)
	assert.True(t, res.BookingRemoved)
	_, err = store.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	_, err = store.GetTicket(ctx, ticket.ID)
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)

	_, err = s.ReleaseSeat(ctx, sc.ID, "S15")
	assert.ErrorIs(t, err, domain.ErrSeatNotBooked)
}
