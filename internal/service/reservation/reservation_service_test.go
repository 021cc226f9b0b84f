package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/gateway"
	"github.com/Domenick1991/railbooking/internal/kafka"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository"
	"github.com/Domenick1991/railbooking/internal/repository/memory"
	"github.com/Domenick1991/railbooking/internal/repository/mocks"
	"github.com/Domenick1991/railbooking/internal/service/events"
)

var fixedNow = time.Date(2026, time.April, 10, 9, 30, 0, 0, time.UTC)

type MockSeatHolds struct {
	mock.Mock
}

func (m *MockSeatHolds) HoldSeats(ctx context.Context, scheduleID int64, seatIDs []int64, owner string, ttl time.Duration) ([]int64, error) {
	args := m.Called(ctx, scheduleID, seatIDs, owner, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockSeatHolds) ReleaseSeats(ctx context.Context, scheduleID int64, seatIDs []int64, owner string) error {
	args := m.Called(ctx, scheduleID, seatIDs, owner)
	return args.Error(0)
}

type MockSeatMapCache struct {
	mock.Mock
}

func (m *MockSeatMapCache) InvalidateSeatMap(ctx context.Context, scheduleID int64) error {
	args := m.Called(ctx, scheduleID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type deps struct {
	ledger    *mocks.MockLedgerRepository
	travelers *mocks.MockTravelerRepository
	gateway   *MockGateway
	holds     *MockSeatHolds
	seatMaps  *MockSeatMapCache
	producer  *MockProducer
}

func newService() (*ReservationService, *deps) {
	d := &deps{
		ledger:    &mocks.MockLedgerRepository{},
		travelers: &mocks.MockTravelerRepository{},
		gateway:   &MockGateway{},
		holds:     &MockSeatHolds{},
		seatMaps:  &MockSeatMapCache{},
		producer:  &MockProducer{},
	}
	s := NewReservationService(d.ledger, d.travelers, d.gateway,
		WithSeatHolds(d.holds, time.Minute),
		WithSeatMapCache(d.seatMaps),
		WithEvents(events.NewPublisher(d.producer, "booking-events", "", logger.Discard())),
		WithClock(func() time.Time { return fixedNow }),
	)
	return s, d
}

func (d *deps) assertExpectations(t *testing.T) {
	d.ledger.AssertExpectations(t)
	d.travelers.AssertExpectations(t)
	d.gateway.AssertExpectations(t)
	d.holds.AssertExpectations(t)
	d.seatMaps.AssertExpectations(t)
	d.producer.AssertExpectations(t)
}

func traveler() *domain.Traveler {
	dob := time.Date(1990, time.June, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Traveler{ID: 7, FirstName: "Asha", LastName: "Verma", Email: "asha@example.com", DateOfBirth: &dob}
}

func booking(status domain.BookingStatus, seats ...string) *domain.Booking {
	b := &domain.Booking{ID: 100, TravelerID: 7, ScheduleID: 3, Status: status, BookedAt: fixedNow}
	for i, n := range seats {
		b.Details = append(b.Details, domain.BookingDetail{ID: int64(i + 1), BookingID: 100, SeatID: int64(11 + i), SeatNumber: n, SeatClass: domain.SeatClassAC})
	}
	return b
}

func TestReservationService_Reserve_Success(t *testing.T) {
	s, d := newService()
	input := ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{12, 11, 12}}
	want := booking(domain.BookingStatusOpen, "A1", "A2")

	d.travelers.On("GetByID", mock.Anything, int64(7)).Return(traveler(), nil).Once()
	d.holds.On("HoldSeats", mock.Anything, int64(3), []int64{11, 12}, mock.AnythingOfType("string"), time.Minute).Return(nil, nil).Once()
	d.holds.On("ReleaseSeats", mock.Anything, int64(3), []int64{11, 12}, mock.AnythingOfType("string")).Return(nil).Once()
	d.ledger.On("Reserve", mock.Anything, mock.MatchedBy(func(p repository.ReserveParams) bool {
		return p.ScheduleID == 3 &&
			p.TravelerID == 7 &&
			assert.ObjectsAreEqual([]int64{11, 12}, p.SeatIDs) &&
			p.Passenger == domain.Passenger{Name: "Asha Verma", Age: 35, Gender: domain.DefaultPassengerGender} &&
			p.BookedAt.Equal(fixedNow)
	})).Return(want, nil).Once()
	d.seatMaps.On("InvalidateSeatMap", mock.Anything, int64(3)).Return(nil).Once()
	d.producer.On("Publish", mock.Anything, "booking-events", "100", mock.MatchedBy(func(e kafka.ReservationEvent) bool {
		return e.Type == kafka.EventBookingReserved && e.Email == "asha@example.com" && len(e.SeatNumbers) == 2
	})).Return(nil).Once()

	got, err := s.Reserve(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	d.assertExpectations(t)
}

func TestReservationService_Reserve_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input ReserveInput
		field string
	}{
		{"no seats", ReserveInput{ScheduleID: 1, TravelerID: 1}, "seat_ids"},
		{"bad seat id", ReserveInput{ScheduleID: 1, TravelerID: 1, SeatIDs: []int64{0}}, "seat_ids"},
		{"no schedule", ReserveInput{TravelerID: 1, SeatIDs: []int64{1}}, "schedule_id"},
		{"no traveler", ReserveInput{ScheduleID: 1, SeatIDs: []int64{1}}, "traveler_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newService()

			_, err := s.Reserve(context.Background(), tt.input)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			d.assertExpectations(t)
		})
	}
}

func TestReservationService_Reserve_TravelerNotFound(t *testing.T) {
	s, d := newService()
	d.travelers.On("GetByID", mock.Anything, int64(7)).Return(nil, domain.ErrTravelerNotFound).Once()

	_, err := s.Reserve(context.Background(), ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11}})

	assert.ErrorIs(t, err, domain.ErrTravelerNotFound)
	d.assertExpectations(t)
	d.ledger.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
}

func TestReservationService_Reserve_HeldElsewhere(t *testing.T) {
	s, d := newService()
	d.travelers.On("GetByID", mock.Anything, int64(7)).Return(traveler(), nil).Once()
	d.holds.On("HoldSeats", mock.Anything, int64(3), []int64{11, 12}, mock.Anything, time.Minute).Return([]int64{12}, nil).Once()

	_, err := s.Reserve(context.Background(), ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11, 12}})

	var conflict *domain.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int64{12}, conflict.SeatIDs)
	assert.ErrorIs(t, err, domain.ErrSeatConflict)
	d.assertExpectations(t)
}

func TestReservationService_Reserve_HoldStoreDown(t *testing.T) {
	s, d := newService()
	want := booking(domain.BookingStatusOpen, "A1")

	d.travelers.On("GetByID", mock.Anything, int64(7)).Return(traveler(), nil).Once()
	d.holds.On("HoldSeats", mock.Anything, int64(3), []int64{11}, mock.Anything, time.Minute).Return(nil, errors.New("redis: connection refused")).Once()
	d.ledger.On("Reserve", mock.Anything, mock.Anything).Return(want, nil).Once()
	d.seatMaps.On("InvalidateSeatMap", mock.Anything, int64(3)).Return(errors.New("redis: connection refused")).Once()
	d.producer.On("Publish", mock.Anything, "booking-events", "100", mock.Anything).Return(errors.New("broker down")).Once()

	got, err := s.Reserve(context.Background(), ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11}})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	d.assertExpectations(t)
	d.holds.AssertNotCalled(t, "ReleaseSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Reserve_LedgerConflict(t *testing.T) {
	s, d := newService()
	conflict := &domain.SeatConflictError{SeatIDs: []int64{11}, SeatNumbers: []string{"A1"}}

	d.travelers.On("GetByID", mock.Anything, int64(7)).Return(traveler(), nil).Once()
	d.holds.On("HoldSeats", mock.Anything, int64(3), []int64{11}, mock.Anything, time.Minute).Return(nil, nil).Once()
	d.holds.On("ReleaseSeats", mock.Anything, int64(3), []int64{11}, mock.Anything).Return(nil).Once()
	d.ledger.On("Reserve", mock.Anything, mock.Anything).Return(nil, conflict).Once()

	_, err := s.Reserve(context.Background(), ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11}})

	assert.Same(t, conflict, err)
	d.assertExpectations(t)
	d.seatMaps.AssertNotCalled(t, "InvalidateSeatMap", mock.Anything, mock.Anything)
	d.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Checkout_Success(t *testing.T) {
	s, d := newService()
	want := booking(domain.BookingStatusSettled, "A1")
	want.Payment = &domain.Payment{ID: 1, BookingID: 100, Amount: 1500, Method: "credit", Status: domain.PaymentStatusPaid}
	provisional := booking(domain.BookingStatusOpen, "A1")

	d.travelers.On("GetByID", mock.Anything, int64(7)).Return(traveler(), nil).Once()
	d.holds.On("HoldSeats", mock.Anything, int64(3), []int64{11}, mock.Anything, time.Minute).Return(nil, nil).Once()
	d.holds.On("ReleaseSeats", mock.Anything, int64(3), []int64{11}, mock.Anything).Return(nil).Once()
	d.ledger.On("Checkout", mock.Anything, mock.Anything,
		repository.SettleParams{Amount: 1500, Method: "credit", PaidAt: fixedNow}, mock.Anything).
		Return(want, nil, provisional).Once()
	d.gateway.On("Charge", mock.Anything, gateway.ChargeRequest{BookingID: 100, Amount: 1500, Method: "credit"}).Return("PAY-1", nil).Once()
	d.seatMaps.On("InvalidateSeatMap", mock.Anything, int64(3)).Return(nil).Once()
	d.producer.On("Publish", mock.Anything, "booking-events", "100", mock.MatchedBy(func(e kafka.ReservationEvent) bool {
		return e.Type == kafka.EventBookingSettled && e.Amount == 1500
	})).Return(nil).Once()

	got, err := s.Checkout(context.Background(), CheckoutInput{
		ReserveInput: ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11}},
		Amount:       1500,
		Method:       " Credit",
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	d.assertExpectations(t)
}

func TestReservationService_Checkout_Declined(t *testing.T) {
	s, d := newService()
	provisional := booking(domain.BookingStatusOpen, "A1")
	declined := errors.New("declined")

	d.travelers.On("GetByID", mock.Anything, int64(7)).Return(traveler(), nil).Once()
	d.holds.On("HoldSeats", mock.Anything, int64(3), []int64{11}, mock.Anything, time.Minute).Return(nil, nil).Once()
	d.holds.On("ReleaseSeats", mock.Anything, int64(3), []int64{11}, mock.Anything).Return(nil).Once()
	d.ledger.On("Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil, provisional).Once()
	d.gateway.On("Charge", mock.Anything, mock.Anything).Return("", declined).Once()

	_, err := s.Checkout(context.Background(), CheckoutInput{
		ReserveInput: ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11}},
		Amount:       1500,
		Method:       "credit",
	})

	assert.ErrorIs(t, err, declined)
	d.assertExpectations(t)
	d.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Checkout_Validation(t *testing.T) {
	s, d := newService()

	_, err := s.Checkout(context.Background(), CheckoutInput{ReserveInput: ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11}}, Method: "credit"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Checkout(context.Background(), CheckoutInput{ReserveInput: ReserveInput{ScheduleID: 3, TravelerID: 7, SeatIDs: []int64{11}}, Amount: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	d.assertExpectations(t)
}

func TestReservationService_GetBooking(t *testing.T) {
	s, d := newService()
	want := booking(domain.BookingStatusOpen, "A1")
	d.ledger.On("GetBooking", mock.Anything, int64(100)).Return(want, nil).Once()

	got, err := s.GetBooking(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = s.GetBooking(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	d.assertExpectations(t)
}

func newMemoryService(t *testing.T) (*ReservationService, *memory.Store, map[string]int64, int64, int64) {
	t.Helper()
	store := memory.NewStore()
	trainID := store.AddTrain("12951", "Rajdhani", "Mumbai - Delhi")
	travelerID := store.AddTraveler(domain.Traveler{FirstName: "Ravi"})
	sc := &domain.Schedule{TrainID: trainID, TravelDate: fixedNow.AddDate(0, 0, 1), DepartureTime: "16:35:00", ArrivalTime: "08:35:00"}
	require.NoError(t, store.Create(context.Background(), sc, domain.SeatPlan(15, 15)))

	seats, err := store.ListSeats(context.Background(), sc.ID)
	require.NoError(t, err)
	byNumber := make(map[string]int64)
	for _, seat := range seats {
		byNumber[seat.Number] = seat.ID
	}
	s := NewReservationService(store, store.Travelers(), gateway.NewLocal(), WithClock(func() time.Time { return fixedNow }))
	return s, store, byNumber, sc.ID, travelerID
}

func TestReservationService_MemoryReserveTwoSeats(t *testing.T) {
	s, store, seats, scheduleID, travelerID := newMemoryService(t)

	b, err := s.Reserve(context.Background(), ReserveInput{ScheduleID: scheduleID, TravelerID: travelerID, SeatIDs: []int64{seats["A1"], seats["A2"]}})
	require.NoError(t, err)
	assert.Len(t, b.Details, 2)
	assert.Equal(t, domain.Passenger{Name: "Ravi", Age: domain.DefaultPassengerAge, Gender: domain.DefaultPassengerGender}, b.Details[0].Passenger)

	list, err := store.ListSeats(context.Background(), scheduleID)
	require.NoError(t, err)
	booked := 0
	for _, seat := range list {
		if seat.Booked {
			booked++
		}
	}
	assert.Equal(t, 2, booked)
}

func TestReservationService_MemoryConcurrentSameSeat(t *testing.T) {
	s, _, seats, scheduleID, travelerID := newMemoryService(t)

	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Reserve(context.Background(), ReserveInput{ScheduleID: scheduleID, TravelerID: travelerID, SeatIDs: []int64{seats["A1"]}})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range results {
		var conflict *domain.SeatConflictError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &conflict):
			conflicts++
			assert.Equal(t, []int64{seats["A1"]}, conflict.SeatIDs)
			assert.Equal(t, []string{"A1"}, conflict.SeatNumbers)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestReservationService_MemoryCheckoutDeclined(t *testing.T) {
	s, store, seats, scheduleID, travelerID := newMemoryService(t)

	_, err := s.Checkout(context.Background(), CheckoutInput{
		ReserveInput: ReserveInput{ScheduleID: scheduleID, TravelerID: travelerID, SeatIDs: []int64{seats["S4"]}},
		Amount:       1500,
		Method:       "barter",
	})
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)

	list, err := store.ListSeats(context.Background(), scheduleID)
	require.NoError(t, err)
	for _, seat := range list {
		assert.False(t, seat.Booked, seat.Number)
	}
}
