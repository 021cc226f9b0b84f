// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/repository"
)

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Reserve(ctx context.Context, p repository.ReserveParams) (*domain.Booking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

// Settle runs charge against the booking given as the mock's third return
// value, if any, before returning the recorded results.
func (m *MockLedgerRepository) Settle(ctx context.Context, p repository.SettleParams, charge repository.ChargeFunc) (*domain.Payment, error) {
	args := m.Called(ctx, p, charge)
	if len(args) > 2 && args.Get(2) != nil && charge != nil {
		if _, err := charge(ctx, args.Get(2).(*domain.Booking)); err != nil {
			return nil, err
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// Checkout runs charge against the booking given as the mock's third return
// value, if any, before returning the recorded results.
func (m *MockLedgerRepository) Checkout(ctx context.Context, p repository.ReserveParams, s repository.SettleParams, charge repository.ChargeFunc) (*domain.Booking, error) {
	args := m.Called(ctx, p, s, charge)
	if len(args) > 2 && args.Get(2) != nil && charge != nil {
		if _, err := charge(ctx, args.Get(2).(*domain.Booking)); err != nil {
			return nil, err
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockLedgerRepository) Discard(ctx context.Context, bookingID int64) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockLedgerRepository) ReleaseSeat(ctx context.Context, scheduleID int64, seatNumber string) (*domain.ReleaseResult, error) {
	args := m.Called(ctx, scheduleID, seatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReleaseResult), args.Error(1)
}

func (m *MockLedgerRepository) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockLedgerRepository) IssueTicket(ctx context.Context, bookingID int64, number string, issuedAt time.Time) (*domain.Ticket, bool, error) {
	args := m.Called(ctx, bookingID, number, issuedAt)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.Ticket), args.Bool(1), args.Error(2)
}

func (m *MockLedgerRepository) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockLedgerRepository) GetTicketByBooking(ctx context.Context, bookingID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockLedgerRepository) ListTicketsByTraveler(ctx context.Context, travelerID int64) ([]domain.Ticket, error) {
	args := m.Called(ctx, travelerID)
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

type MockTravelerRepository struct {
	mock.Mock
}

func (m *MockTravelerRepository) GetByID(ctx context.Context, id int64) (*domain.Traveler, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Traveler), args.Error(1)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) List(ctx context.Context) ([]domain.Schedule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) ListSeats(ctx context.Context, scheduleID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, scheduleID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule, seats []domain.Seat) error {
	args := m.Called(ctx, schedule, seats)
	return args.Error(0)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) ListByTraveler(ctx context.Context, travelerID int64) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, travelerID)
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) Upsert(ctx context.Context, travelerID, bookingID int64, tripDate time.Time) error {
	args := m.Called(ctx, travelerID, bookingID, tripDate)
	return args.Error(0)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Sales(ctx context.Context) ([]domain.SalesRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SalesRow), args.Error(1)
}

func (m *MockReportRepository) Demographics(ctx context.Context) ([]domain.DemographicsRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.DemographicsRow), args.Error(1)
}

func (m *MockReportRepository) Occupancy(ctx context.Context) ([]domain.OccupancyRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.OccupancyRow), args.Error(1)
}

func (m *MockReportRepository) Rides(ctx context.Context) ([]domain.Ride, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Ride), args.Error(1)
}

var (
	_ repository.LedgerRepository   = (*MockLedgerRepository)(nil)
	_ repository.TravelerRepository = (*MockTravelerRepository)(nil)
	_ repository.ScheduleRepository = (*MockScheduleRepository)(nil)
	_ repository.HistoryRepository  = (*MockHistoryRepository)(nil)
	_ repository.ReportRepository   = (*MockReportRepository)(nil)
)
