package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/service/cancellation"
	"github.com/Domenick1991/railbooking/internal/service/history"
	"github.com/Domenick1991/railbooking/internal/service/payment"
	"github.com/Domenick1991/railbooking/internal/service/report"
	"github.com/Domenick1991/railbooking/internal/service/reservation"
	"github.com/Domenick1991/railbooking/internal/service/schedule"
	"github.com/Domenick1991/railbooking/internal/service/ticket"
)

type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) Reserve(ctx context.Context, input reservation.ReserveInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) Checkout(ctx context.Context, input reservation.CheckoutInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) Settle(ctx context.Context, input payment.SettleInput) (*domain.Payment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type MockTicketUseCase struct {
	mock.Mock
}

func (m *MockTicketUseCase) Issue(ctx context.Context, bookingID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketUseCase) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketUseCase) GetByBooking(ctx context.Context, bookingID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketUseCase) ListByTraveler(ctx context.Context, travelerID int64) ([]domain.Ticket, error) {
	args := m.Called(ctx, travelerID)
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketUseCase) PDF(ctx context.Context, id int64) (*ticket.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Document), args.Error(1)
}

type MockScheduleUseCase struct {
	mock.Mock
}

func (m *MockScheduleUseCase) List(ctx context.Context) ([]domain.Schedule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleUseCase) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleUseCase) SeatMap(ctx context.Context, scheduleID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, scheduleID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockScheduleUseCase) Create(ctx context.Context, input schedule.CreateScheduleInput) (*domain.Schedule, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

type MockCancellationUseCase struct {
	mock.Mock
}

func (m *MockCancellationUseCase) ReleaseSeat(ctx context.Context, scheduleID int64, seatNumber string) (*domain.ReleaseResult, error) {
	args := m.Called(ctx, scheduleID, seatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReleaseResult), args.Error(1)
}

type MockReportUseCase struct {
	mock.Mock
}

func (m *MockReportUseCase) Sales(ctx context.Context) ([]domain.SalesRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SalesRow), args.Error(1)
}

func (m *MockReportUseCase) Demographics(ctx context.Context) ([]domain.DemographicsRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.DemographicsRow), args.Error(1)
}

func (m *MockReportUseCase) Occupancy(ctx context.Context) ([]domain.OccupancyRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.OccupancyRow), args.Error(1)
}

func (m *MockReportUseCase) Rides(ctx context.Context) ([]domain.Ride, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Ride), args.Error(1)
}

type MockHistoryUseCase struct {
	mock.Mock
}

func (m *MockHistoryUseCase) List(ctx context.Context, travelerID int64) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, travelerID)
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryUseCase) Record(ctx context.Context, input history.RecordInput) error {
	return m.Called(ctx, input).Error(0)
}

var (
	_ reservation.ReservationUseCase   = (*MockReservationUseCase)(nil)
	_ payment.PaymentUseCase           = (*MockPaymentUseCase)(nil)
	_ ticket.TicketUseCase             = (*MockTicketUseCase)(nil)
	_ schedule.ScheduleUseCase         = (*MockScheduleUseCase)(nil)
	_ cancellation.CancellationUseCase = (*MockCancellationUseCase)(nil)
	_ report.ReportUseCase             = (*MockReportUseCase)(nil)
	_ history.HistoryUseCase           = (*MockHistoryUseCase)(nil)
)
