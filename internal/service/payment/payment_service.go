package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/gateway"
	"github.com/Domenick1991/railbooking/internal/kafka"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository"
	"github.com/Domenick1991/railbooking/internal/service/events"
	"github.com/Domenick1991/railbooking/internal/telemetry"
)

var tracer = otel.Tracer("github.com/Domenick1991/railbooking/internal/service/payment")

type PaymentUseCase interface {
	Settle(ctx context.Context, input SettleInput) (*domain.Payment, error)
}

type SeatMapCache interface {
	InvalidateSeatMap(ctx context.Context, scheduleID int64) error
}

type SettleInput struct {
	BookingID int64  `json:"booking_id"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
}

type PaymentService struct {
	ledger    repository.LedgerRepository
	gateway   gateway.Gateway
	seatMaps  SeatMapCache
	travelers repository.TravelerRepository
	events    *events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

type PaymentServiceOption func(*PaymentService)

func WithSeatMapCache(c SeatMapCache) PaymentServiceOption {
	return func(s *PaymentService) { s.seatMaps = c }
}

// WithTravelers lets settlement events carry the traveler's email.
func WithTravelers(r repository.TravelerRepository) PaymentServiceOption {
	return func(s *PaymentService) { s.travelers = r }
}

func WithEvents(p *events.Publisher) PaymentServiceOption {
	return func(s *PaymentService) { s.events = p }
}

func WithLogger(log logrus.FieldLogger) PaymentServiceOption {
	return func(s *PaymentService) { s.log = log }
}

func WithClock(now func() time.Time) PaymentServiceOption {
	return func(s *PaymentService) { s.now = now }
}

func NewPaymentService(ledger repository.LedgerRepository, gw gateway.Gateway, opts ...PaymentServiceOption) *PaymentService {
	s := &PaymentService{
		ledger:  ledger,
		gateway: gw,
		log:     logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settle charges an open booking and records the payment. The charge runs
// while the ledger holds the booking, so a booking is charged at most once.
// When the charge or the settlement fails the booking is discarded so its
// seats do not stay claimed without a payment.
func (s *PaymentService) Settle(ctx context.Context, input SettleInput) (*domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.Settle")
	defer span.End()
	span.SetAttributes(attribute.Int64("booking.id", input.BookingID))

	if input.BookingID <= 0 {
		return nil, domain.Invalid("booking_id", "must be positive")
	}
	if input.Amount <= 0 {
		return nil, domain.Invalid("amount", "must be positive")
	}
	method := gateway.NormalizeMethod(input.Method)
	if method == "" {
		return nil, domain.Invalid("method", "is required")
	}

	booking, err := s.ledger.GetBooking(ctx, input.BookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if booking.Status == domain.BookingStatusSettled {
		return nil, domain.ErrBookingSettled
	}

	payment, err := s.ledger.Settle(ctx, repository.SettleParams{
		BookingID: booking.ID,
		Amount:    input.Amount,
		Method:    method,
		PaidAt:    s.now(),
	}, func(ctx context.Context, locked *domain.Booking) (string, error) {
		return s.gateway.Charge(ctx, gateway.ChargeRequest{BookingID: locked.ID, Amount: input.Amount, Method: method})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, domain.ErrBookingNotFound) || errors.Is(err, domain.ErrBookingSettled) {
			return nil, err
		}
		return nil, s.discard(ctx, booking, err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"amount":     payment.Amount,
		"method":     payment.Method,
	}).Info("booking settled")
	s.events.Publish(ctx, kafka.ReservationEvent{
		Type:        kafka.EventBookingSettled,
		BookingID:   booking.ID,
		ScheduleID:  booking.ScheduleID,
		TravelerID:  booking.TravelerID,
		Email:       s.email(ctx, booking.TravelerID),
		SeatNumbers: booking.SeatNumbers(),
		Status:      string(domain.BookingStatusSettled),
		Amount:      payment.Amount,
		OccurredAt:  payment.PaidAt,
	})
	return payment, nil
}

func (s *PaymentService) email(ctx context.Context, travelerID int64) string {
	if s.travelers == nil {
		return ""
	}
	t, err := s.travelers.GetByID(ctx, travelerID)
	if err != nil {
		s.log.WithError(err).WithField("traveler_id", travelerID).Debug("traveler lookup for notification failed")
		return ""
	}
	return t.Email
}

// discard rolls back the reservation after a failed settlement and returns
// the original failure.
func (s *PaymentService) discard(ctx context.Context, booking *domain.Booking, cause error) error {
	entry := s.log.WithFields(logrus.Fields{"booking_id": booking.ID, "schedule_id": booking.ScheduleID}).WithError(cause)

	// The request may already be cancelled; the compensation must still run.
	if err := s.ledger.Discard(context.WithoutCancel(ctx), booking.ID); err != nil {
		if errors.Is(err, domain.ErrBookingSettled) {
			entry.Warn("settlement failed but booking was settled concurrently")
			return cause
		}
		entry.WithField("discard_error", err.Error()).Error("settlement failed and booking could not be discarded")
		return cause
	}
	entry.Warn("settlement failed, booking discarded")

	if s.seatMaps != nil {
		if err := s.seatMaps.InvalidateSeatMap(ctx, booking.ScheduleID); err != nil {
			s.log.WithError(err).WithField("schedule_id", booking.ScheduleID).Warn("failed to invalidate seat map")
		}
	}
	s.events.Publish(ctx, kafka.ReservationEvent{
		Type:        kafka.EventBookingDiscarded,
		BookingID:   booking.ID,
		ScheduleID:  booking.ScheduleID,
		TravelerID:  booking.TravelerID,
		SeatNumbers: booking.SeatNumbers(),
		OccurredAt:  s.now(),
	})
	return cause
}

var _ PaymentUseCase = (*PaymentService)(nil)
