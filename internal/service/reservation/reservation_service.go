package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
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

var tracer = otel.Tracer("github.com/Domenick1991/railbooking/internal/service/reservation")

type ReservationUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, error)
	Checkout(ctx context.Context, input CheckoutInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
}

// SeatHolds is a fast pre-check in front of the ledger. The ledger stays the
// authority on seat claims.
type SeatHolds interface {
	HoldSeats(ctx context.Context, scheduleID int64, seatIDs []int64, owner string, ttl time.Duration) ([]int64, error)
	ReleaseSeats(ctx context.Context, scheduleID int64, seatIDs []int64, owner string) error
}

type SeatMapCache interface {
	InvalidateSeatMap(ctx context.Context, scheduleID int64) error
}

type ReserveInput struct {
	ScheduleID int64   `json:"schedule_id"`
	TravelerID int64   `json:"traveler_id"`
	SeatIDs    []int64 `json:"seat_ids"`
}

type CheckoutInput struct {
	ReserveInput
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

type ReservationService struct {
	ledger    repository.LedgerRepository
	travelers repository.TravelerRepository
	gateway   gateway.Gateway
	holds     SeatHolds
	holdTTL   time.Duration
	seatMaps  SeatMapCache
	events    *events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

type ReservationServiceOption func(*ReservationService)

func WithSeatHolds(holds SeatHolds, ttl time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		s.holds = holds
		s.holdTTL = ttl
	}
}

func WithSeatMapCache(c SeatMapCache) ReservationServiceOption {
	return func(s *ReservationService) { s.seatMaps = c }
}

func WithEvents(p *events.Publisher) ReservationServiceOption {
	return func(s *ReservationService) { s.events = p }
}

func WithLogger(log logrus.FieldLogger) ReservationServiceOption {
	return func(s *ReservationService) { s.log = log }
}

func WithClock(now func() time.Time) ReservationServiceOption {
	return func(s *ReservationService) { s.now = now }
}

func NewReservationService(
	ledger repository.LedgerRepository,
	travelers repository.TravelerRepository,
	gw gateway.Gateway,
	opts ...ReservationServiceOption,
) *ReservationService {
	s := &ReservationService{
		ledger:    ledger,
		travelers: travelers,
		gateway:   gw,
		holdTTL:   30 * time.Second,
		log:       logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve claims every requested seat for the traveler or none of them.
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "reservation.Reserve")
	defer span.End()

	booking, email, err := s.reserve(ctx, input, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("booking.id", booking.ID))

	s.log.WithFields(bookingFields(booking)).Info("seats reserved")
	s.publish(ctx, kafka.EventBookingReserved, booking, email)
	return booking, nil
}

// Checkout reserves the seats and settles the payment in one storage
// transaction. A declined charge leaves nothing behind.
func (s *ReservationService) Checkout(ctx context.Context, input CheckoutInput) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "reservation.Checkout")
	defer span.End()

	if input.Amount <= 0 {
		return nil, domain.Invalid("amount", "must be positive")
	}
	method := gateway.NormalizeMethod(input.Method)
	if method == "" {
		return nil, domain.Invalid("method", "is required")
	}

	settle := &repository.SettleParams{Amount: input.Amount, Method: method}
	booking, email, err := s.reserve(ctx, input.ReserveInput, settle)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("booking.id", booking.ID))

	s.log.WithFields(bookingFields(booking)).WithField("amount", input.Amount).Info("booking checked out")
	s.publish(ctx, kafka.EventBookingSettled, booking, email)
	return booking, nil
}

func (s *ReservationService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	if id <= 0 {
		return nil, domain.Invalid("booking_id", "must be positive")
	}
	return s.ledger.GetBooking(ctx, id)
}

// reserve runs the shared reservation path. With settle set the claim and the
// payment are committed together.
func (s *ReservationService) reserve(ctx context.Context, input ReserveInput, settle *repository.SettleParams) (*domain.Booking, string, error) {
	if err := validate(input); err != nil {
		return nil, "", err
	}
	seatIDs := repository.NormalizeSeatIDs(input.SeatIDs)

	traveler, err := s.travelers.GetByID(ctx, input.TravelerID)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	params := repository.ReserveParams{
		ScheduleID: input.ScheduleID,
		TravelerID: input.TravelerID,
		SeatIDs:    seatIDs,
		Passenger:  domain.NewPassengerSnapshot(*traveler, now),
		BookedAt:   now,
	}

	release, err := s.hold(ctx, input.ScheduleID, seatIDs)
	if err != nil {
		return nil, "", err
	}
	defer release()

	var booking *domain.Booking
	if settle == nil {
		booking, err = s.ledger.Reserve(ctx, params)
	} else {
		settle.PaidAt = now
		booking, err = s.ledger.Checkout(ctx, params, *settle, s.charge(settle))
	}
	if err != nil {
		s.logFailure(err, input)
		return nil, "", err
	}

	s.invalidate(ctx, input.ScheduleID)
	return booking, traveler.Email, nil
}

func (s *ReservationService) charge(settle *repository.SettleParams) repository.ChargeFunc {
	return func(ctx context.Context, b *domain.Booking) (string, error) {
		return s.gateway.Charge(ctx, gateway.ChargeRequest{BookingID: b.ID, Amount: settle.Amount, Method: settle.Method})
	}
}

// hold takes the optional seat holds. A hold store that is unreachable is
// logged and skipped since the ledger still rejects double claims.
func (s *ReservationService) hold(ctx context.Context, scheduleID int64, seatIDs []int64) (func(), error) {
	noop := func() {}
	if s.holds == nil {
		return noop, nil
	}
	owner := uuid.NewString()
	busy, err := s.holds.HoldSeats(ctx, scheduleID, seatIDs, owner, s.holdTTL)
	if err != nil {
		s.log.WithError(err).WithField("schedule_id", scheduleID).Warn("seat holds unavailable")
		return noop, nil
	}
	if len(busy) > 0 {
		return nil, &domain.SeatConflictError{SeatIDs: busy}
	}
	return func() {
		if err := s.holds.ReleaseSeats(context.WithoutCancel(ctx), scheduleID, seatIDs, owner); err != nil {
			s.log.WithError(err).WithField("schedule_id", scheduleID).Warn("failed to release seat holds")
		}
	}, nil
}

func (s *ReservationService) invalidate(ctx context.Context, scheduleID int64) {
	if s.seatMaps == nil {
		return
	}
	if err := s.seatMaps.InvalidateSeatMap(ctx, scheduleID); err != nil {
		s.log.WithError(err).WithField("schedule_id", scheduleID).Warn("failed to invalidate seat map")
	}
}

func (s *ReservationService) logFailure(err error, input ReserveInput) {
	entry := s.log.WithFields(logrus.Fields{
		"schedule_id": input.ScheduleID,
		"traveler_id": input.TravelerID,
		"seat_ids":    input.SeatIDs,
	}).WithError(err)
	if domain.KindOf(err) == domain.KindInternal {
		entry.Error("reservation failed")
		return
	}
	entry.Info("reservation rejected")
}

func (s *ReservationService) publish(ctx context.Context, eventType string, b *domain.Booking, email string) {
	event := kafka.ReservationEvent{
		Type:        eventType,
		BookingID:   b.ID,
		ScheduleID:  b.ScheduleID,
		TravelerID:  b.TravelerID,
		Email:       email,
		SeatNumbers: b.SeatNumbers(),
		Status:      string(b.Status),
		OccurredAt:  s.now(),
	}
	if b.Payment != nil {
		event.Amount = b.Payment.Amount
	}
	s.events.Publish(ctx, event)
}

func validate(input ReserveInput) error {
	if input.ScheduleID <= 0 {
		return domain.Invalid("schedule_id", "must be positive")
	}
	if input.TravelerID <= 0 {
		return domain.Invalid("traveler_id", "must be positive")
	}
	if len(input.SeatIDs) == 0 {
		return domain.Invalid("seat_ids", "at least one seat is required")
	}
	for _, id := range input.SeatIDs {
		if id <= 0 {
			return domain.Invalid("seat_ids", "seat ids must be positive")
		}
	}
	return nil
}

func bookingFields(b *domain.Booking) logrus.Fields {
	return logrus.Fields{
		"booking_id":  b.ID,
		"schedule_id": b.ScheduleID,
		"traveler_id": b.TravelerID,
		"seats":       b.SeatNumbers(),
	}
}

var _ ReservationUseCase = (*ReservationService)(nil)
