package cancellation

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/kafka"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository"
	"github.com/Domenick1991/railbooking/internal/service/events"
	"github.com/Domenick1991/railbooking/internal/telemetry"
)

var tracer = otel.Tracer("github.com/Domenick1991/railbooking/internal/service/cancellation")

type CancellationUseCase interface {
	ReleaseSeat(ctx context.Context, scheduleID int64, seatNumber string) (*domain.ReleaseResult, error)
}

type SeatMapCache interface {
	InvalidateSeatMap(ctx context.Context, scheduleID int64) error
}

type CancellationService struct {
	ledger   repository.LedgerRepository
	seatMaps SeatMapCache
	events   *events.Publisher
	log      logrus.FieldLogger
	now      func() time.Time
}

type CancellationServiceOption func(*CancellationService)

func WithSeatMapCache(c SeatMapCache) CancellationServiceOption {
	return func(s *CancellationService) { s.seatMaps = c }
}

func WithEvents(p *events.Publisher) CancellationServiceOption {
	return func(s *CancellationService) { s.events = p }
}

func WithLogger(log logrus.FieldLogger) CancellationServiceOption {
	return func(s *CancellationService) { s.log = log }
}

func NewCancellationService(ledger repository.LedgerRepository, opts ...CancellationServiceOption) *CancellationService {
	s := &CancellationService{
		ledger: ledger,
		log:    logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReleaseSeat frees one claimed seat. Releasing the last seat of a booking
// removes the booking with its ticket, payment and history.
func (s *CancellationService) ReleaseSeat(ctx context.Context, scheduleID int64, seatNumber string) (*domain.ReleaseResult, error) {
	ctx, span := tracer.Start(ctx, "cancellation.ReleaseSeat")
	defer span.End()

	seatNumber = strings.ToUpper(strings.TrimSpace(seatNumber))
	if scheduleID <= 0 {
		return nil, domain.Invalid("schedule_id", "must be positive")
	}
	if seatNumber == "" {
		return nil, domain.Invalid("seat_number", "is required")
	}
	span.SetAttributes(attribute.Int64("schedule.id", scheduleID), attribute.String("seat.number", seatNumber))

	fields := logrus.Fields{"schedule_id": scheduleID, "seat": seatNumber}
	result, err := s.ledger.ReleaseSeat(ctx, scheduleID, seatNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		entry := s.log.WithFields(fields).WithError(err)
		if domain.KindOf(err) == domain.KindInternal {
			entry.Error("seat release failed")
		} else {
			entry.Info("seat release rejected")
		}
		return nil, err
	}

	fields["booking_id"] = result.BookingID
	fields["booking_removed"] = result.BookingRemoved
	if result.DetailMissing {
		s.log.WithFields(fields).Warn("claimed seat had no booking detail, released anyway")
	} else {
		s.log.WithFields(fields).Info("seat released")
	}

	if s.seatMaps != nil {
		if err := s.seatMaps.InvalidateSeatMap(ctx, scheduleID); err != nil {
			s.log.WithError(err).WithField("schedule_id", scheduleID).Warn("failed to invalidate seat map")
		}
	}

	event := kafka.ReservationEvent{
		Type:        kafka.EventSeatReleased,
		BookingID:   result.BookingID,
		ScheduleID:  scheduleID,
		SeatNumbers: []string{result.SeatNumber},
		OccurredAt:  s.now(),
	}
	s.events.Publish(ctx, event)
	if result.BookingRemoved {
		event.Type = kafka.EventBookingRemoved
		s.events.Publish(ctx, event)
	}
	return result, nil
}

var _ CancellationUseCase = (*CancellationService)(nil)
