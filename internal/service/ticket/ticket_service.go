package ticket

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
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

var tracer = otel.Tracer("github.com/Domenick1991/railbooking/internal/service/ticket")

type TicketUseCase interface {
	Issue(ctx context.Context, bookingID int64) (*domain.Ticket, error)
	Get(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByBooking(ctx context.Context, bookingID int64) (*domain.Ticket, error)
	ListByTraveler(ctx context.Context, travelerID int64) ([]domain.Ticket, error)
	PDF(ctx context.Context, id int64) (*Document, error)
}

type TicketService struct {
	ledger    repository.LedgerRepository
	schedules repository.ScheduleRepository
	events    *events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
	newNumber func() string
}

type TicketServiceOption func(*TicketService)

func WithEvents(p *events.Publisher) TicketServiceOption {
	return func(s *TicketService) { s.events = p }
}

func WithLogger(log logrus.FieldLogger) TicketServiceOption {
	return func(s *TicketService) { s.log = log }
}

func WithClock(now func() time.Time) TicketServiceOption {
	return func(s *TicketService) { s.now = now }
}

func WithNumberGenerator(gen func() string) TicketServiceOption {
	return func(s *TicketService) { s.newNumber = gen }
}

func NewTicketService(ledger repository.LedgerRepository, schedules repository.ScheduleRepository, opts ...TicketServiceOption) *TicketService {
	s := &TicketService{
		ledger:    ledger,
		schedules: schedules,
		log:       logger.Discard(),
		now:       time.Now,
		newNumber: NewTicketNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTicketNumber returns a random printable ticket number.
func NewTicketNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TKT-" + id[:12]
}

// Issue returns the booking's ticket, creating it on first call.
func (s *TicketService) Issue(ctx context.Context, bookingID int64) (*domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "ticket.Issue")
	defer span.End()
	span.SetAttributes(attribute.Int64("booking.id", bookingID))

	if bookingID <= 0 {
		return nil, domain.Invalid("booking_id", "must be positive")
	}

	ticket, created, err := s.ledger.IssueTicket(ctx, bookingID, s.newNumber(), s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !created {
		return ticket, nil
	}

	s.log.WithFields(logrus.Fields{"booking_id": bookingID, "ticket": ticket.TicketNumber}).Info("ticket issued")
	s.events.Publish(ctx, kafka.ReservationEvent{
		Type:         kafka.EventTicketIssued,
		BookingID:    bookingID,
		TicketNumber: ticket.TicketNumber,
		OccurredAt:   ticket.IssuedAt,
	})
	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	if id <= 0 {
		return nil, domain.Invalid("ticket_id", "must be positive")
	}
	return s.ledger.GetTicket(ctx, id)
}

func (s *TicketService) GetByBooking(ctx context.Context, bookingID int64) (*domain.Ticket, error) {
	if bookingID <= 0 {
		return nil, domain.Invalid("booking_id", "must be positive")
	}
	return s.ledger.GetTicketByBooking(ctx, bookingID)
}

func (s *TicketService) ListByTraveler(ctx context.Context, travelerID int64) ([]domain.Ticket, error) {
	if travelerID <= 0 {
		return nil, domain.Invalid("traveler_id", "must be positive")
	}
	return s.ledger.ListTicketsByTraveler(ctx, travelerID)
}

// PDF renders the printable ticket with its booking and schedule.
func (s *TicketService) PDF(ctx context.Context, id int64) (*Document, error) {
	ctx, span := tracer.Start(ctx, "ticket.PDF")
	defer span.End()

	ticket, err := s.Get(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	booking, err := s.ledger.GetBooking(ctx, ticket.BookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	schedule, err := s.schedules.GetByID(ctx, booking.ScheduleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	doc, err := renderPDF(ticket, booking, schedule)
	if err != nil {
		s.log.WithError(err).WithField("ticket_id", id).Error("ticket pdf rendering failed")
		telemetry.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}

var _ TicketUseCase = (*TicketService)(nil)
