package reservation_service_api

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Domenick1991/railbooking/internal/api/rpc"
	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/service/cancellation"
	"github.com/Domenick1991/railbooking/internal/service/payment"
	"github.com/Domenick1991/railbooking/internal/service/reservation"
	"github.com/Domenick1991/railbooking/internal/service/ticket"
)

const ServiceName = "railbooking.v1.ReservationService"

// Server exposes the booking lifecycle over gRPC.
type Server struct {
	reservations  reservation.ReservationUseCase
	payments      payment.PaymentUseCase
	cancellations cancellation.CancellationUseCase
	tickets       ticket.TicketUseCase
}

func NewServer(
	reservations reservation.ReservationUseCase,
	payments payment.PaymentUseCase,
	cancellations cancellation.CancellationUseCase,
	tickets ticket.TicketUseCase,
) *Server {
	return &Server{reservations: reservations, payments: payments, cancellations: cancellations, tickets: tickets}
}

// ReservationServiceServer is the method set registered under ServiceName.
type ReservationServiceServer interface {
	Reserve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Checkout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Settle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReleaseSeat(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueTicket(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func Register(s grpc.ServiceRegistrar, srv ReservationServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method(ServiceName, "Reserve", handle(ReservationServiceServer.Reserve)),
		rpc.Method(ServiceName, "Checkout", handle(ReservationServiceServer.Checkout)),
		rpc.Method(ServiceName, "GetBooking", handle(ReservationServiceServer.GetBooking)),
		rpc.Method(ServiceName, "Settle", handle(ReservationServiceServer.Settle)),
		rpc.Method(ServiceName, "ReleaseSeat", handle(ReservationServiceServer.ReleaseSeat)),
		rpc.Method(ServiceName, "IssueTicket", handle(ReservationServiceServer.IssueTicket)),
	},
	Streams: []grpc.StreamDesc{},
}

var _ ReservationServiceServer = (*Server)(nil)

func handle(fn func(ReservationServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) rpc.Call {
	return func(ctx context.Context, srv any, in *structpb.Struct) (*structpb.Struct, error) {
		return fn(srv.(ReservationServiceServer), ctx, in)
	}
}

type bookingIDRequest struct {
	BookingID int64 `json:"booking_id"`
}

type settleRequest struct {
	BookingID int64  `json:"booking_id"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
}

type releaseRequest struct {
	ScheduleID int64  `json:"schedule_id"`
	SeatNumber string `json:"seat_number"`
}

func (s *Server) Reserve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req reservation.ReserveInput
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	b, err := s.reservations.Reserve(ctx, req)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(toBooking(b))
}

func (s *Server) Checkout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req reservation.CheckoutInput
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	b, err := s.reservations.Checkout(ctx, req)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(toBooking(b))
}

func (s *Server) GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req bookingIDRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	b, err := s.reservations.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(toBooking(b))
}

func (s *Server) Settle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req settleRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	p, err := s.payments.Settle(ctx, payment.SettleInput{BookingID: req.BookingID, Amount: req.Amount, Method: req.Method})
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(toPayment(p))
}

func (s *Server) ReleaseSeat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req releaseRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	r, err := s.cancellations.ReleaseSeat(ctx, req.ScheduleID, req.SeatNumber)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(releaseReply{
		SeatID:         r.SeatID,
		SeatNumber:     r.SeatNumber,
		BookingID:      r.BookingID,
		BookingRemoved: r.BookingRemoved,
	})
}

func (s *Server) IssueTicket(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req bookingIDRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	t, err := s.tickets.Issue(ctx, req.BookingID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(ticketReply{ID: t.ID, TicketNumber: t.TicketNumber, BookingID: t.BookingID, IssuedAt: t.IssuedAt.Format(time.RFC3339)})
}

type seatReply struct {
	SeatID        int64  `json:"seat_id"`
	SeatNumber    string `json:"seat_number"`
	SeatClass     string `json:"seat_class"`
	PassengerName string `json:"passenger_name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
}

type paymentReply struct {
	ID        int64  `json:"payment_id"`
	BookingID int64  `json:"booking_id"`
	Amount    int64  `json:"amount"`
	Method    string `json:"payment_method"`
	Status    string `json:"payment_status"`
	Reference string `json:"reference"`
	PaidAt    string `json:"payment_date"`
}

type bookingReply struct {
	ID         int64         `json:"booking_id"`
	TravelerID int64         `json:"traveler_id"`
	ScheduleID int64         `json:"schedule_id"`
	Status     string        `json:"status"`
	BookedAt   string        `json:"booking_date"`
	Seats      []seatReply   `json:"seats"`
	Payment    *paymentReply `json:"payment,omitempty"`
}

type releaseReply struct {
	SeatID         int64  `json:"seat_id"`
	SeatNumber     string `json:"seat_number"`
	BookingID      int64  `json:"booking_id"`
	BookingRemoved bool   `json:"booking_removed"`
}

type ticketReply struct {
	ID           int64  `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	BookingID    int64  `json:"booking_id"`
	IssuedAt     string `json:"issue_date"`
}

func toBooking(b *domain.Booking) bookingReply {
	out := bookingReply{
		ID:         b.ID,
		TravelerID: b.TravelerID,
		ScheduleID: b.ScheduleID,
		Status:     string(b.Status),
		BookedAt:   b.BookedAt.Format(time.RFC3339),
		Seats:      make([]seatReply, 0, len(b.Details)),
	}
	for _, d := range b.Details {
		out.Seats = append(out.Seats, seatReply{
			SeatID:        d.SeatID,
			SeatNumber:    d.SeatNumber,
			SeatClass:     string(d.SeatClass),
			PassengerName: d.Passenger.Name,
			Age:           d.Passenger.Age,
			Gender:        d.Passenger.Gender,
		})
	}
	if b.Payment != nil {
		p := toPayment(b.Payment)
		out.Payment = &p
	}
	return out
}

func toPayment(p *domain.Payment) paymentReply {
	return paymentReply{
		ID:        p.ID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    string(p.Status),
		Reference: p.Reference,
		PaidAt:    p.PaidAt.Format(time.RFC3339),
	}
}
