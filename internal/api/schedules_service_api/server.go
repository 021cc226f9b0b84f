package schedules_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Domenick1991/railbooking/internal/api/rpc"
	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/service/schedule"
)

const ServiceName = "railbooking.v1.ScheduleService"

type SchedulesServiceServer interface {
	ListSchedules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SeatMap(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Server serves the read-only schedule catalog over gRPC.
type Server struct {
	schedules schedule.ScheduleUseCase
}

func NewServer(schedules schedule.ScheduleUseCase) *Server {
	return &Server{schedules: schedules}
}

func Register(s grpc.ServiceRegistrar, srv SchedulesServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method(ServiceName, "ListSchedules", handle(SchedulesServiceServer.ListSchedules)),
		rpc.Method(ServiceName, "GetSchedule", handle(SchedulesServiceServer.GetSchedule)),
		rpc.Method(ServiceName, "SeatMap", handle(SchedulesServiceServer.SeatMap)),
	},
	Streams: []grpc.StreamDesc{},
}

var _ SchedulesServiceServer = (*Server)(nil)

func handle(fn func(SchedulesServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) rpc.Call {
	return func(ctx context.Context, srv any, in *structpb.Struct) (*structpb.Struct, error) {
		return fn(srv.(SchedulesServiceServer), ctx, in)
	}
}

type scheduleIDRequest struct {
	ScheduleID int64 `json:"schedule_id"`
}

type scheduleReply struct {
	ID            int64  `json:"schedule_id"`
	TrainID       int64  `json:"train_id"`
	TrainName     string `json:"train_name"`
	TrainNumber   string `json:"train_number"`
	RouteName     string `json:"route_name"`
	TravelDate    string `json:"travel_date"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

type seatReply struct {
	ID     int64  `json:"seat_id"`
	Number string `json:"seat_number"`
	Class  string `json:"seat_class"`
	Booked bool   `json:"is_booked"`
}

func (s *Server) ListSchedules(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.schedules.List(ctx)
	if err != nil {
		return nil, rpc.Status(err)
	}
	out := make([]scheduleReply, 0, len(list))
	for i := range list {
		out = append(out, toSchedule(&list[i]))
	}
	return rpc.Encode(map[string]any{"schedules": out})
}

func (s *Server) GetSchedule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req scheduleIDRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	sc, err := s.schedules.GetByID(ctx, req.ScheduleID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return rpc.Encode(toSchedule(sc))
}

func (s *Server) SeatMap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req scheduleIDRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	seats, err := s.schedules.SeatMap(ctx, req.ScheduleID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	out := make([]seatReply, 0, len(seats))
	for _, seat := range seats {
		out = append(out, seatReply{ID: seat.ID, Number: seat.Number, Class: string(seat.Class), Booked: seat.Booked})
	}
	return rpc.Encode(map[string]any{"schedule_id": req.ScheduleID, "seats": out})
}

func toSchedule(s *domain.Schedule) scheduleReply {
	return scheduleReply{
		ID:            s.ID,
		TrainID:       s.TrainID,
		TrainName:     s.TrainName,
		TrainNumber:   s.TrainNumber,
		RouteName:     s.RouteName,
		TravelDate:    s.TravelDate.Format("2006-01-02"),
		DepartureTime: s.DepartureTime,
		ArrivalTime:   s.ArrivalTime,
	}
}
