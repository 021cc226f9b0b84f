// Package rpc carries the JSON-shaped gRPC plumbing shared by the service
// servers. Requests and replies travel as google.protobuf.Struct.
package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Domenick1991/railbooking/internal/domain"
)

// Call is the signature every method handler implements.
type Call func(ctx context.Context, srv any, in *structpb.Struct) (*structpb.Struct, error)

// Method builds a grpc.MethodDesc for a unary Struct-in Struct-out call.
func Method(service, name string, call Call) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, srv, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(ctx, srv, req.(*structpb.Struct))
			})
		},
	}
}

// Decode fills dst from the request struct using its json tags.
func Decode(in *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// Encode turns a json-tagged value into a reply struct.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Status maps a domain error onto a gRPC status. Internal causes are not
// exposed to the caller.
func Status(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.KindConflict:
		var conflict *domain.SeatConflictError
		if errors.As(err, &conflict) {
			return conflictStatus(conflict)
		}
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// conflictStatus reports AlreadyExists with a Struct detail carrying
// booked_seat_ids and, when known, booked_seat_numbers.
func conflictStatus(conflict *domain.SeatConflictError) error {
	st := status.New(codes.AlreadyExists, conflict.Error())
	ids := make([]any, len(conflict.SeatIDs))
	for i, id := range conflict.SeatIDs {
		ids[i] = id
	}
	fields := map[string]any{"booked_seat_ids": ids}
	if len(conflict.SeatNumbers) > 0 {
		numbers := make([]any, len(conflict.SeatNumbers))
		for i, n := range conflict.SeatNumbers {
			numbers[i] = n
		}
		fields["booked_seat_numbers"] = numbers
	}
	detail, err := structpb.NewStruct(fields)
	if err != nil {
		return st.Err()
	}
	withDetail, err := st.WithDetails(detail)
	if err != nil {
		return st.Err()
	}
	return withDetail.Err()
}

// ConflictSeatIDs extracts booked_seat_ids from an AlreadyExists status built
// by Status. It returns nil for any other error.
func ConflictSeatIDs(err error) []int64 {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.AlreadyExists {
		return nil
	}
	for _, d := range st.Details() {
		detail, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		list := detail.GetFields()["booked_seat_ids"].GetListValue()
		ids := make([]int64, 0, len(list.GetValues()))
		for _, v := range list.GetValues() {
			ids = append(ids, int64(v.GetNumberValue()))
		}
		return ids
	}
	return nil
}
