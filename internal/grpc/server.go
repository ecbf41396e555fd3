// Package grpc exposes read-only ledger lookups to internal callers.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"puja-service/internal/services"
)

const serviceName = "puja.v1.Ledger"

// LedgerServer is implemented by Server. Requests and replies are plain
// structs so callers need no generated stubs.
type LedgerServer interface {
	GetWallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPanchangam(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type Server struct {
	Wallet     *services.WalletService
	Task       *services.TaskService
	Panchangam *services.PanchangamService
}

var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetWallet", Handler: unary("GetWallet", LedgerServer.GetWallet)},
		{MethodName: "GetTask", Handler: unary("GetTask", LedgerServer.GetTask)},
		{MethodName: "GetPanchangam", Handler: unary("GetPanchangam", LedgerServer.GetPanchangam)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "puja/v1/ledger.proto",
}

type ledgerMethod func(LedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call ledgerMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + serviceName + "/" + name
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// NewServer returns a gRPC server with the ledger service registered.
func NewServer(ledger LedgerServer) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(logRequests))
	s.RegisterService(&LedgerServiceDesc, ledger)
	return s
}

// StartGRPCServer listens on port and serves until s is stopped.
func StartGRPCServer(port string, s *grpc.Server) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	log.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
	return s.Serve(lis)
}

func logRequests(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	entry := log.WithFields(log.Fields{
		"method":     info.FullMethod,
		"code":       status.Code(err).String(),
		"latency_ms": time.Since(start).Milliseconds(),
	})
	if err != nil && status.Code(err) == codes.Internal {
		entry.WithError(err).Error("gRPC call failed")
	} else {
		entry.Debug("gRPC call")
	}
	return resp, err
}

func (s *Server) GetWallet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	agentID, err := uintField(in, "agent_id")
	if err != nil {
		return nil, err
	}
	wallet, err := s.Wallet.Get(agentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(wallet)
}

func (s *Server) GetTask(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	bookingID, err := uintField(in, "booking_id")
	if err != nil {
		return nil, err
	}
	task, err := s.Task.Get(bookingID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(task)
}

func (s *Server) GetPanchangam(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	date := stringField(in, "date")
	if date == "" {
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}
	entries, err := s.Panchangam.Get(date, stringField(in, "type"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"date": date, "entries": entries})
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	log.WithError(err).Error("Ledger lookup failed")
	return status.Error(codes.Internal, "internal error")
}

// toStruct converts v through its JSON form so decimals and timestamps keep
// their API representation.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func stringField(in *structpb.Struct, name string) string {
	if v, ok := in.GetFields()[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

// uintField accepts the id as a number or a numeric string.
func uintField(in *structpb.Struct, name string) (uint, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n >= 1 && n <= math.MaxUint32 && n == math.Trunc(n) {
			return uint(n), nil
		}
	case *structpb.Value_StringValue:
		if n, err := strconv.ParseUint(kind.StringValue, 10, 64); err == nil && n > 0 {
			return uint(n), nil
		}
	}
	return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", name)
}
