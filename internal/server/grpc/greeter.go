package grpcserver

import (
	"context"
	"time"

	tallyv1 "github.com/rzbill/tally/api/tally/v1"
	"github.com/rzbill/tally/internal/runtime"
	logpkg "github.com/rzbill/tally/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type greeterSvc struct {
	tallyv1.UnimplementedGreeterServer
	rt     *runtime.Runtime
	logger logpkg.Logger
}

func (s *greeterSvc) Greet(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	msg, err := s.rt.Greet(ctx, req.GetValue())
	if err != nil {
		s.logger.Error("greet failed", logpkg.Err(err))
		return nil, status.Error(codes.Internal, "failed to record greeting")
	}
	return wrapperspb.String(msg), nil
}

func (s *greeterSvc) GreetedNameCount(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	return wrapperspb.UInt64(s.rt.CountFor(req.GetValue())), nil
}

func (s *greeterSvc) TotalGreetedNamesCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	return wrapperspb.UInt64(s.rt.TotalDistinctKeys()), nil
}

func (s *greeterSvc) TotalEventCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	return wrapperspb.UInt64(s.rt.TotalEvents()), nil
}

func loggingInterceptor(logger logpkg.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			logpkg.Str("method", info.FullMethod),
			logpkg.Str("code", status.Code(err).String()),
			logpkg.Dur("elapsed", time.Since(start)),
		)
		return resp, err
	}
}
