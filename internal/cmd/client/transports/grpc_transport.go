package transports

import (
	"context"

	tallyv1 "github.com/rzbill/tally/api/tally/v1"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GrpcTransport implements GreeterTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli tallyv1.GreeterClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(tallyv1.NewGreeterClient(conn))
}

// Greet records a greeting via gRPC.
func (t *GrpcTransport) Greet(ctx context.Context, name string) (string, error) {
	var msg string
	err := t.withClient(ctx, func(cli tallyv1.GreeterClient) error {
		resp, err := cli.Greet(ctx, wrapperspb.String(name))
		if err != nil {
			return err
		}
		msg = resp.GetValue()
		return nil
	})
	return msg, err
}

// GreetedCount returns the per-name count via gRPC.
func (t *GrpcTransport) GreetedCount(ctx context.Context, name string) (uint64, error) {
	return t.count(ctx, func(cli tallyv1.GreeterClient) (*wrapperspb.UInt64Value, error) {
		return cli.GreetedNameCount(ctx, wrapperspb.String(name))
	})
}

// TotalGreetedNames returns the number of distinct names via gRPC.
func (t *GrpcTransport) TotalGreetedNames(ctx context.Context) (uint64, error) {
	return t.count(ctx, func(cli tallyv1.GreeterClient) (*wrapperspb.UInt64Value, error) {
		return cli.TotalGreetedNamesCount(ctx, &emptypb.Empty{})
	})
}

// TotalEvents returns the event log length via gRPC.
func (t *GrpcTransport) TotalEvents(ctx context.Context) (uint64, error) {
	return t.count(ctx, func(cli tallyv1.GreeterClient) (*wrapperspb.UInt64Value, error) {
		return cli.TotalEventCount(ctx, &emptypb.Empty{})
	})
}

func (t *GrpcTransport) count(ctx context.Context, call func(tallyv1.GreeterClient) (*wrapperspb.UInt64Value, error)) (uint64, error) {
	var n uint64
	err := t.withClient(ctx, func(cli tallyv1.GreeterClient) error {
		resp, err := call(cli)
		if err != nil {
			return err
		}
		n = resp.GetValue()
		return nil
	})
	return n, err
}
