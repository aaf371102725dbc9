// Package tallyv1 defines the tally.v1.Greeter gRPC service. Messages are the
// protobuf well-known wrapper types, so no generated code is needed.
package tallyv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Full method names of the Greeter service.
const (
	ServiceName                                   = "tally.v1.Greeter"
	Greeter_Greet_FullMethodName                  = "/tally.v1.Greeter/Greet"
	Greeter_GreetedNameCount_FullMethodName       = "/tally.v1.Greeter/GreetedNameCount"
	Greeter_TotalGreetedNamesCount_FullMethodName = "/tally.v1.Greeter/TotalGreetedNamesCount"
	Greeter_TotalEventCount_FullMethodName        = "/tally.v1.Greeter/TotalEventCount"
)

// GreeterServer is the server API for the Greeter service.
type GreeterServer interface {
	// Greet records the name and returns "<greeting>, <name>!".
	Greet(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// GreetedNameCount returns how many times the name was greeted.
	GreetedNameCount(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error)
	// TotalGreetedNamesCount returns the number of distinct names greeted.
	TotalGreetedNamesCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error)
	// TotalEventCount returns the number of events in the log.
	TotalEventCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error)
}

// RegisterGreeterServer registers srv on s.
func RegisterGreeterServer(s grpc.ServiceRegistrar, srv GreeterServer) {
	s.RegisterService(&Greeter_ServiceDesc, srv)
}

func unary[Req any, Resp any](method string, call func(GreeterServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GreeterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GreeterServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Greeter_ServiceDesc is the grpc.ServiceDesc for the Greeter service.
var Greeter_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GreeterServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Greet",
			Handler: unary(Greeter_Greet_FullMethodName, func(s GreeterServer, ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
				return s.Greet(ctx, in)
			}),
		},
		{
			MethodName: "GreetedNameCount",
			Handler: unary(Greeter_GreetedNameCount_FullMethodName, func(s GreeterServer, ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
				return s.GreetedNameCount(ctx, in)
			}),
		},
		{
			MethodName: "TotalGreetedNamesCount",
			Handler: unary(Greeter_TotalGreetedNamesCount_FullMethodName, func(s GreeterServer, ctx context.Context, in *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
				return s.TotalGreetedNamesCount(ctx, in)
			}),
		},
		{
			MethodName: "TotalEventCount",
			Handler: unary(Greeter_TotalEventCount_FullMethodName, func(s GreeterServer, ctx context.Context, in *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
				return s.TotalEventCount(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tally/v1/greeter.proto",
}

// GreeterClient is the client API for the Greeter service.
type GreeterClient interface {
	Greet(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GreetedNameCount(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	TotalGreetedNamesCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	TotalEventCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
}

type greeterClient struct {
	cc grpc.ClientConnInterface
}

// NewGreeterClient returns a client over cc.
func NewGreeterClient(cc grpc.ClientConnInterface) GreeterClient {
	return &greeterClient{cc: cc}
}

func (c *greeterClient) Greet(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, Greeter_Greet_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *greeterClient) GreetedNameCount(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, Greeter_GreetedNameCount_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *greeterClient) TotalGreetedNamesCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, Greeter_TotalGreetedNamesCount_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *greeterClient) TotalEventCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, Greeter_TotalEventCount_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// UnimplementedGreeterServer can be embedded to satisfy GreeterServer.
type UnimplementedGreeterServer struct{}

func (UnimplementedGreeterServer) Greet(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, errUnimplemented("Greet")
}

func (UnimplementedGreeterServer) GreetedNameCount(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	return nil, errUnimplemented("GreetedNameCount")
}

func (UnimplementedGreeterServer) TotalGreetedNamesCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	return nil, errUnimplemented("TotalGreetedNamesCount")
}

func (UnimplementedGreeterServer) TotalEventCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	return nil, errUnimplemented("TotalEventCount")
}
