// Package grpcserver hosts the gRPC server for tally, registering the
// tally.v1.Greeter service and the standard grpc.health.v1 service.
//
// Example:
//
//	s := grpcserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
