package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	transports "github.com/rzbill/tally/internal/cmd/client/transports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// grpcAddrFromEnv returns the gRPC server address from TALLY_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("TALLY_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPCContext dials the tally gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// getTransport picks the transport named by kind.
func getTransport(kind string, baseURL BaseURLFunc) (transports.GreeterTransport, error) {
	switch kind {
	case "", "grpc":
		return transports.NewGrpcTransport(dialGRPCContext), nil
	case "http":
		return transports.NewHTTPTransport(baseURL(), nil), nil
	default:
		return nil, fmt.Errorf("invalid --transport %q; use grpc|http", kind)
	}
}

// decodedPayload returns a map with seq and one of payload_json or payload_text.
// Greeting payloads are names, so they are almost always plain text.
func decodedPayload(seq uint64, payload []byte) map[string]any {
	out := map[string]any{"seq": seq}
	if len(payload) > 0 && (payload[0] == '{' || payload[0] == '[') {
		var v any
		if json.Unmarshal(payload, &v) == nil {
			out["payload_json"] = v
			return out
		}
	}
	if utf8.Valid(payload) {
		out["payload_text"] = string(payload)
		return out
	}
	out["payload_hex"] = fmt.Sprintf("%x", payload)
	return out
}
