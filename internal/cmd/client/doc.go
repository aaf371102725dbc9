// Package client provides the `tally` command-line client.
//
// The greeter commands talk to a running server over gRPC (default) or the
// JSON HTTP API. The log commands open a stopped server's store directly.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it
// defaults to http://127.0.0.1:8080 (TALLY_HTTP). The gRPC address is read
// from the TALLY_GRPC environment variable (default 127.0.0.1:50051).
//
// Usage
//
//	tally greet alice
//	tally count alice --transport http
//	tally total
//	tally total --events
//
//	# Offline inspection
//	tally log dump --data-dir ./data --limit 20 --reverse
//	tally log dump --data-dir ./data --filter 'text.startsWith("a")'
//	tally log replay --data-dir ./data
package client
