// Package transports provides pluggable transport implementations for the CLI.
package transports

import "context"

// GreeterTransport is the set of greeter calls the CLI issues against a
// running server.
type GreeterTransport interface {
	// Greet records name and returns the greeting message.
	Greet(ctx context.Context, name string) (string, error)
	// GreetedCount returns how many times name was greeted.
	GreetedCount(ctx context.Context, name string) (uint64, error)
	// TotalGreetedNames returns the number of distinct greeted names.
	TotalGreetedNames(ctx context.Context) (uint64, error)
	// TotalEvents returns the number of recorded events.
	TotalEvents(ctx context.Context) (uint64, error)
}
