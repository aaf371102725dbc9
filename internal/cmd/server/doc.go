// Package serverrun exposes a shared Run entrypoint used by the CLI to start
// the tally runtime with gRPC and HTTP servers, handling lifecycle and shutdown.
//
// Example:
//
//	opts := serverrun.Options{Config: config.Default(), Version: "v0.1.0"}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	if err := serverrun.Run(ctx, opts); err != nil {
//	    os.Exit(1)
//	}
package serverrun
