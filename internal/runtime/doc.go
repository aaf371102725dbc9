// Package runtime wires the configured page store, the memory manager, the
// event log and the process state into a single-node tally instance.
//
// Example:
//
//	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
//	if err != nil { ... }
//	defer rt.Close()
//	arg, _ := rt.ArgFor(cfg.Mode, cfg.Greeting)
//	if err := rt.Start(arg); err != nil { ... } // fatal
//	msg, err := rt.Greet(ctx, "Ada")
package runtime
