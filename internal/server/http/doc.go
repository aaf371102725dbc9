// Package httpserver provides the REST gateway for tally: the greet action,
// count queries, event browsing, and the operator endpoints /metrics,
// /dashboard and /logs.
//
// Example:
//
//	s, err := httpserver.New(rt, logger, httpserver.WithLogRing(ring))
//	if err != nil { ... }
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
