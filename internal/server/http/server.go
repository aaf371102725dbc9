package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rzbill/tally/internal/runtime"
	"github.com/rzbill/tally/internal/server/http/controllers"
	"github.com/rzbill/tally/internal/ui"
	"github.com/rzbill/tally/pkg/id"
	logpkg "github.com/rzbill/tally/pkg/log"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// Option configures a Server.
type Option func(*Server)

// WithLogRing serves the ring's entries on /logs.
func WithLogRing(ring *logpkg.RingOutput) Option {
	return func(s *Server) { s.ring = ring }
}

// WithVersion sets the version reported on /metrics.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// Server is the REST gateway over a started runtime.
type Server struct {
	rt      *runtime.Runtime
	srv     *http.Server
	lis     net.Listener
	logger  logpkg.Logger
	ring    *logpkg.RingOutput
	version string
	ids     *id.Generator
}

// New builds the server and its routes. It fails only if the embedded
// dashboard template cannot be parsed.
func New(rt *runtime.Runtime, logger logpkg.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
	}
	s := &Server{
		rt:      rt,
		logger:  logger.With(logpkg.Component("http")),
		version: "dev",
		ids:     id.NewGenerator(),
	}
	for _, o := range opts {
		o(s)
	}
	renderer, err := ui.NewRenderer()
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, s.logger, s.ring, renderer, s.version).RegisterAllRoutes(mux)
	s.srv = &http.Server{
		Handler:           s.requestID(cors(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logpkg.ToStdLogger(s.logger, logpkg.WarnLevel),
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Close closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestID tags each request with an id (reusing a client-provided one),
// echoes it on the response and logs the request at debug level.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = s.ids.Next().String()
		}
		w.Header().Set(RequestIDHeader, rid)
		ctx := context.WithValue(r.Context(), logpkg.RequestIDKey, rid)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		s.logger.WithContext(ctx).Debug("http request",
			logpkg.Str("method", r.Method),
			logpkg.Str("path", r.URL.Path),
			logpkg.Int("status", rec.status),
			logpkg.Dur("elapsed", time.Since(start)),
		)
	})
}
