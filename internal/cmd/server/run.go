package serverrun

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/tally/internal/config"
	"github.com/rzbill/tally/internal/runtime"
	grpcserver "github.com/rzbill/tally/internal/server/grpc"
	httpserver "github.com/rzbill/tally/internal/server/http"
	logpkg "github.com/rzbill/tally/pkg/log"
)

// Options configures Run.
type Options struct {
	Config  cfgpkg.Config
	Version string
	// Ready, when set, is called with the bound addresses once both listeners
	// are accepting connections.
	Ready func(httpAddr, grpcAddr string)
}

// NewLogger builds the process logger from cfg. The returned ring holds the
// recent entries served on /logs.
func NewLogger(cfg cfgpkg.LogConfig) (logpkg.Logger, *logpkg.RingOutput, error) {
	ring := logpkg.NewRingOutput(cfg.BufferSize)
	logger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:   cfg.Level,
		Format:  cfg.Format,
		Outputs: []logpkg.Output{ring},
	})
	if err != nil {
		return nil, nil, err
	}
	return logger, ring, nil
}

// Run opens the store, builds the process state for the configured start
// mode, and serves gRPC and HTTP until ctx is cancelled. Any failure before
// the servers start (corrupt store, mismatched start argument, blank
// greeting) is returned and the process should exit.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	logger, ring, err := NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	restore := logpkg.RedirectStdLog(logger)
	defer restore()

	rtCfg := cfg
	rtCfg.DataDir = cfgpkg.StoreDir(cfg.DataDir)
	rt, err := runtime.Open(runtime.Options{Config: rtCfg, Logger: logger})
	if err != nil {
		logger.Error("open runtime failed", logpkg.Err(err))
		return err
	}
	defer rt.Close()

	arg, err := rt.ArgFor(cfg.Mode, cfg.Greeting)
	if err != nil {
		return err
	}
	if err := rt.Start(arg); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	hl, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	gl, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = hl.Close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	logger.Info("Starting tally server",
		logpkg.Str("version", version),
		logpkg.Str("grpc", gl.Addr().String()),
		logpkg.Str("http", hl.Addr().String()),
		logpkg.Str("backend", cfg.Backend),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Str("mode", rt.StartMode()),
	)

	hsrv, err := httpserver.New(rt, logger, httpserver.WithLogRing(ring), httpserver.WithVersion(version))
	if err != nil {
		_ = hl.Close()
		_ = gl.Close()
		return err
	}
	gsrv := grpcserver.New(rt, logger)

	sctx, cancel := context.WithCancel(sctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := gsrv.Serve(sctx, gl); err != nil && sctx.Err() == nil {
			logger.Error("grpc server stopped", logpkg.Err(err))
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		if err := hsrv.Serve(sctx, hl); err != nil && sctx.Err() == nil {
			logger.Error("http server stopped", logpkg.Err(err))
			cancel()
		}
	}()

	if opts.Ready != nil {
		opts.Ready(hl.Addr().String(), gl.Addr().String())
	}

	<-sctx.Done()
	wg.Wait()
	logger.Info("tally server stopped")
	return nil
}
