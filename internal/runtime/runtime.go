package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rzbill/tally/internal/audit"
	cfgpkg "github.com/rzbill/tally/internal/config"
	"github.com/rzbill/tally/internal/eventlog"
	"github.com/rzbill/tally/internal/lifecycle"
	"github.com/rzbill/tally/internal/metrics"
	"github.com/rzbill/tally/internal/stable"
	"github.com/rzbill/tally/internal/state"
	boltstore "github.com/rzbill/tally/internal/storage/bolt"
	pebblestore "github.com/rzbill/tally/internal/storage/pebble"
	logpkg "github.com/rzbill/tally/pkg/log"
)

// Fixed region ids inside the paged memory.
var (
	IndexMemoryID = stable.NewMemoryID(0)
	DataMemoryID  = stable.NewMemoryID(1)
)

// ErrNotStarted is returned by CheckHealth before Start succeeded.
var ErrNotStarted = errors.New("runtime: not started")

const (
	pebbleMemoryName = "stable"
	boltFileName     = "tally.db"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
	// Memory overrides the configured backend. Used by tests to reattach the
	// same in-memory bytes across restarts.
	Memory stable.Memory
}

// Runtime wires storage, the event log, and the process state for a
// single-node instance.
type Runtime struct {
	config  cfgpkg.Config
	logger  logpkg.Logger
	db      *pebblestore.DB
	bolt    *boltstore.Memory
	backing stable.Memory
	mgr     *stable.Manager
	log     *eventlog.Log
	rec     *audit.Recorder
	holder  state.Holder

	counters  *metrics.StorageCounters
	fresh     bool
	startMode string
}

// Open initializes the backing store, the memory manager and the event log.
// The state is not usable until Start.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
	}
	rt := &Runtime{
		config:   opts.Config,
		logger:   logger.With(logpkg.Component("runtime")),
		counters: &metrics.StorageCounters{},
	}
	if err := rt.openBacking(opts.Memory); err != nil {
		return nil, err
	}

	bucketSize := opts.Config.BucketSizePages
	if bucketSize == 0 {
		bucketSize = stable.DefaultBucketSize
	}
	mgr, err := stable.InitWithBucketSize(rt.backing, bucketSize)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("init memory manager: %w", err)
	}
	rt.mgr = mgr
	l, err := eventlog.Init(mgr.Get(IndexMemoryID), mgr.Get(DataMemoryID))
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("init event log: %w", err)
	}
	rt.log = l
	rt.fresh = l.Created()
	rt.rec = audit.NewRecorder(l, logger)
	rt.logger.Info("storage attached",
		logpkg.Str("backend", rt.backendName()),
		logpkg.Bool("fresh", rt.fresh),
		logpkg.Uint64("events", l.Len()),
	)
	return rt, nil
}

func (r *Runtime) openBacking(override stable.Memory) error {
	if override != nil {
		r.backing = override
		return nil
	}
	cfg := r.config
	switch cfg.Backend {
	case cfgpkg.BackendMemory:
		r.backing = stable.NewVectorMemory(cfg.MaxPages)
	case cfgpkg.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		m, err := boltstore.Open(filepath.Join(cfg.DataDir, boltFileName), cfg.MaxPages)
		if err != nil {
			return err
		}
		r.bolt = m
		r.backing = m
	case cfgpkg.BackendPebble, "":
		fsync, err := pebblestore.ParseFsyncMode(cfg.Fsync)
		if err != nil {
			return err
		}
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir:       cfg.DataDir,
			Fsync:         fsync,
			FsyncInterval: cfg.FsyncInterval,
			Metrics:       r.counters,
		})
		if err != nil {
			return fmt.Errorf("open pebble: %w", err)
		}
		m, err := pebblestore.OpenMemory(db, pebbleMemoryName, cfg.MaxPages)
		if err != nil {
			_ = db.Close()
			return err
		}
		r.db = db
		r.backing = m
		if fsync != pebblestore.FsyncModeAlways {
			r.logger.Warn("durability relaxed: recent events may be lost on a crash",
				logpkg.Str("fsync", cfg.Fsync))
		}
	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return nil
}

func (r *Runtime) backendName() string {
	switch {
	case r.db != nil:
		return cfgpkg.BackendPebble
	case r.bolt != nil:
		return cfgpkg.BackendBolt
	default:
		return cfgpkg.BackendMemory
	}
}

// Fresh reports whether the store held no committed event log when opened,
// either because it was empty or because its creation was interrupted.
func (r *Runtime) Fresh() bool { return r.fresh }

// ArgFor builds the start argument for mode. Auto picks the variant that
// matches the store; init and upgrade are taken literally and are checked by
// Start.
func (r *Runtime) ArgFor(mode, greeting string) (lifecycle.Arg, error) {
	switch mode {
	case cfgpkg.ModeAuto, "":
		return lifecycle.ForStore(r.fresh, greeting), nil
	case cfgpkg.ModeInit:
		return lifecycle.InitArg{Greeting: greeting}, nil
	case cfgpkg.ModeUpgrade:
		return lifecycle.UpgradeArg{Greeting: greeting}, nil
	default:
		return nil, fmt.Errorf("unknown start mode %q", mode)
	}
}

// Start builds the process state from arg and installs it. A fresh store runs
// the init hook; a populated one replays the log. Any error is fatal to the
// process and leaves the state uninitialized.
func (r *Runtime) Start(arg lifecycle.Arg) error {
	var (
		s   *state.State
		err error
	)
	if r.fresh {
		s, err = lifecycle.BuildFromConfig(arg)
	} else {
		s, err = lifecycle.RebuildFromLog(arg, r.rec)
	}
	if err != nil {
		r.logger.Error("start failed", logpkg.Err(err), logpkg.Str("arg", lifecycle.Kind(arg)))
		return err
	}
	r.holder.Initialize(s)
	if r.fresh {
		r.startMode = "init"
		r.logger.Info("init", logpkg.Str("greeting", s.Greeting))
	} else {
		r.startMode = "upgrade"
		r.logger.Info("post_upgrade",
			logpkg.Str("greeting", s.Greeting),
			logpkg.Uint64("replayed_events", r.rec.TotalCount()),
			logpkg.Int("distinct_names", len(s.GreetedNamesCount)),
		)
	}
	return nil
}

// StartMode returns "init" or "upgrade" once started, empty before.
func (r *Runtime) StartMode() string { return r.startMode }

// RecordAndIncrement appends key to the event log and, only if that succeeds,
// bumps its cached count. Both happen under the state lock so no other action
// observes one without the other.
func (r *Runtime) RecordAndIncrement(ctx context.Context, key string) error {
	return state.Mutate(&r.holder, func(s *state.State) error {
		if err := r.rec.Record(ctx, key); err != nil {
			return err
		}
		s.GreetedNamesCount[key]++
		return nil
	})
}

// Greet records name and returns "<greeting>, <name>!".
func (r *Runtime) Greet(ctx context.Context, name string) (string, error) {
	if err := r.RecordAndIncrement(ctx, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, %s!", r.Greeting(), name), nil
}

// TotalDistinctKeys returns the number of distinct names greeted so far.
func (r *Runtime) TotalDistinctKeys() uint64 {
	return state.Read(&r.holder, func(s *state.State) uint64 { return uint64(len(s.GreetedNamesCount)) })
}

// CountFor returns how many times key was greeted.
func (r *Runtime) CountFor(key string) uint64 {
	return state.Read(&r.holder, func(s *state.State) uint64 { return s.GreetedNamesCount[key] })
}

// Greeting returns the configured greeting.
func (r *Runtime) Greeting() string {
	return state.Read(&r.holder, func(s *state.State) string { return s.Greeting })
}

// NameCount is one row of Counts.
type NameCount struct {
	Name  string
	Count uint64
}

// Counts returns every greeted name with its count, most greeted first and
// ties broken by name.
func (r *Runtime) Counts() []NameCount {
	out := state.Read(&r.holder, func(s *state.State) []NameCount {
		rows := make([]NameCount, 0, len(s.GreetedNamesCount))
		for k, v := range s.GreetedNamesCount {
			rows = append(rows, NameCount{Name: k, Count: v})
		}
		return rows
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TotalEvents returns the number of events in the log.
func (r *Runtime) TotalEvents() uint64 { return r.rec.TotalCount() }

// Events pages through the log.
func (r *Runtime) Events(opts eventlog.ReadOptions) ([]eventlog.Item, eventlog.Token, error) {
	return r.log.Read(opts)
}

// Recorder exposes the event recorder.
func (r *Runtime) Recorder() *audit.Recorder { return r.rec }

// StableMemoryPages returns the size of the backing memory in pages.
func (r *Runtime) StableMemoryPages() uint64 { return r.backing.Size() }

// MetricsSnapshot gathers the values reported on /metrics.
func (r *Runtime) MetricsSnapshot(version string) metrics.Snapshot {
	snap := metrics.Snapshot{
		Version:           version,
		StartMode:         r.startMode,
		StableMemoryPages: r.StableMemoryPages(),
		PageSize:          stable.PageSize,
		EventLogRecords:   r.TotalEvents(),
	}
	if r.holder.Initialized() {
		snap.DistinctNames = r.TotalDistinctKeys()
	}
	if r.db != nil {
		s := r.counters.Snapshot()
		snap.Storage = &s
	}
	return snap
}

// CheckHealth reports whether the runtime is started and its store reachable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.holder.Initialized() {
		return ErrNotStarted
	}
	if r.db != nil {
		it, err := r.db.NewIter(nil)
		if err != nil {
			return err
		}
		return it.Close()
	}
	return nil
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Close closes underlying resources.
func (r *Runtime) Close() error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	if r.bolt != nil {
		errs = append(errs, r.bolt.Close())
		r.bolt = nil
	}
	return errors.Join(errs...)
}
