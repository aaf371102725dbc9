package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rzbill/tally/internal/audit"
	"github.com/rzbill/tally/internal/eventlog"
	"github.com/rzbill/tally/internal/stable"
	"github.com/rzbill/tally/internal/state"
)

func newRecorder(t *testing.T, payloads ...string) *audit.Recorder {
	t.Helper()
	mgr, err := stable.InitWithBucketSize(stable.NewVectorMemory(0), 1)
	if err != nil {
		t.Fatalf("init manager: %v", err)
	}
	l, err := eventlog.Init(mgr.Get(stable.NewMemoryID(0)), mgr.Get(stable.NewMemoryID(1)))
	if err != nil {
		t.Fatalf("init log: %v", err)
	}
	rec := audit.NewRecorder(l, nil)
	for _, p := range payloads {
		if err := rec.Record(context.Background(), p); err != nil {
			t.Fatalf("record %q: %v", p, err)
		}
	}
	return rec
}

func TestBuildFromConfig(t *testing.T) {
	s, err := BuildFromConfig(InitArg{Greeting: "Hello"})
	if err != nil {
		t.Fatalf("BuildFromConfig: %v", err)
	}
	if s.Greeting != "Hello" || len(s.GreetedNamesCount) != 0 {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestBuildFromConfigRejects(t *testing.T) {
	if _, err := BuildFromConfig(UpgradeArg{Greeting: "Hello"}); !errors.Is(err, ErrUpgradeArgOnInit) {
		t.Fatalf("want ErrUpgradeArgOnInit, got %v", err)
	}
	var ise *state.InvalidStateError
	if _, err := BuildFromConfig(InitArg{Greeting: "  "}); !errors.As(err, &ise) {
		t.Fatalf("want InvalidStateError, got %v", err)
	}
}

func TestRebuildFromLogReplays(t *testing.T) {
	rec := newRecorder(t, "a", "b", "a")
	s, err := RebuildFromLog(UpgradeArg{Greeting: "Hi"}, rec)
	if err != nil {
		t.Fatalf("RebuildFromLog: %v", err)
	}
	if s.Greeting != "Hi" {
		t.Fatalf("greeting = %q", s.Greeting)
	}
	want := map[string]uint64{"a": 2, "b": 1}
	if !reflect.DeepEqual(s.GreetedNamesCount, want) {
		t.Fatalf("counts = %v, want %v", s.GreetedNamesCount, want)
	}
}

func TestRebuildFromLogRejects(t *testing.T) {
	rec := newRecorder(t, "a")
	if _, err := RebuildFromLog(InitArg{Greeting: "Hi"}, rec); !errors.Is(err, ErrInitArgOnUpgrade) {
		t.Fatalf("want ErrInitArgOnUpgrade, got %v", err)
	}
	var ise *state.InvalidStateError
	if _, err := RebuildFromLog(UpgradeArg{Greeting: ""}, rec); !errors.As(err, &ise) {
		t.Fatalf("want InvalidStateError, got %v", err)
	}
}

func TestForStoreAndKind(t *testing.T) {
	if got := Kind(ForStore(true, "x")); got != "init" {
		t.Fatalf("fresh kind = %q", got)
	}
	if got := Kind(ForStore(false, "x")); got != "upgrade" {
		t.Fatalf("warm kind = %q", got)
	}
}
