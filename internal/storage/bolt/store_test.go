package boltstore

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rzbill/tally/internal/stable"
)

func openTestMemory(t *testing.T, path string, maxPages uint64) *Memory {
	t.Helper()
	m, err := Open(path, maxPages)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return m
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  ", 0); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestMemoryRoundtripAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.db")
	m := openTestMemory(t, path, 0)
	if _, err := m.Grow(1); err != nil {
		t.Fatalf("grow: %v", err)
	}
	src := bytes.Repeat([]byte{7}, chunkSize+10)
	if err := m.WriteAt(src, 5); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	m2 := openTestMemory(t, path, 0)
	t.Cleanup(func() { _ = m2.Close() })
	if m2.Size() != 1 {
		t.Fatalf("size not restored: %d", m2.Size())
	}
	got := make([]byte, len(src)+10)
	if err := m2.ReadAt(got, 0); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := append(append(make([]byte, 5), src...), make([]byte, 5)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("contents differ after reopen")
	}
}

func TestMemoryLimits(t *testing.T) {
	m := openTestMemory(t, filepath.Join(t.TempDir(), "tally.db"), 1)
	t.Cleanup(func() { _ = m.Close() })
	if err := m.ReadAt(make([]byte, 1), 0); !errors.Is(err, stable.ErrOutOfBounds) {
		t.Fatalf("want ErrOutOfBounds, got %v", err)
	}
	if _, err := m.Grow(2); !errors.Is(err, stable.ErrGrowFailed) {
		t.Fatalf("want ErrGrowFailed, got %v", err)
	}
}
