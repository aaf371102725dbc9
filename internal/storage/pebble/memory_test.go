package pebblestore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rzbill/tally/internal/stable"
)

func TestMemoryGrowReadWrite(t *testing.T) {
	db, _ := newTestDB(t)
	mem, err := OpenMemory(db, "m", 0)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if mem.Size() != 0 {
		t.Fatalf("fresh memory size %d", mem.Size())
	}
	if prev, err := mem.Grow(2); err != nil || prev != 0 {
		t.Fatalf("grow: prev=%d err=%v", prev, err)
	}

	// untouched bytes read as zero
	zero := make([]byte, 16)
	if err := mem.ReadAt(zero, stable.PageSize+7); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(zero, make([]byte, 16)) {
		t.Fatalf("expected zeroes, got %v", zero)
	}

	// straddle a chunk boundary
	src := bytes.Repeat([]byte("ab"), chunkSize)
	off := uint64(chunkSize - 3)
	if err := mem.WriteAt(src, off); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := make([]byte, len(src))
	if err := mem.ReadAt(got, off); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("roundtrip mismatch")
	}
	// neighbouring bytes are untouched
	edge := make([]byte, 3)
	if err := mem.ReadAt(edge, 0); err != nil {
		t.Fatalf("read edge: %v", err)
	}
	if !bytes.Equal(edge, []byte{0, 0, 0}) {
		t.Fatalf("partial write clobbered neighbours: %v", edge)
	}
}

func TestMemoryDurableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{DataDir: dir, Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	mem, err := OpenMemory(db, "m", 0)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, err := mem.Grow(1); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if err := mem.WriteAt([]byte("persisted"), 42); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := Open(Options{DataDir: dir, Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen pebble: %v", err)
	}
	t.Cleanup(func() { _ = db2.Close() })
	mem2, err := OpenMemory(db2, "m", 0)
	if err != nil {
		t.Fatalf("reopen memory: %v", err)
	}
	if mem2.Size() != 1 {
		t.Fatalf("size not restored: %d", mem2.Size())
	}
	got := make([]byte, 9)
	if err := mem2.ReadAt(got, 42); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("got %q", got)
	}
}

func TestMemoryGrowLimit(t *testing.T) {
	db, _ := newTestDB(t)
	mem, err := OpenMemory(db, "m", 1)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, err := mem.Grow(1); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if _, err := mem.Grow(1); !errors.Is(err, stable.ErrGrowFailed) {
		t.Fatalf("want ErrGrowFailed, got %v", err)
	}
	if err := mem.WriteAt([]byte{1}, stable.PageSize); !errors.Is(err, stable.ErrOutOfBounds) {
		t.Fatalf("want ErrOutOfBounds, got %v", err)
	}
}

func TestMemoryBacksManager(t *testing.T) {
	db, _ := newTestDB(t)
	mem, err := OpenMemory(db, "m", 0)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	mgr, err := stable.InitWithBucketSize(mem, 1)
	if err != nil {
		t.Fatalf("init manager: %v", err)
	}
	v := mgr.Get(stable.NewMemoryID(1))
	if _, err := v.Grow(1); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if err := v.WriteAt([]byte("region"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}

	again, err := OpenMemory(db, "m", 0)
	if err != nil {
		t.Fatalf("reopen memory: %v", err)
	}
	mgr2, err := stable.Init(again)
	if err != nil {
		t.Fatalf("reinit manager: %v", err)
	}
	got := make([]byte, 6)
	if err := mgr2.Get(stable.NewMemoryID(1)).ReadAt(got, 0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "region" {
		t.Fatalf("got %q", got)
	}
}
