package eventlog

import (
	"context"
	"fmt"
	"testing"
)

func seedLog(t *testing.T, n int) *Log {
	t.Helper()
	l, _ := newTestLog(t)
	for i := 0; i < n; i++ {
		appendAll(t, l, fmt.Sprintf("p%d", i))
	}
	return l
}

func seqsOf(items []Item) []uint64 {
	out := make([]uint64, len(items))
	for i, it := range items {
		out[i] = it.Seq
	}
	return out
}

func TestReadForward(t *testing.T) {
	l := seedLog(t, 5)
	items, next, err := l.Read(ReadOptions{Limit: 3})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if fmt.Sprint(seqsOf(items)) != "[0 1 2]" {
		t.Fatalf("unexpected seqs %v", seqsOf(items))
	}
	if next.IsZero() || next.Seq() != 3 {
		t.Fatalf("want next token at 3, got %v", next)
	}
	rest, next2, err := l.Read(ReadOptions{Start: next, Limit: 10})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if fmt.Sprint(seqsOf(rest)) != "[3 4]" {
		t.Fatalf("unexpected seqs %v", seqsOf(rest))
	}
	if !next2.IsZero() {
		t.Fatalf("exhausted scan should return zero token")
	}
}

func TestReadReverse(t *testing.T) {
	l := seedLog(t, 5)
	items, next, err := l.Read(ReadOptions{Limit: 2, Reverse: true})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if fmt.Sprint(seqsOf(items)) != "[4 3]" {
		t.Fatalf("unexpected seqs %v", seqsOf(items))
	}
	rest, _, err := l.Read(ReadOptions{Start: next, Reverse: true})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if fmt.Sprint(seqsOf(rest)) != "[2 1 0]" {
		t.Fatalf("unexpected seqs %v", seqsOf(rest))
	}
}

func TestReadFromSeqZeroToken(t *testing.T) {
	l := seedLog(t, 2)
	items, _, err := l.Read(ReadOptions{Start: TokenFromSeq(0)})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) != 2 || string(items[0].Payload) != "p0" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestReadEmptyLog(t *testing.T) {
	l, _ := newTestLog(t)
	items, next, err := l.Read(ReadOptions{Limit: 5, Reverse: true})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) != 0 || !next.IsZero() {
		t.Fatalf("expected nothing, got %d items", len(items))
	}
}

func TestReadWithFilter(t *testing.T) {
	l, _ := newTestLog(t)
	appendAll(t, l, "alice", "bob", "anna", "carl")
	f, err := NewFilter(`text.startsWith("a")`)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	items, _, err := l.Read(ReadOptions{Filter: f})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if fmt.Sprint(seqsOf(items)) != "[0 2]" {
		t.Fatalf("unexpected seqs %v", seqsOf(items))
	}
}

func TestReadStopsAfterMaxScan(t *testing.T) {
	l := seedLog(t, 10)
	none, err := NewFilter(`text == "nobody"`)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	var pages int
	opts := ReadOptions{Filter: none, Limit: 5, MaxScan: 3}
	for {
		items, next, err := l.Read(opts)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(items) != 0 {
			t.Fatalf("expected no matches, got %v", seqsOf(items))
		}
		pages++
		if next.IsZero() {
			break
		}
		if want := uint64(3 * pages); next.Seq() != want {
			t.Fatalf("page %d: next at %d, want %d", pages, next.Seq(), want)
		}
		opts.Start = next
	}
	if pages != 4 {
		t.Fatalf("want 4 pages over 10 records, got %d", pages)
	}

	rev, next, err := l.Read(ReadOptions{Filter: none, Reverse: true, MaxScan: 4})
	if err != nil {
		t.Fatalf("read reverse: %v", err)
	}
	if len(rev) != 0 || next.Seq() != 5 {
		t.Fatalf("reverse: items=%v next=%d", seqsOf(rev), next.Seq())
	}

	all, next, err := l.Read(ReadOptions{Filter: none, MaxScan: -1})
	if err != nil || len(all) != 0 || !next.IsZero() {
		t.Fatalf("unbounded scan: items=%d next=%v err=%v", len(all), next, err)
	}
}

func TestReadDoesNotBlockAppends(t *testing.T) {
	l := seedLog(t, 200)
	done := make(chan error, 1)
	go func() {
		for i := 0; i < 50; i++ {
			if _, err := l.Append(context.Background(), []byte("late")); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	for i := 0; i < 20; i++ {
		items, _, err := l.Read(ReadOptions{MaxScan: -1})
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(items) < 200 {
			t.Fatalf("read saw %d records, want at least 200", len(items))
		}
		for j, it := range items {
			if it.Seq != uint64(j) {
				t.Fatalf("item %d has seq %d", j, it.Seq)
			}
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("append: %v", err)
	}
	if l.Len() != 250 {
		t.Fatalf("len = %d", l.Len())
	}
}
