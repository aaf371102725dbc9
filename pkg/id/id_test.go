package id

import (
	"testing"
	"time"
)

func fixedClock(ms *int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(*ms) }
}

func TestOrderingMonotonic(t *testing.T) {
	ms := int64(1000)
	g := &Generator{now: fixedClock(&ms)}
	a := g.Next()
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a<b")
	}
	if a.String() >= b.String() {
		t.Fatalf("string form must sort like bytes: %s >= %s", a, b)
	}
}

func TestClockRegressionGuard(t *testing.T) {
	ms := int64(1000)
	g := &Generator{now: fixedClock(&ms)}
	a := g.Next()
	ms = 900
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected b>a despite clock regression")
	}
}

func TestCounterWrapBorrowsNextMs(t *testing.T) {
	ms := int64(2000)
	g := &Generator{now: fixedClock(&ms), lastMs: 2000, counter: ^uint32(0)}
	prev := g.Next()
	if got := prev.Time().UnixMilli(); got != 2001 {
		t.Fatalf("time = %d, want 2001", got)
	}
	next := g.Next()
	if prev.Compare(next) >= 0 {
		t.Fatalf("expected increase after wrap")
	}
}

func TestParseRoundTrip(t *testing.T) {
	g := NewGenerator()
	want := g.Next()
	got, err := Parse(want.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, err := Parse("not-an-id"); err != ErrMalformed {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}
