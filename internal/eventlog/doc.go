// Package eventlog implements tally's durable append-only event log.
//
// # Overview
//
// A Log lives in two regions of a stable.Manager: an index region of fixed
// 16-byte entries (offset, length, crc32c) and a data region of raw record
// bytes. Fixed-size entries make any record reachable in O(1) by sequence
// number even though replay only needs a forward scan.
//
// Records are immutable once appended. Sequence numbers are 0, 1, 2, ... in
// append order. There is no delete, trim, or compaction.
//
// API surface (internal)
//
//	mgr, _ := stable.Init(backing)
//	l, err := eventlog.Init(mgr.Get(stable.NewMemoryID(0)), mgr.Get(stable.NewMemoryID(1)))
//	if err != nil { /* ErrCorrupt: refuse to start */ }
//
//	seq, _ := l.Append(ctx, []byte("alice"))
//	rec, _ := l.Get(seq)
//
//	// Full forward scan
//	it := l.Iter()
//	for it.Next() { _ = it.Value() }
//
//	// Paged reads with an optional CEL filter
//	f, _ := eventlog.NewFilter(`text.startsWith("a")`)
//	items, next, _ := l.Read(eventlog.ReadOptions{Limit: 100, Filter: f})
//	_ = next // resume position
//
// # Durability
//
// Append writes the record bytes, then the index entry, then the index
// header's used-byte counter. The counter is the commit point: a crash before
// it leaves the previous length in place and the orphaned bytes are
// overwritten by the next append.
package eventlog
