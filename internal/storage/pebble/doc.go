// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// batches, and minimal metrics hooks, plus PageMemory: a stable.Memory whose
// pages live in Pebble as fixed-size chunks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	mem, err := pebblestore.OpenMemory(db, "main", 0)
//	if err != nil { /* handle */ }
//	mgr, err := stable.Init(mem)
//
// Keys:
//   - mem/{name}/size            (u64 BE page count)
//   - mem/{name}/c/{chunk_be8}   (4 KiB chunk; absent chunks read as zeroes)
package pebblestore
