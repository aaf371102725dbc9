// Package stable provides paged, externally persisted memory and a manager
// that multiplexes one such memory into independently growable regions.
//
// # Layout
//
// The manager owns page 0 of the backing memory:
//
//	[0:3)     magic "TMM"
//	[3]       version (1)
//	[4:6)     allocated bucket count (u16 BE)
//	[6:8)     bucket size in pages (u16 BE)
//	[8:40)    reserved
//	[40:2080) 255 region sizes in pages (u64 BE)
//	[2080:..) bucket table, one owner id per bucket (0xFF = free)
//
// Buckets start at page 1. A region's address space is the concatenation of
// its buckets in allocation order, so regions grow without moving bytes and
// never overlap.
//
//	mgr, err := stable.Init(backing)
//	if err != nil { /* fatal: unrecognized layout */ }
//	index := mgr.Get(stable.NewMemoryID(0))
//	data := mgr.Get(stable.NewMemoryID(1))
package stable
