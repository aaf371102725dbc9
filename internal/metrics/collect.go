package metrics

import (
	"io"
	"runtime"
)

// Snapshot is everything the /metrics page reports. The caller fills it from
// the running service; HeapBytes is filled by Encode when zero.
type Snapshot struct {
	Version           string
	StartMode         string
	StableMemoryPages uint64
	PageSize          uint64
	HeapBytes         uint64
	EventLogRecords   uint64
	DistinctNames     uint64
	Storage           *StorageSnapshot
}

// HeapBytes returns the bytes of heap currently obtained from the OS.
func HeapBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapSys
}

// Encode writes snap to w in the Prometheus text format.
func Encode(w io.Writer, nowMillis int64, snap Snapshot) error {
	if snap.HeapBytes == 0 {
		snap.HeapBytes = HeapBytes()
	}
	enc := NewEncoder(w, nowMillis)
	enc.GaugeVec("build_info", "Build information of this process.").
		Value([]Label{{"version", snap.Version}}, Uint32(1))
	enc.GaugeVec("process_start_mode", "How the current process obtained its state.").
		Value([]Label{{"mode", snap.StartMode}}, Uint32(1))
	enc.Gauge("stable_memory_bytes", Uint64(snap.StableMemoryPages*snap.PageSize),
		"Size of the stable memory allocated by this process.")
	enc.Gauge("heap_memory_bytes", Uint64(snap.HeapBytes),
		"Size of the heap memory allocated by this process.")
	enc.Gauge("event_log_records", Uint64(snap.EventLogRecords),
		"Number of events in the durable log.")
	enc.Gauge("greeted_names_distinct", Uint64(snap.DistinctNames),
		"Number of distinct names greeted so far.")
	if s := snap.Storage; s != nil {
		enc.CounterVec("storage_operations_total", "Storage operations by kind.").
			Value([]Label{{"op", "read"}}, Uint64(s.Reads)).
			Value([]Label{{"op", "write"}}, Uint64(s.Writes)).
			Value([]Label{{"op", "commit"}}, Uint64(s.Commits))
		enc.CounterVec("storage_bytes_total", "Storage bytes by kind.").
			Value([]Label{{"op", "read"}}, Uint64(s.ReadBytes)).
			Value([]Label{{"op", "write"}}, Uint64(s.WriteBytes)).
			Value([]Label{{"op", "commit"}}, Uint64(s.CommitBytes))
		enc.Counter("storage_commit_micros_total", Uint64(s.CommitMicros),
			"Cumulative batch commit latency in microseconds.")
	}
	return enc.Err()
}
