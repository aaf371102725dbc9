package metrics

import (
	"sync/atomic"
	"time"
)

// StorageCounters accumulates storage activity. It satisfies the Pebble
// store's metrics hook and is safe for concurrent use.
type StorageCounters struct {
	reads        atomic.Uint64
	readBytes    atomic.Uint64
	writes       atomic.Uint64
	writeBytes   atomic.Uint64
	commits      atomic.Uint64
	commitOps    atomic.Uint64
	commitBytes  atomic.Uint64
	commitMicros atomic.Uint64
}

// ObserveWrite records a single key write.
func (c *StorageCounters) ObserveWrite(_ time.Duration, bytes int) {
	c.writes.Add(1)
	c.writeBytes.Add(uint64(bytes))
}

// ObserveRead records a single key read.
func (c *StorageCounters) ObserveRead(_ time.Duration, bytes int) {
	c.reads.Add(1)
	c.readBytes.Add(uint64(bytes))
}

// ObserveBatchCommit records one batch commit.
func (c *StorageCounters) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	c.commits.Add(1)
	c.commitOps.Add(uint64(numOps))
	c.commitBytes.Add(uint64(bytes))
	c.commitMicros.Add(uint64(elapsed.Microseconds()))
}

// StorageSnapshot is a point-in-time copy of StorageCounters.
type StorageSnapshot struct {
	Reads, ReadBytes                uint64
	Writes, WriteBytes              uint64
	Commits, CommitOps, CommitBytes uint64
	CommitMicros                    uint64
}

// Snapshot copies the current counter values.
func (c *StorageCounters) Snapshot() StorageSnapshot {
	return StorageSnapshot{
		Reads:        c.reads.Load(),
		ReadBytes:    c.readBytes.Load(),
		Writes:       c.writes.Load(),
		WriteBytes:   c.writeBytes.Load(),
		Commits:      c.commits.Load(),
		CommitOps:    c.commitOps.Load(),
		CommitBytes:  c.commitBytes.Load(),
		CommitMicros: c.commitMicros.Load(),
	}
}
