package stable

import (
	"errors"
	"fmt"
	"sync"
)

// PageSize is the unit in which every Memory grows.
const PageSize = 64 << 10

var (
	// ErrOutOfBounds is returned when a read or write touches bytes past Size.
	ErrOutOfBounds = errors.New("stable: access out of bounds")
	// ErrGrowFailed is returned when a memory cannot grow by the requested pages.
	ErrGrowFailed = errors.New("stable: grow failed")
)

// Memory is a growable, byte-addressable store measured in pages.
//
// A write is visible to every later read once WriteAt returns, and a
// reattached Memory observes every byte that was persisted. When a write is
// persisted depends on the implementation: VectorMemory never is, bbolt
// commits each write, and the pebble store syncs each write only under its
// "always" fsync mode.
type Memory interface {
	// Size returns the current size in pages.
	Size() uint64
	// Grow extends the memory by pages and returns the previous size.
	Grow(pages uint64) (uint64, error)
	// ReadAt fills dst with bytes starting at offset.
	ReadAt(dst []byte, offset uint64) error
	// WriteAt copies src into the memory starting at offset.
	WriteAt(src []byte, offset uint64) error
}

// CheckBounds reports ErrOutOfBounds if [offset, offset+n) exceeds sizePages.
func CheckBounds(sizePages, offset uint64, n int) error {
	end := offset + uint64(n)
	if end < offset || end > sizePages*PageSize {
		return fmt.Errorf("%w: offset=%d len=%d size=%d", ErrOutOfBounds, offset, n, sizePages*PageSize)
	}
	return nil
}

// VectorMemory is a volatile Memory backed by a byte slice. It is used by
// the "memory" backend and by tests that simulate a reattached store.
type VectorMemory struct {
	mu       sync.Mutex
	buf      []byte
	maxPages uint64
}

// NewVectorMemory returns an empty VectorMemory. maxPages of zero means unbounded.
func NewVectorMemory(maxPages uint64) *VectorMemory {
	return &VectorMemory{maxPages: maxPages}
}

// Size implements Memory.
func (m *VectorMemory) Size() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.buf)) / PageSize
}

// Grow implements Memory.
func (m *VectorMemory) Grow(pages uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := uint64(len(m.buf)) / PageSize
	if m.maxPages > 0 && prev+pages > m.maxPages {
		return prev, fmt.Errorf("%w: want %d pages, limit %d", ErrGrowFailed, prev+pages, m.maxPages)
	}
	m.buf = append(m.buf, make([]byte, pages*PageSize)...)
	return prev, nil
}

// ReadAt implements Memory.
func (m *VectorMemory) ReadAt(dst []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := CheckBounds(uint64(len(m.buf))/PageSize, offset, len(dst)); err != nil {
		return err
	}
	copy(dst, m.buf[offset:])
	return nil
}

// WriteAt implements Memory.
func (m *VectorMemory) WriteAt(src []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := CheckBounds(uint64(len(m.buf))/PageSize, offset, len(src)); err != nil {
		return err
	}
	copy(m.buf[offset:], src)
	return nil
}

// Bytes returns a copy of the raw contents.
func (m *VectorMemory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.buf...)
}

// VectorMemoryFrom wraps a copy of raw, padded with zeroes to a page boundary.
func VectorMemoryFrom(raw []byte) *VectorMemory {
	n := (uint64(len(raw)) + PageSize - 1) / PageSize
	buf := make([]byte, n*PageSize)
	copy(buf, raw)
	return &VectorMemory{buf: buf}
}
