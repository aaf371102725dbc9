package pebblestore

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/rzbill/tally/internal/stable"
)

// chunkSize is the unit in which page bytes are stored; a page is split
// across stable.PageSize/chunkSize keys and untouched chunks are never written.
const chunkSize = 4096

var (
	memPrefix  = []byte("mem/")
	sizeSuffix = []byte("/size")
	chunkSeg   = []byte("/c/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyMemorySize builds the page-count key of a named memory.
func KeyMemorySize(name string) []byte {
	k := make([]byte, 0, len(memPrefix)+len(name)+len(sizeSuffix))
	k = append(k, memPrefix...)
	k = append(k, name...)
	k = append(k, sizeSuffix...)
	return k
}

// KeyMemoryChunk builds the key of one chunk with a big-endian index.
func KeyMemoryChunk(name string, chunk uint64) []byte {
	k := make([]byte, 0, len(memPrefix)+len(name)+len(chunkSeg)+8)
	k = append(k, memPrefix...)
	k = append(k, name...)
	k = append(k, chunkSeg...)
	k = appendBE8(k, chunk)
	return k
}

// PageMemory is a stable.Memory persisted in Pebble.
type PageMemory struct {
	db       *DB
	name     string
	maxPages uint64

	mu   sync.Mutex
	size uint64
}

var _ stable.Memory = (*PageMemory)(nil)

// OpenMemory attaches to the named memory, loading its size if present.
// maxPages of zero means unbounded.
func OpenMemory(db *DB, name string, maxPages uint64) (*PageMemory, error) {
	m := &PageMemory{db: db, name: name, maxPages: maxPages}
	raw, err := db.Get(KeyMemorySize(name))
	switch {
	case err == nil:
		if len(raw) != 8 {
			return nil, fmt.Errorf("pebble: memory %q: size key has %d bytes", name, len(raw))
		}
		m.size = binary.BigEndian.Uint64(raw)
	case IsNotFound(err):
	default:
		return nil, err
	}
	return m, nil
}

// Size implements stable.Memory.
func (m *PageMemory) Size() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Grow implements stable.Memory. Only the size key is written; new pages
// read as zeroes until touched.
func (m *PageMemory) Grow(pages uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.size
	next := prev + pages
	if next < prev || (m.maxPages > 0 && next > m.maxPages) {
		return prev, fmt.Errorf("%w: want %d pages, limit %d", stable.ErrGrowFailed, next, m.maxPages)
	}
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], next)
	if err := m.db.Set(KeyMemorySize(m.name), v[:]); err != nil {
		return prev, fmt.Errorf("%w: %w", stable.ErrGrowFailed, err)
	}
	m.size = next
	return prev, nil
}

// ReadAt implements stable.Memory.
func (m *PageMemory) ReadAt(dst []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := stable.CheckBounds(m.size, offset, len(dst)); err != nil {
		return err
	}
	return forEachChunk(offset, len(dst), func(chunk uint64, within, lo, hi int) error {
		buf, err := m.loadChunk(chunk)
		if err != nil {
			return err
		}
		copy(dst[lo:hi], buf[within:])
		return nil
	})
}

// WriteAt implements stable.Memory. All chunks touched by src are committed
// in a single batch.
func (m *PageMemory) WriteAt(src []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := stable.CheckBounds(m.size, offset, len(src)); err != nil {
		return err
	}
	b := m.db.NewBatch()
	defer b.Close()
	err := forEachChunk(offset, len(src), func(chunk uint64, within, lo, hi int) error {
		var buf []byte
		if within == 0 && hi-lo == chunkSize {
			buf = src[lo:hi]
		} else {
			cur, err := m.loadChunk(chunk)
			if err != nil {
				return err
			}
			copy(cur[within:], src[lo:hi])
			buf = cur
		}
		return b.Set(KeyMemoryChunk(m.name, chunk), buf, nil)
	})
	if err != nil {
		return err
	}
	return m.db.CommitBatch(context.Background(), b)
}

func (m *PageMemory) loadChunk(chunk uint64) ([]byte, error) {
	buf, err := m.db.Get(KeyMemoryChunk(m.name, chunk))
	if err != nil {
		if IsNotFound(err) {
			return make([]byte, chunkSize), nil
		}
		return nil, err
	}
	if len(buf) != chunkSize {
		return nil, fmt.Errorf("pebble: memory %q chunk %d has %d bytes", m.name, chunk, len(buf))
	}
	return buf, nil
}

// forEachChunk splits [offset, offset+n) on chunk boundaries.
func forEachChunk(offset uint64, n int, fn func(chunk uint64, within, lo, hi int) error) error {
	done := 0
	for done < n {
		chunk := offset / chunkSize
		within := int(offset % chunkSize)
		step := chunkSize - within
		if rem := n - done; rem < step {
			step = rem
		}
		if err := fn(chunk, within, done, done+step); err != nil {
			return err
		}
		done += step
		offset += uint64(step)
	}
	return nil
}
