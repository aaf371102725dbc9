// Package boltstore provides a stable.Memory persisted in a single BoltDB
// file. It is an alternative to the Pebble backend for deployments that
// prefer one file and a copy-on-write B+tree over an LSM.
package boltstore

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/tally/internal/stable"
	"go.etcd.io/bbolt"
)

const (
	metaBucket  = "meta"
	chunkBucket = "chunks"
	sizeKey     = "size"

	// chunkSize matches the Pebble backend so both stores split pages identically.
	chunkSize = 4096
)

// Memory is a stable.Memory backed by BoltDB. Every WriteAt and Grow runs in
// its own read-write transaction, which Bolt fsyncs on commit.
type Memory struct {
	db       *bbolt.DB
	maxPages uint64

	mu   sync.Mutex
	size uint64
}

var _ stable.Memory = (*Memory)(nil)

// Open opens or creates the Bolt file at path. maxPages of zero means unbounded.
func Open(path string, maxPages uint64) (*Memory, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	m := &Memory{db: db, maxPages: maxPages}
	if err := m.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := m.loadSize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the underlying BoltDB database.
func (m *Memory) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *Memory) ensureBuckets() error {
	return m.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{metaBucket, chunkBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func (m *Memory) loadSize() error {
	return m.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(metaBucket)).Get([]byte(sizeKey))
		if raw == nil {
			return nil
		}
		if len(raw) != 8 {
			return fmt.Errorf("size key has %d bytes", len(raw))
		}
		m.size = binary.BigEndian.Uint64(raw)
		return nil
	})
}

// Size implements stable.Memory.
func (m *Memory) Size() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Grow implements stable.Memory.
func (m *Memory) Grow(pages uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.size
	next := prev + pages
	if next < prev || (m.maxPages > 0 && next > m.maxPages) {
		return prev, fmt.Errorf("%w: want %d pages, limit %d", stable.ErrGrowFailed, next, m.maxPages)
	}
	err := m.db.Update(func(tx *bbolt.Tx) error {
		var v [8]byte
		binary.BigEndian.PutUint64(v[:], next)
		return tx.Bucket([]byte(metaBucket)).Put([]byte(sizeKey), v[:])
	})
	if err != nil {
		return prev, fmt.Errorf("%w: %w", stable.ErrGrowFailed, err)
	}
	m.size = next
	return prev, nil
}

// ReadAt implements stable.Memory.
func (m *Memory) ReadAt(dst []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := stable.CheckBounds(m.size, offset, len(dst)); err != nil {
		return err
	}
	return m.db.View(func(tx *bbolt.Tx) error {
		chunks := tx.Bucket([]byte(chunkBucket))
		return forEachChunk(offset, len(dst), func(chunk uint64, within, lo, hi int) error {
			if cur := chunks.Get(chunkKey(chunk)); cur != nil {
				copy(dst[lo:hi], cur[within:])
				return nil
			}
			clear(dst[lo:hi])
			return nil
		})
	})
}

// WriteAt implements stable.Memory.
func (m *Memory) WriteAt(src []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := stable.CheckBounds(m.size, offset, len(src)); err != nil {
		return err
	}
	return m.db.Update(func(tx *bbolt.Tx) error {
		chunks := tx.Bucket([]byte(chunkBucket))
		return forEachChunk(offset, len(src), func(chunk uint64, within, lo, hi int) error {
			buf := make([]byte, chunkSize)
			// Values returned by Get are only valid for the transaction; copy first.
			if cur := chunks.Get(chunkKey(chunk)); cur != nil {
				copy(buf, cur)
			}
			copy(buf[within:], src[lo:hi])
			return chunks.Put(chunkKey(chunk), buf)
		})
	})
}

func chunkKey(chunk uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], chunk)
	return k[:]
}

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
