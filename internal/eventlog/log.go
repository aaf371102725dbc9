package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/rzbill/tally/internal/stable"
)

var (
	// ErrCorrupt is returned when region contents are present but not a
	// valid log. Callers must not start on top of a corrupt log.
	ErrCorrupt = errors.New("eventlog: corrupt log")
	// ErrNotFound is returned by Get for a sequence number past the end.
	ErrNotFound = errors.New("eventlog: record not found")
)

// Log is a durable append-only sequence of byte records kept in two stable
// memories: a fixed-size index and a raw data region.
type Log struct {
	index stable.Memory
	data  stable.Memory

	mu       sync.Mutex
	count    uint64
	dataTail uint64
	created  bool
}

// Init attaches to the index and data regions. Regions that never finished
// creation get a fresh log; regions holding a valid log are reopened with
// every record intact.
func Init(index, data stable.Memory) (*Log, error) {
	l := &Log{index: index, data: data}
	fresh, err := l.uncommitted()
	if err != nil {
		return nil, err
	}
	if fresh {
		if err := l.create(); err != nil {
			return nil, err
		}
		return l, nil
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Created reports whether Init created the log rather than reopening one.
func (l *Log) Created() bool { return l.created }

// uncommitted reports whether no log was ever committed to the regions. The
// index header is the commit marker and is written last, so a missing or
// zeroed index header means creation never finished. An index without
// entries over a missing data header holds nothing either.
func (l *Log) uncommitted() (bool, error) {
	ih, err := readHeader(l.index, "index")
	if err != nil {
		return false, err
	}
	if ih == nil {
		return true, nil
	}
	if err := checkHeader(ih, indexMagic, "index"); err != nil {
		return false, err
	}
	if binary.BigEndian.Uint64(ih[offUsedBytes:]) != 0 {
		return false, nil
	}
	dh, err := readHeader(l.data, "data")
	if err != nil {
		return false, err
	}
	return dh == nil, nil
}

// readHeader returns the header bytes of mem, or nil when the region is empty
// or its header was never written.
func readHeader(mem stable.Memory, region string) ([]byte, error) {
	if mem.Size() == 0 {
		return nil, nil
	}
	h := make([]byte, headerSize)
	if err := mem.ReadAt(h, 0); err != nil {
		return nil, fmt.Errorf("%w: read %s header: %w", ErrCorrupt, region, err)
	}
	for _, b := range h {
		if b != 0 {
			return h, nil
		}
	}
	return nil, nil
}

// create writes the data header, then the index header. Either step may be
// interrupted; uncommitted recognizes every intermediate state.
func (l *Log) create() error {
	for _, r := range []struct {
		mem   stable.Memory
		magic []byte
	}{{l.data, dataMagic}, {l.index, indexMagic}} {
		if r.mem.Size() == 0 {
			if _, err := r.mem.Grow(1); err != nil {
				return fmt.Errorf("eventlog: allocate header: %w", err)
			}
		}
		if err := r.mem.WriteAt(newHeader(r.magic), 0); err != nil {
			return fmt.Errorf("eventlog: write header: %w", err)
		}
	}
	l.created = true
	l.dataTail = headerSize
	return nil
}

func (l *Log) load() error {
	ih := make([]byte, headerSize)
	if err := l.index.ReadAt(ih, 0); err != nil {
		return fmt.Errorf("%w: read index header: %w", ErrCorrupt, err)
	}
	if err := checkHeader(ih, indexMagic, "index"); err != nil {
		return err
	}
	dh := make([]byte, headerSize)
	if err := l.data.ReadAt(dh, 0); err != nil {
		return fmt.Errorf("%w: read data header: %w", ErrCorrupt, err)
	}
	if err := checkHeader(dh, dataMagic, "data"); err != nil {
		return err
	}

	used := binary.BigEndian.Uint64(ih[offUsedBytes:])
	if used%indexEntryLen != 0 {
		return fmt.Errorf("%w: index holds %d bytes, not a multiple of %d", ErrCorrupt, used, indexEntryLen)
	}
	if headerSize+used > l.index.Size()*stable.PageSize {
		return fmt.Errorf("%w: index claims %d bytes beyond its region", ErrCorrupt, used)
	}
	l.count = used / indexEntryLen
	l.dataTail = headerSize
	if l.count == 0 {
		return nil
	}

	last, err := l.entry(l.count - 1)
	if err != nil {
		return fmt.Errorf("%w: read last entry: %w", ErrCorrupt, err)
	}
	if last.Offset < headerSize || last.end() > l.data.Size()*stable.PageSize {
		return fmt.Errorf("%w: last entry [%d,%d) outside data region", ErrCorrupt, last.Offset, last.end())
	}
	l.dataTail = last.end()
	return nil
}

// Append durably writes record and returns its sequence number. The record
// bytes and index entry are written first and the index header last, so a
// failure at any step leaves Len unchanged.
func (l *Log) Append(ctx context.Context, record []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if uint64(len(record)) > uint64(^uint32(0)) {
		return 0, fmt.Errorf("eventlog: record of %d bytes exceeds the entry length field", len(record))
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.count
	e := indexEntry{Offset: l.dataTail, Length: uint32(len(record)), CRC: checksum(record)}
	if err := ensureCapacity(l.data, e.end()); err != nil {
		return 0, fmt.Errorf("eventlog: grow data region: %w", err)
	}
	if err := ensureCapacity(l.index, entryOffset(seq+1)); err != nil {
		return 0, fmt.Errorf("eventlog: grow index region: %w", err)
	}
	if len(record) > 0 {
		if err := l.data.WriteAt(record, e.Offset); err != nil {
			return 0, fmt.Errorf("eventlog: write record: %w", err)
		}
	}
	enc := encodeEntry(e)
	if err := l.index.WriteAt(enc[:], entryOffset(seq)); err != nil {
		return 0, fmt.Errorf("eventlog: write index entry: %w", err)
	}
	var used [8]byte
	binary.BigEndian.PutUint64(used[:], (seq+1)*indexEntryLen)
	if err := l.index.WriteAt(used[:], offUsedBytes); err != nil {
		return 0, fmt.Errorf("eventlog: commit: %w", err)
	}
	l.count = seq + 1
	l.dataTail = e.end()
	return seq, nil
}

// Len returns the number of committed records.
func (l *Log) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Get returns the record at seq.
func (l *Log) Get(seq uint64) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(seq)
}

func (l *Log) get(seq uint64) ([]byte, error) {
	if seq >= l.count {
		return nil, fmt.Errorf("%w: seq=%d len=%d", ErrNotFound, seq, l.count)
	}
	e, err := l.entry(seq)
	if err != nil {
		return nil, err
	}
	if e.Offset < headerSize || e.end() > l.dataTail {
		return nil, fmt.Errorf("%w: entry %d points at [%d,%d)", ErrCorrupt, seq, e.Offset, e.end())
	}
	buf := make([]byte, e.Length)
	if err := l.data.ReadAt(buf, e.Offset); err != nil {
		return nil, err
	}
	if checksum(buf) != e.CRC {
		return nil, fmt.Errorf("%w: checksum mismatch at seq %d", ErrCorrupt, seq)
	}
	return buf, nil
}

func (l *Log) entry(seq uint64) (indexEntry, error) {
	var b [indexEntryLen]byte
	if err := l.index.ReadAt(b[:], entryOffset(seq)); err != nil {
		return indexEntry{}, err
	}
	return decodeEntry(b[:]), nil
}

// DataBytes returns the number of record bytes committed to the data region.
func (l *Log) DataBytes() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dataTail - headerSize
}

// ensureCapacity grows mem so that at least n bytes are addressable.
func ensureCapacity(mem stable.Memory, n uint64) error {
	have := mem.Size() * stable.PageSize
	if n <= have {
		return nil
	}
	pages := (n - have + stable.PageSize - 1) / stable.PageSize
	_, err := mem.Grow(pages)
	return err
}
