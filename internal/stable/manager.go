package stable

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

const (
	// MaxMemories is the number of virtual memories a Manager can hand out.
	MaxMemories = 255
	// MaxBuckets bounds the total number of buckets across all memories.
	MaxBuckets = 32768
	// DefaultBucketSize is the bucket size in pages used by Init (8 MiB buckets).
	DefaultBucketSize uint16 = 128

	managerVersion = 1
	freeBucket     = 0xFF

	offMagic        = 0
	offVersion      = 3
	offNumAllocated = 4
	offBucketSize   = 6
	offSizes        = 40
	offBucketTable  = offSizes + MaxMemories*8
	headerLen       = offBucketTable + MaxBuckets
)

var managerMagic = []byte("TMM")

// ErrCorruptHeader is returned by Init when the backing memory holds bytes
// that are not a recognizable manager layout.
var ErrCorruptHeader = errors.New("stable: corrupt memory manager header")

// MemoryID identifies one virtual memory within a Manager.
type MemoryID uint8

// NewMemoryID returns id as a MemoryID. It panics for the reserved id 255.
func NewMemoryID(id uint8) MemoryID {
	if id >= MaxMemories {
		panic(fmt.Sprintf("stable: memory id %d is reserved", id))
	}
	return MemoryID(id)
}

// Manager multiplexes one backing Memory into independently growable
// virtual memories. The backing memory is split into a one-page header
// followed by fixed-size buckets; each bucket belongs to exactly one
// virtual memory and a virtual memory's bytes are its buckets in
// allocation order.
type Manager struct {
	mu           sync.Mutex
	mem          Memory
	bucketSize   uint16
	numAllocated uint16
	sizes        [MaxMemories]uint64
	buckets      [MaxMemories][]uint16
	fresh        bool
}

// Init attaches to mem with DefaultBucketSize, creating a fresh layout when
// mem is empty or its header page was never written.
func Init(mem Memory) (*Manager, error) {
	return InitWithBucketSize(mem, DefaultBucketSize)
}

// InitWithBucketSize attaches to mem. bucketSize only applies to a fresh
// layout; an existing layout keeps the bucket size it was created with.
func InitWithBucketSize(mem Memory, bucketSize uint16) (*Manager, error) {
	if bucketSize == 0 {
		return nil, errors.New("stable: bucket size must be positive")
	}
	if mem.Size() == 0 {
		return create(mem, bucketSize)
	}
	hdr := make([]byte, headerLen)
	if err := mem.ReadAt(hdr, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptHeader, err)
	}
	// The header page is grown before it is written, so an all-zero page is a
	// creation that never finished.
	if isZero(hdr) {
		return create(mem, bucketSize)
	}
	return load(mem, hdr)
}

// Fresh reports whether Init found no existing layout.
func (m *Manager) Fresh() bool { return m.fresh }

func create(mem Memory, bucketSize uint16) (*Manager, error) {
	if mem.Size() == 0 {
		if _, err := mem.Grow(1); err != nil {
			return nil, fmt.Errorf("%w: header page: %w", ErrGrowFailed, err)
		}
	}
	hdr := make([]byte, headerLen)
	copy(hdr[offMagic:], managerMagic)
	hdr[offVersion] = managerVersion
	binary.BigEndian.PutUint16(hdr[offBucketSize:], bucketSize)
	for i := offBucketTable; i < headerLen; i++ {
		hdr[i] = freeBucket
	}
	if err := mem.WriteAt(hdr, 0); err != nil {
		return nil, err
	}
	return &Manager{mem: mem, bucketSize: bucketSize, fresh: true}, nil
}

func load(mem Memory, hdr []byte) (*Manager, error) {
	if !bytes.Equal(hdr[offMagic:offMagic+len(managerMagic)], managerMagic) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptHeader, hdr[offMagic:offMagic+len(managerMagic)])
	}
	if v := hdr[offVersion]; v != managerVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptHeader, v)
	}
	m := &Manager{
		mem:          mem,
		numAllocated: binary.BigEndian.Uint16(hdr[offNumAllocated:]),
		bucketSize:   binary.BigEndian.Uint16(hdr[offBucketSize:]),
	}
	if m.bucketSize == 0 {
		return nil, fmt.Errorf("%w: zero bucket size", ErrCorruptHeader)
	}
	if uint32(m.numAllocated) > MaxBuckets {
		return nil, fmt.Errorf("%w: %d buckets allocated", ErrCorruptHeader, m.numAllocated)
	}
	for i := range m.sizes {
		m.sizes[i] = binary.BigEndian.Uint64(hdr[offSizes+8*i:])
	}
	// Entries past numAllocated may hold ids from an allocation that never
	// committed; they are treated as free.
	for b := 0; b < int(m.numAllocated); b++ {
		owner := hdr[offBucketTable+b]
		if owner == freeBucket {
			return nil, fmt.Errorf("%w: allocated bucket %d has no owner", ErrCorruptHeader, b)
		}
		m.buckets[owner] = append(m.buckets[owner], uint16(b))
	}
	for id, size := range m.sizes {
		if size > uint64(len(m.buckets[id]))*uint64(m.bucketSize) {
			return nil, fmt.Errorf("%w: memory %d size %d exceeds its buckets", ErrCorruptHeader, id, size)
		}
	}
	if need := 1 + uint64(m.numAllocated)*uint64(m.bucketSize); mem.Size() < need {
		return nil, fmt.Errorf("%w: backing memory has %d pages, layout needs %d", ErrCorruptHeader, mem.Size(), need)
	}
	return m, nil
}

// Get returns the virtual memory for id. Repeated calls return handles over
// the same bytes.
func (m *Manager) Get(id MemoryID) *VirtualMemory {
	return &VirtualMemory{mgr: m, id: NewMemoryID(uint8(id))}
}

// BucketSize returns the bucket size in pages.
func (m *Manager) BucketSize() uint16 { return m.bucketSize }

// AllocatedBuckets returns the number of buckets handed out so far.
func (m *Manager) AllocatedBuckets() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numAllocated
}

func (m *Manager) bucketBytes() uint64 { return uint64(m.bucketSize) * PageSize }

func (m *Manager) size(id MemoryID) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sizes[id]
}

func (m *Manager) grow(id MemoryID, pages uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.sizes[id]
	if pages == 0 {
		return prev, nil
	}
	newSize := prev + pages
	have := uint64(len(m.buckets[id]))
	need := (newSize + uint64(m.bucketSize) - 1) / uint64(m.bucketSize)
	var extra uint64
	if need > have {
		extra = need - have
	}
	if uint64(m.numAllocated)+extra > MaxBuckets {
		return prev, fmt.Errorf("%w: memory %d needs %d more buckets, %d free", ErrGrowFailed, id, extra, MaxBuckets-uint64(m.numAllocated))
	}

	if extra > 0 {
		required := 1 + (uint64(m.numAllocated)+extra)*uint64(m.bucketSize)
		if cur := m.mem.Size(); cur < required {
			if _, err := m.mem.Grow(required - cur); err != nil {
				return prev, fmt.Errorf("%w: %w", ErrGrowFailed, err)
			}
		}
		owners := bytes.Repeat([]byte{byte(id)}, int(extra))
		if err := m.mem.WriteAt(owners, offBucketTable+uint64(m.numAllocated)); err != nil {
			return prev, err
		}
		next := m.numAllocated + uint16(extra)
		var nb [2]byte
		binary.BigEndian.PutUint16(nb[:], next)
		if err := m.mem.WriteAt(nb[:], offNumAllocated); err != nil {
			return prev, err
		}
		for b := m.numAllocated; b < next; b++ {
			m.buckets[id] = append(m.buckets[id], b)
		}
		m.numAllocated = next
	}

	var sb [8]byte
	binary.BigEndian.PutUint64(sb[:], newSize)
	if err := m.mem.WriteAt(sb[:], offSizes+8*uint64(id)); err != nil {
		return prev, err
	}
	m.sizes[id] = newSize
	return prev, nil
}

// translate walks [offset, offset+n) of memory id bucket by bucket, calling
// fn with each physical span.
func (m *Manager) translate(id MemoryID, offset uint64, n int, fn func(lo, hi int, phys uint64) error) error {
	if err := CheckBounds(m.sizes[id], offset, n); err != nil {
		return err
	}
	bb := m.bucketBytes()
	done := 0
	for done < n {
		bucket := offset / bb
		within := offset % bb
		chunk := bb - within
		if rem := uint64(n - done); rem < chunk {
			chunk = rem
		}
		phys := PageSize + uint64(m.buckets[id][bucket])*bb + within
		if err := fn(done, done+int(chunk), phys); err != nil {
			return err
		}
		done += int(chunk)
		offset += chunk
	}
	return nil
}

func (m *Manager) readAt(id MemoryID, dst []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.translate(id, offset, len(dst), func(lo, hi int, phys uint64) error {
		return m.mem.ReadAt(dst[lo:hi], phys)
	})
}

func (m *Manager) writeAt(id MemoryID, src []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.translate(id, offset, len(src), func(lo, hi int, phys uint64) error {
		return m.mem.WriteAt(src[lo:hi], phys)
	})
}

// VirtualMemory is one region handed out by a Manager. It implements Memory.
type VirtualMemory struct {
	mgr *Manager
	id  MemoryID
}

// ID returns the region id.
func (v *VirtualMemory) ID() MemoryID { return v.id }

// Size implements Memory.
func (v *VirtualMemory) Size() uint64 { return v.mgr.size(v.id) }

// Grow implements Memory.
func (v *VirtualMemory) Grow(pages uint64) (uint64, error) { return v.mgr.grow(v.id, pages) }

// ReadAt implements Memory.
func (v *VirtualMemory) ReadAt(dst []byte, offset uint64) error {
	return v.mgr.readAt(v.id, dst, offset)
}

// WriteAt implements Memory.
func (v *VirtualMemory) WriteAt(src []byte, offset uint64) error {
	return v.mgr.writeAt(v.id, src, offset)
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
