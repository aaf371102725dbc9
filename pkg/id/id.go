package id

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"time"
)

// Size is the length of an ID in bytes.
const Size = 12

// ID is a 96-bit request identifier: [6 bytes ms][2 bytes node][4 bytes counter].
type ID [Size]byte

var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// ErrMalformed is returned by Parse for strings that are not an encoded ID.
var ErrMalformed = errors.New("id: malformed")

// String returns the lowercase base32hex form, which sorts like the bytes.
func (i ID) String() string { return strings.ToLower(encoding.EncodeToString(i[:])) }

// Time returns the millisecond timestamp embedded in i.
func (i ID) Time() time.Time {
	var b [8]byte
	copy(b[2:], i[0:6])
	return time.UnixMilli(int64(binary.BigEndian.Uint64(b[:])))
}

// Compare returns -1, 0, 1 based on lexical comparison.
func (i ID) Compare(other ID) int {
	for idx := 0; idx < Size; idx++ {
		if i[idx] < other[idx] {
			return -1
		}
		if i[idx] > other[idx] {
			return 1
		}
	}
	return 0
}

// Parse decodes the String form.
func Parse(s string) (ID, error) {
	var out ID
	raw, err := encoding.DecodeString(strings.ToUpper(s))
	if err != nil || len(raw) != Size {
		return out, ErrMalformed
	}
	copy(out[:], raw)
	return out, nil
}

// Generator produces IDs that increase monotonically within a process.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	node    uint16
	lastMs  int64
	counter uint32
}

// NewGenerator returns a Generator with a random node tag.
func NewGenerator() *Generator {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return &Generator{now: time.Now, node: binary.BigEndian.Uint16(b[:])}
}

// Next returns a new ID. A clock that goes backwards is pinned to the last
// millisecond seen; a counter that wraps within one millisecond borrows the
// next one.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	if ms == g.lastMs {
		g.counter++
		if g.counter == 0 {
			ms++
		}
	} else {
		g.counter = 0
	}
	g.lastMs = ms

	var id ID
	var t [8]byte
	binary.BigEndian.PutUint64(t[:], uint64(ms))
	copy(id[0:6], t[2:])
	binary.BigEndian.PutUint16(id[6:8], g.node)
	binary.BigEndian.PutUint32(id[8:12], g.counter)
	return id
}
