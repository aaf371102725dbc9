package eventlog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Persisted layout.
//
// Index region:
//
//	header (32B): magic "TLI" | version u8 | reserved u32 | usedBytes u64 | reserved
//	entries:      offset u64 | length u32 | crc32c u32   (16B each, record order)
//
// Data region:
//
//	header (32B): magic "TLD" | version u8 | reserved
//	records:      raw bytes, referenced by index entries
//
// usedBytes is the commit point: an entry exists once usedBytes covers it.

const (
	headerSize    = 32
	indexEntryLen = 16
	layoutVersion = 1

	offUsedBytes = 8
)

var (
	indexMagic = []byte("TLI")
	dataMagic  = []byte("TLD")
	castagnoli = crc32.MakeTable(crc32.Castagnoli)
)

// indexEntry locates one record inside the data region.
type indexEntry struct {
	Offset uint64
	Length uint32
	CRC    uint32
}

func (e indexEntry) end() uint64 { return e.Offset + uint64(e.Length) }

func encodeEntry(e indexEntry) [indexEntryLen]byte {
	var b [indexEntryLen]byte
	binary.BigEndian.PutUint64(b[0:8], e.Offset)
	binary.BigEndian.PutUint32(b[8:12], e.Length)
	binary.BigEndian.PutUint32(b[12:16], e.CRC)
	return b
}

func decodeEntry(b []byte) indexEntry {
	return indexEntry{
		Offset: binary.BigEndian.Uint64(b[0:8]),
		Length: binary.BigEndian.Uint32(b[8:12]),
		CRC:    binary.BigEndian.Uint32(b[12:16]),
	}
}

func checksum(record []byte) uint32 { return crc32.Checksum(record, castagnoli) }

func newHeader(magic []byte) []byte {
	h := make([]byte, headerSize)
	copy(h, magic)
	h[len(magic)] = layoutVersion
	return h
}

func checkHeader(h, magic []byte, region string) error {
	if !bytes.Equal(h[:len(magic)], magic) {
		return fmt.Errorf("%w: %s region has magic %q", ErrCorrupt, region, h[:len(magic)])
	}
	if v := h[len(magic)]; v != layoutVersion {
		return fmt.Errorf("%w: %s region has version %d", ErrCorrupt, region, v)
	}
	return nil
}

// entryOffset is the index-region address of entry seq.
func entryOffset(seq uint64) uint64 { return headerSize + seq*indexEntryLen }
