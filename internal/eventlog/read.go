package eventlog

import (
	"encoding/binary"
)

// Token is an opaque resume position. The zero Token means "from the
// beginning" (or "from the end" for reverse reads).
type Token [8]byte

// tokenFromSeq stores seq+1 so that sequence 0 is distinguishable from the zero token.
func tokenFromSeq(seq uint64) Token {
	var t Token
	binary.BigEndian.PutUint64(t[:], seq+1)
	return t
}

// TokenFromSeq returns the token positioned at seq.
func TokenFromSeq(seq uint64) Token { return tokenFromSeq(seq) }

// IsZero reports whether t is the zero token.
func (t Token) IsZero() bool { return t == Token{} }

// Seq returns the sequence number t points at. Only meaningful when !IsZero.
func (t Token) Seq() uint64 { return binary.BigEndian.Uint64(t[:]) - 1 }

// DefaultMaxScan bounds the records a single Read examines when
// ReadOptions.MaxScan is zero.
const DefaultMaxScan = 10000

// ReadOptions controls a paged read.
type ReadOptions struct {
	Start   Token // if zero, begin from the first (or last, when Reverse) entry
	Limit   int   // zero means no limit
	Reverse bool
	Filter  Filter // zero Filter matches everything
	// MaxScan bounds the records examined, matched or not. Zero means
	// DefaultMaxScan; negative means unbounded.
	MaxScan int
}

// Item is one record returned by Read.
type Item struct {
	Seq     uint64
	Payload []byte
}

// Read returns up to Limit items starting at Start (inclusive). The returned
// token resumes the scan; it is zero when the scan reached the end. Records
// rejected by the filter count toward MaxScan but not toward the limit, so a
// page may come back short with a non-zero token.
//
// The log lock is held per record, never across the scan or the filter, so
// appends proceed while a read is in flight. Records appended after Read
// starts are not visited.
func (l *Log) Read(opts ReadOptions) ([]Item, Token, error) {
	count := l.Len()
	items := make([]Item, 0, max(1, min(opts.Limit, 256)))
	var next Token
	if count == 0 {
		return items, next, nil
	}

	maxScan := opts.MaxScan
	if maxScan == 0 {
		maxScan = DefaultMaxScan
	}
	scanned := 0
	stop := func() bool {
		return (opts.Limit > 0 && len(items) >= opts.Limit) || (maxScan > 0 && scanned >= maxScan)
	}
	visit := func(seq uint64) error {
		rec, err := l.Get(seq)
		if err != nil {
			return err
		}
		scanned++
		if opts.Filter.Eval(seq, rec) {
			items = append(items, Item{Seq: seq, Payload: rec})
		}
		return nil
	}

	if opts.Reverse {
		seq := count - 1
		if !opts.Start.IsZero() {
			if s := opts.Start.Seq(); s < seq {
				seq = s
			}
		}
		for {
			if stop() {
				return items, tokenFromSeq(seq), nil
			}
			if err := visit(seq); err != nil {
				return items, next, err
			}
			if seq == 0 {
				return items, next, nil
			}
			seq--
		}
	}

	var seq uint64
	if !opts.Start.IsZero() {
		seq = opts.Start.Seq()
	}
	for ; seq < count; seq++ {
		if stop() {
			return items, tokenFromSeq(seq), nil
		}
		if err := visit(seq); err != nil {
			return items, next, err
		}
	}
	return items, next, nil
}
