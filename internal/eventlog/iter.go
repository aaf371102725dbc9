package eventlog

// Iterator walks a Log forward from sequence 0. The set of records it visits
// is fixed when it is created, so iteration is finite even if appends follow.
//
//	it := l.Iter()
//	for it.Next() {
//	    use(it.Seq(), it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	l    *Log
	next uint64
	end  uint64
	seq  uint64
	cur  []byte
	err  error
}

// Iter returns a fresh iterator positioned before sequence 0.
func (l *Log) Iter() *Iterator {
	return &Iterator{l: l, end: l.Len()}
}

// Next advances to the next record and reports whether one was read.
func (it *Iterator) Next() bool {
	if it.err != nil || it.next >= it.end {
		return false
	}
	rec, err := it.l.Get(it.next)
	if err != nil {
		it.err = err
		it.cur = nil
		return false
	}
	it.seq = it.next
	it.cur = rec
	it.next++
	return true
}

// Seq returns the sequence number of the current record.
func (it *Iterator) Seq() uint64 { return it.seq }

// Value returns the current record. The slice is owned by the caller.
func (it *Iterator) Value() []byte { return it.cur }

// Err returns the first error that stopped iteration.
func (it *Iterator) Err() error { return it.err }
