package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes formatted entries to stderr.
type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleOutput returns an output writing to os.Stderr.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{w: os.Stderr} }

// NewWriterOutput returns an output writing to w.
func NewWriterOutput(w io.Writer) *ConsoleOutput { return &ConsoleOutput{w: w} }

// Write implements Output.
func (o *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	w := o.w
	if w == nil {
		w = os.Stderr
	}
	_, err := w.Write(formatted)
	return err
}

// Close implements Output.
func (o *ConsoleOutput) Close() error { return nil }

// FileOutput appends formatted entries to a file.
type FileOutput struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileOutput opens path for appending, creating it if needed.
func NewFileOutput(path string) (*FileOutput, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileOutput{f: f}, nil
}

// Write implements Output.
func (o *FileOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.f.Write(formatted)
	return err
}

// Close implements Output.
func (o *FileOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.f.Close()
}

// NullOutput discards everything.
type NullOutput struct{}

// NewNullOutput returns an output that discards entries.
func NewNullOutput() NullOutput { return NullOutput{} }

// Write implements Output.
func (NullOutput) Write(*Entry, []byte) error { return nil }

// Close implements Output.
func (NullOutput) Close() error { return nil }

// RingOutput keeps the most recent entries in memory so they can be served
// back to operators. Entries are numbered with a monotonically increasing
// counter that survives eviction.
type RingOutput struct {
	mu      sync.Mutex
	buf     []RingEntry
	next    int
	full    bool
	counter uint64
}

// RingEntry is one retained entry.
type RingEntry struct {
	Counter uint64
	Entry   Entry
}

// NewRingOutput retains up to capacity entries (minimum 1).
func NewRingOutput(capacity int) *RingOutput {
	if capacity < 1 {
		capacity = 1
	}
	return &RingOutput{buf: make([]RingEntry, capacity)}
}

// Write implements Output.
func (o *RingOutput) Write(e *Entry, _ []byte) error {
	cp := *e
	cp.Fields = make(Fields, len(e.Fields))
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf[o.next] = RingEntry{Counter: o.counter, Entry: cp}
	o.counter++
	o.next = (o.next + 1) % len(o.buf)
	if o.next == 0 {
		o.full = true
	}
	return nil
}

// Close implements Output.
func (o *RingOutput) Close() error { return nil }

// Entries returns the retained entries, oldest first.
func (o *RingOutput) Entries() []RingEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.full {
		return append([]RingEntry(nil), o.buf[:o.next]...)
	}
	out := make([]RingEntry, 0, len(o.buf))
	out = append(out, o.buf[o.next:]...)
	return append(out, o.buf[:o.next]...)
}
