// Package state holds the process-wide greeting state and the accessors that
// serialize every read and mutation of it.
package state

import (
	"strings"
	"sync"
)

// State is the in-memory view of the service. GreetedNamesCount is a cache
// derived from the event log; the log is the source of truth.
type State struct {
	Greeting          string
	GreetedNamesCount map[string]uint64
}

// InvalidStateError reports configuration that cannot form a valid State.
type InvalidStateError struct {
	Field  string
	Reason string
}

// Error returns the validation message.
func (e *InvalidStateError) Error() string {
	if e == nil {
		return "invalid state"
	}
	return "invalid " + e.Field + ": " + e.Reason
}

// New returns a fresh State with no greeted names.
func New(greeting string) *State {
	return &State{Greeting: greeting, GreetedNamesCount: make(map[string]uint64)}
}

// Restore returns a State whose counts were rebuilt elsewhere, typically by
// replaying the event log. counts is owned by the returned State.
func Restore(greeting string, counts map[string]uint64) *State {
	if counts == nil {
		counts = make(map[string]uint64)
	}
	return &State{Greeting: greeting, GreetedNamesCount: counts}
}

// ValidateConfig rejects a blank or whitespace-only greeting.
func (s *State) ValidateConfig() error {
	if strings.TrimSpace(s.Greeting) == "" {
		return &InvalidStateError{Field: "greeting", Reason: "greeting cannot be blank"}
	}
	return nil
}

// Holder owns the single State of the process. The zero value is an
// uninitialized holder.
type Holder struct {
	mu    sync.Mutex
	state *State
}

// Initialize installs s, replacing any previous state.
func (h *Holder) Initialize(s *State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

// Initialized reports whether Initialize has been called.
func (h *Holder) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != nil
}

const notInitialized = "BUG: state is not initialized"

// Read runs f against the current state and returns its result. It panics if
// the holder was never initialized.
func Read[R any](h *Holder, f func(*State) R) R {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		panic(notInitialized)
	}
	return f(h.state)
}

// Mutate runs f with exclusive access to the current state. It panics if the
// holder was never initialized.
func Mutate[R any](h *Holder, f func(*State) R) R {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		panic(notInitialized)
	}
	return f(h.state)
}
