// Package audit records greeting events into the durable log and replays
// them into aggregate counts.
package audit

import (
	"context"
	"fmt"

	"github.com/rzbill/tally/internal/eventlog"
	logpkg "github.com/rzbill/tally/pkg/log"
)

// Source is the read side of an event log.
type Source interface {
	Len() uint64
	Iter() *eventlog.Iterator
}

// Recorder appends exactly one log record per event, synchronously.
type Recorder struct {
	log    *eventlog.Log
	logger logpkg.Logger
}

// NewRecorder returns a Recorder writing to l.
func NewRecorder(l *eventlog.Log, logger logpkg.Logger) *Recorder {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
	}
	return &Recorder{log: l, logger: logger.With(logpkg.Component("audit"))}
}

// Record appends payload verbatim. An error means nothing was committed and
// the caller must abandon the action that produced the event.
func (r *Recorder) Record(ctx context.Context, payload string) error {
	seq, err := r.log.Append(ctx, []byte(payload))
	if err != nil {
		r.logger.Error("record event failed", logpkg.Err(err), logpkg.Int("bytes", len(payload)))
		return fmt.Errorf("record event: %w", err)
	}
	r.logger.Debug("recorded event", logpkg.Uint64("seq", seq))
	return nil
}

// TotalCount returns the number of events recorded so far.
func (r *Recorder) TotalCount() uint64 { return r.log.Len() }

// Len implements Source.
func (r *Recorder) Len() uint64 { return r.log.Len() }

// Iter implements Source.
func (r *Recorder) Iter() *eventlog.Iterator { return r.log.Iter() }

// Events returns a fresh iterator positioned before sequence 0.
func (r *Recorder) Events() *eventlog.Iterator { return r.log.Iter() }
