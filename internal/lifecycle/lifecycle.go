// Package lifecycle turns a start argument into the initial process state:
// a fresh state on a cold start, or a state replayed from the event log on a
// warm restart.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/rzbill/tally/internal/audit"
	"github.com/rzbill/tally/internal/state"
)

var (
	// ErrInitArgOnUpgrade is returned when a warm restart is given an InitArg.
	ErrInitArgOnUpgrade = errors.New("lifecycle: init argument passed on upgrade")
	// ErrUpgradeArgOnInit is returned when a cold start is given an UpgradeArg.
	ErrUpgradeArgOnInit = errors.New("lifecycle: upgrade argument passed on init")
)

// Arg is the start argument. It is exactly one of InitArg or UpgradeArg.
type Arg interface {
	isArg()
	// GreetingText returns the greeting carried by the argument.
	GreetingText() string
}

// InitArg configures a cold start against an empty store.
type InitArg struct {
	Greeting string
}

// UpgradeArg configures a warm restart against an existing store.
type UpgradeArg struct {
	Greeting string
}

func (InitArg) isArg()    {}
func (UpgradeArg) isArg() {}

// GreetingText implements Arg.
func (a InitArg) GreetingText() string { return a.Greeting }

// GreetingText implements Arg.
func (a UpgradeArg) GreetingText() string { return a.Greeting }

// Kind returns "init" or "upgrade".
func Kind(arg Arg) string {
	switch arg.(type) {
	case InitArg, *InitArg:
		return "init"
	case UpgradeArg, *UpgradeArg:
		return "upgrade"
	default:
		return "unknown"
	}
}

// ForStore picks the argument matching the store: InitArg when fresh,
// UpgradeArg otherwise.
func ForStore(fresh bool, greeting string) Arg {
	if fresh {
		return InitArg{Greeting: greeting}
	}
	return UpgradeArg{Greeting: greeting}
}

// BuildFromConfig is the cold-start hook. It accepts only an InitArg and
// returns a validated State with no greeted names.
func BuildFromConfig(arg Arg) (*state.State, error) {
	var a InitArg
	switch v := arg.(type) {
	case InitArg:
		a = v
	case *InitArg:
		a = *v
	case UpgradeArg, *UpgradeArg:
		return nil, ErrUpgradeArgOnInit
	default:
		return nil, fmt.Errorf("lifecycle: unsupported argument %T", arg)
	}
	s := state.New(a.Greeting)
	if err := s.ValidateConfig(); err != nil {
		return nil, err
	}
	return s, nil
}

// RebuildFromLog is the warm-restart hook. It accepts only an UpgradeArg,
// validates it, then replays src from the first event to rebuild the counts.
// Nothing is installed on failure.
func RebuildFromLog(arg Arg, src audit.Source) (*state.State, error) {
	var a UpgradeArg
	switch v := arg.(type) {
	case UpgradeArg:
		a = v
	case *UpgradeArg:
		a = *v
	case InitArg, *InitArg:
		return nil, ErrInitArgOnUpgrade
	default:
		return nil, fmt.Errorf("lifecycle: unsupported argument %T", arg)
	}
	candidate := state.New(a.Greeting)
	if err := candidate.ValidateConfig(); err != nil {
		return nil, err
	}
	counts, err := audit.Replay(src)
	if err != nil {
		return nil, err
	}
	return state.Restore(a.Greeting, counts), nil
}
