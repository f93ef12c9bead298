// Package session implements the wink code input state machine.
package session

import (
	"fmt"
	"time"

	"github.com/ayusman/winklock/internal/gesture"
)

// State is the session state. The zero value is Standby.
type State int

const (
	// Standby waits for the activation gesture.
	Standby State = iota
	// Input collects winks until the code is complete.
	Input
	// Success shows a matched command until the reset delay passes.
	Success
	// Fail shows an unmatched code until the reset delay passes.
	Fail
)

// States lists every state in declaration order.
var States = []State{Standby, Input, Success, Fail}

func (s State) String() string {
	switch s {
	case Standby:
		return "STANDBY"
	case Input:
		return "INPUT"
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the state shows a result and resets on a timer.
func (s State) Terminal() bool {
	return s == Success || s == Fail
}

// EventKind identifies what happened during a tick.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventSymbol     EventKind = "symbol"
	EventResult     EventKind = "result"
	EventDispatch   EventKind = "dispatch"
)

// Event describes one observable change made by the machine.
type Event struct {
	Kind     EventKind           `json:"kind"`
	From     State               `json:"from"`
	To       State               `json:"to"`
	Symbol   gesture.Symbol      `json:"symbol"`
	Sequence []gesture.Symbol    `json:"sequence,omitempty"`
	MaxDigit int                 `json:"max_digit,omitempty"`
	Result   gesture.MatchResult `json:"result"`
	ActionID string              `json:"action_id,omitempty"`
	At       time.Time           `json:"at"`
}

// Observer receives machine events. Observers run on the ticking goroutine
// after the machine has released its lock, so they may call Snapshot.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// Dispatcher carries out the side effect bound to an action identifier.
// Dispatch is fire-and-forget; it may block, which delays the calling tick.
type Dispatcher interface {
	Dispatch(actionID string)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(actionID string)

// Dispatch calls f(actionID).
func (f DispatcherFunc) Dispatch(actionID string) { f(actionID) }

// TerminalChecker is implemented by dispatchers that know which actions end
// the host process. It extends the machine's own terminal set.
type TerminalChecker interface {
	IsTerminal(actionID string) bool
}

// Snapshot is a consistent read of the machine for displays and APIs.
type Snapshot struct {
	State       State                 `json:"state"`
	EnteredAt   time.Time             `json:"entered_at"`
	Sequence    []gesture.Symbol      `json:"sequence"`
	MaxDigit    int                   `json:"max_digit"`
	Cooldown    bool                  `json:"cooldown"`
	Debounce    gesture.DebounceState `json:"debounce"`
	LastCommand string                `json:"last_command,omitempty"`
}
