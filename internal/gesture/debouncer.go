package gesture

import "time"

// Symbol is one binary digit of a command code.
type Symbol int

const (
	// Zero is produced by a left-eye wink.
	Zero Symbol = 0
	// One is produced by a right-eye wink.
	One Symbol = 1
)

// DebounceState is the mutable state of a Debouncer.
type DebounceState struct {
	WinkActive    bool      `json:"wink_active"`
	LastInputTime time.Time `json:"last_input_time"`
}

// Debouncer converts the level signal "an eye is closed" into at most one
// symbol per wink episode, rate limited by a minimum interval between symbols.
//
// Closing both eyes while armed latches the debouncer without emitting
// anything; it re-arms once both eyes are open again.
type Debouncer struct {
	delay time.Duration
	state DebounceState
	// hasInput is set once a symbol was emitted; LastInputTime may be the zero time.
	hasInput bool
}

// NewDebouncer creates a Debouncer enforcing delay between accepted symbols.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{delay: delay}
}

// InCooldown reports whether a symbol would be rejected at now for being
// too close to the previous one.
func (d *Debouncer) InCooldown(now time.Time) bool {
	if !d.hasInput {
		return false
	}
	return now.Sub(d.state.LastInputTime) < d.delay
}

// Update feeds one frame of eye state observed at now and returns the
// emitted symbol, if any.
func (d *Debouncer) Update(eyes EyeState, now time.Time) (Symbol, bool) {
	if d.state.WinkActive {
		if eyes.BothOpen() {
			d.state.WinkActive = false
		}
		return 0, false
	}

	if d.InCooldown(now) {
		return 0, false
	}

	var sym Symbol
	switch {
	case eyes.BothClosed():
		d.state.WinkActive = true
		return 0, false
	case eyes.RightClosed:
		sym = One
	case eyes.LeftClosed:
		sym = Zero
	default:
		return 0, false
	}

	d.state.WinkActive = true
	d.state.LastInputTime = now
	d.hasInput = true
	return sym, true
}

// State returns a copy of the current debounce state.
func (d *Debouncer) State() DebounceState { return d.state }

// Reset clears the latch and the cooldown.
func (d *Debouncer) Reset() {
	d.state = DebounceState{}
	d.hasInput = false
}
