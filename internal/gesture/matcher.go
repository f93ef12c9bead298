package gesture

import (
	"strconv"
	"strings"
)

// Command binds a fixed-length code to an action identifier.
// A command whose code length differs from the configured code length can
// never match; it is kept as is rather than rejected.
type Command struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Code     []Symbol `json:"code" yaml:"code" toml:"code"`
	ActionID string   `json:"action_id" yaml:"action_id" toml:"action_id"`
}

// MatchResult is the outcome of matching a completed sequence.
// CommandName and ActionID are empty when Matched is false.
type MatchResult struct {
	Matched     bool   `json:"matched"`
	CommandName string `json:"command_name,omitempty"`
	ActionID    string `json:"action_id,omitempty"`
}

// Match returns the first command, in table order, whose code equals seq.
func Match(seq []Symbol, commands []Command) MatchResult {
	for _, c := range commands {
		if equalCode(seq, c.Code) {
			return MatchResult{Matched: true, CommandName: c.Name, ActionID: c.ActionID}
		}
	}
	return MatchResult{}
}

func equalCode(a, b []Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatCode renders a code as a string of digits, e.g. "010101". Symbols
// other than 0 and 1 are bracketed, e.g. "0[12]1", so they never collide with
// a binary code.
func FormatCode(code []Symbol) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, s := range code {
		if s == Zero || s == One {
			b.WriteByte('0' + byte(s))
			continue
		}
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(int(s)))
		b.WriteByte(']')
	}
	return b.String()
}
