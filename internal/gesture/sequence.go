package gesture

// Sequence accumulates symbols up to a fixed length. Appends beyond the
// length are dropped.
type Sequence struct {
	max     int
	symbols []Symbol
}

// NewSequence creates an empty Sequence holding at most length symbols.
func NewSequence(length int) *Sequence {
	if length < 0 {
		length = 0
	}
	return &Sequence{max: length}
}

// Append adds sym unless the sequence is complete and returns the new length.
func (s *Sequence) Append(sym Symbol) int {
	if len(s.symbols) < s.max {
		s.symbols = append(s.symbols, sym)
	}
	return len(s.symbols)
}

// Len returns the number of symbols entered so far.
func (s *Sequence) Len() int { return len(s.symbols) }

// Max returns the configured code length.
func (s *Sequence) Max() int { return s.max }

// IsComplete reports whether the sequence has reached its configured length.
func (s *Sequence) IsComplete() bool { return len(s.symbols) == s.max }

// Symbols returns a copy of the entered symbols in order.
func (s *Sequence) Symbols() []Symbol {
	out := make([]Symbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Reset empties the sequence.
func (s *Sequence) Reset() { s.symbols = s.symbols[:0] }
