package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_AppendUntilComplete(t *testing.T) {
	s := NewSequence(3)
	assert.False(t, s.IsComplete())

	assert.Equal(t, 1, s.Append(Zero))
	assert.Equal(t, 2, s.Append(One))
	assert.False(t, s.IsComplete())
	assert.Equal(t, 3, s.Append(Zero))
	assert.True(t, s.IsComplete())

	assert.Equal(t, []Symbol{Zero, One, Zero}, s.Symbols())
}

func TestSequence_RejectsOverflow(t *testing.T) {
	s := NewSequence(2)
	s.Append(One)
	s.Append(One)

	assert.NotPanics(t, func() {
		assert.Equal(t, 2, s.Append(Zero))
	})
	assert.Equal(t, []Symbol{One, One}, s.Symbols())
}

func TestSequence_Reset(t *testing.T) {
	s := NewSequence(2)
	s.Append(One)
	s.Reset()

	assert.Zero(t, s.Len())
	assert.Empty(t, s.Symbols())
	assert.Equal(t, 2, s.Max())
}

func TestSequence_SymbolsIsACopy(t *testing.T) {
	s := NewSequence(2)
	s.Append(Zero)

	got := s.Symbols()
	got[0] = One
	assert.Equal(t, []Symbol{Zero}, s.Symbols())
}

func TestSequence_ZeroLength(t *testing.T) {
	s := NewSequence(-1)
	assert.True(t, s.IsComplete())
	assert.Zero(t, s.Append(One))
}

func TestSequence_HugeLengthDoesNotPreallocate(t *testing.T) {
	var s *Sequence
	require.NotPanics(t, func() { s = NewSequence(1 << 62) })

	assert.Equal(t, 1, s.Append(One))
	assert.False(t, s.IsComplete())
	assert.Equal(t, 1<<62, s.Max())
}
