package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func code(digits ...Symbol) []Symbol { return digits }

func TestMatch(t *testing.T) {
	commands := []Command{
		{Name: "Login", Code: code(0, 1, 0, 1, 0, 1), ActionID: "login"},
		{Name: "Video", Code: code(1, 1, 0, 0, 1, 1), ActionID: "play_youtube"},
		{Name: "Shadowed", Code: code(1, 1, 0, 0, 1, 1), ActionID: "other"},
		{Name: "Short", Code: code(1, 1), ActionID: "never"},
	}

	tests := []struct {
		name string
		seq  []Symbol
		want MatchResult
	}{
		{"first command", code(0, 1, 0, 1, 0, 1), MatchResult{Matched: true, CommandName: "Login", ActionID: "login"}},
		{"first of duplicates wins", code(1, 1, 0, 0, 1, 1), MatchResult{Matched: true, CommandName: "Video", ActionID: "play_youtube"}},
		{"no match", code(1, 1, 1, 1, 1, 1), MatchResult{}},
		{"length mismatch never matches", code(1, 1, 0), MatchResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.seq, commands))
		})
	}

	t.Run("empty table", func(t *testing.T) {
		assert.False(t, Match(code(0, 1), nil).Matched)
	})
}

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "010101", FormatCode(code(0, 1, 0, 1, 0, 1)))
	assert.Equal(t, "", FormatCode(nil))
	assert.Equal(t, "0[12]1[-1]", FormatCode(code(0, 12, 1, -1)))
}
