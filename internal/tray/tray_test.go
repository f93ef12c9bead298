package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/winklock/internal/gesture"
	"github.com/ayusman/winklock/internal/session"
)

func TestTitleFor(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		seq   []gesture.Symbol
		max   int
		want  string
	}{
		{"standby", session.Standby, nil, 6, "winklock"},
		{"input empty", session.Input, nil, 6, "winklock ______"},
		{"input partial", session.Input, []gesture.Symbol{0, 1}, 6, "winklock 01____"},
		{"input full", session.Input, []gesture.Symbol{1, 1, 0}, 3, "winklock 110"},
		{"success", session.Success, nil, 6, "winklock ✓"},
		{"fail", session.Fail, nil, 6, "winklock ✗"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleFor(tt.state, tt.seq, tt.max))
		})
	}
}

func TestTray_ObserveBeforeReady(t *testing.T) {
	tr := New(true)
	assert.Equal(t, "winklock", tr.Title())

	tr.Observe(session.Event{Kind: session.EventTransition, From: session.Standby, To: session.Input, MaxDigit: 3})
	assert.Equal(t, "winklock ___", tr.Title())

	tr.Observe(session.Event{Kind: session.EventSymbol, Sequence: []gesture.Symbol{0}, MaxDigit: 3})
	assert.Equal(t, "winklock 0__", tr.Title())

	tr.Observe(session.Event{Kind: session.EventResult, Result: gesture.MatchResult{Matched: true, CommandName: "Door"}})
	assert.Equal(t, "Door", tr.LastCommand())

	tr.Observe(session.Event{Kind: session.EventTransition, From: session.Input, To: session.Success})
	assert.Equal(t, "winklock ✓", tr.Title())

	tr.Observe(session.Event{Kind: session.EventResult})
	assert.Equal(t, "Door", tr.LastCommand(), "failed attempts keep the last command")
}

func TestTray_Toggle(t *testing.T) {
	tr := New(true)
	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, tr.IsEnabled())
}

func TestTray_InitialDisabled(t *testing.T) {
	assert.False(t, New(false).IsEnabled())
}

func TestMenuTitles(t *testing.T) {
	assert.Equal(t, "● Enabled", toggleTitle(true))
	assert.Equal(t, "○ Disabled", toggleTitle(false))
	assert.Equal(t, "Last: none", lastTitle(""))
	assert.Equal(t, "Last: Door", lastTitle("Door"))
}
