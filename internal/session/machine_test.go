package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/winklock/internal/config"
	"github.com/ayusman/winklock/internal/detector"
	"github.com/ayusman/winklock/internal/gesture"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// clock hands out strictly increasing frame times 33ms apart.
type clock struct{ now time.Time }

func newClock() *clock { return &clock{now: base} }

func (c *clock) next() time.Time {
	c.now = c.now.Add(33 * time.Millisecond)
	return c.now
}

func (c *clock) advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

var (
	thumbsUp = detector.Detection{Hands: []detector.HandLandmarks{detector.ThumbsUpLandmarks()}}
	noSignal = detector.Detection{}
	eyesOpen = eyes(false, false)
	winkL    = eyes(true, false)
	winkR    = eyes(false, true)
	bothShut = eyes(true, true)
)

func eyes(leftClosed, rightClosed bool) detector.Detection {
	return detector.Detection{Faces: []detector.FaceLandmarks{detector.FaceWithEyes(leftClosed, rightClosed)}}
}

type recorder struct {
	dispatched []string
	events     []Event
}

func (r *recorder) Dispatch(id string) { r.dispatched = append(r.dispatched, id) }
func (r *recorder) Observe(e Event)    { r.events = append(r.events, e) }

func (r *recorder) symbols() []gesture.Symbol {
	var out []gesture.Symbol
	for _, e := range r.events {
		if e.Kind == EventSymbol {
			out = append(out, e.Symbol)
		}
	}
	return out
}

func scenarioConfig() *config.Config {
	cfg := config.Default()
	cfg.MaxDigit = 3
	cfg.InputDelay = 0
	cfg.Commands = []gesture.Command{{Name: "Door", Code: []gesture.Symbol{0, 1, 0}, ActionID: "open_door"}}
	return cfg
}

func newMachine(t *testing.T, cfg *config.Config, opts ...Option) (*Machine, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append(opts, WithObserver(rec))
	return New(config.Static{Config: cfg}, rec, opts...), rec
}

func feed(m *Machine, c *clock, frames ...detector.Detection) bool {
	keep := true
	for _, f := range frames {
		keep = m.Tick(f, c.next()) && keep
	}
	return keep
}

func TestMachine_StartsInStandby(t *testing.T) {
	m, _ := newMachine(t, scenarioConfig())
	assert.Equal(t, Standby, m.State())
}

func TestMachine_ScenarioA_MatchingCode(t *testing.T) {
	m, rec := newMachine(t, scenarioConfig())
	c := newClock()

	feed(m, c, thumbsUp)
	require.Equal(t, Input, m.State())

	feed(m, c, winkL, eyesOpen, winkR, eyesOpen, winkL, eyesOpen)

	assert.Equal(t, []gesture.Symbol{0, 1, 0}, rec.symbols())
	assert.Equal(t, Success, m.State())
	assert.Equal(t, []string{"open_door"}, rec.dispatched)
	assert.Equal(t, "Door", m.Snapshot(c.now).LastCommand)
}

func TestMachine_ScenarioB_UnknownCode(t *testing.T) {
	m, rec := newMachine(t, scenarioConfig())
	c := newClock()

	feed(m, c, thumbsUp, winkR, eyesOpen, winkR, eyesOpen, winkR)

	assert.Equal(t, []gesture.Symbol{1, 1, 1}, rec.symbols())
	assert.Equal(t, Fail, m.State())
	assert.Empty(t, rec.dispatched)
}

func TestMachine_ScenarioC_HeldWink(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MaxDigit = 2
	m, rec := newMachine(t, cfg)
	c := newClock()

	feed(m, c, thumbsUp, winkR, winkR, winkR, winkR, winkR)

	assert.Equal(t, []gesture.Symbol{1}, rec.symbols())
	snap := m.Snapshot(c.now)
	assert.Equal(t, Input, snap.State)
	assert.Equal(t, []gesture.Symbol{1}, snap.Sequence)
}

func TestMachine_ScenarioD_PauseGesture(t *testing.T) {
	m, rec := newMachine(t, scenarioConfig())
	c := newClock()

	feed(m, c, thumbsUp, bothShut)
	assert.True(t, m.Snapshot(c.now).Debounce.WinkActive)
	assert.Empty(t, rec.symbols())

	feed(m, c, eyesOpen)
	assert.False(t, m.Snapshot(c.now).Debounce.WinkActive)
	assert.Empty(t, rec.symbols())
	assert.Equal(t, Input, m.State())
}

func TestMachine_ScenarioE_ActivationIgnoredDuringInput(t *testing.T) {
	m, rec := newMachine(t, scenarioConfig())
	c := newClock()

	feed(m, c, thumbsUp, winkL, eyesOpen)
	entered := m.Snapshot(c.now).EnteredAt

	both := eyesOpen
	both.Hands = thumbsUp.Hands
	feed(m, c, thumbsUp, both)

	snap := m.Snapshot(c.now)
	assert.Equal(t, Input, snap.State)
	assert.Equal(t, entered, snap.EnteredAt)
	assert.Equal(t, []gesture.Symbol{0}, snap.Sequence, "sequence is not cleared")

	transitions := 0
	for _, e := range rec.events {
		if e.Kind == EventTransition {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)
}

func TestMachine_CompletesOnTheSameTick(t *testing.T) {
	for n := 1; n <= 6; n++ {
		cfg := scenarioConfig()
		cfg.MaxDigit = n
		m, _ := newMachine(t, cfg)
		c := newClock()

		feed(m, c, thumbsUp)
		for i := 0; i < n; i++ {
			require.Equal(t, Input, m.State(), "n=%d before symbol %d", n, i+1)
			feed(m, c, winkR)
			if i < n-1 {
				feed(m, c, eyesOpen)
			}
		}
		assert.True(t, m.State().Terminal(), "n=%d", n)
	}
}

func TestMachine_CooldownBetweenSymbols(t *testing.T) {
	cfg := scenarioConfig()
	cfg.InputDelay = 1
	m, rec := newMachine(t, cfg)
	c := newClock()

	feed(m, c, thumbsUp, winkL, eyesOpen)
	assert.True(t, m.Snapshot(c.now).Cooldown)

	feed(m, c, winkR, eyesOpen)
	assert.Len(t, rec.symbols(), 1, "wink inside the cooldown is ignored")

	m.Tick(eyesOpen, c.advance(time.Second))
	assert.False(t, m.Snapshot(c.now).Cooldown)
	feed(m, c, winkR)
	assert.Equal(t, []gesture.Symbol{0, 1}, rec.symbols())
}

func TestMachine_NoFaceSkipsInput(t *testing.T) {
	m, rec := newMachine(t, scenarioConfig())
	c := newClock()

	feed(m, c, thumbsUp, winkR, noSignal, noSignal)
	assert.True(t, m.Snapshot(c.now).Debounce.WinkActive, "latch survives frames without a face")

	feed(m, c, winkR)
	assert.Len(t, rec.symbols(), 1)

	feed(m, c, eyesOpen, winkL)
	assert.Equal(t, []gesture.Symbol{1, 0}, rec.symbols())
}

func TestMachine_RoundTrip(t *testing.T) {
	cfg := scenarioConfig()
	cfg.InputDelay = 0.5
	cfg.ResetDelay = 3
	m, rec := newMachine(t, cfg)
	c := newClock()

	feed(m, c, thumbsUp)
	for i, f := range []detector.Detection{winkL, winkR, winkL} {
		if i > 0 {
			m.Tick(eyesOpen, c.advance(600*time.Millisecond))
		}
		feed(m, c, f)
	}
	require.Equal(t, Success, m.State())

	m.Tick(eyesOpen, c.advance(3*time.Second))
	assert.Equal(t, Success, m.State(), "reset requires strictly more than the delay")

	feed(m, c, eyesOpen)
	snap := m.Snapshot(c.now)
	assert.Equal(t, Standby, snap.State)
	assert.Empty(t, snap.Sequence)

	assert.Equal(t, []string{"open_door"}, rec.dispatched, "dispatched once for the whole stay in SUCCESS")
}

func TestMachine_FailResets(t *testing.T) {
	cfg := scenarioConfig()
	cfg.ResetDelay = 1
	m, _ := newMachine(t, cfg)
	c := newClock()

	feed(m, c, thumbsUp, winkR, eyesOpen, winkR, eyesOpen, winkR)
	require.Equal(t, Fail, m.State())

	m.Tick(noSignal, c.advance(2*time.Second))
	assert.Equal(t, Standby, m.State())
}

func TestMachine_EmptyCommandTableFails(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MaxDigit = 1
	cfg.Commands = nil
	m, rec := newMachine(t, cfg)
	c := newClock()

	feed(m, c, thumbsUp, winkL)
	assert.Equal(t, Fail, m.State())
	assert.Empty(t, rec.dispatched)
}

func TestMachine_TerminalAction(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Commands[0].ActionID = config.ActionTerminate
	m, rec := newMachine(t, cfg)
	c := newClock()

	assert.True(t, feed(m, c, thumbsUp, winkL, eyesOpen, winkR, eyesOpen))
	assert.False(t, m.Tick(winkL, c.next()))
	assert.Equal(t, []string{config.ActionTerminate}, rec.dispatched)
}

func TestMachine_CustomTerminalActions(t *testing.T) {
	m, _ := newMachine(t, scenarioConfig(), WithTerminalActions("open_door"))
	c := newClock()

	feed(m, c, thumbsUp, winkL, eyesOpen, winkR, eyesOpen)
	assert.False(t, m.Tick(winkL, c.next()))
}

func TestMachine_CustomTerminalActionsKeepDefault(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Commands[0].ActionID = config.ActionTerminate
	m, _ := newMachine(t, cfg, WithTerminalActions("open_door"))
	c := newClock()

	feed(m, c, thumbsUp, winkL, eyesOpen, winkR, eyesOpen)
	assert.False(t, m.Tick(winkL, c.next()))
}

type terminalDispatcher struct {
	recorder
	terminal string
}

func (d *terminalDispatcher) IsTerminal(id string) bool { return id == d.terminal }

func TestMachine_DispatcherDeclaresTerminal(t *testing.T) {
	d := &terminalDispatcher{terminal: "open_door"}
	m := New(config.Static{Config: scenarioConfig()}, d)
	c := newClock()

	feed(m, c, thumbsUp, winkL, eyesOpen, winkR, eyesOpen)
	assert.False(t, m.Tick(winkL, c.next()))
	assert.Equal(t, []string{"open_door"}, d.dispatched)
}

type countingSource struct {
	loads int
	cfg   *config.Config
}

func (s *countingSource) Load() *config.Config {
	s.loads++
	return s.cfg.Clone()
}

func TestMachine_ReloadsConfigOnActivation(t *testing.T) {
	src := &countingSource{cfg: scenarioConfig()}
	m := New(src, nil)
	c := newClock()
	require.Equal(t, 1, src.loads)

	src.cfg.MaxDigit = 1
	m.Tick(thumbsUp, c.next())
	assert.Equal(t, 2, src.loads)

	m.Tick(winkL, c.next())
	assert.Equal(t, Fail, m.State(), "new code length applies to the new session")

	m.Tick(thumbsUp, c.next())
	assert.Equal(t, 2, src.loads, "activation outside STANDBY does not reload")
}

func TestMachine_Reset(t *testing.T) {
	m, rec := newMachine(t, scenarioConfig())
	c := newClock()

	feed(m, c, thumbsUp, winkL)
	m.Reset(c.next())

	snap := m.Snapshot(c.now)
	assert.Equal(t, Standby, snap.State)
	assert.Empty(t, snap.Sequence)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventTransition, last.Kind)
	assert.Equal(t, Input, last.From)

	n := len(rec.events)
	m.Reset(c.next())
	assert.Len(t, rec.events, n, "reset in STANDBY is a no-op")
}

func TestMachine_EventOrder(t *testing.T) {
	m, rec := newMachine(t, scenarioConfig())
	c := newClock()

	feed(m, c, thumbsUp, winkL, eyesOpen, winkR, eyesOpen, winkL)

	var kinds []EventKind
	for _, e := range rec.events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{
		EventTransition,
		EventSymbol, EventSymbol, EventSymbol,
		EventResult, EventTransition, EventDispatch,
	}, kinds)

	result := rec.events[4]
	assert.True(t, result.Result.Matched)
	assert.Equal(t, []gesture.Symbol{0, 1, 0}, result.Sequence)
}

func TestMachine_ObserverMayReadSnapshot(t *testing.T) {
	var m *Machine
	var seen []State
	m = New(config.Static{Config: scenarioConfig()}, nil, WithObserver(ObserverFunc(func(e Event) {
		seen = append(seen, m.Snapshot(e.At).State)
	})))
	c := newClock()

	feed(m, c, thumbsUp)
	assert.Equal(t, []State{Input}, seen)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "STANDBY", Standby.String())
	assert.Equal(t, "SUCCESS", Success.String())
	assert.Equal(t, "State(9)", State(9).String())

	text, err := Fail.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "FAIL", string(text))
}
