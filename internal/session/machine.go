package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/winklock/internal/config"
	"github.com/ayusman/winklock/internal/detector"
	"github.com/ayusman/winklock/internal/gesture"
)

// Context is the mutable state of one session, owned by a single Machine.
type Context struct {
	State     State
	EnteredAt time.Time
	Config    *config.Config
	Sequence  *gesture.Sequence
	Debouncer *gesture.Debouncer
	Triggered gesture.MatchResult
}

// Machine advances the session once per frame:
//
//	STANDBY --thumbs up--> INPUT --code complete--> SUCCESS | FAIL --reset delay--> STANDBY
//
// The configuration is reloaded from the source on every activation.
type Machine struct {
	mu         sync.RWMutex
	source     config.Source
	dispatcher Dispatcher
	terminal   map[string]bool
	observers  []Observer
	logger     *zap.Logger
	ctx        Context
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithObserver registers an observer. Observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observers = append(m.observers, o) }
}

// WithTerminalActions adds action identifiers after which Tick reports that
// the host should stop. config.ActionTerminate is always terminal.
func WithTerminalActions(ids ...string) Option {
	return func(m *Machine) {
		for _, id := range ids {
			m.terminal[id] = true
		}
	}
}

// New creates a Machine in Standby.
func New(source config.Source, dispatcher Dispatcher, opts ...Option) *Machine {
	if dispatcher == nil {
		dispatcher = DispatcherFunc(func(string) {})
	}

	m := &Machine{
		source:     source,
		dispatcher: dispatcher,
		terminal:   map[string]bool{config.ActionTerminate: true},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	cfg := source.Load()
	m.ctx = Context{
		State:     Standby,
		Config:    cfg,
		Sequence:  gesture.NewSequence(cfg.MaxDigit),
		Debouncer: gesture.NewDebouncer(cfg.InputDelayDuration()),
	}
	return m
}

// Tick advances the machine with one frame observed at now and reports
// whether the host should keep running. now is the only clock read for the
// whole tick.
func (m *Machine) Tick(frame detector.Detection, now time.Time) bool {
	m.mu.Lock()
	events, actionID := m.step(frame, now)
	m.mu.Unlock()

	m.notify(events)

	if actionID == "" {
		return true
	}

	m.logger.Info("dispatching action", zap.String("action_id", actionID))
	m.dispatcher.Dispatch(actionID)
	m.notify([]Event{{Kind: EventDispatch, From: Success, To: Success, ActionID: actionID, At: now}})

	if m.isTerminal(actionID) {
		m.logger.Info("terminal action dispatched, stopping", zap.String("action_id", actionID))
		return false
	}
	return true
}

func (m *Machine) isTerminal(actionID string) bool {
	if m.terminal[actionID] {
		return true
	}
	tc, ok := m.dispatcher.(TerminalChecker)
	return ok && tc.IsTerminal(actionID)
}

// step runs the transition logic under the lock. It returns the events to
// publish and the action to dispatch on entering Success.
func (m *Machine) step(frame detector.Detection, now time.Time) ([]Event, string) {
	c := &m.ctx
	var events []Event

	switch c.State {
	case Standby:
		if gesture.AnyActivation(frame.Hands) {
			c.Config = m.source.Load()
			c.Sequence = gesture.NewSequence(c.Config.MaxDigit)
			c.Debouncer = gesture.NewDebouncer(c.Config.InputDelayDuration())
			c.Triggered = gesture.MatchResult{}
			events = append(events, m.enter(Input, now))
			m.logger.Info("entering input mode",
				zap.Int("max_digit", c.Config.MaxDigit),
				zap.Int("commands", len(c.Config.Commands)))
		}

	case Input:
		eyes, ok := gesture.ClassifyEyes(frame.Face(), c.Config.BlinkThreshold)
		if !ok {
			return nil, ""
		}
		sym, emitted := c.Debouncer.Update(eyes, now)
		if !emitted {
			return nil, ""
		}

		c.Sequence.Append(sym)
		events = append(events, Event{
			Kind:     EventSymbol,
			From:     Input,
			To:       Input,
			Symbol:   sym,
			Sequence: c.Sequence.Symbols(),
			MaxDigit: c.Sequence.Max(),
			At:       now,
		})
		m.logger.Debug("symbol accepted", zap.Int("symbol", int(sym)), zap.Int("length", c.Sequence.Len()))

		if !c.Sequence.IsComplete() {
			return events, ""
		}

		code := c.Sequence.Symbols()
		result := gesture.Match(code, c.Config.Commands)
		events = append(events, Event{
			Kind:     EventResult,
			From:     Input,
			To:       Input,
			Sequence: code,
			MaxDigit: c.Sequence.Max(),
			Result:   result,
			At:       now,
		})

		if !result.Matched {
			m.logger.Info("code not recognized", zap.String("code", gesture.FormatCode(code)))
			events = append(events, m.enter(Fail, now))
			return events, ""
		}

		m.logger.Info("code recognized",
			zap.String("command", result.CommandName),
			zap.String("action_id", result.ActionID))
		c.Triggered = result
		events = append(events, m.enter(Success, now))
		return events, result.ActionID

	case Success, Fail:
		if now.Sub(c.EnteredAt) > c.Config.ResetDelayDuration() {
			c.Sequence.Reset()
			c.Debouncer.Reset()
			events = append(events, m.enter(Standby, now))
		}

	default:
		m.logger.Error("unknown session state, resetting", zap.Stringer("state", c.State))
		c.Sequence.Reset()
		events = append(events, m.enter(Standby, now))
	}

	return events, ""
}

func (m *Machine) enter(to State, now time.Time) Event {
	from := m.ctx.State
	m.ctx.State = to
	m.ctx.EnteredAt = now
	return Event{Kind: EventTransition, From: from, To: to, MaxDigit: m.ctx.Sequence.Max(), At: now}
}

func (m *Machine) notify(events []Event) {
	for _, e := range events {
		for _, o := range m.observers {
			o.Observe(e)
		}
	}
}

// Reset forces the machine back to Standby, discarding any partial code.
func (m *Machine) Reset(now time.Time) {
	m.mu.Lock()
	var events []Event
	if m.ctx.State != Standby {
		m.ctx.Sequence.Reset()
		m.ctx.Debouncer.Reset()
		events = append(events, m.enter(Standby, now))
	}
	m.mu.Unlock()

	m.notify(events)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctx.State
}

// Snapshot returns a consistent view of the session at now.
func (m *Machine) Snapshot(now time.Time) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := &m.ctx
	return Snapshot{
		State:       c.State,
		EnteredAt:   c.EnteredAt,
		Sequence:    c.Sequence.Symbols(),
		MaxDigit:    c.Sequence.Max(),
		Cooldown:    c.State == Input && c.Debouncer.InCooldown(now),
		Debounce:    c.Debouncer.State(),
		LastCommand: c.Triggered.CommandName,
	}
}
