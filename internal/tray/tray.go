// Package tray provides a system tray interface for winklock.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/winklock/internal/gesture"
	"github.com/ayusman/winklock/internal/session"
)

const appTitle = "winklock"

// Tray represents the system tray application. It implements
// session.Observer to mirror the session in its title.
type Tray struct {
	onToggle    func(enabled bool)
	onReset     func()
	onDashboard func()
	onQuit      func()
	enabled     bool
	title       string
	last        string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuState  *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray. enabled is the initial toggle state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		title:   appTitle,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback for the Reset menu item.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnDashboard sets the callback for the Open dashboard menu item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	t.mu.Lock()
	systray.SetTitle(t.title)
	systray.SetTooltip("winklock wink code unlock")

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle wink detection")
	systray.AddSeparator()

	t.menuState = systray.AddMenuItem("State: "+session.Standby.String(), "Current session state")
	t.menuState.Disable()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last triggered command")
	t.menuLast.Disable()
	systray.AddSeparator()

	menuReset := systray.AddMenuItem("Reset", "Return to standby")
	menuDashboard := systray.AddMenuItem("Open dashboard...", "Open the control API in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit winklock")
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.call(t.resetCallback())
			case <-menuDashboard.ClickedCh:
				t.call(t.dashboardCallback())
			case <-menuQuit.ClickedCh:
				t.call(t.quitCallback())
				systray.Quit()
				return
			}
		}
	}()
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) resetCallback() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onReset
}

func (t *Tray) dashboardCallback() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onDashboard
}

func (t *Tray) quitCallback() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onQuit
}

func (t *Tray) call(fn func()) {
	if fn != nil {
		fn()
	}
}

// Observe implements session.Observer.
func (t *Tray) Observe(e session.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Kind {
	case session.EventTransition:
		t.title = titleFor(e.To, nil, e.MaxDigit)
		if t.menuState != nil {
			t.menuState.SetTitle("State: " + e.To.String())
		}
	case session.EventSymbol:
		t.title = titleFor(session.Input, e.Sequence, e.MaxDigit)
	case session.EventResult:
		if e.Result.Matched {
			t.last = e.Result.CommandName
			if t.menuLast != nil {
				t.menuLast.SetTitle(lastTitle(t.last))
			}
		}
		return
	default:
		return
	}

	if t.menuToggle != nil {
		systray.SetTitle(t.title)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Title returns the current tray title.
func (t *Tray) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// LastCommand returns the last triggered command name.
func (t *Tray) LastCommand() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}

// titleFor renders the tray title, e.g. "winklock 01____" while entering a code.
func titleFor(state session.State, seq []gesture.Symbol, maxDigit int) string {
	switch state {
	case session.Input:
		code := gesture.FormatCode(seq)
		if pad := maxDigit - len(seq); pad > 0 {
			code += strings.Repeat("_", pad)
		}
		return appTitle + " " + code
	case session.Success:
		return appTitle + " ✓"
	case session.Fail:
		return appTitle + " ✗"
	}
	return appTitle
}
