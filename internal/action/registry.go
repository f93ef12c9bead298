// Package action maps action identifiers to side effects: logging, opening
// a URL, running a plugin, timed sequences of those, and terminating the host.
package action

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/ayusman/winklock/internal/config"
	"github.com/ayusman/winklock/internal/plugin"
)

// DefaultTimeout bounds one dispatch, including sequence delays.
const DefaultTimeout = 30 * time.Second

// PluginLookup finds plugins by name. *plugin.Manager implements it.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// PluginRunner executes a plugin. *plugin.Executor implements it.
type PluginRunner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// Registry dispatches action identifiers to handlers built from the
// configured dispatch table. It implements session.Dispatcher and
// session.TerminalChecker.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	terminal map[string]bool

	logger   *zap.Logger
	ctx      context.Context
	timeout  time.Duration
	plugins  PluginLookup
	executor PluginRunner
	openURL  func(string) error
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithContext sets the parent context of every dispatch. Cancelling it
// interrupts running sequences.
func WithContext(ctx context.Context) Option {
	return func(r *Registry) { r.ctx = ctx }
}

// WithTimeout bounds each dispatch.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithPlugins enables the plugin kind.
func WithPlugins(lookup PluginLookup, runner PluginRunner) Option {
	return func(r *Registry) {
		r.plugins = lookup
		r.executor = runner
	}
}

// WithURLOpener replaces the browser launcher.
func WithURLOpener(open func(string) error) Option {
	return func(r *Registry) { r.openURL = open }
}

// WithSleep replaces the delay used between sequence steps.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Registry) { r.sleep = sleep }
}

// NewRegistry creates an empty Registry. Call Configure or Track to load a
// dispatch table.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		terminal: make(map[string]bool),
		logger:   zap.NewNop(),
		ctx:      context.Background(),
		timeout:  DefaultTimeout,
		openURL:  browser.OpenURL,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure replaces the dispatch table. Entries that fail to build are left
// out and reported in the returned error; the rest are installed.
func (r *Registry) Configure(actions map[string]config.ActionSpec) error {
	handlers := make(map[string]Handler, len(actions))
	terminal := make(map[string]bool)
	var errs []error

	for _, id := range slices.Sorted(maps.Keys(actions)) {
		h, err := r.build(actions[id])
		if err != nil {
			errs = append(errs, fmt.Errorf("action %s: %w", id, err))
			continue
		}
		handlers[id] = h
		if isTerminal(h) {
			terminal[id] = true
		}
	}

	r.mu.Lock()
	r.handlers = handlers
	r.terminal = terminal
	r.mu.Unlock()

	err := errors.Join(errs...)
	if err != nil {
		r.logger.Warn("dispatch table has invalid entries", zap.Error(err))
	}
	return err
}

func isTerminal(h Handler) bool {
	switch h := h.(type) {
	case terminateHandler:
		return true
	case sequenceHandler:
		return h.terminal()
	}
	return false
}

// Dispatch runs the handler for actionID. Unknown identifiers and handler
// failures are logged, never returned.
func (r *Registry) Dispatch(actionID string) {
	r.mu.RLock()
	h, ok := r.handlers[actionID]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("no handler for action", zap.String("action_id", actionID))
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	if err := h.Run(ctx, actionID); err != nil {
		r.logger.Error("action failed", zap.String("action_id", actionID), zap.Error(err))
		return
	}
	r.logger.Debug("action completed",
		zap.String("action_id", actionID),
		zap.Duration("took", time.Since(start)))
}

// IsTerminal reports whether dispatching actionID should stop the host.
func (r *Registry) IsTerminal(actionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.terminal[actionID]
}

// IDs returns the configured action identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}

// Track wraps src so that every loaded configuration also reconfigures the
// registry. The dispatch table therefore follows the same reload cadence as
// the command table.
func (r *Registry) Track(src config.Source) config.Source {
	return trackedSource{src: src, registry: r}
}

type trackedSource struct {
	src      config.Source
	registry *Registry
}

func (t trackedSource) Load() *config.Config {
	cfg := t.src.Load()
	// Configure logs invalid entries and installs the rest.
	t.registry.Configure(cfg.Actions)
	return cfg
}
