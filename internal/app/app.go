// Package app runs the frame loop: camera -> landmark detector -> session machine.
package app

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/winklock/internal/capture"
	"github.com/ayusman/winklock/internal/detector"
	"github.com/ayusman/winklock/internal/session"
	"github.com/ayusman/winklock/internal/store"
)

// Loop timing defaults.
const (
	// IdleFPS is the frame rate while in Standby with a still scene.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a hand may be moving or a session is open.
	ActiveFPS = 15
	// IdleTimeout is how long a still scene keeps the loop active.
	IdleTimeout = 2 * time.Second
)

// Machine is the session surface the loop drives.
type Machine interface {
	Tick(frame detector.Detection, now time.Time) bool
	State() session.State
	Reset(now time.Time)
}

// FrameSink receives every captured frame, e.g. for the preview stream.
// The frame is only valid for the duration of the call.
type FrameSink interface {
	PublishFrame(frame *gocv.Mat)
}

// FrameObserver records per-frame detection outcomes.
type FrameObserver interface {
	ObserveFrame(outcome string, took time.Duration)
}

// Settings persists the enabled toggle. *store.SettingRepository implements it.
type Settings interface {
	Bool(key string, def bool) bool
	SetBool(key string, value bool) error
}

// Config holds loop options. Zero values select the defaults.
type Config struct {
	IdleFPS         int
	ActiveFPS       int
	IdleTimeout     time.Duration
	MotionThreshold float64
	// AlwaysActive disables the idle gate so every frame is detected.
	AlwaysActive bool
}

func (c Config) withDefaults() Config {
	if c.IdleFPS <= 0 {
		c.IdleFPS = IdleFPS
	}
	if c.ActiveFPS <= 0 {
		c.ActiveFPS = ActiveFPS
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = IdleTimeout
	}
	return c
}

// App owns the frame loop.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	machine  Machine
	motion   *capture.MotionGate
	sink     FrameSink
	frames   FrameObserver
	settings Settings
	logger   *zap.Logger
	clock    func() time.Time

	mu      sync.RWMutex
	enabled bool
	running bool

	// loop state, touched only by the loop goroutine
	active     bool
	lastMotion time.Time
}

// Option configures an App.
type Option func(*App)

// WithConfig sets the loop options.
func WithConfig(c Config) Option {
	return func(a *App) { a.config = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithFrameSink publishes captured frames to s.
func WithFrameSink(s FrameSink) Option {
	return func(a *App) { a.sink = s }
}

// WithFrameObserver reports detection outcomes to o.
func WithFrameObserver(o FrameObserver) Option {
	return func(a *App) { a.frames = o }
}

// WithSettings loads and persists the enabled toggle through s.
func WithSettings(s Settings) Option {
	return func(a *App) { a.settings = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.clock = now }
}

// New creates an App. Detection starts enabled unless persisted settings
// say otherwise.
func New(camera capture.Camera, det detector.Detector, machine Machine, opts ...Option) *App {
	a := &App{
		camera:   camera,
		detector: det,
		machine:  machine,
		logger:   zap.NewNop(),
		clock:    time.Now,
		enabled:  true,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.config = a.config.withDefaults()
	a.motion = capture.NewMotionGate(a.config.MotionThreshold)

	if a.settings != nil {
		a.enabled = a.settings.Bool(store.SettingEnabled, true)
	}
	return a
}

// SetEnabled pauses or resumes ticking. Pausing drops any partly entered code.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if !changed {
		return
	}
	if !enabled {
		a.machine.Reset(a.clock())
	}
	if a.settings != nil {
		if err := a.settings.SetBool(store.SettingEnabled, enabled); err != nil {
			a.logger.Warn("failed to persist enabled setting", zap.Error(err))
		}
	}
	a.logger.Info("detection toggled", zap.Bool("enabled", enabled))
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether Run is executing.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Close releases the detector and the motion gate. Call after Run returns.
func (a *App) Close() error {
	a.motion.Close()
	if a.detector == nil {
		return nil
	}
	return a.detector.Close()
}
