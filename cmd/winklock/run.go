package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/winklock/internal/action"
	"github.com/ayusman/winklock/internal/app"
	"github.com/ayusman/winklock/internal/capture"
	"github.com/ayusman/winklock/internal/config"
	"github.com/ayusman/winklock/internal/detector"
	"github.com/ayusman/winklock/internal/metrics"
	"github.com/ayusman/winklock/internal/plugin"
	"github.com/ayusman/winklock/internal/server"
	"github.com/ayusman/winklock/internal/session"
	"github.com/ayusman/winklock/internal/store"
	"github.com/ayusman/winklock/internal/tray"
)

type runOptions struct {
	camera     int
	fps        int
	addr       string
	pluginDir  string
	dbPath     string
	serviceDir string
	noTray     bool
	noServer   bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the camera loop",
	Long:  `Opens the camera and runs the wink code session until interrupted or a terminating command is entered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWinklock(cmd.Context(), runOpts)
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runOpts.camera, "camera", envIntOr(envCamera, 0), "camera device index")
	f.IntVar(&runOpts.fps, "fps", envIntOr(envFPS, app.ActiveFPS), "frame rate while active")
	f.StringVar(&runOpts.addr, "addr", envOr(envAddr, "127.0.0.1:8080"), "control API listen address")
	f.StringVar(&runOpts.pluginDir, "plugins", envOr(envPlugins, filepath.Join(dataDir(), "plugins")), "plugin directory")
	f.StringVar(&runOpts.dbPath, "db", envOr(envDB, filepath.Join(dataDir(), "winklock.db")), "attempt history database")
	f.StringVar(&runOpts.serviceDir, "service-dir", "", "directory holding the landmark service script")
	f.BoolVar(&runOpts.noTray, "no-tray", false, "do not show the system tray icon")
	f.BoolVar(&runOpts.noServer, "no-server", false, "do not start the control API")
	rootCmd.AddCommand(runCmd)
}

func runWinklock(parent context.Context, opts runOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(configPath, logger.Named("config"))
	if _, err := loader.LoadStrict(); err != nil {
		logger.Warn("config unusable, using defaults", zap.String("path", configPath), zap.Error(err))
	}

	// Storage
	if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// Actions
	plugins := plugin.NewManager(opts.pluginDir, logger.Named("plugin"))
	if err := plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", zap.Error(err))
	}
	registry := action.NewRegistry(
		action.WithLogger(logger.Named("action")),
		action.WithContext(ctx),
		action.WithPlugins(plugins, plugin.NewExecutor(plugin.DefaultTimeout)),
	)

	// Observers
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)
	hub := server.NewHub(logger.Named("ws"))
	stream := server.NewStreamHandler()

	enabled := st.Settings().Bool(store.SettingEnabled, true)
	var tr *tray.Tray
	observers := []session.Option{
		session.WithLogger(logger.Named("session")),
		session.WithObserver(store.NewRecorder(st, logger.Named("store"))),
		session.WithObserver(collector),
		session.WithObserver(hub),
	}
	if !opts.noTray {
		tr = tray.New(enabled)
		observers = append(observers, session.WithObserver(tr))
	}

	machine := session.New(registry.Track(loader), registry, observers...)

	// Frame loop
	var serviceDirs []string
	if opts.serviceDir != "" {
		serviceDirs = append(serviceDirs, opts.serviceDir)
	}
	var det detector.Detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), serviceDirs...); err == nil {
		det = mp
		logger.Info("using MediaPipe landmark detection")
	} else {
		logger.Warn("MediaPipe not available, using mock detector", zap.Error(err))
		det = detector.NewMockDetector()
	}

	camOpts := capture.DefaultOptions()
	camOpts.DeviceID = opts.camera
	camOpts.FPS = opts.fps

	loop := app.New(capture.NewCamera(camOpts), det, machine,
		app.WithLogger(logger.Named("app")),
		app.WithConfig(app.Config{ActiveFPS: opts.fps}),
		app.WithFrameSink(stream),
		app.WithFrameObserver(collector),
		app.WithSettings(st.Settings()),
	)
	defer loop.Close()

	if err := loader.Watch(ctx, func() {
		hub.ConfigChanged(loader.Path())
		if cfg, err := loader.LoadStrict(); err != nil {
			logger.Warn("edited config is unusable, defaults apply at next activation", zap.Error(err))
		} else {
			for _, f := range config.Lint(cfg) {
				logger.Warn("config lint", zap.String("finding", f.String()))
			}
		}
	}); err != nil {
		logger.Warn("config watch disabled", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	if !opts.noServer {
		srv := server.New(server.Config{
			Session: machine,
			Toggle:  loop,
			Configs: loader,
			Store:   st,
			Hub:     hub,
			Stream:  stream,
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Logger:  logger.Named("server"),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, opts.addr); err != nil {
				logger.Error("control API failed", zap.Error(err))
			}
		}()
	}

	loopErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		loopErr <- loop.Run(ctx)
		cancel()
		if tr != nil {
			tr.Quit()
		}
	}()

	if tr != nil {
		tr.OnToggle(loop.SetEnabled)
		tr.OnReset(func() { machine.Reset(time.Now()) })
		tr.OnDashboard(func() {
			if err := browser.OpenURL(dashboardURL(opts.addr)); err != nil {
				logger.Warn("failed to open dashboard", zap.Error(err))
			}
		})
		tr.OnQuit(cancel)
		// systray must own the main goroutine.
		tr.Run()
		cancel()
	}

	wg.Wait()
	return <-loopErr
}

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/api/status"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api/status"
}
