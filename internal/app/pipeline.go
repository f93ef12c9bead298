package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/winklock/internal/capture"
	"github.com/ayusman/winklock/internal/detector"
	"github.com/ayusman/winklock/internal/metrics"
	"github.com/ayusman/winklock/internal/session"
)

// ErrAlreadyRunning is returned when Run is called twice concurrently.
var ErrAlreadyRunning = errors.New("app is already running")

// Run opens the camera and pumps frames until ctx is cancelled, the camera
// source ends, or the machine reports that the host should stop.
//
// Loop logic:
//  1. In Standby with a still scene the loop idles at IdleFPS and skips detection.
//  2. Motion, or any non-Standby state, switches to ActiveFPS.
//  3. Each active frame runs the detector; a detector error counts as an empty frame.
//  4. The clock is read once per frame and passed to Tick.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			a.logger.Warn("error closing camera", zap.Error(err))
		}
	}()

	a.active = a.config.AlwaysActive
	a.lastMotion = a.clock()
	interval := a.interval()
	a.camera.SetFPS(a.fps())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("frame loop started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("frame loop stopped", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		frame, err := a.camera.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			a.logger.Info("camera stream ended")
			return nil
		}
		if err != nil {
			a.logger.Warn("error reading frame", zap.Error(err))
			continue
		}

		keep := a.processFrame(frame)
		frame.Close()

		if next := a.interval(); next != interval {
			interval = next
			ticker.Reset(interval)
			a.camera.SetFPS(a.fps())
		}

		if !keep {
			a.logger.Info("frame loop stopped by terminal action")
			return nil
		}
	}
}

// processFrame runs one frame through the pipeline and reports whether the
// host should keep running.
func (a *App) processFrame(frame *gocv.Mat) bool {
	if a.sink != nil && frame != nil {
		a.sink.PublishFrame(frame)
	}

	now := a.clock()

	var det detector.Detection
	if a.shouldDetect(frame, now) {
		det = a.detect(frame)
	}

	return a.machine.Tick(det, now)
}

// shouldDetect updates the idle gate. Only Standby may idle; once a session
// is open every frame is detected.
func (a *App) shouldDetect(frame *gocv.Mat, now time.Time) bool {
	if a.config.AlwaysActive {
		return true
	}

	moved, _ := a.motion.Moved(frame)
	if moved {
		a.lastMotion = now
	}

	switch {
	case a.machine.State() != session.Standby:
		a.active = true
	case moved && !a.active:
		a.active = true
		a.logger.Debug("switched to active mode")
	case !moved && a.active && now.Sub(a.lastMotion) > a.config.IdleTimeout:
		a.active = false
		a.logger.Debug("switched to idle mode")
	}
	return a.active
}

func (a *App) detect(frame *gocv.Mat) detector.Detection {
	if a.detector == nil {
		return detector.Detection{}
	}

	start := time.Now()
	det, err := a.detector.Detect(frame)
	took := time.Since(start)

	outcome := metrics.OutcomeDetected
	switch {
	case err != nil:
		a.logger.Warn("landmark detection failed", zap.Error(err))
		det = detector.Detection{}
		outcome = metrics.OutcomeError
	case len(det.Hands) == 0 && len(det.Faces) == 0:
		outcome = metrics.OutcomeEmpty
	}
	if a.frames != nil {
		a.frames.ObserveFrame(outcome, took)
	}
	return det
}

func (a *App) fps() int {
	if a.active {
		return a.config.ActiveFPS
	}
	return a.config.IdleFPS
}

func (a *App) interval() time.Duration {
	return time.Second / time.Duration(a.fps())
}
