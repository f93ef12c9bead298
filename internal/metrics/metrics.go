// Package metrics exposes Prometheus collectors fed by session events and
// the frame loop.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayusman/winklock/internal/session"
)

const namespace = "winklock"

// Collector holds the winklock metrics. It implements session.Observer.
type Collector struct {
	symbols    *prometheus.CounterVec
	attempts   *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	state      *prometheus.GaugeVec
	frames     *prometheus.CounterVec
	detect     prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		symbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_total",
			Help:      "Accepted wink symbols by value.",
		}, []string{"symbol"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Completed code entries by result.",
		}, []string{"result"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Dispatched actions by identifier.",
		}, []string{"action_id"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current session state (1 for the active state).",
		}, []string{"state"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Processed camera frames by detection outcome.",
		}, []string{"outcome"}),
		detect: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detect_duration_seconds",
			Help:      "Landmark detection latency per frame.",
			Buckets:   []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.25, 0.5},
		}),
	}

	reg.MustRegister(c.symbols, c.attempts, c.dispatches, c.state, c.frames, c.detect)
	c.setState(session.Standby)
	return c
}

// Observe implements session.Observer.
func (c *Collector) Observe(e session.Event) {
	switch e.Kind {
	case session.EventTransition:
		c.setState(e.To)
	case session.EventSymbol:
		c.symbols.WithLabelValues(strconv.Itoa(int(e.Symbol))).Inc()
	case session.EventResult:
		result := "fail"
		if e.Result.Matched {
			result = "success"
		}
		c.attempts.WithLabelValues(result).Inc()
	case session.EventDispatch:
		c.dispatches.WithLabelValues(e.ActionID).Inc()
	}
}

func (c *Collector) setState(active session.State) {
	for _, s := range session.States {
		v := 0.0
		if s == active {
			v = 1
		}
		c.state.WithLabelValues(s.String()).Set(v)
	}
}

// Frame outcomes.
const (
	OutcomeDetected = "detected"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
)

// ObserveFrame records one processed frame.
func (c *Collector) ObserveFrame(outcome string, took time.Duration) {
	c.frames.WithLabelValues(outcome).Inc()
	c.detect.Observe(took.Seconds())
}
