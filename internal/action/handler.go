package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/ayusman/winklock/internal/config"
	"github.com/ayusman/winklock/internal/plugin"
)

// Handler kinds accepted in the dispatch table.
const (
	KindLog       = "log"
	KindTerminate = "terminate"
	KindOpenURL   = "open_url"
	KindPlugin    = "plugin"
	KindSequence  = "sequence"
)

// ErrUnknownKind is returned for a dispatch entry with an unrecognised kind.
var ErrUnknownKind = errors.New("unknown action kind")

// Handler carries out one action.
type Handler interface {
	Run(ctx context.Context, actionID string) error
}

type logHandler struct {
	logger  *zap.Logger
	message string
}

func (h logHandler) Run(_ context.Context, actionID string) error {
	msg := h.message
	if msg == "" {
		msg = "action triggered"
	}
	h.logger.Info(msg, zap.String("action_id", actionID))
	return nil
}

// terminateHandler does nothing itself; the host stops after dispatch.
type terminateHandler struct {
	logger *zap.Logger
}

func (h terminateHandler) Run(_ context.Context, actionID string) error {
	h.logger.Info("terminate requested", zap.String("action_id", actionID))
	return nil
}

type openURLParams struct {
	URL string `mapstructure:"url"`
}

type openURLHandler struct {
	url  string
	open func(string) error
}

func (h openURLHandler) Run(_ context.Context, _ string) error {
	if err := h.open(h.url); err != nil {
		return fmt.Errorf("open %s: %w", h.url, err)
	}
	return nil
}

type pluginParams struct {
	Plugin string         `mapstructure:"plugin"`
	Action string         `mapstructure:"action"`
	Config map[string]any `mapstructure:"config"`
	Params map[string]any `mapstructure:"params"`
}

type pluginHandler struct {
	name     string
	action   string
	config   json.RawMessage
	params   json.RawMessage
	plugins  PluginLookup
	executor PluginRunner
}

func (h pluginHandler) Run(ctx context.Context, actionID string) error {
	if h.plugins == nil || h.executor == nil {
		return fmt.Errorf("plugin %s: plugins are disabled", h.name)
	}
	p, err := h.plugins.Get(h.name)
	if err != nil {
		return err
	}

	resp, err := h.executor.Execute(ctx, p, &plugin.Request{
		Action:   h.action,
		ActionID: actionID,
		Config:   h.config,
		Params:   h.params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s", h.name, resp.Error)
	}
	return nil
}

type stepSpec struct {
	Kind    string         `mapstructure:"kind"`
	Params  map[string]any `mapstructure:"params"`
	DelayMS int            `mapstructure:"delay_ms"`
}

type sequenceParams struct {
	Steps []stepSpec `mapstructure:"steps"`
}

type step struct {
	delay   time.Duration
	handler Handler
}

type sequenceHandler struct {
	steps []step
	sleep func(context.Context, time.Duration) error
}

// Run executes the steps in order, waiting each step's delay first. The
// first failing step stops the sequence.
func (h sequenceHandler) Run(ctx context.Context, actionID string) error {
	for i, s := range h.steps {
		if s.delay > 0 {
			if err := h.sleep(ctx, s.delay); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		if err := s.handler.Run(ctx, actionID); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (h sequenceHandler) terminal() bool {
	for _, s := range h.steps {
		if _, ok := s.handler.(terminateHandler); ok {
			return true
		}
	}
	return false
}

// build turns a dispatch entry into a Handler.
func (r *Registry) build(spec config.ActionSpec) (Handler, error) {
	switch spec.Kind {
	case KindLog:
		var p struct {
			Message string `mapstructure:"message"`
		}
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		return logHandler{logger: r.logger, message: p.Message}, nil

	case KindTerminate:
		return terminateHandler{logger: r.logger}, nil

	case KindOpenURL:
		var p openURLParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		if p.URL == "" {
			return nil, errors.New("open_url: url is required")
		}
		return openURLHandler{url: p.URL, open: r.openURL}, nil

	case KindPlugin:
		var p pluginParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		if p.Plugin == "" || p.Action == "" {
			return nil, errors.New("plugin: plugin and action are required")
		}
		cfg, err := rawJSON(p.Config)
		if err != nil {
			return nil, err
		}
		params, err := rawJSON(p.Params)
		if err != nil {
			return nil, err
		}
		return pluginHandler{
			name:     p.Plugin,
			action:   p.Action,
			config:   cfg,
			params:   params,
			plugins:  r.plugins,
			executor: r.executor,
		}, nil

	case KindSequence:
		var p sequenceParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		seq := sequenceHandler{sleep: r.sleep}
		for i, s := range p.Steps {
			if s.Kind == KindSequence {
				return nil, fmt.Errorf("step %d: nested sequences are not supported", i)
			}
			if s.DelayMS < 0 {
				return nil, fmt.Errorf("step %d: negative delay_ms", i)
			}
			h, err := r.build(config.ActionSpec{Kind: s.Kind, Params: s.Params})
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			seq.steps = append(seq.steps, step{
				delay:   time.Duration(s.DelayMS) * time.Millisecond,
				handler: h,
			})
		}
		return seq, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
}

func decodeParams(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

func rawJSON(v map[string]any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode plugin payload: %w", err)
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
