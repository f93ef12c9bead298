// Package config loads the wink code session configuration: code length,
// timing, the command table and the action dispatch table.
package config

import (
	"maps"
	"slices"
	"time"

	"github.com/ayusman/winklock/internal/gesture"
)

// Built-in action identifiers.
const (
	ActionLogin       = "login"
	ActionPlayYouTube = "play_youtube"
	ActionTerminate   = "terminate_app"
)

// Config is an immutable per-session snapshot. A fresh copy is loaded each
// time the activation gesture starts a session.
type Config struct {
	MaxDigit       int               `json:"max_digit" yaml:"max_digit" toml:"max_digit" validate:"gt=0,lte=64"`
	BlinkThreshold float64           `json:"blink_threshold" yaml:"blink_threshold" toml:"blink_threshold" validate:"gt=0,lt=1"`
	InputDelay     float64           `json:"input_delay" yaml:"input_delay" toml:"input_delay" validate:"gte=0"`
	ResetDelay     float64           `json:"reset_delay" yaml:"reset_delay" toml:"reset_delay" validate:"gte=0"`
	Commands       []gesture.Command `json:"commands" yaml:"commands" toml:"commands"`

	// Actions maps action identifiers to their handlers. Entries from a file
	// extend and override the built-in table.
	Actions map[string]ActionSpec `json:"actions,omitempty" yaml:"actions,omitempty" toml:"actions,omitempty"`
}

// ActionSpec describes how an action identifier is carried out.
type ActionSpec struct {
	Kind   string         `json:"kind" yaml:"kind" toml:"kind" mapstructure:"kind"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty" mapstructure:"params"`
}

// Default returns the built-in configuration used when no usable file exists.
func Default() *Config {
	return &Config{
		MaxDigit:       6,
		BlinkThreshold: 0.24,
		InputDelay:     1.0,
		ResetDelay:     3.0,
		Commands: []gesture.Command{
			{Name: "DEFAULT LOGIN", Code: []gesture.Symbol{0, 1, 0, 1, 0, 1}, ActionID: ActionLogin},
		},
		Actions: DefaultActions(),
	}
}

// DefaultActions returns the built-in dispatch table.
func DefaultActions() map[string]ActionSpec {
	return map[string]ActionSpec{
		ActionLogin: {Kind: "log"},
		ActionPlayYouTube: {
			Kind: "sequence",
			Params: map[string]any{
				"steps": []any{
					map[string]any{
						"kind":   "open_url",
						"params": map[string]any{"url": "https://youtu.be/ic98J9ZbtQ0"},
					},
					map[string]any{
						"kind":     "plugin",
						"delay_ms": 5000,
						"params": map[string]any{
							"plugin": "keyboard",
							"action": "keystroke",
							"params": map[string]any{"key": "f"},
						},
					},
				},
			},
		},
		ActionTerminate: {Kind: "terminate"},
	}
}

// InputDelayDuration returns the minimum gap between accepted symbols.
func (c *Config) InputDelayDuration() time.Duration {
	return seconds(c.InputDelay)
}

// ResetDelayDuration returns the dwell time in a result state.
func (c *Config) ResetDelayDuration() time.Duration {
	return seconds(c.ResetDelay)
}

// Clone returns a deep copy of the command table and a shallow copy of the
// action table.
func (c *Config) Clone() *Config {
	out := *c
	out.Commands = make([]gesture.Command, len(c.Commands))
	for i, cmd := range c.Commands {
		cmd.Code = slices.Clone(cmd.Code)
		out.Commands[i] = cmd
	}
	out.Actions = maps.Clone(c.Actions)
	return &out
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Source supplies configuration snapshots.
type Source interface {
	Load() *Config
}

// Static is a Source that always returns the same configuration.
type Static struct {
	Config *Config
}

// Load returns a copy of the static configuration, or the default when unset.
func (s Static) Load() *Config {
	if s.Config == nil {
		return Default()
	}
	return s.Config.Clone()
}
