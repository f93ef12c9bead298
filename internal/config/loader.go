package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// watchDebounce collapses the burst of events editors emit for one save.
const watchDebounce = 100 * time.Millisecond

// ErrUnsupportedFormat is returned for files whose extension is not json, yaml, yml or toml.
var ErrUnsupportedFormat = errors.New("unsupported config format")

var validate = validator.New()

// Loader reads a configuration file. Load never fails: a missing, unparsable
// or invalid file yields Default.
type Loader struct {
	path   string
	logger *zap.Logger

	mu       sync.RWMutex
	current  *Config
	fallback bool
}

// NewLoader creates a Loader for path. An empty path always yields Default.
func NewLoader(path string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{path: path, logger: logger}
}

// Path returns the configuration file path.
func (l *Loader) Path() string { return l.path }

// Load re-reads the file and returns a fresh snapshot.
func (l *Loader) Load() *Config {
	cfg, err := l.LoadStrict()
	fallback := err != nil
	if fallback {
		l.logger.Debug("using default config", zap.String("path", l.path), zap.Error(err))
		cfg = Default()
	}

	l.mu.Lock()
	l.current = cfg
	l.fallback = fallback
	l.mu.Unlock()

	return cfg.Clone()
}

// LoadStrict reads the file and reports why it cannot be used.
func (l *Loader) LoadStrict() (*Config, error) {
	if l.path == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data, filepath.Ext(l.path))
}

// Current returns the most recent snapshot and whether it is the fallback.
// It loads the file if nothing has been loaded yet.
func (l *Loader) Current() (*Config, bool) {
	l.mu.RLock()
	cfg, fallback := l.current, l.fallback
	l.mu.RUnlock()

	if cfg == nil {
		return l.Load(), l.isFallback()
	}
	return cfg.Clone(), fallback
}

func (l *Loader) isFallback() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fallback
}

// Parse decodes data in the format named by ext (".json", ".yaml", ".yml"
// or ".toml"). Fields absent from the document keep their default values and
// built-in actions not overridden by the document are kept.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	defaultCommands := cfg.Commands
	cfg.Commands = nil
	cfg.Actions = nil

	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json", "":
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(cfg)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, cfg)
	case "toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// An explicit empty list stays empty; only an absent key inherits.
	if cfg.Commands == nil {
		cfg.Commands = defaultCommands
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	for id, spec := range DefaultActions() {
		if _, ok := cfg.Actions[id]; !ok {
			if cfg.Actions == nil {
				cfg.Actions = make(map[string]ActionSpec)
			}
			cfg.Actions[id] = spec
		}
	}

	return cfg, nil
}

// Watch reports edits of the configuration file by calling onChange until
// ctx is done. Edits take effect at the next Load.
func (l *Loader) Watch(ctx context.Context, onChange func()) error {
	if l.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory so atomic rename-on-save is seen.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go l.watchLoop(ctx, watcher, onChange)
	return nil
}

func (l *Loader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	defer watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	name := filepath.Base(l.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				l.logger.Info("config file changed", zap.String("path", l.path))
				if onChange != nil {
					onChange()
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
