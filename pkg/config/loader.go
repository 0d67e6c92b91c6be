package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Loader handles loading and watching a configuration file.
type Loader struct {
	path     string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	current  *Config
	mu       sync.RWMutex
	onChange func(previous, next *Config)
	close    chan struct{}
	once     sync.Once
}

// NewLoader creates a Loader for path. An empty path loads defaults and
// environment overrides only, and cannot be watched.
func NewLoader(path string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absPath := path
	if path != "" {
		var err error
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
		}
	}

	return &Loader{
		path:   absPath,
		logger: logger,
		close:  make(chan struct{}),
	}, nil
}

// Path returns the absolute path of the watched file.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the configuration and makes it current.
func (l *Loader) Load() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()

	return cfg, nil
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch monitors the configuration file and calls onChange with the previous
// and the new configuration after each successful reload. Invalid files are
// logged and the previous configuration is retained.
func (l *Loader) Watch(onChange func(previous, next *Config)) error {
	if l.path == "" {
		return fmt.Errorf("no configuration file to watch")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		return fmt.Errorf("configuration file %s is already watched", l.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Editors replace files atomically, so watch the directory rather than the file.
	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	l.watcher = watcher
	l.onChange = onChange

	go l.watchLoop(watcher)
	return nil
}

func (l *Loader) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-l.close:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			l.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("Config watcher error", "path", l.path, "error", err)
		}
	}
}

func (l *Loader) reload() {
	previous := l.Current()

	next, err := l.Load()
	if err != nil {
		l.logger.Error("Config reload failed, keeping previous configuration", "path", l.path, "error", err)
		return
	}

	l.logger.Debug("Config reloaded", "path", l.path)
	l.mu.RLock()
	onChange := l.onChange
	l.mu.RUnlock()
	if onChange != nil {
		onChange(previous, next)
	}
}

// Close stops the watcher.
func (l *Loader) Close() error {
	var err error
	l.once.Do(func() {
		close(l.close)
		l.mu.RLock()
		watcher := l.watcher
		l.mu.RUnlock()
		if watcher != nil {
			err = watcher.Close()
		}
	})
	return err
}
