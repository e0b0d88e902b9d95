package config

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editors tend to fire several write events per save; collapse them
// into one reload.
const reloadDebounce = 500 * time.Millisecond

// Manager holds the live configuration and reloads it when the backing
// file changes. Readers always see a complete Config: reloads swap an
// atomic pointer, and a file that no longer parses leaves the previous
// value in place.
type Manager struct {
	current   atomic.Pointer[Config]
	path      string
	watcher   *fsnotify.Watcher
	listeners []func(*Config)
	logger    *slog.Logger
}

// NewManager loads path once and returns a manager serving that config.
// Call Watch to pick up later edits.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{path: path, logger: logger}
	m.current.Store(cfg)
	return m, nil
}

// Get returns the live configuration. Safe for concurrent use.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// OnChange registers fn to run after every successful reload.
// Register before calling Watch; the listener list is not locked.
func (m *Manager) OnChange(fn func(*Config)) {
	m.listeners = append(m.listeners, fn)
}

// Watch follows the config file until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.path); err != nil {
		_ = watcher.Close()
		return err
	}
	m.watcher = watcher

	go m.run(ctx)
	return nil
}

func (m *Manager) run(ctx context.Context) {
	var pending *time.Timer
	stopPending := func() {
		if pending != nil {
			pending.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopPending()
			_ = m.watcher.Close()
			return

		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			// Create covers editors that replace the file by rename.
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			stopPending()
			pending = time.AfterFunc(reloadDebounce, m.reload)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("config watch error", "error", err)
		}
	}
}

func (m *Manager) reload() {
	next, err := LoadFromFile(m.path)
	if err != nil {
		m.logger.Error("config reload failed, keeping previous config", "error", err)
		return
	}

	m.current.Store(next)
	m.logger.Info("config reloaded", "providers", len(next.Providers))

	for _, fn := range m.listeners {
		fn(next)
	}
}

// Close releases the file watcher. Safe to call before Watch.
func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}
