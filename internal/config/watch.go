package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands the
// new notifications section to a callback. Other sections need a restart.
type Watcher struct {
	path     string
	onChange func(NotificationsConfig)

	mu   sync.Mutex
	last NotificationsConfig
}

func NewWatcher(path string, current NotificationsConfig, onChange func(NotificationsConfig)) *Watcher {
	return &Watcher{path: path, onChange: onChange, last: current}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching config directory: %w", err)
	}
	slog.Info("config watcher started", "component", "config", "path", w.path)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, w.reload)
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "component", "config", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config reload rejected", "component", "config", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	unchanged := cfg.Notifications == w.last
	w.last = cfg.Notifications
	w.mu.Unlock()
	if unchanged {
		return
	}

	slog.Info("notification settings reloaded", "component", "config",
		"username_override", cfg.Notifications.EnablePostUsernameOverride,
		"default_locale", cfg.Notifications.DefaultLocale,
	)
	w.onChange(cfg.Notifications)
}
