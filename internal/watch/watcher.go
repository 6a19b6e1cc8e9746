// Package watch re-runs an action when watched files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the files must stay quiet before OnChange runs
const DefaultDebounce = 300 * time.Millisecond

type Config struct {
	Files    []string
	Debounce time.Duration
	// OnChange is called with the changed file names, one call at a time
	OnChange func(ctx context.Context, changed []string)
	Logger   *slog.Logger
}

// Watch blocks until ctx is done, calling OnChange after each burst of
// writes to Files. Parent directories are watched so editors that replace
// files by rename are still noticed.
func Watch(ctx context.Context, cfg Config) error {
	if len(cfg.Files) == 0 {
		return errors.New("watch: no files to watch")
	}
	if cfg.OnChange == nil {
		return errors.New("watch: OnChange is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	log := cfg.Logger.With("component", "watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := make(map[string]bool, len(cfg.Files))
	dirs := make(map[string]bool)
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	log.Info("watching for changes", "files", cfg.Files)

	timer := time.NewTimer(cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] || !relevant(event) {
				continue
			}
			log.Debug("file changed", "file", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			timer.Reset(cfg.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", "error", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			cfg.OnChange(ctx, changed)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
