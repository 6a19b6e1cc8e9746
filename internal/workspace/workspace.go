// Package workspace manages the temporary files a single Karate run needs:
// the feature script and an optional karate-config.js.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	FeatureFileName = "temp.feature"
	ConfigFileName  = "karate-config.js"
)

// Workspace tracks the temp directories it created so they can be removed
// together. The zero value uses the system temp dir.
type Workspace struct {
	root string

	mu   sync.Mutex
	dirs []string
}

// New returns a workspace creating its directories under root. An empty
// root means os.TempDir().
func New(root string) *Workspace {
	return &Workspace{root: root}
}

// WriteFeature writes content to karate-*/temp.feature and returns its path
func (w *Workspace) WriteFeature(content string) (string, error) {
	dir, err := w.mkdir("karate-")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FeatureFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write feature file: %w", err)
	}
	return path, nil
}

// WriteConfig renders config into karate-config-*/karate-config.js and
// returns the directory, which is what Karate's --configdir expects.
func (w *Workspace) WriteConfig(config map[string]any) (string, error) {
	content, err := RenderConfig(config)
	if err != nil {
		return "", err
	}

	dir, err := w.mkdir("karate-config-")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), content, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return dir, nil
}

// RenderConfig returns the karate-config.js body for config
func RenderConfig(config map[string]any) ([]byte, error) {
	if config == nil {
		config = map[string]any{}
	}
	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal karate config: %w", err)
	}
	return fmt.Appendf(nil, "function fn() { return %s; }", data), nil
}

// Dirs returns the directories created so far
func (w *Workspace) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.dirs...)
}

// Cleanup removes every directory created by the workspace. All removals
// are attempted; failures are joined.
func (w *Workspace) Cleanup() error {
	w.mu.Lock()
	dirs := w.dirs
	w.dirs = nil
	w.mu.Unlock()

	var errs []error
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}

func (w *Workspace) mkdir(pattern string) (string, error) {
	dir, err := os.MkdirTemp(w.root, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	w.mu.Lock()
	w.dirs = append(w.dirs, dir)
	w.mu.Unlock()
	return dir, nil
}
