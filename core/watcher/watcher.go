package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkgtree/pkgtree/core/config"
	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/manifest"
)

// relevantFiles are the basenames that can change workspace membership or
// the dependency graph. Everything else is noise for our purposes.
var relevantFiles = map[string]bool{
	manifest.Filename:     true,
	"pnpm-workspace.yaml": true,
	"lerna.json":          true,
	"package-lock.json":   true,
	"yarn.lock":           true,
	"pnpm-lock.yaml":      true,
}

// Watcher watches a workspace tree for manifest changes and coalesces
// bursts of filesystem events into single OnChange calls. Installs and
// branch switches touch hundreds of files at once; the debounce window
// turns that into one reload.
type Watcher struct {
	Watcher      *fsnotify.Watcher
	RootDir      string
	ExcludePaths []string

	OnStart  func() error
	OnChange func() error
	OnClose  func() error

	cache    *manifest.Cache
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher rooted at rootDir. Hooks start out as errors so a
// caller that forgets to set one finds out the first time it fires.
func New(rootDir string, cfg *config.Config) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	debounce := 500 * time.Millisecond
	if cfg != nil && cfg.Watch.DebounceMs > 0 {
		debounce = time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	}

	w := &Watcher{
		Watcher:  fs,
		RootDir:  rootDir,
		OnStart:  func() error { return fmt.Errorf("OnStart not set") },
		OnChange: func() error { return fmt.Errorf("OnChange not set") },
		OnClose:  func() error { return fmt.Errorf("OnClose not set") },
		cache:    manifest.Shared(),
		debounce: debounce,
	}
	if cfg != nil {
		w.ExcludePaths = append(w.ExcludePaths, cfg.Exclude...)
	}
	logger.Debug("Excluding paths: %v", w.ExcludePaths)
	return w, nil
}

// Watch registers the workspace directories and blocks processing events
// until the watcher is closed or its channels shut down.
func (w *Watcher) Watch() error {
	if err := w.addWatchersRecursively(w.RootDir); err != nil {
		return fmt.Errorf("failed to add watchers: %w", err)
	}

	if err := w.OnStart(); err != nil {
		logger.Error("Watcher.OnStart failed: %v", err)
	}

	for {
		select {
		case event, ok := <-w.Watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if w.shouldExcludePath(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
					logger.Debug("Adding watcher for new directory: %s", event.Name)
					w.Watcher.Add(event.Name)
					continue
				}
			}

			if !relevantFiles[filepath.Base(event.Name)] {
				continue
			}

			logger.Debug("File event: %s %s", event.Op, event.Name)

			if filepath.Base(event.Name) == manifest.Filename {
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					w.cache.Invalidate(event.Name)
					logger.Debug("Invalidated cache for manifest: %s", event.Name)
				}
			}

			w.debounceReload()

		case err, ok := <-w.Watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		logger.Debug("Manifest changes detected, reloading...")
		if err := w.OnChange(); err != nil {
			logger.Error("Watcher.OnChange failed: %v", err)
		}
	})
}

// Close stops the debounce timer, runs the OnClose hook and shuts down the
// underlying watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	if err := w.OnClose(); err != nil {
		logger.Error("Watcher.OnClose failed: %v", err)
	}

	return w.Watcher.Close()
}

func (w *Watcher) shouldExcludePath(path string) bool {
	relPath, err := filepath.Rel(w.RootDir, path)
	if err != nil {
		return false
	}

	relPath = filepath.Clean(relPath)

	for _, segment := range strings.Split(relPath, string(filepath.Separator)) {
		if segment == "node_modules" || segment == ".git" {
			return true
		}
	}

	for _, excludePath := range w.ExcludePaths {
		excludePath = filepath.Clean(excludePath)

		if relPath == excludePath {
			return true
		}
		if strings.HasPrefix(relPath, excludePath+string(filepath.Separator)) {
			return true
		}
	}

	return false
}

func (w *Watcher) addWatchersRecursively(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if w.shouldExcludePath(path) {
			return filepath.SkipDir
		}

		if err := w.Watcher.Add(path); err != nil {
			return fmt.Errorf("failed to add watcher for %s: %w", path, err)
		}

		return nil
	})
}
