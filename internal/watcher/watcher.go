// Package watcher keeps a library consistent while files change on disk.
// Template set edits trigger a rebuild of the packages rendered from them,
// package asset edits trigger a revalidation of the package.
package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hm-damul/template-factory-sub001/internal/service"
)

// Stats tracks watcher activity for tests and debugging.
type Stats struct {
	Events      int
	Rebuilds    int
	Validations int
	Errors      int
	LastEvent   string
}

// Watcher reacts to filesystem changes under templates/ and outputs/.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	svc         *service.Service
	logger      *slog.Logger
	baseDir     string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// New creates a watcher over the service's library directory.
func New(svc *service.Service, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Watcher{
		watcher:     fsWatcher,
		svc:         svc,
		logger:      logger,
		baseDir:     svc.GetBaseDir(),
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range []string{
		filepath.Join(w.baseDir, "templates"),
		filepath.Join(w.baseDir, "outputs"),
	} {
		if err := w.addRecursive(dir); err != nil {
			// Directory may not exist yet, packages can still appear later
			w.logger.Warn("initial watch failed", "dir", dir, "error", err)
		}
	}
	w.logger.Info("watching library", "dir", w.baseDir)

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("failed to close watcher", "error", err)
	}
}

// IsWatching returns true while the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of the watcher counters.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// addRecursive registers dir and every subdirectory with the watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name() == ".git" {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Drains settled events out of the debounce window
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processSettled()
		}
	}
}

// handleEvent records a single filesystem event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories join the watch so nested writes keep arriving
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return // Ignore chmod
	}
	if !relevantFile(event.Name) {
		return
	}

	target, ok := w.classify(event.Name)
	if !ok {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "path", event.Name)

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEvent = event.Name
	w.debounceMap[target] = time.Now()
	w.mu.Unlock()
}

// relevantFile filters out everything that is not library content. Atomic
// writes leave temp files next to the target; their random suffix breaks
// the extension, so they never qualify.
func relevantFile(path string) bool {
	switch filepath.Ext(path) {
	case ".md", ".csv", ".yaml":
		return true
	}
	return false
}

// classify maps an absolute path to a debounce target: a template set name
// or a package directory.
func (w *Watcher) classify(path string) (string, bool) {
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	if parts[0] == "templates" && len(parts) >= 3 {
		return "set:" + parts[1], true
	}
	if parts[0] == "outputs" && len(parts) >= 4 && strings.HasPrefix(parts[2], "bonus_") {
		return "pkg:" + strings.Join(parts[:3], "/"), true
	}
	return "", false
}

// processSettled acts on targets that have been quiet past the debounce
// window.
func (w *Watcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	var targets []string
	for target, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			targets = append(targets, target)
			delete(w.debounceMap, target)
		}
	}
	w.mu.Unlock()

	for _, target := range targets {
		switch {
		case strings.HasPrefix(target, "set:"):
			w.rebuildSet(strings.TrimPrefix(target, "set:"))
		case strings.HasPrefix(target, "pkg:"):
			w.validatePackage(strings.TrimPrefix(target, "pkg:"))
		}
	}
}

// rebuildSet re-renders every package using a changed template set, then
// revalidates what was rebuilt.
func (w *Watcher) rebuildSet(name string) {
	w.logger.Info("template set changed", "set", name)

	results, errs := w.svc.RebuildWithTemplateSet(name)
	for _, err := range errs {
		w.logger.Error("rebuild failed", "set", name, "error", err)
	}

	w.mu.Lock()
	w.stats.Rebuilds += len(results)
	w.stats.Errors += len(errs)
	w.mu.Unlock()

	for _, result := range results {
		w.logger.Info("rebuilt package", "id", result.Product.ID, "files", len(result.Written))
		w.validatePackage(result.Product.Dir)
	}
}

// validatePackage revalidates one package directory and reports findings.
func (w *Watcher) validatePackage(dir string) {
	if err := w.svc.RefreshProducts(); err != nil {
		w.logger.Error("failed to refresh packages", "error", err)
	}

	report := w.svc.ValidateDir(dir)

	w.mu.Lock()
	w.stats.Validations++
	w.mu.Unlock()

	if report.Valid && len(report.Warnings) == 0 {
		w.logger.Info("package valid", "package", dir)
		return
	}
	w.logger.Warn("validation issues",
		"package", dir,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings))
	for _, issue := range report.Errors {
		w.logger.Warn("validation error", "check", issue.Check, "message", issue.Message)
	}
}
