// BYZRA ⸻ internal/daemon/watcher.go
// file system monitoring for the daemon

package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"metaclean/internal/util"
)

// processes a detected file
type FileHandler func(path string) error

// configures the watcher behavior
type WatchOptions struct {
	// extensions to monitor, with leading dot
	Extensions []string

	// directory names or glob patterns on the base name to skip
	Exclude []string

	// min file age before processing (avoid processing incomplete files)
	MinFileAge time.Duration

	// process files recursively in subdirectories?
	Recursive bool

	// a file handled within this window is not handled again
	Debounce time.Duration
}

// never descend into these
var alwaysExcluded = []string{".git", "node_modules", ".venv"}

// Watcher monitors directories and feeds settled files to the handler one
// at a time, from a single goroutine.
type Watcher struct {
	watcher   *fsnotify.Watcher
	dirs      []string
	options   WatchOptions
	handler   FileHandler
	logger    *Logger
	pending   map[string]time.Time
	processed map[string]time.Time
	lock      sync.Mutex
	running   bool
	done      chan struct{}
	stopped   chan struct{}
}

// new file system watcher
func NewWatcher(dirs []string, options WatchOptions, handler FileHandler, logger *Logger) (*Watcher, error) {
	var validDirs []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("skipping invalid directory")
			continue
		}

		if !info.IsDir() {
			logger.Warn().Str("dir", dir).Msg("skipping non-directory path")
			continue
		}

		validDirs = append(validDirs, dir)
	}

	if len(validDirs) == 0 {
		return nil, fmt.Errorf("no valid directories to watch")
	}

	if options.Debounce <= 0 {
		options.Debounce = time.Minute
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:   fsWatcher,
		dirs:      validDirs,
		options:   options,
		handler:   handler,
		logger:    logger,
		pending:   make(map[string]time.Time),
		processed: make(map[string]time.Time),
	}, nil
}

// begins watching the configured directories
func (w *Watcher) Start() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	for _, dir := range w.dirs {
		if w.options.Recursive {
			if err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					w.logger.Warn().Err(err).Str("path", path).Msg("error accessing path")
					return nil // continue walking
				}
				if !d.IsDir() {
					return nil
				}
				if path != dir && w.excludedDir(path) {
					return filepath.SkipDir
				}
				w.addDir(path)
				return nil
			}); err != nil {
				w.logger.Error().Err(err).Str("dir", dir).Msg("error walking directory")
			}
		} else {
			w.addDir(dir)
		}
	}

	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	go w.processEvents()

	w.running = true
	w.logger.Info().Strs("dirs", w.dirs).Msg("file watcher started")

	return nil
}

func (w *Watcher) addDir(path string) {
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn().Err(err).Str("dir", path).Msg("failed to watch directory")
		return
	}
	w.logger.Debug().Str("dir", path).Msg("watching directory")
}

// terminates the watcher; returns after the in-flight file is done
func (w *Watcher) Stop() error {
	w.lock.Lock()
	if !w.running {
		w.lock.Unlock()
		return nil
	}
	w.running = false
	w.lock.Unlock()

	close(w.done)
	err := w.watcher.Close()
	<-w.stopped

	w.logger.Info().Msg("file watcher stopped")
	return err
}

func (w *Watcher) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, ex := range append(alwaysExcluded, w.options.Exclude...) {
		if base == ex {
			return true
		}
		if ok, _ := filepath.Match(ex, base); ok {
			return true
		}
	}
	return false
}

// extension and exclude filters, no filesystem access
func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)

	// our own temp files, backups and clean copies
	if strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, util.BackupSuffix) ||
		strings.Contains(base, util.CleanSuffix+".") {
		return false
	}

	if len(w.options.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(base))
		matched := false
		for _, allowedExt := range w.options.Extensions {
			if ext == strings.ToLower(allowedExt) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, ex := range w.options.Exclude {
		if ok, _ := filepath.Match(ex, base); ok {
			return false
		}
	}

	// excluded directory anywhere along the path
	for dir := filepath.Dir(path); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if w.excludedDir(dir) {
			return false
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	return true
}

// old enough to be fully written
func (w *Watcher) settled(path string, now time.Time) bool {
	if w.options.MinFileAge <= 0 {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return now.Sub(info.ModTime()) >= w.options.MinFileAge
}

// handled within the debounce window, most likely our own write
func (w *Watcher) debounced(path string, now time.Time) bool {
	lastProcessed, exists := w.processed[path]
	return exists && now.Sub(lastProcessed) < w.options.Debounce
}

// file system events
func (w *Watcher) processEvents() {
	defer close(w.stopped)

	tick := w.options.MinFileAge / 4
	if tick < 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	cleanup := time.NewTicker(15 * time.Minute)
	defer cleanup.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return // watcher was closed
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return // watcher closed
			}
			w.logger.Error().Err(err).Msg("watcher error")

		case now := <-ticker.C:
			w.drain(now)

		case <-cleanup.C:
			w.forget(time.Now().Add(-time.Hour))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path := event.Name

	// if a new directory was created and we're in recursive mode, watch it
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if w.options.Recursive && !w.excludedDir(path) {
			w.addDir(path)
		}
		return
	}

	if w.accepts(path) {
		w.pending[path] = time.Now()
	}
}

// handles every settled pending file, sequentially and in path order
func (w *Watcher) drain(now time.Time) {
	if len(w.pending) == 0 {
		return
	}

	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		select {
		case <-w.done:
			return
		default:
		}

		if _, err := os.Stat(path); err != nil {
			delete(w.pending, path)
			continue
		}
		// debounced files are dropped, young ones wait for the next tick
		if w.debounced(path, now) {
			delete(w.pending, path)
			continue
		}
		if !w.settled(path, now) {
			continue
		}
		delete(w.pending, path)

		w.logger.Debug().Str("path", path).Msg("processing file")
		if err := w.handler(path); err != nil {
			w.logger.Error().Err(err).Str("path", path).Msg("failed to process file")
		}
		w.processed[path] = time.Now()
	}
}

// clean entries older than cutoff
func (w *Watcher) forget(cutoff time.Time) {
	for path, processed := range w.processed {
		if processed.Before(cutoff) {
			delete(w.processed, path)
		}
	}
	w.logger.Debug().Msg("cleaned processed files cache")
}
