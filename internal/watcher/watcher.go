// Package watcher observes the document root for changes.
//
// The watcher is passive: it reports what changed, and the handlers it is
// given decide what to do (log it, refresh the search index, notify
// browsers). Request handling never depends on it.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/starford/techdocs/internal/parser"
	"github.com/starford/techdocs/internal/pathsafe"
)

// Op is the kind of change reported for a path.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
	// OpDirRemoved reports that a directory disappeared; documents under it
	// are gone too, but fsnotify does not report them individually.
	OpDirRemoved Op = "dir_removed"
	// OpResync asks handlers to reconcile with the filesystem, after renames
	// whose destination may not have been observed.
	OpResync Op = "resync"
)

// Event is a change under the document root. Path is root-relative with
// forward slashes; it is empty for OpResync.
type Event struct {
	Op   Op
	Path string
}

// Handler receives watcher events. It runs on the watcher goroutine and
// should return quickly.
type Handler func(Event)

// DefaultIgnore skips hidden files and directories, including the temp files
// written during atomic saves.
var DefaultIgnore = []string{"**/.*", "**/.*/**"}

// Options configures Watch.
type Options struct {
	Root     string
	Ignore   []string      // doublestar patterns matched against root-relative paths
	Debounce time.Duration // delay before an OpResync after renames
	Logger   *slog.Logger
}

// ValidatePatterns reports the first malformed ignore pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return &PatternError{Pattern: p}
		}
	}
	return nil
}

// PatternError reports an invalid ignore glob.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "watcher: invalid ignore pattern: " + e.Pattern
}

// Watch starts an fsnotify watcher on the root and delivers Markdown change
// events to handlers until ctx is cancelled. New directories created at
// runtime are added to the watch list.
func Watch(ctx context.Context, opts Options, handlers ...Handler) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	root := filepath.Clean(opts.Root)
	m := &matcher{root: root, patterns: opts.Ignore}
	// known holds the root-relative documents seen so far. Atomic saves
	// rename a temp file over the target, which fsnotify reports as Create;
	// a Create on a known path is an update.
	known := make(map[string]struct{})

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, m, root, known); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	emit := func(ev Event) {
		for _, h := range handlers {
			h(ev)
		}
	}

	// watched tracks directories so that their removal can be reported.
	watched := make(map[string]struct{})
	for _, p := range w.WatchList() {
		watched[p] = struct{}{}
	}

	var resyncTimer *time.Timer
	var resyncCh <-chan time.Time
	scheduleResync := func() {
		if resyncTimer == nil {
			resyncTimer = time.NewTimer(debounce)
			resyncCh = resyncTimer.C
		} else {
			resyncTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if resyncTimer != nil {
				resyncTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-resyncCh:
			emit(Event{Op: OpResync})

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name
			if m.ignored(absPath) {
				continue
			}
			rel, relErr := pathsafe.Rel(root, absPath)
			if relErr != nil || rel == "" {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, m, absPath, nil); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					}
					for _, p := range w.WatchList() {
						watched[p] = struct{}{}
					}
					logger.Debug("watcher: watching new dir", slog.String("path", rel))
					// Files may have landed before the watch was added.
					emitExisting(m, absPath, root, func(ev Event) {
						if _, seen := known[ev.Path]; seen {
							return
						}
						known[ev.Path] = struct{}{}
						emit(ev)
					})
					continue
				}
			}

			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if _, isDir := watched[absPath]; isDir {
					delete(watched, absPath)
					logger.Info("watcher: directory removed", slog.String("path", rel))
					forgetUnder(known, rel)
					emit(Event{Op: OpDirRemoved, Path: rel})
					if ev.Op&fsnotify.Rename != 0 {
						scheduleResync()
					}
					continue
				}
			}

			if !parser.IsMarkdown(absPath) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				if _, seen := known[rel]; seen {
					logger.Info("watcher: document replaced", slog.String("path", rel))
					emit(Event{Op: OpUpdated, Path: rel})
					continue
				}
				known[rel] = struct{}{}
				logger.Info("watcher: document created", slog.String("path", rel))
				emit(Event{Op: OpCreated, Path: rel})

			case ev.Op&fsnotify.Write != 0:
				logger.Info("watcher: document updated", slog.String("path", rel))
				emit(Event{Op: OpUpdated, Path: rel})

			case ev.Op&fsnotify.Remove != 0:
				delete(known, rel)
				logger.Info("watcher: document deleted", slog.String("path", rel))
				emit(Event{Op: OpDeleted, Path: rel})

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old path only; the new path
				// arrives as a Create if it stays inside a watched directory.
				delete(known, rel)
				logger.Info("watcher: document renamed away", slog.String("path", rel))
				emit(Event{Op: OpDeleted, Path: rel})
				scheduleResync()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

type matcher struct {
	root     string
	patterns []string
}

// ignored reports whether abs matches any ignore pattern.
func (m *matcher) ignored(abs string) bool {
	rel, err := pathsafe.Rel(m.root, abs)
	if err != nil || rel == "" {
		return false
	}
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// emitExisting reports documents already present in a newly watched directory.
func emitExisting(m *matcher, dir, root string, emit func(Event)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if m.ignored(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !parser.IsMarkdown(d.Name()) {
			return nil
		}
		if rel, relErr := pathsafe.Rel(root, p); relErr == nil {
			emit(Event{Op: OpCreated, Path: rel})
		}
		return nil
	})
}

// addDirsRecursive adds dir and all its non-ignored subdirectories to w.
// When known is non-nil, the documents found along the way are recorded in it.
func addDirsRecursive(w *fsnotify.Watcher, m *matcher, dir string, known map[string]struct{}) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if m.ignored(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if known != nil && parser.IsMarkdown(d.Name()) {
				if rel, relErr := pathsafe.Rel(m.root, p); relErr == nil {
					known[rel] = struct{}{}
				}
			}
			return nil
		}
		return w.Add(p)
	})
}

// forgetUnder drops dir and every document below it from known.
func forgetUnder(known map[string]struct{}, dir string) {
	prefix := dir + "/"
	for p := range known {
		if p == dir || strings.HasPrefix(p, prefix) {
			delete(known, p)
		}
	}
}
