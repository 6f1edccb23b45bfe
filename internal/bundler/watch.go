package bundler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// defaultIgnore contains path patterns the watcher skips.
var defaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	".packd",
	"*.tmp",
	"*.swp",
	"*~",
}

// WatchConfig configures the file watcher behind watch mode.
type WatchConfig struct {
	// Paths are the directories to watch.
	Paths []string

	// Ignore patterns to skip (globs, matched against base names).
	Ignore []string

	// Interval is the polling period.
	Interval time.Duration
}

// watcher polls file modification times. Polling keeps the engine free of
// platform-specific notification APIs and behaves the same on network
// filesystems.
type watcher struct {
	config     WatchConfig
	mu         sync.Mutex
	timestamps map[string]time.Time
}

func newWatcher(config WatchConfig) *watcher {
	if config.Interval == 0 {
		config.Interval = 200 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = defaultIgnore
	}
	return &watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
	}
}

// run polls until the context ends, invoking onChange once per poll cycle
// that saw at least one modified file.
func (w *watcher) run(ctx context.Context, onChange func()) error {
	w.scan(nil)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changed := false
			w.scan(func(string) { changed = true })
			if changed {
				onChange()
			}
		}
	}
}

// scan walks the watched paths, recording mtimes. onModified, when
// non-nil, is called for every file whose mtime advanced since the last
// scan.
func (w *watcher) scan(onModified func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, root := range w.config.Paths {
		filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if w.ignored(p) {
					return filepath.SkipDir
				}
				return nil
			}
			if w.ignored(p) {
				return nil
			}

			last, seen := w.timestamps[p]
			mod := info.ModTime()
			if !seen || mod.After(last) {
				w.timestamps[p] = mod
				if onModified != nil {
					onModified(p)
				}
			}
			return nil
		})
	}
}

func (w *watcher) ignored(p string) bool {
	base := filepath.Base(p)
	for _, pattern := range w.config.Ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Watch implements WatchEngine: it recompiles on every detected source
// change and reports each outcome through onBuild. It returns when the
// context is cancelled.
func (e *ExecEngine) Watch(ctx context.Context, cfg *Config, onBuild func(*Stats, error)) error {
	paths := []string{cfg.SourceDir}
	if cfg.SourceDir == "" {
		paths = []string{cfg.WorkDir}
	}

	w := newWatcher(WatchConfig{Paths: paths})
	return w.run(ctx, func() {
		stats, err := e.Compile(ctx, cfg)
		onBuild(stats, err)
	})
}
