package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDetectsModification(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.js")
	if err := os.WriteFile(file, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(WatchConfig{Paths: []string{dir}, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	go w.run(ctx, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	// Give the initial scan a moment, then advance the mtime.
	time.Sleep(50 * time.Millisecond)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(file, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the modification")
	}
}

func TestWatcherIgnoresPatterns(t *testing.T) {
	w := newWatcher(WatchConfig{Paths: nil})

	tests := []struct {
		path string
		want bool
	}{
		{"/p/node_modules", true},
		{"/p/.git", true},
		{"/p/dist", true},
		{"/p/editor.swp", true},
		{"/p/src", false},
		{"/p/app.js", false},
	}
	for _, tt := range tests {
		if got := w.ignored(tt.path); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
