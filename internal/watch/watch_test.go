package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()

	var mu sync.Mutex
	var batches [][]string
	done := make(chan struct{}, 1)

	w, err := New(Config{
		Root:     root,
		Debounce: 50 * time.Millisecond,
		OnChange: func(paths []string) {
			mu.Lock()
			batches = append(batches, paths)
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch delivered")
	}
	// Let any stragglers flush, then stop.
	time.Sleep(150 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	if total < 3 {
		t.Errorf("saw %d changed paths across %d batches, want at least 3", total, len(batches))
	}
	// The burst must coalesce into far fewer callbacks than writes.
	if len(batches) > 3 {
		t.Errorf("debounce failed: %d batches for one burst", len(batches))
	}
}

func TestSkipDir(t *testing.T) {
	for _, dir := range []string{"vendor", "node_modules", ".git", ".cache"} {
		if !skipDir(dir) {
			t.Errorf("skipDir(%q) = false", dir)
		}
	}
	for _, dir := range []string{"src", "internal"} {
		if skipDir(dir) {
			t.Errorf("skipDir(%q) = true", dir)
		}
	}
}
