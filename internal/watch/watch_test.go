package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codelibrarian/internal/config"
	"github.com/Aman-CERP/codelibrarian/internal/index"
)

type fakeReindexer struct {
	mu    sync.Mutex
	calls [][]string
	done  chan struct{}
}

func newFakeReindexer() *fakeReindexer {
	return &fakeReindexer{done: make(chan struct{}, 10)}
}

func (f *fakeReindexer) IndexFiles(_ context.Context, paths []string, _ bool) (index.IndexStats, error) {
	f.mu.Lock()
	sorted := append([]string(nil), paths...)
	f.calls = append(f.calls, sorted)
	f.mu.Unlock()
	f.done <- struct{}{}
	return index.IndexStats{FilesIndexed: len(paths)}, nil
}

func (f *fakeReindexer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Index.Root = root
	cfg.SetConfigDir(filepath.Join(root, config.ConfigDirName))
	return cfg
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	fake := newFakeReindexer()
	w := New(testConfig(root), fake, Options{DebounceWindow: 50 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond) // let the watcher register the root
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("package main\n\n// edit\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-fake.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced reindex")
	}

	// A short grace period to make sure no second, un-coalesced call
	// follows the first.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, fake.callCount())
}

func TestWatcher_IgnoresExcludedPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	ignored := filepath.Join(root, "node_modules", "x.go")
	require.NoError(t, os.WriteFile(ignored, []byte("package x\n"), 0o644))

	fake := newFakeReindexer()
	w := New(testConfig(root), fake, Options{DebounceWindow: 30 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(ignored, []byte("package x\n\n// edit\n"), 0o644))

	select {
	case <-fake.done:
		t.Fatal("expected no reindex for an excluded path")
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, 0, fake.callCount())
}
