package watcher

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgtree/pkgtree/core/config"
)

func newTestWatcher(t *testing.T, cfg *config.Config) *Watcher {
	t.Helper()
	w, err := New(t.TempDir(), cfg)
	require.NoError(t, err)
	w.OnClose = func() error { return nil }
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestRelevantFiles(t *testing.T) {
	tests := []struct {
		path     string
		relevant bool
	}{
		{"packages/app/package.json", true},
		{"pnpm-workspace.yaml", true},
		{"lerna.json", true},
		{"yarn.lock", true},
		{"pnpm-lock.yaml", true},
		{"package-lock.json", true},
		{"packages/app/src/index.ts", false},
		{"packages/app/README.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.relevant, relevantFiles[filepath.Base(tt.path)])
		})
	}
}

func TestShouldExcludePath(t *testing.T) {
	cfg := config.Default()
	cfg.Exclude = []string{"dist"}
	w := newTestWatcher(t, cfg)

	tests := []struct {
		rel      string
		excluded bool
	}{
		{"packages/app", false},
		{"node_modules", true},
		{"packages/app/node_modules/dep", true},
		{".git/objects", true},
		{"dist", true},
		{"dist/pkg", true},
		{"distro", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			abs := filepath.Join(w.RootDir, filepath.FromSlash(tt.rel))
			assert.Equal(t, tt.excluded, w.shouldExcludePath(abs))
		})
	}
}

func TestDebounceCoalesces(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.DebounceMs = 20
	w := newTestWatcher(t, cfg)

	var fired atomic.Int32
	w.OnChange = func() error {
		fired.Add(1)
		return nil
	}

	// A burst of events lands as a single reload.
	w.debounceReload()
	w.debounceReload()
	w.debounceReload()

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestCloseStopsPendingReload(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.DebounceMs = 30
	w, err := New(t.TempDir(), cfg)
	require.NoError(t, err)
	w.OnClose = func() error { return nil }

	var fired atomic.Int32
	w.OnChange = func() error {
		fired.Add(1)
		return nil
	}

	w.debounceReload()
	require.NoError(t, w.Close())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestDefaultDebounce(t *testing.T) {
	w := newTestWatcher(t, nil)
	assert.Equal(t, 500*time.Millisecond, w.debounce)
}
