package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearest(t *testing.T) {
	root := t.TempDir()
	appDir := filepath.Join(root, "packages", "app")
	srcDir := filepath.Join(appDir, "src", "components")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, Filename), []byte(`{"name": "root"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, Filename), []byte(`{"name": "app"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "button.tsx"), []byte("export {}"), 0o644))

	t.Run("from a nested file", func(t *testing.T) {
		got, ok := Nearest(filepath.Join(srcDir, "button.tsx"))
		require.True(t, ok)
		assert.Equal(t, filepath.Join(appDir, Filename), got)
	})

	t.Run("from a directory", func(t *testing.T) {
		got, ok := Nearest(srcDir)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(appDir, Filename), got)
	})

	t.Run("from the package dir itself", func(t *testing.T) {
		got, ok := Nearest(appDir)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(appDir, Filename), got)
	})

	t.Run("between manifests resolves upward", func(t *testing.T) {
		between := filepath.Join(root, "packages")
		got, ok := Nearest(between)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, Filename), got)
	})
}

func TestNearestNone(t *testing.T) {
	dir := t.TempDir()
	deep := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	_, ok := Nearest(deep)
	assert.False(t, ok)
}
