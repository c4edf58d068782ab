package manifest

import (
	"os"
	"path/filepath"
)

// Nearest walks up from startPath (a file or directory) and returns the path
// of the closest package.json. The second return is false when no manifest
// exists anywhere above startPath.
func Nearest(startPath string) (string, bool) {
	dir := startPath
	if info, err := os.Stat(startPath); err != nil || !info.IsDir() {
		dir = filepath.Dir(startPath)
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, Filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
