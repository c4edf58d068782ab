package workspace

import (
	"os"
	"path/filepath"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/manifest"
)

// Package is one member of a workspace: an immutable snapshot of its
// manifest at load time. A reload produces new Package values; nothing
// mutates an existing one.
type Package struct {
	Name         string
	Version      string
	Dir          string
	ManifestPath string
	// Dependencies holds the raw declared name→range pairs, every
	// dependency block merged. Which of them point inside the workspace is
	// the resolver's business, not the enumerator's.
	Dependencies map[string]string
	// Tool is the workspace-tool command for the enclosing workspace
	// (npm, yarn, pnpm, lerna).
	Tool string
}

// Workspace is the result of one enumeration pass over a root.
type Workspace struct {
	// RootDir is the absolute workspace root.
	RootDir string
	// Root identifies the workspace itself: the root manifest when one
	// exists, a directory-name placeholder otherwise. It is not a member
	// unless the workspace is a single-package one.
	Root Package
	// Members are the discovered packages in stable discovery order.
	Members []Package
	// Tool is the resolved workspace-tool command.
	Tool string
}

// markerFiles are the files that make a directory a workspace root on their
// own, without a workspaces field in package.json.
var markerFiles = []string{"pnpm-workspace.yaml", "lerna.json"}

// FindRoot walks up from startPath and returns the workspace root that owns
// it: the highest directory carrying a workspace marker (a package.json with
// a workspaces field, a pnpm-workspace.yaml, or a lerna.json). When no
// marker exists anywhere above, the nearest directory with a package.json is
// treated as a single-package workspace. Returns false when there is no
// manifest at all.
func FindRoot(startPath string) (string, bool) {
	dir := startPath
	if info, err := os.Stat(startPath); err != nil || !info.IsDir() {
		dir = filepath.Dir(startPath)
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	nearest := ""
	highestMarker := ""

	for {
		if hasMarker(dir) {
			highestMarker = dir
		}
		if nearest == "" {
			if info, err := os.Stat(filepath.Join(dir, manifest.Filename)); err == nil && !info.IsDir() {
				nearest = dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if highestMarker != "" {
		return highestMarker, true
	}
	if nearest != "" {
		return nearest, true
	}
	return "", false
}

// hasMarker reports whether dir itself is a workspace root.
func hasMarker(dir string) bool {
	for _, name := range markerFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}

	manifestPath := filepath.Join(dir, manifest.Filename)
	if _, err := os.Stat(manifestPath); err != nil {
		return false
	}
	m, err := manifest.Shared().Read(manifestPath)
	if err != nil {
		logger.Debug("Skipping unreadable manifest while searching for root: %v", err)
		return false
	}
	return !m.Workspaces.IsEmpty()
}
