package tracker

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/manifest"
	"github.com/pkgtree/pkgtree/core/tree"
	"github.com/pkgtree/pkgtree/core/workspace"
)

// Tracker maps file paths to the workspace package that owns them and keeps
// the provider bound to the right workspace root. Tracking a file in the
// workspace already loaded is a pure lookup; only a file belonging to a
// different workspace root triggers a reload, which the provider announces
// with a single root-changed event.
type Tracker struct {
	provider *tree.Provider
	cache    *manifest.Cache

	mu         sync.Mutex
	activeName string
}

// New returns a tracker bound to the provider, reading manifests through
// the shared cache.
func New(provider *tree.Provider) *Tracker {
	return &Tracker{provider: provider, cache: manifest.Shared()}
}

// Track resolves path to its owning workspace package. It returns the
// package node and true when the file sits inside a member package of the
// (possibly re-rooted) workspace, and nil and false otherwise: no manifest
// above the file, a nameless manifest, or a package the workspace does not
// list all mean no active package.
func (t *Tracker) Track(ctx context.Context, path string) (*tree.Node, bool, error) {
	manifestPath, ok := manifest.Nearest(path)
	if !ok {
		logger.Debug("No manifest above %s", path)
		t.setActive("")
		return nil, false, nil
	}

	mf, err := t.cache.Read(manifestPath)
	if err != nil {
		return nil, false, err
	}
	if mf.Name == "" {
		logger.Debug("Manifest %s has no name, nothing to track", manifestPath)
		t.setActive("")
		return nil, false, nil
	}

	root, ok := workspace.FindRoot(filepath.Dir(manifestPath))
	if !ok {
		t.setActive("")
		return nil, false, nil
	}
	if root != t.provider.Root() {
		logger.Info("Workspace root changed to %s", root)
		if err := t.provider.SetRoot(ctx, root); err != nil {
			return nil, false, err
		}
	} else if !t.provider.Loaded() {
		if err := t.provider.Load(ctx); err != nil {
			return nil, false, err
		}
	}

	node, ok := t.provider.Node(mf.Name)
	if !ok {
		logger.Debug("Package %q is not a workspace member", mf.Name)
		t.setActive("")
		return nil, false, nil
	}
	t.setActive(mf.Name)
	return node, true, nil
}

// Active returns the name of the last tracked package, if any.
func (t *Tracker) Active() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeName, t.activeName != ""
}

// Clear forgets the active package. The provider and its snapshot are left
// alone.
func (t *Tracker) Clear() {
	t.setActive("")
}

func (t *Tracker) setActive(name string) {
	t.mu.Lock()
	t.activeName = name
	t.mu.Unlock()
}
