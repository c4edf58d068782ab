package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/pkgtree/pkgtree/core/config"
	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/manifest"
)

// readConcurrency bounds parallel manifest reads during enumeration.
const readConcurrency = 8

// Enumerator discovers the member packages of a workspace root. One
// enumerator can serve many Enumerate calls; each call returns a fresh
// Workspace snapshot.
type Enumerator struct {
	cache *manifest.Cache
	// toolOverride, when set, wins over on-disk tool detection.
	toolOverride string
	// exclude holds extra glob patterns (workspace-relative) whose matches
	// are never members.
	exclude []string
}

// NewEnumerator builds an enumerator honoring the configured tool override
// and exclude patterns, reading manifests through the shared cache.
func NewEnumerator(cfg *config.Config) *Enumerator {
	e := &Enumerator{cache: manifest.Shared()}
	if cfg != nil {
		e.toolOverride = cfg.Tool
		e.exclude = cfg.Exclude
	}
	return e
}

// pnpmWorkspaceFile mirrors pnpm-workspace.yaml.
type pnpmWorkspaceFile struct {
	Packages []string `yaml:"packages"`
}

// lernaFile mirrors the single field of lerna.json the enumerator needs.
type lernaFile struct {
	Packages []string `json:"packages"`
}

// Enumerate discovers every member package under root and returns them in
// stable discovery order: workspace patterns in declared order, matches of
// each pattern sorted, first occurrence of a directory wins. An unreadable
// or absent root configuration yields an empty member list, not an error;
// an unreadable member manifest is an error (the caller keeps its previous
// snapshot).
func (e *Enumerator) Enumerate(ctx context.Context, root string) (*Workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	ws := &Workspace{
		RootDir: root,
		Tool:    ResolveTool(root, e.toolOverride),
	}

	rootManifestPath := filepath.Join(root, manifest.Filename)
	var rootManifest *manifest.Manifest
	if _, statErr := os.Stat(rootManifestPath); statErr == nil {
		m, err := e.cache.Read(rootManifestPath)
		if err != nil {
			// Unreadable root manifest: the workspace renders empty.
			logger.Warn("Workspace root manifest unreadable: %v", err)
			ws.Root = e.rootPackage(root, rootManifestPath, nil, ws.Tool)
			return ws, nil
		}
		rootManifest = m
	}

	ws.Root = e.rootPackage(root, rootManifestPath, rootManifest, ws.Tool)

	patterns, single := e.patterns(root, rootManifest)
	if single {
		if rootManifest == nil || rootManifest.Name == "" {
			logger.Debug("No workspace configuration and no named root manifest at %s", root)
			return ws, nil
		}
		ws.Members = []Package{ws.Root}
		return ws, nil
	}

	dirs, err := e.expandPatterns(root, patterns)
	if err != nil {
		return nil, err
	}

	members, err := e.readMembers(ctx, dirs, ws.Tool)
	if err != nil {
		return nil, err
	}
	ws.Members = members

	logger.Debug("Enumerated %d packages under %s", len(ws.Members), root)
	return ws, nil
}

// rootPackage builds the Package identifying the workspace itself.
func (e *Enumerator) rootPackage(root, manifestPath string, m *manifest.Manifest, tool string) Package {
	pkg := Package{
		Name: filepath.Base(root),
		Dir:  root,
		Tool: tool,
	}
	if m == nil {
		return pkg
	}
	if m.Name != "" {
		pkg.Name = m.Name
	}
	pkg.Version = m.Version
	pkg.ManifestPath = manifestPath
	pkg.Dependencies = m.AllDependencies()
	return pkg
}

// patterns returns the workspace glob patterns for root, preferring
// pnpm-workspace.yaml, then the root manifest's workspaces field, then
// lerna.json. single is true when no workspace configuration exists and the
// root should be treated as a single-package workspace.
func (e *Enumerator) patterns(root string, rootManifest *manifest.Manifest) (patterns []string, single bool) {
	pnpmPath := filepath.Join(root, "pnpm-workspace.yaml")
	if data, err := os.ReadFile(pnpmPath); err == nil {
		var pw pnpmWorkspaceFile
		if err := yaml.Unmarshal(data, &pw); err != nil {
			logger.Warn("Failed to parse %s: %v", pnpmPath, err)
		} else if len(pw.Packages) > 0 {
			return pw.Packages, false
		}
	}

	if rootManifest != nil && !rootManifest.Workspaces.IsEmpty() {
		return rootManifest.Workspaces.Patterns, false
	}

	lernaPath := filepath.Join(root, "lerna.json")
	if data, err := os.ReadFile(lernaPath); err == nil {
		var lf lernaFile
		if err := json.Unmarshal(data, &lf); err != nil {
			logger.Warn("Failed to parse %s: %v", lernaPath, err)
		} else if len(lf.Packages) > 0 {
			return lf.Packages, false
		}
	}

	return nil, true
}

// expandPatterns resolves workspace glob patterns to candidate package
// directories: positive patterns expanded with ** semantics, negated
// patterns ("!pkgs/legacy-*") and configured excludes filtered out,
// node_modules never crossed. Only directories that contain a package.json
// survive.
func (e *Enumerator) expandPatterns(root string, patterns []string) ([]string, error) {
	var positives, negatives []string
	for _, p := range patterns {
		if trimmed, ok := strings.CutPrefix(p, "!"); ok {
			negatives = append(negatives, normalizePattern(trimmed))
		} else {
			positives = append(positives, normalizePattern(p))
		}
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var dirs []string

	for _, pattern := range positives {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid workspace pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)

		for _, rel := range matches {
			// The root itself is never a member, whatever the patterns say.
			if rel == "." || seen[rel] {
				continue
			}
			if e.excluded(rel, negatives) {
				logger.Debug("Excluding %s (negated or configured exclude)", rel)
				continue
			}

			abs := filepath.Join(root, filepath.FromSlash(rel))
			info, err := os.Stat(abs)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(abs, manifest.Filename)); err != nil {
				continue
			}

			seen[rel] = true
			dirs = append(dirs, abs)
		}
	}

	return dirs, nil
}

// excluded reports whether a workspace-relative directory is filtered out.
func (e *Enumerator) excluded(rel string, negatives []string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if segment == "node_modules" {
			return true
		}
	}
	for _, neg := range negatives {
		if ok, _ := doublestar.Match(neg, rel); ok {
			return true
		}
	}
	for _, pattern := range e.exclude {
		if ok, _ := doublestar.Match(normalizePattern(pattern), rel); ok {
			return true
		}
	}
	return false
}

// readMembers parses the manifests of the candidate directories, bounded
// parallel, preserving the discovery order of dirs. Manifests without a
// name are skipped; duplicate names keep the first discovered package.
func (e *Enumerator) readMembers(ctx context.Context, dirs []string, tool string) ([]Package, error) {
	slots := make([]*Package, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			manifestPath := filepath.Join(dir, manifest.Filename)
			m, err := e.cache.Read(manifestPath)
			if err != nil {
				return err
			}
			if m.Name == "" {
				logger.Debug("Skipping nameless manifest: %s", manifestPath)
				return nil
			}
			slots[i] = &Package{
				Name:         m.Name,
				Version:      m.Version,
				Dir:          dir,
				ManifestPath: manifestPath,
				Dependencies: m.AllDependencies(),
				Tool:         tool,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(dirs))
	members := make([]Package, 0, len(dirs))
	for _, pkg := range slots {
		if pkg == nil {
			continue
		}
		if prev, dup := byName[pkg.Name]; dup {
			logger.Warn("Duplicate package name %q in %s (already declared in %s), keeping the first", pkg.Name, pkg.Dir, prev)
			continue
		}
		byName[pkg.Name] = pkg.Dir
		members = append(members, *pkg)
	}

	return members, nil
}

// normalizePattern converts a manifest glob to the slash-separated, cleaned
// form doublestar expects.
func normalizePattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "."
	}
	return path.Clean(p)
}
