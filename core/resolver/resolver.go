package resolver

import (
	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/workspace"
)

// Resolve computes the in-workspace dependency graph of a package set. A
// declared dependency becomes an edge exactly when its name matches another
// member package: workspace-local packages shadow registry packages of the
// same name, and the declared version range plays no part in membership.
// Self-references are dropped even when a manifest mis-declares one. Every
// package gets a key, so packages with no in-workspace dependencies carry
// an explicit empty set.
func Resolve(packages []workspace.Package) *Graph {
	members := make(map[string]bool, len(packages))
	for _, pkg := range packages {
		members[pkg.Name] = true
	}

	g := NewGraph()
	for _, pkg := range packages {
		g.ensure(pkg.Name)
		for dep := range pkg.Dependencies {
			if dep == pkg.Name {
				logger.Debug("Ignoring self-dependency declared by %s", pkg.Name)
				continue
			}
			if members[dep] {
				g.addEdge(pkg.Name, dep)
			}
		}
	}

	stats := g.Stats()
	logger.Debug("Resolved dependency graph: %d packages, %d edges", stats.Packages, stats.Edges)
	return g
}
