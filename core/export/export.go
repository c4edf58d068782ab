// Package export renders a resolved workspace into interchange formats:
// JSON for tooling and Graphviz DOT for visualization. Output is
// deterministic for a given snapshot so it can be diffed and committed.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/pkgtree/pkgtree/core/resolver"
	"github.com/pkgtree/pkgtree/core/workspace"
)

// Document is the JSON export shape.
type Document struct {
	Root     string         `json:"root"`
	Tool     string         `json:"tool"`
	Packages []Package      `json:"packages"`
	Stats    resolver.Stats `json:"stats"`
}

// Package is one workspace member in the JSON export. Dir is relative to
// the workspace root, slash-separated on every platform.
type Package struct {
	Name         string   `json:"name"`
	Version      string   `json:"version,omitempty"`
	Dir          string   `json:"dir"`
	Dependencies []string `json:"dependencies"`
}

// JSON renders the workspace and its graph as indented JSON. Packages keep
// enumeration order; dependency lists are sorted by the resolver.
func JSON(ws *workspace.Workspace, graph *resolver.Graph) ([]byte, error) {
	doc := Document{
		Root:     ws.RootDir,
		Tool:     ws.Tool,
		Packages: make([]Package, 0, len(ws.Members)),
		Stats:    graph.Stats(),
	}
	for _, member := range ws.Members {
		rel, err := filepath.Rel(ws.RootDir, member.Dir)
		if err != nil {
			rel = member.Dir
		}
		doc.Packages = append(doc.Packages, Package{
			Name:         member.Name,
			Version:      member.Version,
			Dir:          filepath.ToSlash(rel),
			Dependencies: graph.Dependencies(member.Name),
		})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding workspace export: %w", err)
	}
	return append(out, '\n'), nil
}
