package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgtree/pkgtree/core/resolver"
	"github.com/pkgtree/pkgtree/core/workspace"
)

func member(name string, deps ...string) workspace.Package {
	m := make(map[string]string, len(deps))
	for _, d := range deps {
		m[d] = "*"
	}
	return workspace.Package{Name: name, Version: "1.0.0", Dependencies: m}
}

func TestMaterialize(t *testing.T) {
	packages := []workspace.Package{
		member("app", "lib-a"),
		member("lib-a", "lib-b"),
		member("lib-b"),
	}
	graph := resolver.Resolve(packages)
	root := workspace.Package{Name: "mono", Version: "0.0.0"}

	rootNode, index := Materialize(root, graph, packages)

	assert.Equal(t, KindRoot, rootNode.Kind)
	assert.Equal(t, "mono", rootNode.Name())
	assert.Equal(t, "3 packages", rootNode.Description)
	assert.Equal(t, []string{"app", "lib-a", "lib-b"}, rootNode.Edges())
	assert.True(t, rootNode.Expandable())

	assert.Equal(t, 3, index.Len())

	app, ok := index.Get("app")
	require.True(t, ok)
	assert.Equal(t, KindPackage, app.Kind)
	assert.Equal(t, []string{"lib-a"}, app.Edges())
	assert.True(t, app.Expandable())

	leaf, ok := index.Get("lib-b")
	require.True(t, ok)
	assert.False(t, leaf.Expandable(), "no out-edges means leaf")

	_, ok = index.Get("left-pad")
	assert.False(t, ok)
}

func TestMaterializeEmpty(t *testing.T) {
	graph := resolver.Resolve(nil)
	rootNode, index := Materialize(workspace.Package{Name: "mono"}, graph, nil)

	assert.Equal(t, "0 packages", rootNode.Description)
	assert.False(t, rootNode.Expandable())
	assert.Equal(t, 0, index.Len())
}

func TestIndexOrderAndIdentity(t *testing.T) {
	packages := []workspace.Package{member("zeta"), member("alpha")}
	graph := resolver.Resolve(packages)
	_, index := Materialize(workspace.Package{Name: "mono"}, graph, packages)

	all := index.All()
	require.Len(t, all, 2)
	assert.Equal(t, "zeta", all[0].Name(), "enumeration order, not sorted")
	assert.Equal(t, "alpha", all[1].Name())

	// Same name resolves to the same node for the life of the index.
	first, _ := index.Get("zeta")
	second, _ := index.Get("zeta")
	assert.Same(t, first, second)
}

func TestNodeEdgesAreCopies(t *testing.T) {
	packages := []workspace.Package{member("app", "lib"), member("lib")}
	graph := resolver.Resolve(packages)
	_, index := Materialize(workspace.Package{Name: "mono"}, graph, packages)

	app, _ := index.Get("app")
	edges := app.Edges()
	edges[0] = "mutated"
	assert.Equal(t, []string{"lib"}, app.Edges())
}
