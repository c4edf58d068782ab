package tree

import (
	"fmt"

	"github.com/pkgtree/pkgtree/core/resolver"
	"github.com/pkgtree/pkgtree/core/workspace"
)

// Kind distinguishes the synthetic workspace root from package nodes.
type Kind int

const (
	KindRoot Kind = iota
	KindPackage
)

// Node wraps one workspace package (or the synthetic root) for traversal.
// Children are carried as a name set and resolved to node identity through
// the Index at query time; nodes never point at each other directly, so a
// cyclic dependency graph cannot produce a cyclic object graph.
type Node struct {
	Kind    Kind
	Package workspace.Package
	// Description is presentation metadata: the member count for the root
	// node, the version for package nodes.
	Description string

	edges []string
}

// Name returns the node's package name (for the root node, the workspace
// name).
func (n *Node) Name() string {
	return n.Package.Name
}

// Expandable reports whether the node has children to offer. It is a pure
// function of the out-edge set: non-empty means expandable, empty means
// leaf. Nothing else toggles it.
func (n *Node) Expandable() bool {
	return len(n.edges) > 0
}

// Edges returns a copy of the node's out-edge names.
func (n *Node) Edges() []string {
	out := make([]string, len(n.edges))
	copy(out, n.edges)
	return out
}

// Index is the name→node arena of one load cycle. Node identity is stable
// for the lifetime of the index: every lookup of a name yields the same
// *Node until the next load replaces the index wholesale.
type Index struct {
	order []string
	nodes map[string]*Node
}

func newIndex(capacity int) *Index {
	return &Index{
		order: make([]string, 0, capacity),
		nodes: make(map[string]*Node, capacity),
	}
}

func (ix *Index) add(n *Node) {
	name := n.Name()
	if _, ok := ix.nodes[name]; ok {
		return
	}
	ix.order = append(ix.order, name)
	ix.nodes[name] = n
}

// Get resolves a package name to its node.
func (ix *Index) Get(name string) (*Node, bool) {
	n, ok := ix.nodes[name]
	return n, ok
}

// All returns every node in insertion order, which Materialize makes the
// enumeration order. The slice is a copy; the nodes are not.
func (ix *Index) All() []*Node {
	out := make([]*Node, 0, len(ix.order))
	for _, name := range ix.order {
		out = append(out, ix.nodes[name])
	}
	return out
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.order)
}

// Materialize wraps every package of a load into a node and builds the
// synthetic root whose children are all members, dependents or not, so
// packages nothing depends on stay browsable. Packages keep the order
// enumeration produced.
func Materialize(root workspace.Package, graph *resolver.Graph, packages []workspace.Package) (*Node, *Index) {
	index := newIndex(len(packages))

	allNames := make([]string, 0, len(packages))
	for _, pkg := range packages {
		node := &Node{
			Kind:        KindPackage,
			Package:     pkg,
			Description: pkg.Version,
			edges:       graph.Dependencies(pkg.Name),
		}
		index.add(node)
		allNames = append(allNames, pkg.Name)
	}

	rootNode := &Node{
		Kind:        KindRoot,
		Package:     root,
		Description: fmt.Sprintf("%d packages", len(packages)),
		edges:       allNames,
	}
	return rootNode, index
}
