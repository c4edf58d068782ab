package tree

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/resolver"
	"github.com/pkgtree/pkgtree/core/workspace"
)

// Enumerator is the boundary the provider loads workspace data through.
// *workspace.Enumerator satisfies it; tests substitute fakes.
type Enumerator interface {
	Enumerate(ctx context.Context, root string) (*workspace.Workspace, error)
}

// snapshot is one fully materialized load. It is immutable after
// construction; the provider swaps whole snapshots and never mutates one
// in place, so readers holding nodes from an old snapshot stay consistent.
type snapshot struct {
	ws    *workspace.Workspace
	graph *resolver.Graph
	root  *Node
	index *Index
}

// Provider owns the current dependency snapshot and answers tree queries
// against it. Loads build a complete replacement off to the side and then
// swap it in under the lock, so queries observe either the old snapshot or
// the new one, never a half-built mix. When loads overlap, the last one to
// complete wins. A failed load leaves the previous snapshot in place.
type Provider struct {
	enum Enumerator

	mu      sync.RWMutex
	rootDir string
	snap    *snapshot

	events feed[Event]
	cycles feed[CycleNotice]
}

// NewProvider returns a provider rooted at rootDir. Nothing is loaded until
// the first query or an explicit Load.
func NewProvider(enum Enumerator, rootDir string) *Provider {
	return &Provider{enum: enum, rootDir: rootDir}
}

// Subscribe registers a callback for tree-changed events and returns its
// cancel function. Callbacks run synchronously after a snapshot swap.
func (p *Provider) Subscribe(fn func(Event)) func() {
	return p.events.subscribe(fn)
}

// SubscribeCycles registers a callback for circular-dependency notices
// emitted during expansion.
func (p *Provider) SubscribeCycles(fn func(CycleNotice)) func() {
	return p.cycles.subscribe(fn)
}

// Root returns the workspace root directory the provider is bound to.
func (p *Provider) Root() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rootDir
}

// Loaded reports whether a snapshot has been installed.
func (p *Provider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap != nil
}

// Load enumerates the workspace, resolves the dependency graph and installs
// the result as the current snapshot. The heavy work happens outside the
// lock; only the swap is guarded.
func (p *Provider) Load(ctx context.Context) error {
	return p.load(ctx, ReasonLoad)
}

// Refresh discards nothing up front: it loads a fresh snapshot and swaps it
// in, then notifies subscribers. If the load fails the previous snapshot
// stays queryable and the error is returned.
func (p *Provider) Refresh(ctx context.Context) error {
	return p.load(ctx, ReasonRefresh)
}

// SetRoot rebinds the provider to a different workspace root and reloads.
// Binding the root it already has is a no-op: no load, no event.
func (p *Provider) SetRoot(ctx context.Context, rootDir string) error {
	p.mu.Lock()
	if rootDir == p.rootDir {
		p.mu.Unlock()
		return nil
	}
	p.rootDir = rootDir
	p.mu.Unlock()
	return p.load(ctx, ReasonRootChanged)
}

func (p *Provider) load(ctx context.Context, reason string) error {
	p.mu.RLock()
	rootDir := p.rootDir
	p.mu.RUnlock()

	ws, err := p.enum.Enumerate(ctx, rootDir)
	if err != nil {
		return fmt.Errorf("loading workspace %s: %w", rootDir, err)
	}
	graph := resolver.Resolve(ws.Members)
	rootNode, index := Materialize(ws.Root, graph, ws.Members)
	next := &snapshot{ws: ws, graph: graph, root: rootNode, index: index}

	p.mu.Lock()
	if rootDir != p.rootDir {
		// The root moved while this load was in flight; its output
		// describes a workspace nobody is looking at anymore.
		p.mu.Unlock()
		logger.Debug("Discarding stale load for %s", rootDir)
		return nil
	}
	p.snap = next
	p.mu.Unlock()

	logger.Debug("Loaded workspace %s: %d packages (%s)", rootDir, index.Len(), reason)
	if reason != ReasonLoad {
		p.events.publish(Event{Root: rootDir, Packages: index.Len(), Reason: reason})
	}
	return nil
}

func (p *Provider) current() *snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// ensure returns the current snapshot, loading one first if none exists.
func (p *Provider) ensure(ctx context.Context) (*snapshot, error) {
	if snap := p.current(); snap != nil {
		return snap, nil
	}
	if err := p.load(ctx, ReasonLoad); err != nil {
		return nil, err
	}
	return p.current(), nil
}

// Roots returns the synthetic root node as a single-element slice, or an
// empty slice when the workspace has no member packages. The first call
// triggers the initial load.
func (p *Provider) Roots(ctx context.Context) ([]*Node, error) {
	snap, err := p.ensure(ctx)
	if err != nil {
		return nil, err
	}
	if snap.index.Len() == 0 {
		return []*Node{}, nil
	}
	return []*Node{snap.root}, nil
}

// Node resolves a package name against the current snapshot.
func (p *Provider) Node(name string) (*Node, bool) {
	snap := p.current()
	if snap == nil {
		return nil, false
	}
	return snap.index.Get(name)
}

// Children resolves a node's out-edges to nodes without cycle tracking.
// Callers that walk paths should use ChildrenAlongPath or Expand.
func (p *Provider) Children(node *Node) []*Node {
	children, _ := p.Expand(node, nil)
	return children
}

// ChildrenAlongPath is Expand without the returned notices, for callers
// that consume them through SubscribeCycles instead.
func (p *Provider) ChildrenAlongPath(node *Node, ancestors []string) []*Node {
	children, _ := p.Expand(node, ancestors)
	return children
}

// Expand resolves a node's out-edges to nodes, in edge order. ancestors is
// the chain of package names from the root-most expanded package down to
// node's parent; the node's own name is appended before checking, so a
// self-referential chain is caught at any depth. A child that closes the
// chain produces exactly one CycleNotice and is still included, which
// renders the back edge once without recursing into it forever. Notices
// are returned and published to subscribers. Names that resolve to no node
// are dropped silently: the edge was valid at resolve time and the index
// is the authority now.
func (p *Provider) Expand(node *Node, ancestors []string) ([]*Node, []CycleNotice) {
	snap := p.current()
	if snap == nil || node == nil {
		return nil, nil
	}

	var chain map[string]bool
	if node.Kind != KindRoot {
		chain = make(map[string]bool, len(ancestors)+1)
		for _, name := range ancestors {
			chain[name] = true
		}
		chain[node.Name()] = true
	}

	var notices []CycleNotice
	children := make([]*Node, 0, len(node.edges))
	for _, name := range node.edges {
		child, ok := snap.index.Get(name)
		if !ok {
			logger.Debug("Dropping unknown child %q of %q", name, node.Name())
			continue
		}
		if chain[name] {
			logger.Warn("Circular dependency: %s -> %s", node.Name(), name)
			notice := CycleNotice{From: node.Name(), To: name}
			notices = append(notices, notice)
			p.cycles.publish(notice)
		}
		children = append(children, child)
	}
	return children, notices
}

// Workspace returns the workspace of the current snapshot, or nil before
// the first successful load.
func (p *Provider) Workspace() *workspace.Workspace {
	snap := p.current()
	if snap == nil {
		return nil
	}
	return snap.ws
}

// Graph returns the dependency graph of the current snapshot, or nil
// before the first successful load.
func (p *Provider) Graph() *resolver.Graph {
	snap := p.current()
	if snap == nil {
		return nil
	}
	return snap.graph
}

// Status summarizes the provider for status lines: the workspace name and
// member count once loaded, a loading placeholder before that.
func (p *Provider) Status() string {
	snap := p.current()
	if snap == nil {
		return "loading workspace..."
	}
	if snap.index.Len() == 0 {
		return fmt.Sprintf("%s: no packages", snap.root.Name())
	}
	return fmt.Sprintf("%s: %d packages (%s)", snap.root.Name(), snap.index.Len(), snap.ws.Tool)
}
