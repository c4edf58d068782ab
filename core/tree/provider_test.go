package tree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgtree/pkgtree/core/resolver"
	"github.com/pkgtree/pkgtree/core/workspace"
)

// fakeEnum serves canned workspaces and records how it was called.
type fakeEnum struct {
	mu    sync.Mutex
	ws    *workspace.Workspace
	err   error
	calls int
	roots []string
	// gate, when set, blocks the next Enumerate until released once;
	// entered is closed when that call is reached.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeEnum) Enumerate(ctx context.Context, root string) (*workspace.Workspace, error) {
	f.mu.Lock()
	f.calls++
	f.roots = append(f.roots, root)
	ws, err, gate, entered := f.ws, f.err, f.gate, f.entered
	f.gate, f.entered = nil, nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	out := *ws
	out.RootDir = root
	return &out, nil
}

func (f *fakeEnum) set(ws *workspace.Workspace, err error) {
	f.mu.Lock()
	f.ws, f.err = ws, err
	f.mu.Unlock()
}

func (f *fakeEnum) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fixture(rootName string, packages ...workspace.Package) *workspace.Workspace {
	return &workspace.Workspace{
		Root:    workspace.Package{Name: rootName},
		Members: packages,
		Tool:    workspace.ToolNPM,
	}
}

func TestRootsLazyLoad(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("app", "lib"), member("lib"))}
	p := NewProvider(enum, "/w")

	assert.False(t, p.Loaded())

	roots, err := p.Roots(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "mono", roots[0].Name())
	assert.Equal(t, 1, enum.callCount())

	// Further queries reuse the snapshot.
	_, err = p.Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, enum.callCount())
}

func TestRootsEmptyWorkspace(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono")}
	p := NewProvider(enum, "/w")

	roots, err := p.Roots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestChildrenOfRootKeepEnumerationOrder(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("zeta"), member("alpha", "zeta"), member("mid"))}
	p := NewProvider(enum, "/w")

	roots, err := p.Roots(context.Background())
	require.NoError(t, err)

	children := p.Children(roots[0])
	require.Len(t, children, 3)
	assert.Equal(t, "zeta", children[0].Name())
	assert.Equal(t, "alpha", children[1].Name())
	assert.Equal(t, "mid", children[2].Name())

	// Root children count matches the status summary count.
	assert.Contains(t, p.Status(), "3 packages")
}

func TestExpandPlainChain(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("app", "lib-a"), member("lib-a", "lib-b"), member("lib-b"))}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	app, ok := p.Node("app")
	require.True(t, ok)

	children, notices := p.Expand(app, nil)
	require.Len(t, children, 1)
	assert.Equal(t, "lib-a", children[0].Name())
	assert.Empty(t, notices)

	grand, notices := p.Expand(children[0], []string{"app"})
	require.Len(t, grand, 1)
	assert.Equal(t, "lib-b", grand[0].Name())
	assert.Empty(t, notices)
}

func TestExpandCycleNoticeOncePerExpansion(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("a", "b"), member("b", "a"))}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	var published []CycleNotice
	p.SubscribeCycles(func(n CycleNotice) { published = append(published, n) })

	a, _ := p.Node("a")
	b, _ := p.Node("b")

	// Expanding a from the top: no path yet, no notice.
	children, notices := p.Expand(a, nil)
	require.Len(t, children, 1)
	assert.Equal(t, "b", children[0].Name())
	assert.Empty(t, notices)

	// Expanding b under a closes the cycle: the edge is still returned
	// and exactly one notice fires.
	children, notices = p.Expand(b, []string{"a"})
	require.Len(t, children, 1)
	assert.Equal(t, "a", children[0].Name())
	require.Len(t, notices, 1)
	assert.Equal(t, CycleNotice{From: "b", To: "a"}, notices[0])
	assert.Equal(t, published, notices)
}

func TestExpandDeepCycleDetectedAgainstAnyAncestor(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("a", "b"), member("b", "c"), member("c", "a"))}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	c, _ := p.Node("c")
	children, notices := p.Expand(c, []string{"a", "b"})
	require.Len(t, children, 1)
	assert.Equal(t, "a", children[0].Name())
	require.Len(t, notices, 1)
	assert.Equal(t, CycleNotice{From: "c", To: "a"}, notices[0])
}

func TestExpandSiblingRepeatIsNotACycle(t *testing.T) {
	// base appears twice in the tree (under left and right); repetition
	// across siblings is sharing, not a cycle.
	enum := &fakeEnum{ws: fixture("mono",
		member("app", "left", "right"),
		member("left", "base"),
		member("right", "base"),
		member("base"),
	)}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	left, _ := p.Node("left")
	right, _ := p.Node("right")

	_, notices := p.Expand(left, []string{"app"})
	assert.Empty(t, notices)
	_, notices = p.Expand(right, []string{"app"})
	assert.Empty(t, notices)
}

func TestExpandUnknownChildSilentlyOmitted(t *testing.T) {
	// Craft index/graph drift by materializing fewer packages than the
	// graph knows about.
	all := []workspace.Package{member("app", "ghost"), member("ghost")}
	graph := resolver.Resolve(all)
	rootNode, index := Materialize(workspace.Package{Name: "mono"}, graph, all[:1])

	p := NewProvider(nil, "/w")
	p.snap = &snapshot{ws: fixture("mono", all[0]), graph: graph, root: rootNode, index: index}

	app, ok := p.Node("app")
	require.True(t, ok)
	assert.True(t, app.Expandable())

	children, notices := p.Expand(app, nil)
	assert.Empty(t, children)
	assert.Empty(t, notices)
}

func TestRefreshSwapsWholeSnapshot(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("app", "lib"), member("lib"))}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	oldApp, _ := p.Node("app")

	var events []Event
	p.Subscribe(func(ev Event) { events = append(events, ev) })

	enum.set(fixture("mono", member("app"), member("lib"), member("new-pkg")), nil)
	require.NoError(t, p.Refresh(context.Background()))

	roots, err := p.Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3 packages", roots[0].Description)

	newApp, ok := p.Node("app")
	require.True(t, ok)
	assert.NotSame(t, oldApp, newApp, "a reload replaces nodes wholesale")
	assert.False(t, newApp.Expandable(), "dropped dependency is gone after refresh")

	require.Len(t, events, 1)
	assert.Equal(t, ReasonRefresh, events[0].Reason)
	assert.Equal(t, 3, events[0].Packages)
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("app", "lib"), member("lib"))}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	var events []Event
	p.Subscribe(func(ev Event) { events = append(events, ev) })

	enum.set(nil, errors.New("manifest exploded"))
	err := p.Refresh(context.Background())
	require.Error(t, err)

	// The old snapshot still answers queries and no event fired.
	app, ok := p.Node("app")
	require.True(t, ok)
	assert.Equal(t, []string{"lib"}, app.Edges())
	assert.Empty(t, events)
	assert.Contains(t, p.Status(), "2 packages")
}

func TestSetRootSameIsNoop(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("app"))}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	var events []Event
	p.Subscribe(func(ev Event) { events = append(events, ev) })

	require.NoError(t, p.SetRoot(context.Background(), "/w"))
	assert.Equal(t, 1, enum.callCount())
	assert.Empty(t, events)
}

func TestSetRootReloadsAndNotifiesOnce(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("app"))}
	p := NewProvider(enum, "/w")
	require.NoError(t, p.Load(context.Background()))

	var events []Event
	p.Subscribe(func(ev Event) { events = append(events, ev) })

	enum.set(fixture("other", member("x"), member("y")), nil)
	require.NoError(t, p.SetRoot(context.Background(), "/other"))

	assert.Equal(t, "/other", p.Root())
	require.Len(t, events, 1)
	assert.Equal(t, ReasonRootChanged, events[0].Reason)
	assert.Equal(t, "/other", events[0].Root)
	assert.Equal(t, 2, events[0].Packages)
}

func TestStaleLoadDiscardedAfterRootMove(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	enum := &fakeEnum{ws: fixture("mono", member("app")), gate: gate, entered: entered}

	p := NewProvider(enum, "/old")

	done := make(chan error, 1)
	go func() { done <- p.Load(context.Background()) }()
	<-entered

	// Rebind while the first load hangs in Enumerate.
	enum.set(fixture("other", member("x")), nil)
	require.NoError(t, p.SetRoot(context.Background(), "/new"))

	close(gate)
	require.NoError(t, <-done)

	// The late load for /old must not clobber the /new snapshot.
	assert.Equal(t, "/new", p.Root())
	ws := p.Workspace()
	require.NotNil(t, ws)
	assert.Equal(t, "/new", ws.RootDir)
	_, ok := p.Node("x")
	assert.True(t, ok)
}

func TestStatusLifecycle(t *testing.T) {
	enum := &fakeEnum{ws: fixture("mono", member("app"), member("lib"))}
	p := NewProvider(enum, "/w")

	assert.Equal(t, "loading workspace...", p.Status())

	require.NoError(t, p.Load(context.Background()))
	assert.Equal(t, "mono: 2 packages (npm)", p.Status())

	enum.set(fixture("mono"), nil)
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, "mono: no packages", p.Status())
}
