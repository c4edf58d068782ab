package resolver

// Graph is the in-workspace dependency adjacency: every member package name
// maps to the set of member package names it depends on. Every package of
// the load is a key, leaf packages included, so consumers never branch on a
// missing entry. A Graph is a snapshot; loads build a new one instead of
// patching the old.
type Graph struct {
	order []string
	out   map[string][]string
	set   map[string]map[string]bool
}

func NewGraph() *Graph {
	return &Graph{
		out: make(map[string][]string),
		set: make(map[string]map[string]bool),
	}
}

// ensure registers a package name with an explicit empty edge set.
func (g *Graph) ensure(name string) {
	if _, ok := g.set[name]; ok {
		return
	}
	g.order = append(g.order, name)
	g.out[name] = []string{}
	g.set[name] = make(map[string]bool)
}

// addEdge records that from depends on to. Both names must already be
// registered; duplicate edges collapse.
func (g *Graph) addEdge(from, to string) {
	if g.set[from][to] {
		return
	}
	g.set[from][to] = true
	g.out[from] = insertSorted(g.out[from], to)
}

// Has reports whether name is a package of this graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.set[name]
	return ok
}

// Dependencies returns the out-edge names of a package, sorted. Unknown
// names resolve to an empty set rather than an error. The returned slice
// is a copy.
func (g *Graph) Dependencies(name string) []string {
	edges, ok := g.out[name]
	if !ok {
		return []string{}
	}
	out := make([]string, len(edges))
	copy(out, edges)
	return out
}

// DependsOn reports whether from declares an in-workspace dependency on to.
func (g *Graph) DependsOn(from, to string) bool {
	return g.set[from][to]
}

// Names returns every package name in registration order (which Resolve
// makes the enumeration order). The returned slice is a copy.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of packages in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// Roots returns the packages no other member depends on, in registration
// order. These are the workspace's entry points: applications, top-level
// services, anything only humans depend on.
func (g *Graph) Roots() []string {
	inbound := make(map[string]bool, len(g.order))
	for _, name := range g.order {
		for _, dep := range g.out[name] {
			inbound[dep] = true
		}
	}
	roots := make([]string, 0, len(g.order))
	for _, name := range g.order {
		if !inbound[name] {
			roots = append(roots, name)
		}
	}
	return roots
}

// Stats summarizes a graph for status lines and the serve API.
type Stats struct {
	Packages     int `json:"packages"`
	Edges        int `json:"edges"`
	Leaves       int `json:"leaves"`
	MaxOutDegree int `json:"max_out_degree"`
}

func (g *Graph) Stats() Stats {
	s := Stats{Packages: len(g.order)}
	for _, name := range g.order {
		degree := len(g.out[name])
		s.Edges += degree
		if degree == 0 {
			s.Leaves++
		}
		if degree > s.MaxOutDegree {
			s.MaxOutDegree = degree
		}
	}
	return s
}

// insertSorted keeps an edge slice sorted without resorting on every add.
func insertSorted(edges []string, name string) []string {
	i := 0
	for i < len(edges) && edges[i] < name {
		i++
	}
	edges = append(edges, "")
	copy(edges[i+1:], edges[i:])
	edges[i] = name
	return edges
}
