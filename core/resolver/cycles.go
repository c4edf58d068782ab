package resolver

// visit states for the cycle scan.
const (
	unvisited = iota
	onStack
	done
)

// Cycles runs a full depth-first scan and returns every dependency cycle as
// a name path. The first name is where the cycle re-enters; the last edge
// closes back to it. The scan is eager and touches the whole graph, so
// loading never calls it; interactive traversal uses the expansion-time
// check and this stays a `graph --cycles` affair.
func (g *Graph) Cycles() [][]string {
	state := make(map[string]int, len(g.order))
	indexOnStack := make(map[string]int, len(g.order))
	stack := make([]string, 0, len(g.order))
	var cycles [][]string

	var visit func(name string)
	visit = func(name string) {
		state[name] = onStack
		indexOnStack[name] = len(stack)
		stack = append(stack, name)

		for _, dep := range g.out[name] {
			switch state[dep] {
			case unvisited:
				visit(dep)
			case onStack:
				start := indexOnStack[dep]
				cycle := make([]string, len(stack)-start)
				copy(cycle, stack[start:])
				cycles = append(cycles, cycle)
			}
		}

		stack = stack[:len(stack)-1]
		delete(indexOnStack, name)
		state[name] = done
	}

	for _, name := range g.order {
		if state[name] == unvisited {
			visit(name)
		}
	}
	return cycles
}

// HasCycle reports whether the graph contains at least one cycle.
func (g *Graph) HasCycle() bool {
	return len(g.Cycles()) > 0
}
