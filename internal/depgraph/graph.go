package depgraph

import "sort"

// Graph is a directed graph of table dependencies across a whole input
// tree. Unlike a build DAG, foreign key graphs are naturally cyclic
// (self-referencing and mutual references), so cycles are surfaced as
// informational notes rather than errors.
type Graph struct {
	nodes   map[ObjectKey]bool
	edges   map[ObjectKey][]ObjectKey // dependency -> dependents
	parents map[ObjectKey][]ObjectKey // dependent -> dependencies
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[ObjectKey]bool),
		edges:   make(map[ObjectKey][]ObjectKey),
		parents: make(map[ObjectKey][]ObjectKey),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(key ObjectKey) {
	if !g.nodes[key] {
		g.nodes[key] = true
		g.edges[key] = []ObjectKey{}
		g.parents[key] = []ObjectKey{}
	}
}

// AddEdge records that dependent requires dependency. Both nodes are
// created if missing. Self loops are kept as nodes but not as edges; the
// caller reports them separately.
func (g *Graph) AddEdge(dependency, dependent ObjectKey) {
	g.AddNode(dependency)
	g.AddNode(dependent)
	if dependency == dependent {
		return
	}
	if !containsKey(g.edges[dependency], dependent) {
		g.edges[dependency] = append(g.edges[dependency], dependent)
	}
	if !containsKey(g.parents[dependent], dependency) {
		g.parents[dependent] = append(g.parents[dependent], dependency)
	}
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Dependencies returns the direct dependencies of a node, sorted.
func (g *Graph) Dependencies(key ObjectKey) []ObjectKey {
	out := append([]ObjectKey(nil), g.parents[key]...)
	sortKeys(out)
	return out
}

// Cycles returns one representative path per dependency cycle found.
// Mutual foreign keys are legal; cycles are reported, never fatal.
func (g *Graph) Cycles() [][]ObjectKey {
	visited := make(map[ObjectKey]bool)
	recStack := make(map[ObjectKey]bool)
	path := make(map[ObjectKey]ObjectKey)

	var cycles [][]ObjectKey

	var dfs func(key ObjectKey)
	dfs = func(key ObjectKey) {
		visited[key] = true
		recStack[key] = true

		for _, next := range g.edges[key] {
			if !visited[next] {
				path[next] = key
				dfs(next)
			} else if recStack[next] {
				// Reconstruct the cycle path
				cycle := []ObjectKey{next}
				for curr := key; curr != next; curr = path[curr] {
					cycle = append([]ObjectKey{curr}, cycle...)
				}
				cycle = append([]ObjectKey{next}, cycle...)
				cycles = append(cycles, cycle)
			}
		}

		recStack[key] = false
	}

	for _, key := range g.sortedNodes() {
		if !visited[key] {
			dfs(key)
		}
	}

	return cycles
}

// ConversionOrder returns all nodes ordered so that dependencies precede
// dependents wherever the graph allows it. Back-edges from cycles are
// ignored during ordering, so a cyclic graph still yields a usable,
// deterministic order.
func (g *Graph) ConversionOrder() []ObjectKey {
	visited := make(map[ObjectKey]bool)
	inStack := make(map[ObjectKey]bool)
	var order []ObjectKey

	var visit func(key ObjectKey)
	visit = func(key ObjectKey) {
		if visited[key] || inStack[key] {
			return
		}
		inStack[key] = true
		deps := append([]ObjectKey(nil), g.parents[key]...)
		sortKeys(deps)
		for _, dep := range deps {
			visit(dep)
		}
		inStack[key] = false
		visited[key] = true
		order = append(order, key)
	}

	for _, key := range g.sortedNodes() {
		visit(key)
	}

	return order
}

// Roots returns nodes with no dependencies, sorted.
func (g *Graph) Roots() []ObjectKey {
	var roots []ObjectKey
	for key := range g.nodes {
		if len(g.parents[key]) == 0 {
			roots = append(roots, key)
		}
	}
	sortKeys(roots)
	return roots
}

// sortedNodes returns all node keys in ascending order.
func (g *Graph) sortedNodes() []ObjectKey {
	keys := make([]ObjectKey, 0, len(g.nodes))
	for key := range g.nodes {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []ObjectKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
}

func containsKey(slice []ObjectKey, key ObjectKey) bool {
	for _, k := range slice {
		if k == key {
			return true
		}
	}
	return false
}
