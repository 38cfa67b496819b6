package analysis

import "sort"

// SCCGraph is the strongly connected component decomposition of a
// PrecedenceGraph, computed with Tarjan's algorithm (spec.md §4.3 "SCC
// graph"). Every relation name belongs to exactly one component, indexed
// by ComponentOf.
type SCCGraph struct {
	Components  [][]string     // Components[i] is the set of relation names in SCC i
	ComponentOf map[string]int // relation name -> SCC index
	// Successors[i]/Predecessors[i] are SCC-level edges derived from the
	// underlying precedence graph, excluding self-loops.
	Successors   map[int]map[int]bool
	Predecessors map[int]map[int]bool
}

// BuildSCCGraph runs Tarjan's strongly-connected-components algorithm over
// g and derives the inter-component edge sets.
func BuildSCCGraph(g *PrecedenceGraph) *SCCGraph {
	t := &tarjan{
		graph:   g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	var nodes []string
	for n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes) // deterministic component discovery order
	for _, n := range nodes {
		if _, visited := t.index[n]; !visited {
			t.strongConnect(n)
		}
	}

	sccg := &SCCGraph{
		Components:   t.components,
		ComponentOf:  make(map[string]int),
		Successors:   make(map[int]map[int]bool),
		Predecessors: make(map[int]map[int]bool),
	}
	for i, comp := range t.components {
		for _, n := range comp {
			sccg.ComponentOf[n] = i
		}
		sccg.Successors[i] = make(map[int]bool)
		sccg.Predecessors[i] = make(map[int]bool)
	}
	for rel, deps := range g.Edges {
		from := sccg.ComponentOf[rel]
		for dep := range deps {
			to := sccg.ComponentOf[dep]
			if from == to {
				continue
			}
			sccg.Successors[from][to] = true
			sccg.Predecessors[to][from] = true
		}
	}
	return sccg
}

// IsRecursive reports whether SCC i contains more than one relation, or a
// single relation with a self-edge (spec.md §4.3 "a clause is recursive
// iff...").
func (s *SCCGraph) IsRecursive(i int, g *PrecedenceGraph) bool {
	comp := s.Components[i]
	if len(comp) > 1 {
		return true
	}
	if len(comp) == 1 {
		return g.Edges[comp[0]][comp[0]]
	}
	return false
}

type tarjan struct {
	graph      *PrecedenceGraph
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	counter    int
	components [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	var deps []string
	for dep := range t.graph.Edges[v] {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	for _, w := range deps {
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var comp []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, comp)
	}
}
