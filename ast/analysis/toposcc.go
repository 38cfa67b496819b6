package analysis

import "sort"

// TopoOrder is the deterministic total order over SCCs described in
// spec.md §4.3: ordered first by each SCC's maximum distance from any root
// (a root SCC depends on nothing and is evaluated first), then, to break
// ties, by the lexicographically least relation name within the SCC.
type TopoOrder struct {
	// Order[k] is the SCC index scheduled at position k.
	Order []int
}

// BuildTopoOrder computes the topological SCC order over g. Precedence
// edges point from a head relation to the relations its clauses read, so
// an SCC's dependencies are its successors: a root has none, and every
// SCC is scheduled after everything it transitively reads.
func BuildTopoOrder(g *SCCGraph) *TopoOrder {
	n := len(g.Components)
	dist := make([]int, n)
	// Distance is the length of the longest dependency chain below an
	// SCC, computed by a DFS memoized over its dependencies.
	visited := make([]bool, n)
	var visit func(i int) int
	visit = func(i int) int {
		if visited[i] {
			return dist[i]
		}
		visited[i] = true
		maxDep := -1
		var deps []int
		for d := range g.Successors[i] {
			deps = append(deps, d)
		}
		sort.Ints(deps)
		for _, d := range deps {
			if dd := visit(d); dd > maxDep {
				maxDep = dd
			}
		}
		dist[i] = maxDep + 1
		return dist[i]
	}
	for i := 0; i < n; i++ {
		visit(i)
	}

	leastName := make([]string, n)
	for i, comp := range g.Components {
		least := comp[0]
		for _, r := range comp[1:] {
			if r < least {
				least = r
			}
		}
		leastName[i] = least
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if dist[ia] != dist[ib] {
			return dist[ia] < dist[ib]
		}
		return leastName[ia] < leastName[ib]
	})
	return &TopoOrder{Order: order}
}
