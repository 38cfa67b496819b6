package analysis

// RedundantRelations performs a BFS along the precedence-graph edges (head
// relation to body relation: from a consumer to what it depends on) from
// the output relations over g; every relation name never visited is redundant (spec.md
// §4.3, used by ast/transform's RedundantRelationRemoval pass, §4.2 pass
// 11).
func RedundantRelations(g *PrecedenceGraph, outputs []string) map[string]bool {
	reached := make(map[string]bool, len(g.Nodes))
	queue := append([]string(nil), outputs...)
	for _, o := range queue {
		reached[o] = true
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for dep := range g.Edges[n] {
			if !reached[dep] {
				reached[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	redundant := make(map[string]bool)
	for name := range g.Nodes {
		if !reached[name] {
			redundant[name] = true
		}
	}
	return redundant
}
