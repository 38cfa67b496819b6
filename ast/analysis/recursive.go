package analysis

import "github.com/ramlog/ramlog/ast"

// IsRecursiveClause reports whether c is recursive: its head relation lies
// on a dependency path back to any of its body relations (spec.md §3.4,
// §4.3). Equivalent to: the head relation's SCC is recursive (spec.md
// §4.3's own phrasing pins this to the SCC, not the individual clause, so
// every clause of a recursive SCC's relation is itself recursive).
func IsRecursiveClause(c *ast.Clause, g *SCCGraph, pg *PrecedenceGraph) bool {
	head := c.Head.Relation.String()
	idx, ok := g.ComponentOf[head]
	if !ok {
		return false
	}
	return g.IsRecursive(idx, pg)
}
