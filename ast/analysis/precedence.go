// Package analysis implements the AST analyses of spec.md §4.3: the
// precedence graph, SCC graph, topologically sorted SCC order, relation
// schedule, recursive-clause detection, I/O classification, redundant-
// relation analysis, and grounding. Grounded directly on
// original_source/src/ast/analysis/{SCCGraph.h,
// TopologicallySortedSCCGraph.cpp, RecursiveClauses.cpp,
// RedundantRelations.cpp, RelationSchedule.cpp} (see DESIGN.md) since the
// teacher's own join-order analyzer code (sql/memo) was stripped from the
// retained pack down to tests only.
package analysis

import "github.com/ramlog/ramlog/ast"

// PrecedenceGraph is a directed graph with an edge from a head relation to
// every relation appearing in a body literal of any of its clauses
// (spec.md §4.3).
type PrecedenceGraph struct {
	// Edges[r] is the set of relations r's clauses depend on.
	Edges map[string]map[string]bool
	// All relation names appearing as a node (head or dependency), even if
	// it has no clauses.
	Nodes map[string]bool
}

// BuildPrecedenceGraph walks every clause of p and records a dependency
// edge from its head relation to every relation named in a body atom
// (including negated atoms).
func BuildPrecedenceGraph(p *ast.Program) *PrecedenceGraph {
	g := &PrecedenceGraph{
		Edges: make(map[string]map[string]bool),
		Nodes: make(map[string]bool),
	}
	for name := range p.Relations {
		g.Nodes[name] = true
		g.ensure(name)
	}
	for _, c := range p.Clauses {
		head := c.Head.Relation.String()
		g.Nodes[head] = true
		g.ensure(head)
		for _, lit := range c.Body {
			for _, rel := range bodyRelations(lit) {
				g.Nodes[rel] = true
				g.ensure(head)
				g.Edges[head][rel] = true
			}
		}
	}
	return g
}

func (g *PrecedenceGraph) ensure(name string) {
	if g.Edges[name] == nil {
		g.Edges[name] = make(map[string]bool)
	}
}

// bodyRelations returns every relation referenced by lit, descending into
// negations and disjunctions and into any aggregator bodies reachable from
// lit's arguments.
func bodyRelations(lit ast.Literal) []string {
	var out []string
	ast.WalkLiteral(lit, func(l ast.Literal) {
		if a, ok := l.(*ast.Atom); ok {
			out = append(out, a.Relation.String())
		}
	}, func(ast.Argument) {})
	return out
}

// Successors returns the relations rel directly depends on.
func (g *PrecedenceGraph) Successors(rel string) []string {
	var out []string
	for dep := range g.Edges[rel] {
		out = append(out, dep)
	}
	return out
}
