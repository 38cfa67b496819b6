package analysis

import "github.com/ramlog/ramlog/ast"

// IOTypes classifies every relation in p per spec.md §4.3 "I/O types":
// input, output, printsize, or internal, read directly off each
// ast.Relation's IO field (set by the parser/front-end from source
// directives, out of scope here per spec.md §1).
func IOTypes(p *ast.Program) map[string]ast.IOKind {
	out := make(map[string]ast.IOKind, len(p.Relations))
	for name, rel := range p.Relations {
		out[name] = rel.IO
	}
	return out
}

// InputRelations returns the names of every relation classified as input.
func InputRelations(p *ast.Program) []string {
	var out []string
	for name, rel := range p.Relations {
		if rel.IO == ast.IOInput {
			out = append(out, name)
		}
	}
	return out
}

// OutputRelations returns the names of every relation classified as output
// or printsize (both are terminal observation points for redundant-relation
// analysis, spec.md §4.3 "Redundant relations": "BFS backward from output
// relations").
func OutputRelations(p *ast.Program) []string {
	var out []string
	for name, rel := range p.Relations {
		if rel.IO == ast.IOOutput || rel.IO == ast.IOPrintsize {
			out = append(out, name)
		}
	}
	return out
}
