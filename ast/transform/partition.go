package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ramlog/ramlog/ast"
)

type unionFindTransform struct {
	parent []int
}

func newUnionFindTransform(n int) *unionFindTransform {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFindTransform{parent: p}
}

func (u *unionFindTransform) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFindTransform) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// PartitionBodyLiterals implements spec.md §4.2 pass 9: split a clause's
// body along the connected components of its variable-co-occurrence graph
// (two literals are adjacent if they share a variable). Any component
// whose variables are entirely disjoint from the head's variables denotes
// a value the clause doesn't need, only whether it holds; such a component
// is extracted into a fresh nullary propositional relation, and the
// original clause keeps only a nullary atom standing in for it.
func PartitionBodyLiterals() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		changed := false
		counter := 0
		var newClauses []*ast.Clause
		newRelations := make(map[string]*ast.Relation)
		out := make([]*ast.Clause, 0, len(p.Clauses))

		for _, c := range p.Clauses {
			if len(c.Body) < 2 {
				out = append(out, c)
				continue
			}
			litVars := make([]map[string]bool, len(c.Body))
			for i, lit := range c.Body {
				m := make(map[string]bool)
				for _, v := range ast.Variables(lit) {
					m[v] = true
				}
				litVars[i] = m
			}
			uf := newUnionFindTransform(len(c.Body))
			for i := range c.Body {
				for j := i + 1; j < len(c.Body); j++ {
					shared := false
					for v := range litVars[i] {
						if litVars[j][v] {
							shared = true
							break
						}
					}
					if shared {
						uf.union(i, j)
					}
				}
			}

			components := make(map[int][]int)
			var roots []int
			for i := range c.Body {
				r := uf.find(i)
				if components[r] == nil {
					roots = append(roots, r)
				}
				components[r] = append(components[r], i)
			}
			if len(components) < 2 {
				out = append(out, c)
				continue
			}
			sort.Ints(roots)

			headVars := make(map[string]bool)
			for _, v := range c.Head.Variables() {
				headVars[v.Name] = true
			}

			var keptBody []ast.Literal
			clauseChanged := false
			for _, root := range roots {
				idxs := components[root]
				// A lone nullary atom is already the propositional
				// witness a previous extraction produced; pulling it out
				// again would mint a fresh relation on every pass.
				if len(idxs) == 1 {
					if a, ok := c.Body[idxs[0]].(*ast.Atom); ok && len(a.Args) == 0 {
						keptBody = append(keptBody, a)
						continue
					}
				}
				touchesHead := false
				for _, i := range idxs {
					for v := range litVars[i] {
						if headVars[v] {
							touchesHead = true
							break
						}
					}
					if touchesHead {
						break
					}
				}
				if touchesHead || len(idxs) == len(c.Body) {
					for _, i := range idxs {
						keptBody = append(keptBody, c.Body[i])
					}
					continue
				}
				counter++
				auxName := p.Name(fmt.Sprintf("__part%d", counter))
				var compBody []ast.Literal
				for _, i := range idxs {
					compBody = append(compBody, c.Body[i])
				}
				newRelations[auxName.String()] = &ast.Relation{Name: auxName}
				newClauses = append(newClauses, &ast.Clause{
					Head: &ast.Atom{Relation: auxName},
					Body: compBody,
				})
				keptBody = append(keptBody, &ast.Atom{Relation: auxName})
				clauseChanged = true
			}
			if !clauseChanged {
				out = append(out, c)
				continue
			}
			changed = true
			nc := c.Clone()
			nc.Body = keptBody
			out = append(out, nc)
		}

		if !changed {
			return p, false
		}
		cp := shallowClone(p)
		cp.Clauses = append(out, newClauses...)
		for k, v := range newRelations {
			cp.Relations[k] = v
		}
		return cp, true
	}
}

// ReduceExistentials implements spec.md §4.2 pass 10: a relation every one
// of whose occurrences (across every clause's head and body) uses only
// unnamed arguments, and which is never read or written as I/O, carries no
// information beyond whether a tuple was ever derived. Such a relation's
// declared arity is collapsed to zero and every occurrence is rewritten to
// the nullary form, turning it into a pure existential witness.
//
// This is a single-pass approximation of the teacher's fixpoint
// propagation through the dependency graph: it is run, like every other
// pass, inside the pipeline's outer Fixpoint, so a relation that only
// becomes eligible after a sibling relation is reduced is picked up on the
// next iteration.
func ReduceExistentials() Transformer {
	return func(p *ast.Program) (*ast.Program, bool) {
		eligible := make(map[string]bool)
		used := make(map[string]bool)
		disqualified := make(map[string]bool)

		// An argument counts as unnamed if it is a wildcard outright or a
		// pipeline-generated singleton name (the naming passes rewrite
		// wildcards to fresh underscore-prefixed variables; one that never
		// recurs in its clause carries exactly as little information).
		isUnnamed := func(arg ast.Argument, counts map[string]int) bool {
			switch v := arg.(type) {
			case *ast.UnnamedVariable:
				return true
			case *ast.Variable:
				return strings.HasPrefix(v.Name, "_") && counts[v.Name] == 1
			default:
				return false
			}
		}
		mark := func(a *ast.Atom, counts map[string]int) {
			used[a.Relation.String()] = true
			allUnnamed := len(a.Args) > 0
			for _, arg := range a.Args {
				if !isUnnamed(arg, counts) {
					allUnnamed = false
					break
				}
			}
			if !allUnnamed {
				disqualified[a.Relation.String()] = true
			}
		}
		for _, c := range p.Clauses {
			counts := make(map[string]int)
			countVar := func(a ast.Argument) {
				if v, ok := a.(*ast.Variable); ok {
					counts[v.Name]++
				}
			}
			ast.WalkLiteral(c.Head, func(ast.Literal) {}, countVar)
			for _, lit := range c.Body {
				ast.WalkLiteral(lit, func(ast.Literal) {}, countVar)
			}
			mark(c.Head, counts)
			for _, lit := range c.Body {
				switch l := lit.(type) {
				case *ast.Atom:
					mark(l, counts)
				case *ast.Negation:
					mark(l.Atom, counts)
				}
			}
		}
		for name := range used {
			if disqualified[name] {
				continue
			}
			rel, ok := p.Relations[name]
			if !ok || rel.IO != ast.IOInternal || rel.Arity() == 0 {
				continue
			}
			eligible[name] = true
		}
		if len(eligible) == 0 {
			return p, false
		}

		toNullary := func(a *ast.Atom) (*ast.Atom, bool) {
			if !eligible[a.Relation.String()] || len(a.Args) == 0 {
				return a, false
			}
			return &ast.Atom{Relation: a.Relation}, true
		}

		changed := false
		out := make([]*ast.Clause, len(p.Clauses))
		for i, c := range p.Clauses {
			nc := c
			cc := false
			if h, c1 := toNullary(c.Head); c1 {
				nc = c.Clone()
				nc.Head = h
				cc = true
			}
			var newBody []ast.Literal
			bodyChanged := false
			for _, lit := range c.Body {
				switch l := lit.(type) {
				case *ast.Atom:
					if na, c2 := toNullary(l); c2 {
						newBody = append(newBody, na)
						bodyChanged = true
						continue
					}
				case *ast.Negation:
					if na, c2 := toNullary(l.Atom); c2 {
						newBody = append(newBody, &ast.Negation{Atom: na})
						bodyChanged = true
						continue
					}
				}
				newBody = append(newBody, lit)
			}
			if bodyChanged {
				if !cc {
					nc = c.Clone()
				}
				nc.Body = newBody
				cc = true
			}
			if cc {
				changed = true
			}
			out[i] = nc
		}
		if !changed {
			return p, false
		}
		cp := shallowClone(p)
		cp.Clauses = out
		for name := range eligible {
			rel := *cp.Relations[name]
			rel.Attributes = nil
			cp.Relations[name] = &rel
		}
		return cp, true
	}
}
