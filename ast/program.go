package ast

// Program is the whole-program AST aggregate: every declared type,
// relation, clause (facts are clauses with an empty body), and lattice.
// Transformation passes consume and produce *Program values (spec.md §4.2).
type Program struct {
	Pool      *NamePool
	Types     map[string]*Type
	Relations map[string]*Relation
	Clauses   []*Clause
	Lattices  map[string]*Lattice
}

// NewProgram returns an empty program backed by a fresh NamePool.
func NewProgram() *Program {
	pool := NewNamePool()
	return &Program{
		Pool:      pool,
		Types:     make(map[string]*Type),
		Relations: make(map[string]*Relation),
		Lattices:  make(map[string]*Lattice),
	}
}

// Name interns segments in this program's pool.
func (p *Program) Name(segments ...string) QualifiedName {
	return p.Pool.New(segments...)
}

// AddRelation registers rel, keyed by its textual name.
func (p *Program) AddRelation(rel *Relation) {
	p.Relations[rel.Name.String()] = rel
}

// AddClause appends a clause to the program.
func (p *Program) AddClause(c *Clause) {
	p.Clauses = append(p.Clauses, c)
}

// ClausesFor returns every clause whose head relation is relName.
func (p *Program) ClausesFor(relName string) []*Clause {
	var out []*Clause
	for _, c := range p.Clauses {
		if c.Head.Relation.String() == relName {
			out = append(out, c)
		}
	}
	return out
}

// RemoveRelation deletes a relation and every clause whose head names it.
func (p *Program) RemoveRelation(name string) {
	delete(p.Relations, name)
	kept := p.Clauses[:0]
	for _, c := range p.Clauses {
		if c.Head.Relation.String() != name {
			kept = append(kept, c)
		}
	}
	p.Clauses = kept
}

// Clone deep-copies every clause (relations, types, and lattices are shared
// by reference since passes that need to mutate them replace the map entry
// rather than mutate in place).
func (p *Program) Clone() *Program {
	cp := &Program{
		Pool:      p.Pool,
		Types:     p.Types,
		Relations: make(map[string]*Relation, len(p.Relations)),
		Lattices:  p.Lattices,
	}
	for k, v := range p.Relations {
		cp.Relations[k] = v
	}
	cp.Clauses = make([]*Clause, len(p.Clauses))
	for i, c := range p.Clauses {
		cp.Clauses[i] = c.Clone()
	}
	return cp
}
