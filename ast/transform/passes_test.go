package transform

import (
	"testing"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
	"github.com/stretchr/testify/require"
)

// negationProgram matches spec.md scenario 2: a(x) input, b(x) input,
// c(x) :- a(x), !b(x).
func negationProgram() *ast.Program {
	p := ast.NewProgram()
	a := p.Name("a")
	b := p.Name("b")
	c := p.Name("c")
	p.AddRelation(&ast.Relation{Name: a, Attributes: []ast.Attribute{{Name: "x"}}, IO: ast.IOInput})
	p.AddRelation(&ast.Relation{Name: b, Attributes: []ast.Attribute{{Name: "x"}}, IO: ast.IOInput})
	p.AddRelation(&ast.Relation{Name: c, Attributes: []ast.Attribute{{Name: "x"}}, IO: ast.IOOutput})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: c, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: a, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
			&ast.Negation{Atom: &ast.Atom{Relation: b, Args: []ast.Argument{&ast.Variable{Name: "x"}}}},
		},
	})
	return p
}

// aggregationProgram matches spec.md scenario 3: score facts, total(n,s)
// :- score(n,_), s = sum v : { score(n,v) }.
func aggregationProgram() (*ast.Program, *ast.Clause) {
	p := ast.NewProgram()
	score := p.Name("score")
	total := p.Name("total")
	p.AddRelation(&ast.Relation{Name: score, Attributes: []ast.Attribute{{Name: "n"}, {Name: "v"}}, IO: ast.IOInput})
	p.AddRelation(&ast.Relation{Name: total, Attributes: []ast.Attribute{{Name: "n"}, {Name: "s"}}, IO: ast.IOOutput})

	agg := &ast.Aggregator{
		Op:     ast.AggSum,
		Target: &ast.Variable{Name: "v"},
		Body: []ast.Literal{
			&ast.Atom{Relation: score, Args: []ast.Argument{&ast.Variable{Name: "n"}, &ast.Variable{Name: "v"}}},
		},
	}
	c := &ast.Clause{
		Head: &ast.Atom{Relation: total, Args: []ast.Argument{&ast.Variable{Name: "n"}, &ast.Variable{Name: "s"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: score, Args: []ast.Argument{&ast.Variable{Name: "n"}, &ast.UnnamedVariable{}}},
			&ast.BinaryConstraint{Op: ast.ConstrEq, Left: &ast.Variable{Name: "s"}, Right: agg},
		},
	}
	p.AddClause(c)
	return p, c
}

func TestNormalizeConstraintsExtractsConstants(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	score := p.Name("score")
	one := domain.FromSigned(1)
	p.AddRelation(&ast.Relation{Name: score, Attributes: []ast.Attribute{{Name: "n"}, {Name: "v"}}})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: score},
		Body: []ast.Literal{
			&ast.Atom{Relation: score, Args: []ast.Argument{&ast.NumberConstant{Value: one}, &ast.UnnamedVariable{}}},
		},
	})

	out, changed := NormalizeConstraints()(p)
	require.True(changed)
	atom := out.Clauses[0].Body[0].(*ast.Atom)
	require.IsType(&ast.Variable{}, atom.Args[0])
	require.IsType(&ast.Variable{}, atom.Args[1])
	require.Len(out.Clauses[0].Body, 2)
	bc := out.Clauses[0].Body[1].(*ast.BinaryConstraint)
	require.Equal(ast.ConstrEq, bc.Op)
}

func TestRemoveBooleanConstraintsDropsFalseClause(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	r := p.Name("r")
	p.AddRelation(&ast.Relation{Name: r})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: r},
		Body: []ast.Literal{&ast.BooleanConstant{Value: false}},
	})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: r},
		Body: []ast.Literal{&ast.BooleanConstant{Value: true}},
	})

	out, changed := RemoveBooleanConstraints()(p)
	require.True(changed)
	require.Len(out.Clauses, 1)
	require.Empty(out.Clauses[0].Body)
}

func TestReplaceSingletonVariablesUnnamesSoleUse(t *testing.T) {
	require := require.New(t)
	p, c := aggregationProgram()
	// Name the wildcard of score(n,_) "w": it is then the clause's only
	// variable used once ("n", "s" and "v" each occur at least twice).
	c.Body[0].(*ast.Atom).Args[1] = &ast.Variable{Name: "w"}
	out, changed := ReplaceSingletonVariables(false)(p)
	require.True(changed)
	require.Len(out.Clauses, 1)
	require.IsType(&ast.UnnamedVariable{}, out.Clauses[0].Body[0].(*ast.Atom).Args[1])
}

func TestPartitionBodyLiteralsExtractsDisjointComponent(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	a := p.Name("a")
	b := p.Name("b")
	r := p.Name("r")
	p.AddRelation(&ast.Relation{Name: a, Attributes: []ast.Attribute{{Name: "x"}}})
	p.AddRelation(&ast.Relation{Name: b, Attributes: []ast.Attribute{{Name: "y"}}})
	p.AddRelation(&ast.Relation{Name: r, Attributes: []ast.Attribute{{Name: "x"}}})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: r, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: a, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
			&ast.Atom{Relation: b, Args: []ast.Argument{&ast.Variable{Name: "y"}}},
		},
	})

	out, changed := PartitionBodyLiterals()(p)
	require.True(changed)
	// one original-ish clause (now with a nullary stand-in for b) plus one
	// fresh nullary clause computing the extracted component.
	require.Len(out.Clauses, 2)
}

func TestRedundantRelationRemovalDropsUnreachable(t *testing.T) {
	require := require.New(t)
	p := transitiveClosureFixture()
	dead := p.Name("dead")
	p.AddRelation(&ast.Relation{Name: dead, Attributes: []ast.Attribute{{Name: "x"}}})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: dead, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
		Body: []ast.Literal{&ast.Atom{Relation: p.Name("e"), Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.UnnamedVariable{}}}},
	})

	out, changed := RedundantRelationRemoval()(p)
	require.True(changed)
	require.Nil(out.Relations["dead"])
}

func transitiveClosureFixture() *ast.Program {
	p := ast.NewProgram()
	e := p.Name("e")
	pr := p.Name("p")
	p.AddRelation(&ast.Relation{Name: e, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}, IO: ast.IOInput})
	p.AddRelation(&ast.Relation{Name: pr, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}, IO: ast.IOOutput})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: pr, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
		Body: []ast.Literal{&ast.Atom{Relation: e, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}}},
	})
	return p
}

func TestRemoveEmptyRelationsDropsPositiveUse(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	empty := p.Name("empty")
	q := p.Name("q")
	r := p.Name("r")
	p.AddRelation(&ast.Relation{Name: empty, Attributes: []ast.Attribute{{Name: "x"}}})
	p.AddRelation(&ast.Relation{Name: q, Attributes: []ast.Attribute{{Name: "x"}}, IO: ast.IOOutput})
	p.AddRelation(&ast.Relation{Name: r, Attributes: []ast.Attribute{{Name: "x"}}, IO: ast.IOOutput})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: q, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
		Body: []ast.Literal{&ast.Atom{Relation: empty, Args: []ast.Argument{&ast.Variable{Name: "x"}}}},
	})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: r, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: q, Args: []ast.Argument{&ast.Variable{Name: "x"}}},
			&ast.Negation{Atom: &ast.Atom{Relation: empty, Args: []ast.Argument{&ast.Variable{Name: "x"}}}},
		},
	})

	out, changed := RemoveEmptyRelations()(p)
	require.True(changed)
	require.Nil(out.Relations["empty"])
	require.Len(out.Clauses, 1)
	require.Equal("r", out.Clauses[0].Head.Relation.String())
	require.Len(out.Clauses[0].Body, 1)
}

func TestRemoveRelationCopiesAliasesToTarget(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	s := p.Name("s")
	r := p.Name("r")
	out := p.Name("out")
	p.AddRelation(&ast.Relation{Name: s, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}, IO: ast.IOInput})
	p.AddRelation(&ast.Relation{Name: r, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}})
	p.AddRelation(&ast.Relation{Name: out, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}, IO: ast.IOOutput})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: r, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
		Body: []ast.Literal{&ast.Atom{Relation: s, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}}},
	})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: out, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
		Body: []ast.Literal{&ast.Atom{Relation: r, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}}},
	})

	res, changed := RemoveRelationCopies()(p)
	require.True(changed)
	require.Nil(res.Relations["r"])
	require.Len(res.Clauses, 1)
	require.Equal("s", res.Clauses[0].Body[0].(*ast.Atom).Relation.String())
}

// TestFoldAnonymousRecordsExpandsPositionwise builds spec.md scenario 4:
// q(x,y) :- r(x,y), [x,y] = [1,2].
func TestFoldAnonymousRecordsExpandsPositionwise(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	r := p.Name("r")
	q := p.Name("q")
	one := domain.FromSigned(1)
	two := domain.FromSigned(2)
	p.AddRelation(&ast.Relation{Name: r, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}, IO: ast.IOInput})
	p.AddRelation(&ast.Relation{Name: q, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}, IO: ast.IOOutput})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: q, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: r, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
			&ast.BinaryConstraint{
				Op:   ast.ConstrEq,
				Left: &ast.RecordInit{Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
				Right: &ast.RecordInit{Args: []ast.Argument{
					&ast.NumberConstant{Value: one}, &ast.NumberConstant{Value: two},
				}},
			},
		},
	})

	out, changed := FoldAnonymousRecords()(p)
	require.True(changed)
	require.Len(out.Clauses[0].Body, 3)
}

func TestRemoveConstantBinaryConstraintsDropsUnsatisfiableClause(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	r := p.Name("r")
	one := domain.FromSigned(1)
	two := domain.FromSigned(2)
	p.AddRelation(&ast.Relation{Name: r})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: r},
		Body: []ast.Literal{&ast.BinaryConstraint{Op: ast.ConstrEq, Left: &ast.NumberConstant{Value: one}, Right: &ast.NumberConstant{Value: two}}},
	})

	out, changed := RemoveConstantBinaryConstraints()(p)
	require.True(changed)
	require.Empty(out.Clauses)
}

func TestRemoveRedundantSumsRewritesToCount(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	r := p.Name("r")
	total := p.Name("total")
	five := domain.FromSigned(5)
	p.AddRelation(&ast.Relation{Name: r})
	agg := &ast.Aggregator{Op: ast.AggSum, Target: &ast.NumberConstant{Value: five}, Body: []ast.Literal{&ast.Atom{Relation: r}}}
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: total, Args: []ast.Argument{agg}},
	})

	out, changed := RemoveRedundantSums()(p)
	require.True(changed)
	fn := out.Clauses[0].Head.Args[0].(*ast.IntrinsicFunctor)
	require.Equal("*", fn.Op)
	require.IsType(&ast.Aggregator{}, fn.Args[1])
	require.Equal(ast.AggCount, fn.Args[1].(*ast.Aggregator).Op)
}

func TestMaterializeAggregationQueriesRewritesComplexBody(t *testing.T) {
	require := require.New(t)
	p, _ := aggregationProgram()
	// make the aggregator body non-simple by adding a second atom.
	score := p.Name("score")
	clause := p.Clauses[0]
	bc := clause.Body[1].(*ast.BinaryConstraint)
	agg := bc.Right.(*ast.Aggregator)
	agg.Body = append(agg.Body, &ast.BinaryConstraint{Op: ast.ConstrGt, Left: &ast.Variable{Name: "v"}, Right: &ast.NumberConstant{Value: domain.FromSigned(0)}})
	_ = score

	out, changed := MaterializeAggregationQueries()(p)
	require.True(changed)
	require.Len(out.Clauses, 2)
	newBc := out.Clauses[0].Body[1].(*ast.BinaryConstraint)
	newAgg := newBc.Right.(*ast.Aggregator)
	require.Len(newAgg.Body, 1)
	auxAtom := newAgg.Body[0].(*ast.Atom)
	require.Equal(auxAtom.Relation.String(), out.Clauses[1].Head.Relation.String())
}

func TestDefaultPipelineReachesFixpointOnNegationProgram(t *testing.T) {
	require := require.New(t)
	p := negationProgram()
	errs := NewMultiError()
	out, _ := Default(func(ast.Argument) *ast.Type { return nil }, nil, errs)(p)
	require.NoError(errs.ErrorOrNil())
	require.NotNil(out)
	require.Contains(out.Relations, "c")
}

// latticeProgram declares a lattice-typed column (GLB = min, bottom = 0)
// over st(k, v) and a plain feeder relation base(k, v).
func latticeProgram() *ast.Program {
	p := ast.NewProgram()
	number := ast.NewPrimitive(p.Name("number"), ast.KindNumber)
	p.Types["number"] = number
	level := ast.NewSubset(p.Name("level"), number)
	p.Types["level"] = level
	p.Lattices["level"] = &ast.Lattice{
		Name: p.Name("level"),
		Type: level,
		Ops: map[ast.LatticeOp]ast.Argument{
			ast.LatticeGlb:    &ast.IntrinsicFunctor{Op: domain.IntrinsicMin},
			ast.LatticeLeq:    &ast.IntrinsicFunctor{Op: domain.IntrinsicLeq},
			ast.LatticeBottom: &ast.NumberConstant{Value: domain.FromSigned(0)},
		},
	}
	p.AddRelation(&ast.Relation{Name: p.Name("st"), Attributes: []ast.Attribute{
		{Name: "k", TypeName: p.Name("number")},
		{Name: "v", TypeName: p.Name("level"), Lattice: true},
	}, IO: ast.IOOutput})
	p.AddRelation(&ast.Relation{Name: p.Name("base"), Attributes: []ast.Attribute{
		{Name: "k", TypeName: p.Name("number")},
		{Name: "v", TypeName: p.Name("number")},
	}, IO: ast.IOInput})
	return p
}

func findLatticeCurrent(c *ast.Clause) *ast.LatticeCurrent {
	var found *ast.LatticeCurrent
	for _, lit := range c.Body {
		ast.WalkLiteral(lit, func(ast.Literal) {}, func(arg ast.Argument) {
			if lc, ok := arg.(*ast.LatticeCurrent); ok && found == nil {
				found = lc
			}
		})
	}
	return found
}

func TestInsertLatticeOperationsAddsMonotonicityConstraint(t *testing.T) {
	require := require.New(t)
	p := latticeProgram()
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: p.Name("st"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "v"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: p.Name("base"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "v"}}},
		},
	})

	out, changed := InsertLatticeOperations()(p)
	require.True(changed)
	c := out.Clauses[0]
	require.Len(c.Body, 2)

	bc, ok := c.Body[1].(*ast.BinaryConstraint)
	require.True(ok)
	glb, ok := bc.Left.(*ast.IntrinsicFunctor)
	require.True(ok)
	require.Equal(domain.IntrinsicMin, glb.Op)

	lc := findLatticeCurrent(c)
	require.NotNil(lc)
	require.Equal("st", lc.Relation.String())
	require.Equal(1, lc.Column)
	require.Equal([]int{0}, lc.KeyCols)
	require.Len(lc.Keys, 1)
	require.NotNil(lc.Default)

	// Idempotent: a processed clause is left alone, so the enclosing
	// Fixpoint converges.
	again, changed2 := InsertLatticeOperations()(out)
	require.False(changed2)
	require.Equal(out, again)
}

func TestInsertLatticeOperationsJoinsBodyOccurrences(t *testing.T) {
	require := require.New(t)
	p := latticeProgram()
	// st2 reads a lattice column; st(k, v) :- st2(k, v) joins the read
	// value with what is already stored.
	p.AddRelation(&ast.Relation{Name: p.Name("st2"), Attributes: []ast.Attribute{
		{Name: "k", TypeName: p.Name("number")},
		{Name: "v", TypeName: p.Name("level"), Lattice: true},
	}, IO: ast.IOInput})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: p.Name("st"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "v"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: p.Name("st2"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "v"}}},
		},
	})

	out, changed := InsertLatticeOperations()(p)
	require.True(changed)
	c := out.Clauses[0]

	atom := c.Body[0].(*ast.Atom)
	renamed, ok := atom.Args[1].(*ast.Variable)
	require.True(ok)
	require.NotEqual("v", renamed.Name)

	var boundV, bottomGuard bool
	for _, lit := range c.Body[1:] {
		bc, ok := lit.(*ast.BinaryConstraint)
		if !ok {
			continue
		}
		if v, ok := bc.Left.(*ast.Variable); ok && v.Name == "v" {
			switch bc.Op {
			case ast.ConstrEq:
				boundV = true
			case ast.ConstrNeq:
				bottomGuard = true
			}
		}
	}
	require.True(boundV, "original name must be rebound to the renamed occurrence")
	require.True(bottomGuard, "bottom guard missing")

	_, changed2 := InsertLatticeOperations()(out)
	require.False(changed2)
}

func TestInsertLatticeOperationsExpandsNegation(t *testing.T) {
	require := require.New(t)
	p := latticeProgram()
	p.AddRelation(&ast.Relation{Name: p.Name("out"), Attributes: []ast.Attribute{
		{Name: "k", TypeName: p.Name("number")},
	}, IO: ast.IOOutput})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: p.Name("out"), Args: []ast.Argument{&ast.Variable{Name: "k"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: p.Name("base"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "w"}}},
			&ast.Negation{Atom: &ast.Atom{Relation: p.Name("st"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "w"}}}},
		},
	})

	out, changed := InsertLatticeOperations()(p)
	require.True(changed)
	c := out.Clauses[0]

	disj, ok := c.Body[1].(*ast.Disjunction)
	require.True(ok)
	require.Len(disj.Literals, 2)
	_, ok = disj.Literals[0].(*ast.Negation)
	require.True(ok)
	leq, ok := disj.Literals[1].(*ast.BinaryConstraint)
	require.True(ok)
	fn, ok := leq.Left.(*ast.IntrinsicFunctor)
	require.True(ok)
	require.Equal(domain.IntrinsicLeq, fn.Op)
	require.NotNil(findLatticeCurrent(c))

	_, changed2 := InsertLatticeOperations()(out)
	require.False(changed2)
}
