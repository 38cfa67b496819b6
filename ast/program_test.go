package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func transitiveClosureProgram() *Program {
	p := NewProgram()
	e := p.Name("e")
	pr := p.Name("p")

	p.AddRelation(&Relation{Name: e, Attributes: []Attribute{{Name: "x"}, {Name: "y"}}, IO: IOInput})
	p.AddRelation(&Relation{Name: pr, Attributes: []Attribute{{Name: "x"}, {Name: "y"}}, IO: IOOutput})

	// p(x,y) :- e(x,y).
	p.AddClause(&Clause{
		Head: &Atom{Relation: pr, Args: []Argument{&Variable{Name: "x"}, &Variable{Name: "y"}}},
		Body: []Literal{&Atom{Relation: e, Args: []Argument{&Variable{Name: "x"}, &Variable{Name: "y"}}}},
	})
	// p(x,z) :- p(x,y), e(y,z).
	p.AddClause(&Clause{
		Head: &Atom{Relation: pr, Args: []Argument{&Variable{Name: "x"}, &Variable{Name: "z"}}},
		Body: []Literal{
			&Atom{Relation: pr, Args: []Argument{&Variable{Name: "x"}, &Variable{Name: "y"}}},
			&Atom{Relation: e, Args: []Argument{&Variable{Name: "y"}, &Variable{Name: "z"}}},
		},
	})
	return p
}

func TestQualifiedNameEquality(t *testing.T) {
	require := require.New(t)
	p := NewProgram()
	a1 := p.Name("foo", "bar")
	a2 := p.Name("foo", "bar")
	b := p.Name("foo", "baz")

	require.True(a1.Equal(a2))
	require.False(a1.Equal(b))
	require.Equal("foo.bar", a1.String())
}

func TestClauseCloneIsIndependent(t *testing.T) {
	require := require.New(t)
	p := transitiveClosureProgram()
	c := p.Clauses[0]
	cp := c.Clone()

	cp.Head.Args[0].(*Variable).Name = "mutated"
	require.Equal("x", c.Head.Args[0].(*Variable).Name)
	require.Equal("mutated", cp.Head.Args[0].(*Variable).Name)
}

func TestVariablesWalksAggregatorBody(t *testing.T) {
	require := require.New(t)
	p := NewProgram()
	score := p.Name("score")

	agg := &Aggregator{
		Op:     AggSum,
		Target: &Variable{Name: "v"},
		Body: []Literal{
			&Atom{Relation: score, Args: []Argument{&Variable{Name: "n"}, &Variable{Name: "v"}}},
		},
	}
	lit := &BinaryConstraint{Op: ConstrEq, Left: &Variable{Name: "s"}, Right: agg}
	vars := Variables(lit)
	require.ElementsMatch([]string{"s", "v", "n"}, vars)
}

func TestRemoveRelation(t *testing.T) {
	require := require.New(t)
	p := transitiveClosureProgram()
	p.RemoveRelation("p")

	require.Nil(p.Relations["p"])
	require.Empty(p.Clauses)
}
