package engine

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramlog/ramlog/ast"
	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/iosys"
)

// transitiveClosureProgram builds spec.md §8 scenario 1 directly, the same
// way the teacher's plan tests build plan.NewFilter(...) trees rather than
// parsing SQL text (the parser is explicitly out of scope, spec.md §1).
func transitiveClosureProgram() *ast.Program {
	p := ast.NewProgram()
	number := ast.NewPrimitive(p.Name("number"), ast.KindNumber)
	p.Types["number"] = number

	e := p.Name("e")
	pr := p.Name("p")
	attrs := []ast.Attribute{{Name: "x", TypeName: p.Name("number")}, {Name: "y", TypeName: p.Name("number")}}

	p.AddRelation(&ast.Relation{Name: e, Attributes: attrs, IO: ast.IOInput,
		Directives: map[string]string{"IO": "file", "filename": "e.facts"}})
	p.AddRelation(&ast.Relation{Name: pr, Attributes: attrs, IO: ast.IOOutput,
		Directives: map[string]string{"IO": "file", "filename": "p.facts"}})

	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: pr, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
		Body: []ast.Literal{&ast.Atom{Relation: e, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}}},
	})
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: pr, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "z"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: pr, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
			&ast.Atom{Relation: e, Args: []ast.Argument{&ast.Variable{Name: "y"}, &ast.Variable{Name: "z"}}},
		},
	})
	return p
}

func TestEngineTransitiveClosure(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	efile := filepath.Join(dir, "e.facts")
	require.NoError(os.WriteFile(efile, []byte("1\t2\n2\t3\n3\t4\n"), 0o644))

	p := transitiveClosureProgram()
	p.Relations["e"].Directives["filename"] = efile
	p.Relations["p"].Directives["filename"] = filepath.Join(dir, "p.facts")

	io := iosys.New(nil, nil)
	eng := New(&Config{IO: io})

	in, err := eng.Run(p)
	require.NoError(err)

	rel, ok := in.Relation("p")
	require.True(ok)
	require.Equal(6, rel.Len())

	got := map[[2]int64]bool{}
	for _, row := range rel.Scan() {
		d := row.Data()
		got[[2]int64{domain.ToSigned(d[0]), domain.ToSigned(d[1])}] = true
	}
	want := [][2]int64{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}
	for _, w := range want {
		require.Truef(got[w], "missing tuple %v", w)
	}
}

func TestEngineRejectsUngroundedHead(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	r := p.Name("r")
	s := p.Name("s")
	p.AddRelation(&ast.Relation{Name: r, Attributes: []ast.Attribute{{Name: "x"}, {Name: "y"}}, IO: ast.IOOutput})
	p.AddRelation(&ast.Relation{Name: s, Attributes: []ast.Attribute{{Name: "x"}}, IO: ast.IOInput})

	// r(x,y) :- s(x).  -- y is never grounded.
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: r, Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
		Body: []ast.Literal{&ast.Atom{Relation: s, Args: []ast.Argument{&ast.Variable{Name: "x"}}}},
	})

	eng := New(nil)
	_, err := eng.Compile(p)
	require.Error(err)
}

func TestEngineNegationAcrossStrata(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	number := ast.NewPrimitive(p.Name("number"), ast.KindNumber)
	p.Types["number"] = number
	one := []ast.Attribute{{Name: "x", TypeName: p.Name("number")}}

	p.AddRelation(&ast.Relation{Name: p.Name("a"), Attributes: one})
	p.AddRelation(&ast.Relation{Name: p.Name("b"), Attributes: one})
	p.AddRelation(&ast.Relation{Name: p.Name("c"), Attributes: one, IO: ast.IOOutput})

	fact := func(rel string, n int64) {
		p.AddClause(&ast.Clause{Head: &ast.Atom{Relation: p.Name(rel), Args: []ast.Argument{
			&ast.NumberConstant{Value: domain.FromSigned(n)},
		}}})
	}
	fact("a", 1)
	fact("a", 2)
	fact("a", 3)
	fact("b", 2)

	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: p.Name("c"), Args: []ast.Argument{&ast.Variable{Name: "x"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: p.Name("a"), Args: []ast.Argument{&ast.Variable{Name: "x"}}},
			&ast.Negation{Atom: &ast.Atom{Relation: p.Name("b"), Args: []ast.Argument{&ast.Variable{Name: "x"}}}},
		},
	})

	in, err := New(nil).Run(p)
	require.NoError(err)

	rel, ok := in.Relation("c")
	require.True(ok)
	got := map[int64]bool{}
	for _, row := range rel.Scan() {
		got[domain.ToSigned(row.Data()[0])] = true
	}
	require.Equal(map[int64]bool{1: true, 3: true}, got)
}

func TestEngineAggregationGroupsByWitness(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	p := ast.NewProgram()
	p.Types["number"] = ast.NewPrimitive(p.Name("number"), ast.KindNumber)
	p.Types["symbol"] = ast.NewPrimitive(p.Name("symbol"), ast.KindSymbol)
	attrs := []ast.Attribute{
		{Name: "n", TypeName: p.Name("symbol")},
		{Name: "v", TypeName: p.Name("number")},
	}
	p.AddRelation(&ast.Relation{Name: p.Name("score"), Attributes: attrs})
	p.AddRelation(&ast.Relation{Name: p.Name("total"), Attributes: attrs, IO: ast.IOOutput,
		Directives: map[string]string{"IO": "file", "filename": filepath.Join(dir, "total.facts")}})

	fact := func(n string, v int64) {
		p.AddClause(&ast.Clause{Head: &ast.Atom{Relation: p.Name("score"), Args: []ast.Argument{
			&ast.StringConstant{Value: n}, &ast.NumberConstant{Value: domain.FromSigned(v)},
		}}})
	}
	fact("alice", 10)
	fact("alice", 20)
	fact("bob", 5)

	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: p.Name("total"), Args: []ast.Argument{&ast.Variable{Name: "n"}, &ast.Variable{Name: "s"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: p.Name("score"), Args: []ast.Argument{&ast.Variable{Name: "n"}, &ast.UnnamedVariable{}}},
			&ast.BinaryConstraint{
				Op:   ast.ConstrEq,
				Left: &ast.Variable{Name: "s"},
				Right: &ast.Aggregator{Op: ast.AggSum, Target: &ast.Variable{Name: "v"}, Body: []ast.Literal{
					&ast.Atom{Relation: p.Name("score"), Args: []ast.Argument{&ast.Variable{Name: "n"}, &ast.Variable{Name: "v"}}},
				}},
			},
		},
	})

	io := iosys.New(nil, nil)
	_, err := New(&Config{IO: io}).Run(p)
	require.NoError(err)

	data, err := os.ReadFile(filepath.Join(dir, "total.facts"))
	require.NoError(err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	sort.Strings(lines)
	require.Equal([]string{"alice\t30", "bob\t5"}, lines)
}

func TestEngineRecordEqualityFolds(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	p.Types["number"] = ast.NewPrimitive(p.Name("number"), ast.KindNumber)
	attrs := []ast.Attribute{
		{Name: "x", TypeName: p.Name("number")},
		{Name: "y", TypeName: p.Name("number")},
	}
	p.AddRelation(&ast.Relation{Name: p.Name("r"), Attributes: attrs})
	p.AddRelation(&ast.Relation{Name: p.Name("q"), Attributes: attrs, IO: ast.IOOutput})

	for _, row := range [][2]int64{{1, 2}, {1, 3}, {2, 2}} {
		p.AddClause(&ast.Clause{Head: &ast.Atom{Relation: p.Name("r"), Args: []ast.Argument{
			&ast.NumberConstant{Value: domain.FromSigned(row[0])},
			&ast.NumberConstant{Value: domain.FromSigned(row[1])},
		}}})
	}

	// q(x,y) :- r(x,y), [x,y] = [1,2].
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: p.Name("q"), Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: p.Name("r"), Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
			&ast.BinaryConstraint{
				Op: ast.ConstrEq,
				Left: &ast.RecordInit{Args: []ast.Argument{&ast.Variable{Name: "x"}, &ast.Variable{Name: "y"}}},
				Right: &ast.RecordInit{Args: []ast.Argument{
					&ast.NumberConstant{Value: domain.FromSigned(1)},
					&ast.NumberConstant{Value: domain.FromSigned(2)},
				}},
			},
		},
	})

	in, err := New(nil).Run(p)
	require.NoError(err)

	rel, ok := in.Relation("q")
	require.True(ok)
	require.Equal(1, rel.Len())
	require.Equal(int64(1), domain.ToSigned(rel.Scan()[0].Data()[0]))
	require.Equal(int64(2), domain.ToSigned(rel.Scan()[0].Data()[1]))
}

func TestEngineEqrelClosure(t *testing.T) {
	require := require.New(t)
	p := ast.NewProgram()
	p.Types["number"] = ast.NewPrimitive(p.Name("number"), ast.KindNumber)
	attrs := []ast.Attribute{
		{Name: "x", TypeName: p.Name("number")},
		{Name: "y", TypeName: p.Name("number")},
	}
	p.AddRelation(&ast.Relation{
		Name: p.Name("eq"), Attributes: attrs, IO: ast.IOOutput,
		Representation: ast.ReprEqrel,
	})
	for _, row := range [][2]int64{{1, 2}, {2, 3}} {
		p.AddClause(&ast.Clause{Head: &ast.Atom{Relation: p.Name("eq"), Args: []ast.Argument{
			&ast.NumberConstant{Value: domain.FromSigned(row[0])},
			&ast.NumberConstant{Value: domain.FromSigned(row[1])},
		}}})
	}

	in, err := New(nil).Run(p)
	require.NoError(err)

	rel, ok := in.Relation("eq")
	require.True(ok)
	got := map[[2]int64]bool{}
	for _, row := range rel.Scan() {
		got[[2]int64{domain.ToSigned(row.Data()[0]), domain.ToSigned(row.Data()[1])}] = true
	}
	require.Len(got, 9)
	for _, a := range []int64{1, 2, 3} {
		for _, b := range []int64{1, 2, 3} {
			require.Truef(got[[2]int64{a, b}], "missing pair (%d,%d)", a, b)
		}
	}
}

func TestEngineProvenanceExplain(t *testing.T) {
	require := require.New(t)
	p := transitiveClosureProgram()
	p.Relations["e"].IO = ast.IOInternal
	p.Relations["e"].Directives = nil
	p.Relations["p"].Directives = nil
	for _, row := range [][2]int64{{1, 2}, {2, 3}} {
		p.AddClause(&ast.Clause{Head: &ast.Atom{Relation: p.Name("e"), Args: []ast.Argument{
			&ast.NumberConstant{Value: domain.FromSigned(row[0])},
			&ast.NumberConstant{Value: domain.FromSigned(row[1])},
		}}})
	}

	eng := New(&Config{Provenance: true})
	in, err := eng.Run(p)
	require.NoError(err)

	rel, ok := in.Relation("p")
	require.True(ok)
	require.NotZero(rel.Len())
	require.Equal(4, rel.Arity())

	// p(1,3) is derivable within height 10 only through the recursive rule.
	ret, err := in.Call("explain_p_2", []domain.Value{
		domain.FromSigned(1), domain.FromSigned(3), domain.FromSigned(10),
	})
	require.NoError(err)
	require.NotEmpty(ret)
}

func TestEngineLatticeMonotonicity(t *testing.T) {
	require := require.New(t)
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
			ast.LatticeBottom: &ast.NumberConstant{Value: domain.FromSigned(0)},
		},
	}

	p.AddRelation(&ast.Relation{Name: p.Name("base"), Attributes: []ast.Attribute{
		{Name: "k", TypeName: p.Name("number")},
		{Name: "v", TypeName: p.Name("number")},
	}})
	p.AddRelation(&ast.Relation{Name: p.Name("st"), Attributes: []ast.Attribute{
		{Name: "k", TypeName: p.Name("number")},
		{Name: "v", TypeName: p.Name("level"), Lattice: true},
	}, IO: ast.IOOutput})

	for _, row := range [][2]int64{{1, 5}, {1, 3}, {1, 7}, {2, 4}} {
		p.AddClause(&ast.Clause{Head: &ast.Atom{Relation: p.Name("base"), Args: []ast.Argument{
			&ast.NumberConstant{Value: domain.FromSigned(row[0])},
			&ast.NumberConstant{Value: domain.FromSigned(row[1])},
		}}})
	}
	p.AddClause(&ast.Clause{
		Head: &ast.Atom{Relation: p.Name("st"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "v"}}},
		Body: []ast.Literal{
			&ast.Atom{Relation: p.Name("base"), Args: []ast.Argument{&ast.Variable{Name: "k"}, &ast.Variable{Name: "v"}}},
		},
	})

	in, err := New(nil).Run(p)
	require.NoError(err)

	// min is the GLB: a derived value must sit at or below what the same
	// key already stores. (1,5) lands in an empty relation, (1,3) moves
	// down from 5, (1,7) would move up and is rejected.
	rel, ok := in.Relation("st")
	require.True(ok)
	got := map[[2]int64]bool{}
	for _, row := range rel.Scan() {
		got[[2]int64{domain.ToSigned(row.Data()[0]), domain.ToSigned(row.Data()[1])}] = true
	}
	require.Equal(map[[2]int64]bool{
		{1, 5}: true,
		{1, 3}: true,
		{2, 4}: true,
	}, got)
}
