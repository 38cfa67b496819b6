package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
)

func prog(relations map[string]int, main ram.Statement) *ram.Program {
	p := ram.NewProgram()
	for name, arity := range relations {
		p.Relations[name] = &ram.RelationDef{Name: name, Arity: arity}
	}
	p.Main = main
	return p
}

func insertAll(t *testing.T, in *Interpreter, rel string, rows ...[]int64) {
	t.Helper()
	r, ok := in.Relation(rel)
	require.True(t, ok)
	for _, row := range rows {
		vals := make([]domain.Value, len(row))
		for i, x := range row {
			vals[i] = domain.FromSigned(x)
		}
		r.Insert(vals)
	}
}

func signedRows(t *testing.T, in *Interpreter, rel string) [][]int64 {
	t.Helper()
	r, ok := in.Relation(rel)
	require.True(t, ok)
	var out [][]int64
	for _, row := range r.Scan() {
		vals := make([]int64, len(row.Data()))
		for i, v := range row.Data() {
			vals[i] = domain.ToSigned(v)
		}
		out = append(out, vals)
	}
	return out
}

func TestScanProjectCopies(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 1, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.Scan{Relation: "src", TupleID: 0, Nested: &ram.Project{
			Relation: "dst", Values: []ram.Expression{&ram.TupleElement{Tuple: 0, Column: 0}},
		}}},
	}})
	in := New(p, nil)
	insertAll(t, in, "src", []int64{1}, []int64{2}, []int64{3})
	require.NoError(in.Run())
	require.ElementsMatch([][]int64{{1}, {2}, {3}}, signedRows(t, in, "dst"))
}

func TestIndexScanNarrowsToBoundPrefix(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 2, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.IndexScan{
			Relation: "src", Ordering: 0, TupleID: 0,
			Low:  []ram.Expression{&ram.SignedConstant{Value: 2}, &ram.SignedConstant{Value: -1 << 62}},
			High: []ram.Expression{&ram.SignedConstant{Value: 2}, &ram.SignedConstant{Value: 1 << 62}},
			Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{
				&ram.TupleElement{Tuple: 0, Column: 1},
			}},
		}},
	}})
	in := New(p, nil)
	insertAll(t, in, "src", []int64{1, 10}, []int64{2, 20}, []int64{2, 21}, []int64{3, 30})
	require.NoError(in.Run())
	require.ElementsMatch([][]int64{{20}, {21}}, signedRows(t, in, "dst"))
}

func TestFilterExistenceCheck(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 1, "other": 1, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.Scan{Relation: "src", TupleID: 0, Nested: &ram.Filter{
			Cond: &ram.Negation{Inner: &ram.ExistenceCheck{Relation: "other", Pattern: []ram.Expression{
				&ram.TupleElement{Tuple: 0, Column: 0},
			}}},
			Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{&ram.TupleElement{Tuple: 0, Column: 0}}},
		}}},
	}})
	in := New(p, nil)
	insertAll(t, in, "src", []int64{1}, []int64{2}, []int64{3})
	insertAll(t, in, "other", []int64{2})
	require.NoError(in.Run())
	require.ElementsMatch([][]int64{{1}, {3}}, signedRows(t, in, "dst"))
}

func TestAggregateSumStaysSigned(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 1, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.Aggregate{
			Func: ram.AggSum, Kind: domain.KindSigned, Relation: "src",
			TargetExpr: &ram.TupleElement{Tuple: 0, Column: 0}, ScanTupleID: 0, TupleID: 1,
			Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{&ram.TupleElement{Tuple: 1, Column: 0}}},
		}},
	}})
	in := New(p, nil)
	insertAll(t, in, "src", []int64{10}, []int64{20}, []int64{5})
	require.NoError(in.Run())
	require.Equal([][]int64{{35}}, signedRows(t, in, "dst"))
}

func TestAggregateEmptySetSentinels(t *testing.T) {
	require := require.New(t)
	mk := func(fn ram.AggregateFunc) *ram.Program {
		return prog(map[string]int{"src": 1, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
			&ram.Query{Root: &ram.Aggregate{
				Func: fn, Kind: domain.KindSigned, Relation: "src",
				TargetExpr: &ram.TupleElement{Tuple: 0, Column: 0}, ScanTupleID: 0, TupleID: 1,
				Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{&ram.TupleElement{Tuple: 1, Column: 0}}},
			}},
		}})
	}

	// The nested operation still runs over an empty input, with the
	// initialized sentinel visible.
	in := New(mk(ram.AggCount), nil)
	require.NoError(in.Run())
	require.Equal([][]int64{{0}}, signedRows(t, in, "dst"))

	in = New(mk(ram.AggSum), nil)
	require.NoError(in.Run())
	require.Equal([][]int64{{0}}, signedRows(t, in, "dst"))

	in = New(mk(ram.AggMin), nil)
	require.NoError(in.Run())
	require.Equal([][]int64{{int64(domain.MaxDomainSigned)}}, signedRows(t, in, "dst"))

	in = New(mk(ram.AggMax), nil)
	require.NoError(in.Run())
	require.Equal([][]int64{{int64(domain.MinDomainSigned)}}, signedRows(t, in, "dst"))
}

func TestChoiceCommitsToFirstMatch(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 1, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.Choice{
			Relation: "src", TupleID: 0,
			Cond: &ram.Constraint{
				Op:   ram.ConstrGt,
				Left: &ram.TupleElement{Tuple: 0, Column: 0}, Right: &ram.SignedConstant{Value: 10},
				Kind: domain.KindSigned,
			},
			Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{&ram.TupleElement{Tuple: 0, Column: 0}}},
		}},
	}})
	in := New(p, nil)
	insertAll(t, in, "src", []int64{5}, []int64{11}, []int64{12})
	require.NoError(in.Run())
	require.Len(signedRows(t, in, "dst"), 1)
}

func TestBreakStopsEnclosingScan(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 1, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.Scan{Relation: "src", TupleID: 0, Nested: &ram.Break{
			Cond: &ram.True{},
			Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{
				&ram.TupleElement{Tuple: 0, Column: 0},
			}},
		}}},
	}})
	in := New(p, nil)
	insertAll(t, in, "src", []int64{1}, []int64{2}, []int64{3})
	require.NoError(in.Run())
	require.Len(signedRows(t, in, "dst"), 1)
}

func TestUnpackNilSucceedsWithoutRecursing(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.UnpackRecord{
			Ref: &ram.SignedConstant{Value: 0}, Arity: 2, TupleID: 0,
			Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{&ram.SignedConstant{Value: 7}}},
		}},
	}})
	in := New(p, nil)
	require.NoError(in.Run())
	require.Empty(signedRows(t, in, "dst"))
}

func TestPackUnpackRoundtripThroughRecordTable(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"dst": 2}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.UnpackRecord{
			Ref: &ram.PackRecord{Args: []ram.Expression{
				&ram.SignedConstant{Value: 4}, &ram.SignedConstant{Value: 9},
			}},
			Arity: 2, TupleID: 0,
			Nested: &ram.Project{Relation: "dst", Values: []ram.Expression{
				&ram.TupleElement{Tuple: 0, Column: 0}, &ram.TupleElement{Tuple: 0, Column: 1},
			}},
		}},
	}})
	in := New(p, nil)
	require.NoError(in.Run())
	require.Equal([][]int64{{4, 9}}, signedRows(t, in, "dst"))
}

func TestLoopRunsUntilExit(t *testing.T) {
	require := require.New(t)
	// The first iteration copies every work tuple to done and clears work,
	// so the exit condition holds and the loop stops.
	p := prog(map[string]int{"work": 1, "done": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Loop{Body: &ram.Sequence{Stmts: []ram.Statement{
			&ram.Query{Root: &ram.Scan{Relation: "work", TupleID: 0, Nested: &ram.Project{
				Relation: "done", Values: []ram.Expression{&ram.TupleElement{Tuple: 0, Column: 0}},
			}}},
			&ram.Clear{Relation: "work"},
			&ram.Exit{Cond: &ram.Empty{Relation: "work"}},
		}}},
	}})
	in := New(p, nil)
	insertAll(t, in, "work", []int64{1}, []int64{2})
	require.NoError(in.Run())
	require.ElementsMatch([][]int64{{1}, {2}}, signedRows(t, in, "done"))
	r, _ := in.Relation("work")
	require.Zero(r.Len())
}

func TestSwapExchangesStorage(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"a": 1, "b": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Swap{A: "a", B: "b"},
	}})
	in := New(p, nil)
	insertAll(t, in, "a", []int64{1})
	insertAll(t, in, "b", []int64{2}, []int64{3})
	require.NoError(in.Run())
	ra, _ := in.Relation("a")
	rb, _ := in.Relation("b")
	require.Equal(2, ra.Len())
	require.Equal(1, rb.Len())
}

func TestParallelScanCoversEveryTuple(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 1, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.Query{Root: &ram.ParallelScan{Relation: "src", TupleID: 0, Nested: &ram.Project{
			Relation: "dst", Values: []ram.Expression{&ram.TupleElement{Tuple: 0, Column: 0}},
		}}},
	}})
	in := New(p, &Config{Jobs: 4})
	var rows [][]int64
	for i := int64(0); i < 100; i++ {
		rows = append(rows, []int64{i})
	}
	insertAll(t, in, "src", rows...)
	require.NoError(in.Run())
	require.Len(signedRows(t, in, "dst"), 100)
}

func TestSubroutineCallReturnsValues(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{"src": 2}, &ram.Sequence{Stmts: nil})
	p.Subroutines["probe"] = &ram.Subroutine{
		Name: "probe", NumArgs: 1,
		Body: &ram.Query{Root: &ram.Scan{Relation: "src", TupleID: 0, Nested: &ram.Filter{
			Cond: &ram.Constraint{
				Op:   ram.ConstrEq,
				Left: &ram.TupleElement{Tuple: 0, Column: 0}, Right: &ram.SubroutineArgument{Index: 0},
				Kind: domain.KindSigned,
			},
			Nested: &ram.SubroutineReturn{Values: []ram.Expression{&ram.TupleElement{Tuple: 0, Column: 1}}},
		}}},
	}
	in := New(p, nil)
	insertAll(t, in, "src", []int64{1, 10}, []int64{2, 20})
	require.NoError(in.Run())

	ret, err := in.Call("probe", []domain.Value{domain.FromSigned(2)})
	require.NoError(err)
	require.Len(ret, 1)
	require.Equal(int64(20), domain.ToSigned(ret[0]))

	_, err = in.Call("missing", nil)
	require.Error(err)
}

func TestDebugInfoRestoresPreviousMessage(t *testing.T) {
	require := require.New(t)
	p := prog(map[string]int{}, &ram.Sequence{Stmts: []ram.Statement{
		&ram.DebugInfo{Message: "outer", Body: &ram.DebugInfo{Message: "inner", Body: &ram.Sequence{}}},
	}})
	in := New(p, nil)
	require.NoError(in.Run())
	require.Equal("", in.DebugMessage())
}

func TestRelationLookupJoinsOrDefaults(t *testing.T) {
	require := require.New(t)
	mk := func() *ram.Program {
		return prog(map[string]int{"st": 2, "dst": 1}, &ram.Sequence{Stmts: []ram.Statement{
			&ram.Query{Root: &ram.Project{Relation: "dst", Values: []ram.Expression{
				&ram.RelationLookup{
					Relation: "st",
					KeyCols:  []int{0},
					Key:      []ram.Expression{&ram.SignedConstant{Value: 1}},
					Column:   1,
					Default:  &ram.SignedConstant{Value: 9},
				},
			}}},
		}})
	}

	in := New(mk(), nil)
	require.NoError(in.Run())
	require.Equal([][]int64{{9}}, signedRows(t, in, "dst"))

	in = New(mk(), nil)
	insertAll(t, in, "st", []int64{1, 5}, []int64{2, 7})
	require.NoError(in.Run())
	require.Equal([][]int64{{5}}, signedRows(t, in, "dst"))
}
