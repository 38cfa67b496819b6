package interpreter

import "github.com/ramlog/ramlog/ram"
import "github.com/ramlog/ramlog/domain"

// evalExpr evaluates a RAM expression against the current tuple bindings
// (spec.md §4.6).
func (c *execContext) evalExpr(e ram.Expression) domain.Value {
	switch v := e.(type) {
	case *ram.SignedConstant:
		return domain.FromSigned(v.Value)
	case *ram.UnsignedConstant:
		return domain.FromUnsigned(v.Value)
	case *ram.FloatConstant:
		return domain.FromFloat(v.Value)
	case *ram.StringConstant:
		return domain.FromSymbol(c.in.symbols.Lookup(v.Value))
	case *ram.TupleElement:
		t := c.tuple(v.Tuple)
		if t == nil || v.Column >= len(t) {
			return domain.FromSigned(0)
		}
		return t[v.Column]
	case *ram.IntrinsicOperator:
		args := make([]domain.Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = c.evalExpr(a)
		}
		result, warn := domain.EvalIntrinsic(v.Op, v.Kind, args, c.in.symbols, c.in.regex)
		if warn != nil {
			c.in.logWarning(warn)
		}
		return result
	case *ram.UserDefinedOperator:
		fn, ok := c.in.functors[v.Name]
		if !ok {
			c.in.logger.Warnf("no user functor registered for %q, returning 0", v.Name)
			return domain.FromSigned(0)
		}
		args := make([]domain.Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = c.evalExpr(a)
		}
		out, err := fn(args)
		if err != nil {
			c.in.logger.WithError(err).Warnf("user functor %q failed", v.Name)
			return domain.FromSigned(0)
		}
		return out
	case *ram.AutoIncrement:
		return domain.FromSigned(c.in.nextAutoIncrement())
	case *ram.SubroutineArgument:
		if v.Index < 0 || v.Index >= len(c.args) {
			return domain.FromSigned(0)
		}
		return c.args[v.Index]
	case *ram.PackRecord:
		data := make([]int64, len(v.Args))
		for i, a := range v.Args {
			data[i] = int64(c.evalExpr(a))
		}
		return domain.FromRecord(c.in.records.Pack(data, len(data)))
	case *ram.IterationNumber:
		return domain.FromSigned(c.in.currentIteration())
	case *ram.RelationLookup:
		rel := c.in.mustRelation(v.Relation)
		c.in.metrics.recordRead(v.Relation)
		key := make([]domain.Value, len(v.Key))
		for i, k := range v.Key {
			key[i] = c.evalExpr(k)
		}
		// Key columns need not form an ordering prefix, so this is the
		// same scan-and-match shape as a partial existence check; among
		// several stored tuples with equal key columns the first in
		// storage order wins (see DESIGN.md's Open Question decisions).
		for _, row := range rel.Scan() {
			data := row.Data()
			match := true
			for i, col := range v.KeyCols {
				if col >= len(data) || data[col] != key[i] {
					match = false
					break
				}
			}
			if match {
				return data[v.Column]
			}
		}
		return c.evalExpr(v.Default)
	case *ram.Undef:
		panic("interpreter: attempted to evaluate ram.Undef")
	default:
		panic("interpreter: unhandled expression type")
	}
}

func (in *Interpreter) logWarning(w *domain.Warning) {
	in.logger.WithField("op", w.Op).Warn(w.Message)
}
