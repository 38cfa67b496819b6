package interpreter

import (
	"sync"
	"time"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/ram"
	"github.com/ramlog/ramlog/relation"
)

// Run executes prog.Main to completion against the interpreter's live
// relations (spec.md §4.6: "the interpreter executes stratum-by-stratum").
// Run is not safe to call concurrently on the same Interpreter.
func (in *Interpreter) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrRecoveredPanic.New(r)
		}
	}()
	c := newContext(in, 0)
	c.execStmt(in.prog.Main)
	return nil
}

// Call invokes the named subroutine with args, returning its declared
// return tuple (spec.md §4.4 "one RAM subroutine per SCC"; SPEC_FULL.md §12
// per-clause provenance-explain subroutines take the fact being explained
// as args).
func (in *Interpreter) Call(name string, args []domain.Value) (ret []domain.Value, err error) {
	sub, ok := in.prog.Subroutines[name]
	if !ok {
		return nil, ErrUnknownSubroutine.New(name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = ErrRecoveredPanic.New(r)
		}
	}()
	c := newContext(in, sub.NumArgs)
	copy(c.args, args)
	c.execStmt(sub.Body)
	return c.ret, nil
}

// execStmt runs stmt, propagating c.exit when an Exit statement inside it
// (anywhere in the nested Sequence/Parallel tree) evaluates true. Unlike
// execOp's early-return-on-false, execStmt never short-circuits a Sequence
// on exit: every statement in the body still runs once, matching the
// reference's per-iteration bookkeeping (delta-diff, merge, clear) always
// executing before the Loop re-checks Exit.
func (c *execContext) execStmt(stmt ram.Statement) {
	switch v := stmt.(type) {
	case *ram.Sequence:
		for _, s := range v.Stmts {
			c.execStmt(s)
		}
	case *ram.Parallel:
		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, s := range v.Stmts {
			s := s
			wg.Add(1)
			go func() {
				defer wg.Done()
				worker := c.cloneFor()
				worker.execStmt(s)
				if worker.exit {
					mu.Lock()
					c.exit = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
	case *ram.Loop:
		c.in.setIteration(0)
		for {
			c.exit = false
			c.execStmt(v.Body)
			c.in.metrics.recordIteration()
			c.in.bumpIteration()
			if c.exit {
				c.exit = false
				c.in.setIteration(0)
				return
			}
		}
	case *ram.Exit:
		if c.evalCond(v.Cond) {
			c.exit = true
		}
	case *ram.Query:
		c.execOp(v.Root)
	case *ram.Clear:
		c.in.mustRelation(v.Relation).Purge()
	case *ram.Swap:
		relation.Swap(c.in.mustRelation(v.A), c.in.mustRelation(v.B))
	case *ram.MergeExtend:
		relation.MergeExtend(c.in.mustRelation(v.Src), c.in.mustRelation(v.Tgt))
	case *ram.Merge:
		src, tgt := c.in.mustRelation(v.Src), c.in.mustRelation(v.Tgt)
		for _, row := range src.Scan() {
			tgt.Insert(row.Data())
		}
	case *ram.IO:
		c.execIO(v)
	case *ram.LogTimer:
		c.execLogTimer(v)
	case *ram.DebugInfo:
		prev := c.in.DebugMessage()
		c.in.setDebugMessage(v.Message)
		c.execStmt(v.Body)
		c.in.setDebugMessage(prev)
	case *ram.Call:
		sub, ok := c.in.prog.Subroutines[v.Name]
		if !ok {
			panic(ErrUnknownSubroutine.New(v.Name))
		}
		nested := newContext(c.in, sub.NumArgs)
		nested.execStmt(sub.Body)
	default:
		panic("interpreter: unhandled statement type")
	}
}

func (in *Interpreter) bumpIteration() {
	in.setIteration(in.currentIteration() + 1)
}

func (c *execContext) execIO(v *ram.IO) {
	if c.in.io == nil {
		return
	}
	rel := c.in.mustRelation(v.Relation)
	switch v.Direction {
	case ram.IORead:
		rows, err := c.in.io.Read(v.Relation, v.Directives)
		if err != nil {
			c.in.logger.WithError(err).WithField("relation", v.Relation).Warn("input load failed; relation left empty")
			return
		}
		for _, row := range rows {
			// Provenance-enabled relations carry trailing bookkeeping
			// columns the fact file doesn't; input facts load at height 0.
			for len(row) < rel.Arity() {
				row = append(row, 0)
			}
			rel.Insert(row)
		}
	case ram.IOWrite:
		rows := make([][]domain.Value, 0, rel.Len())
		for _, row := range rel.Scan() {
			rows = append(rows, row.Data())
		}
		if err := c.in.io.Write(v.Relation, v.Directives, rows); err != nil {
			c.in.logger.WithError(err).WithField("relation", v.Relation).Error("output write failed")
			panic(ErrIOWriteFailed.New(v.Relation, err))
		}
	case ram.IOPrintsize:
		if err := c.in.io.Printsize(v.Relation, v.Directives, rel.Len()); err != nil {
			c.in.logger.WithError(err).WithField("relation", v.Relation).Error("printsize write failed")
			panic(ErrIOWriteFailed.New(v.Relation, err))
		}
	}
}

func (c *execContext) execLogTimer(v *ram.LogTimer) {
	span := c.in.tracer.StartSpan(v.Message)
	defer span.Finish()
	start := time.Now()
	c.execStmt(v.Body)
	span.SetTag("run_id", c.in.runID.String())
	c.in.logger.WithFields(map[string]interface{}{
		"message":  v.Message,
		"duration": time.Since(start).String(),
		"run_id":   c.in.runID.String(),
	}).Debug("ram.LogTimer")
}
