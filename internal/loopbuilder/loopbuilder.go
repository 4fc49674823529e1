// Package loopbuilder provides the two generic loop shapes every
// fixed-point region in the scheduler is built from: a bare "continue"
// loop, and the full compute-triggers/invoke-body/check-convergence
// evaluation loop layered on top of it.
//
// Grounded directly in V3Sched.cpp's buildLoop and makeEvalLoop.
package loopbuilder

import (
	"github.com/hdlsched/schedcore/internal/ir"
)

// Loop is a bare `while (continue) { continue = false; <body> }` shape, with
// the continuation variable exposed so callers can set it back to true from
// inside body (spec §4.5.1).
type Loop struct {
	Continue *ir.VarScope
	Init     ir.Stmt // __VxContinue = 1, placed before the loop itself
	While    ir.Stmt // the loop statement itself (a RawStmt wrapping Body)
	Body     *[]ir.Stmt
}

// Build constructs the loop skeleton: the continuation flag, its
// initializer, and an empty body callers append to before the loop is
// considered final (spec §4.5.1 "buildLoop").
func Build(top *ir.Scope, name string) *Loop {
	continuep := top.NewVar("__V"+name+"Continue", ir.BitType)
	body := []ir.Stmt{
		ir.Assign{LHS: ir.WVar(continuep), RHS: ir.ConstVal(0, 1)},
	}
	l := &Loop{
		Continue: continuep,
		Init:      ir.Assign{LHS: ir.WVar(continuep), RHS: ir.ConstVal(1, 1)},
		Body:      &body,
	}
	l.While = ir.RawStmt{Text: "while (" + name + "Continue) { ... }", Nested: body}
	return l
}

// Append adds statements to the loop body and keeps the While statement's
// snapshot in sync (RawStmt.Nested is a value copy, not a live view).
func (l *Loop) Append(stmts ...ir.Stmt) {
	*l.Body = append(*l.Body, stmts...)
	l.While = ir.RawStmt{Text: l.While.(ir.RawStmt).Text, Nested: *l.Body}
}

// Stmts returns the {Init, While} pair ready to splice into a function body.
func (l *Loop) Stmts() []ir.Stmt {
	return []ir.Stmt{l.Init, l.While}
}

// EvalLoop is the full fixed-point region loop: each pass computes the
// trigger vector, and if any bit is set, runs the body, bumps an iteration
// counter, and loops again; exceeding convergeLimit is fatal (spec §4.5.2,
// §7.2).
type EvalLoop struct {
	Counter *ir.VarScope
	Stmts   []ir.Stmt
}

// BuildEvalLoop assembles the loop described above. computeTriggers are the
// statements that (re)compute trigVec's bits each pass (normally a single
// Call to a trigger.Kit.Func); body are the statements to run when any bit
// is set (normally a Call into the region's ordered logic).
func BuildEvalLoop(top *ir.Scope, tag, region string, trigVec *ir.VarScope, trigDump *ir.Function, convergeLimit int, computeTriggers, body []ir.Stmt, loc ir.SourceLoc) *EvalLoop {
	counter := top.NewVar("__V"+tag+"IterCount", ir.DataType{Name: "uint32", Width: 32})

	loop := Build(top, tag)
	loop.Append(computeTriggers...)

	anyFired := ir.MethodCall{Recv: ir.RVar(trigVec), Name: "any", Pure: true}

	limitCheck := ir.If{
		Cond: ir.Gt(ir.RVar(counter), ir.ConstVal(uint64(convergeLimit), 32)),
		Then: []ir.Stmt{
			ir.Fatal{
				Region:   region,
				Loc:      loc,
				DumpCall: &ir.Call{Func: trigDump},
			},
		},
	}

	incr := ir.Assign{
		LHS: ir.WVar(counter),
		RHS: ir.AddOp(ir.RVar(counter), ir.ConstVal(1, 32)),
	}

	firedBranch := ir.If{
		Cond: anyFired,
		Then: append(
			[]ir.Stmt{
				ir.Assign{LHS: ir.WVar(loop.Continue), RHS: ir.ConstVal(1, 1)},
				limitCheck,
				incr,
			},
			body...,
		),
	}
	loop.Append(firedBranch)

	init := ir.Assign{LHS: ir.WVar(counter), RHS: ir.ConstVal(0, 32)}

	return &EvalLoop{
		Counter: counter,
		Stmts:   append([]ir.Stmt{init}, loop.Stmts()...),
	}
}
