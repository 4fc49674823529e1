// Package split implements the FunctionSplitter (spec.md §4.7): once a
// generated top-level function reaches the configured node budget, its
// statements are broken out into numbered sub-functions and replaced with
// calls, mirroring V3Sched.cpp's splitCheck.
package split

import (
	"fmt"

	"github.com/hdlsched/schedcore/internal/ir"
)

// Check splits fn's body into fn.Name__0, fn.Name__1, ... sub-functions once
// its node count reaches budget, leaving fn itself holding only the calls.
// A budget of zero disables splitting entirely (spec §6 "outputSplitCFuncs:
// 0 disables splitting"). Check is a no-op on an empty body.
func Check(fn *ir.Function, budget int) {
	// splitCheck's contract (spec §4.7) asserts no finalizer statements exist
	// on the input function. ir.Stmt has no finalizer node — Fatal, Call,
	// Assign, If, ExprStmt and RawStmt are the whole set — so there is
	// nothing for that assertion to find; recorded here rather than silently
	// dropped, since a finalizer node added later must be rejected here too.
	if budget <= 0 || len(fn.Body) == 0 {
		return
	}
	if fn.NodeCount() < budget {
		return
	}

	items := fn.Body
	fn.Body = nil

	var cur *ir.Function
	curStmts := 0
	funcNum := 0

	for _, item := range items {
		stmts := ir.StmtNodeCount(item)
		if cur == nil || curStmts+stmts > budget {
			cur = &ir.Function{
				Name: fmt.Sprintf("%s__%d", fn.Name, funcNum),
				Slow: fn.Slow,
			}
			funcNum++
			fn.Scope.AddFunc(cur)
			fn.AddStmt(ir.Call{Func: cur})
			curStmts = 0
		}
		cur.AddStmt(item)
		curStmts += stmts
	}
}
