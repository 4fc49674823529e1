// Package seqemit implements the SequentialEmitter (spec.md §4.2): it lowers
// a LogicByScope list into a top function that calls one generated
// sub-function per scope, in original source order — no reordering, no
// dependency analysis. This is how static/initial/final logic becomes code;
// clocked/combinational logic instead goes through internal/collab.Order.
//
// Grounded directly in V3Sched.cpp's orderSequentially, createStatic,
// createInitial and createFinal.
package seqemit

import (
	"github.com/hdlsched/schedcore/internal/ir"
	"github.com/hdlsched/schedcore/internal/split"
)

// OrderSequentially appends lbs's logic to funcp, in original order, routed
// through one generated sub-function per distinct scope (spec §4.2 "Scope
// sub-functions"). Each ActiveBlock consumed this way is destroyed: it is
// unlinked from its scope before OrderSequentially returns, so the source
// netlist never retains two copies of the same logic (spec §3 Ownership &
// lifecycle).
func OrderSequentially(funcp *ir.Function, lbs ir.LogicByScope) {
	subFuncByScope := map[*ir.Scope]*ir.Function{}

	for _, entry := range lbs {
		scope := entry.Scope
		block := entry.Block

		subFunc, ok := subFuncByScope[scope]
		if !ok {
			subFunc = ir.NewSubFunction(scope, funcp.Name+"__"+scope.Dotless(), funcp.Slow)
			subFuncByScope[scope] = subFunc
			funcp.AddStmt(ir.Call{Func: subFunc})
		}

		for _, stmt := range block.Body {
			subFunc.AddStmt(stmt)
		}
		block.Body = nil
		scope.RemoveBlock(block)
	}
}

// CreateStatic builds `_eval_static`: runs once, before anything else, and is
// split immediately since nothing downstream needs to append to it further
// (spec §4.2, §6 entry points).
func CreateStatic(netlist *ir.Netlist, classes ir.LogicClasses) {
	funcp := ir.NewTopFunction(netlist.Top, "_eval_static", true)
	OrderSequentially(funcp, classes.Static)
	split.Check(funcp, netlist.Options.OutputSplitCFuncs)
}

// CreateInitial builds `_eval_initial` and returns it unsplit: callers append
// shadow-variable initializers (internal/senexpr) and first-iteration trigger
// assignments (internal/trigger) to it before the netlist is final, so
// splitting is deferred to the end of scheduling (spec §4.2: "Not splitting
// yet as it is not final"; SPEC_FULL.md Open Question decision).
func CreateInitial(netlist *ir.Netlist, classes ir.LogicClasses) *ir.Function {
	funcp := ir.NewTopFunction(netlist.Top, "_eval_initial", true)
	OrderSequentially(funcp, classes.Initial)
	return funcp
}

// CreateFinal builds `_eval_final`: runs once at simulation end, split
// immediately since nothing downstream appends to it (spec §4.2).
func CreateFinal(netlist *ir.Netlist, classes ir.LogicClasses) {
	funcp := ir.NewTopFunction(netlist.Top, "_eval_final", true)
	OrderSequentially(funcp, classes.Final)
	split.Check(funcp, netlist.Options.OutputSplitCFuncs)
}
