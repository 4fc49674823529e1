// Package trigger implements the TriggerKit factory (spec.md §4.4): given a
// set of clocked/hybrid SenTrees, it allocates a packed trigger vector, a
// function that computes it each round, a debug dump function, and a map
// from each input SenTree to a synthetic single-bit "trigger fired"
// SenTree that downstream Order() calls use instead of the real one.
//
// Grounded directly in V3Sched.cpp's TriggerKit struct and createTriggers.
package trigger

import (
	"fmt"

	"github.com/hdlsched/schedcore/internal/ir"
	"github.com/hdlsched/schedcore/internal/senexpr"
)

// Kit holds everything a caller needs to drive one trigger vector through a
// region's evaluation loop.
type Kit struct {
	Vec  *ir.VarScope
	Func *ir.Function // computes the current active triggers
	Dump *ir.Function // debug dump, guarded by Ifdef "VL_DEBUG"
	Map  map[*ir.SenTree]*ir.SenTree

	top *ir.Scope
}

func trigRef(vec *ir.VarScope, index int, write bool) ir.Expr {
	return ir.MethodCall{
		Recv: ir.VarRef{Var: vec, Write: write},
		Name: "at",
		Args: []ir.Expr{ir.ConstVal(uint64(index), 32)},
		Pure: true,
	}
}

// CreateTriggerSenTree builds a synthetic single-bit SenTree sensitive to
// bit index of k.Vec (spec §4.4.4 "redirect downstream logic"). Must not be
// called twice for the same index.
func (k *Kit) CreateTriggerSenTree(index int) *ir.SenTree {
	return ir.TrueLevelSenTree(trigRef(k.Vec, index, false))
}

// AddFirstIterationTriggerAssignment sets bit 0 of the trigger vector
// whenever counter reads zero (spec §4.4.3: the input-combinational loop's
// first pass must always run). The assignment is inserted at the head of
// the compute function.
func (k *Kit) AddFirstIterationTriggerAssignment(counter *ir.VarScope) {
	k.Func.PrependStmt(ir.Assign{
		LHS: trigRef(k.Vec, 0, true),
		RHS: ir.BinaryOp{Op: "eq", L: ir.RVar(counter), R: ir.ConstVal(0, 32)},
	})
}

// AddDpiExportTriggerAssignment wires a DPI-exported-write flag into bit
// index of the trigger vector, then clears the flag (spec §4.4.4: DPI
// exports can trigger act/nba evaluation from outside the normal loop).
func (k *Kit) AddDpiExportTriggerAssignment(dpiExportTrigger *ir.VarScope, index int) {
	k.Func.InsertAfterFirst(
		ir.Assign{LHS: trigRef(k.Vec, index, true), RHS: ir.RVar(dpiExportTrigger)},
		ir.Assign{LHS: ir.WVar(dpiExportTrigger), RHS: ir.ConstVal(0, 1)},
	)
}

// Create allocates a trigger vector sized len(senTrees)+extra, a compute
// function and a debug dump function, and fills in the compute function's
// body from builder.Build for each senTree (spec §4.4.1–§4.4.4). extra
// reserves low-numbered bits for callers to assign by hand (e.g. the
// first-iteration or DPI-export bits above); the sensitivity-derived bits
// start right after them.
func Create(netlist *ir.Netlist, builder *senexpr.Builder, senTrees []*ir.SenTree, name string, extra int, slow bool) (*Kit, error) {
	top := netlist.Top
	nTriggers := len(senTrees) + extra

	vec := top.NewVar("__V"+name+"Triggered", ir.TriggerVecType(nTriggers))
	funcp := ir.NewSubFunction(top, "_eval_triggers__"+name, slow)
	dumpp := ir.NewSubFunction(top, "_dump_triggers__"+name, slow)
	dumpp.Ifdef = "VL_DEBUG"

	dumpp.AddStmt(ir.If{
		Cond: ir.MethodCall{Recv: ir.RVar(vec), Name: "any", Pure: true},
		Else: []ir.Stmt{ir.RawStmt{Text: `VL_DBG_MSGF("         No triggers active\n");`}},
	})

	addDebug := func(index int, text string) {
		msg := fmt.Sprintf("         '%s' region trigger index %d is active", name, index)
		if text != "" {
			msg += ": " + text
		}
		dumpp.AddStmt(ir.If{
			Cond: trigRef(vec, index, false),
			Then: []ir.Stmt{ir.RawStmt{Text: fmt.Sprintf(`VL_DBG_MSGF("%s\n");`, msg)}},
		})
	}
	for i := 0; i < extra; i++ {
		addDebug(i, "")
	}

	senMap := map[*ir.SenTree]*ir.SenTree{}
	var initialTrigs []ir.Stmt
	triggerNumber := extra

	for _, senTree := range senTrees {
		if !senTree.HasClocked() && !senTree.HasHybrid() {
			return nil, ir.Fatalf(ir.SourceLoc{}, "cannot create trigger expression for non-clocked sensitivity")
		}

		trigSenTree := ir.TrueLevelSenTree(trigRef(vec, triggerNumber, false))
		senMap[senTree] = trigSenTree

		expr, firesAtInit, err := builder.Build(senTree)
		if err != nil {
			return nil, err
		}
		funcp.AddStmt(ir.Assign{LHS: trigRef(vec, triggerNumber, true), RHS: expr})

		if firesAtInit || netlist.Options.XInitialEdge {
			initialTrigs = append(initialTrigs, ir.Assign{
				LHS: trigRef(vec, triggerNumber, true),
				RHS: ir.ConstVal(1, 1),
			})
		}

		addDebug(triggerNumber, ir.VerilogForm(senTree))
		triggerNumber++
	}

	for _, update := range builder.TakeUpdates() {
		funcp.AddStmt(update)
	}

	if len(initialTrigs) > 0 {
		didInit := top.NewVar("__V"+name+"DidInit", ir.BitType)
		body := append([]ir.Stmt{ir.Assign{LHS: ir.WVar(didInit), RHS: ir.ConstVal(1, 1)}}, initialTrigs...)
		funcp.AddStmt(ir.If{
			Cond:           ir.Not(ir.RVar(didInit)),
			Then:           body,
			BranchUnlikely: true,
		})
	}

	funcp.AddStmt(ir.RawStmt{
		Text: "#ifdef VL_DEBUG\nif (VL_UNLIKELY(contextp->debug())) {\n<dump>\n}\n#endif",
		Nested: []ir.Stmt{
			ir.If{Cond: ir.Raw{Text: "contextp->debug()"}, Then: []ir.Stmt{ir.Call{Func: dumpp}}},
		},
	})

	return &Kit{Vec: vec, Func: funcp, Dump: dumpp, Map: senMap, top: top}, nil
}
