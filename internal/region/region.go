// Package region assembles the IEEE 1800 event regions into runnable
// evaluation functions: the Settle fixed point that restores the
// combinational invariant, the input-combinational (Ico) loop, and finally
// the Active/NBA loop pair bolted together into `_eval` itself.
//
// Grounded directly in V3Sched.cpp's createSettle, createInputCombLoop and
// createEval.
package region

import (
	"github.com/hdlsched/schedcore/internal/collab"
	"github.com/hdlsched/schedcore/internal/ir"
	"github.com/hdlsched/schedcore/internal/loopbuilder"
	"github.com/hdlsched/schedcore/internal/senexpr"
	"github.com/hdlsched/schedcore/internal/trigger"
)

// senTreesUsedBy collects the distinct clocked/hybrid SenTrees referenced by
// any block across lbsList, in first-seen order (spec §4.4 "getSenTreesUsedBy").
func SenTreesUsedBy(lbsList ...ir.LogicByScope) []*ir.SenTree {
	seen := map[*ir.SenTree]bool{}
	var out []*ir.SenTree
	for _, lbs := range lbsList {
		for _, entry := range lbs {
			sen := entry.Block.Sen
			if seen[sen] {
				continue
			}
			seen[sen] = true
			if sen.HasClocked() || sen.HasHybrid() {
				out = append(out, sen)
			}
		}
	}
	return out
}

// remapSensitivities points every non-combinational block in lbs at its
// trigger-flag SenTree instead of its real one, leaving combinational
// blocks alone (spec §4.4 "remapSensitivities": combinational logic has no
// sensitivity to remap — it runs whenever its region's loop body runs).
func RemapSensitivities(lbs ir.LogicByScope, senMap map[*ir.SenTree]*ir.SenTree) {
	for _, entry := range lbs {
		if entry.Block.Sen.HasCombo() {
			continue
		}
		if mapped, ok := senMap[entry.Block.Sen]; ok {
			entry.Block.Sen = mapped
		}
	}
}

// invertSenMap builds the trigger-SenTree -> original-SenTree map Order's
// ExtraSenFn plumbing is handed (spec §4.4 "invertAndMergeSenTreeMap"),
// merging into an existing map rather than replacing it.
func InvertSenMap(into map[*ir.SenTree]*ir.SenTree, senMap map[*ir.SenTree]*ir.SenTree) {
	for orig, trig := range senMap {
		into[trig] = orig
	}
}

// CreateSettle builds `_eval_settle`: a fixed-point loop over a private copy
// of the combinational and hybrid logic, run once before the main loop to
// establish the combinational invariant "every variable equals the value
// implied by its current inputs" (spec §4.6.1). If there is no comb/hybrid
// logic, `_eval_settle` is still registered but left with an empty body.
func CreateSettle(netlist *ir.Netlist, builder *senexpr.Builder, classes *ir.LogicClasses, orderer collab.Orderer) (*ir.Function, error) {
	funcp := ir.NewTopFunction(netlist.Top, "_eval_settle", true)

	comb := classes.Comb.Clone()
	hybrid := classes.Hybrid.Clone()
	if comb.Empty() && hybrid.Empty() {
		return funcp, nil
	}

	const firstIterationTrigger = 0
	const extraTriggers = firstIterationTrigger + 1

	senTrees := SenTreesUsedBy(comb, hybrid)
	trig, err := trigger.Create(netlist, builder, senTrees, "stl", extraTriggers, true)
	if err != nil {
		return nil, err
	}

	RemapSensitivities(hybrid, trig.Map)

	trigToSen := map[*ir.SenTree]*ir.SenTree{}
	InvertSenMap(trigToSen, trig.Map)

	inputChanged := trig.CreateTriggerSenTree(firstIterationTrigger)

	stlFunc, err := orderer.Order([]ir.LogicByScope{comb, hybrid}, trigToSen, "stl", false, true,
		func(*ir.VarScope) []*ir.SenTree { return []*ir.SenTree{inputChanged} })
	if err != nil {
		return nil, err
	}

	loop := loopbuilder.BuildEvalLoop(
		netlist.Top, "stl", "Settle", trig.Vec, trig.Dump, netlist.Options.ConvergeLimit,
		[]ir.Stmt{ir.Call{Func: trig.Func}},
		[]ir.Stmt{ir.Call{Func: stlFunc}},
		netlist.TopModuleLoc,
	)
	trig.AddFirstIterationTriggerAssignment(loop.Counter)

	for _, s := range loop.Stmts {
		funcp.AddStmt(s)
	}
	return funcp, nil
}

// CreateInputCombLoop builds the fixed-point loop that settles the
// combinational logic fed directly by top-level inputs (spec §4.6.3 "Ico
// region"), tagging any top-level input it reads as sc_sensitive when the
// systemC option is set. Returns nil (and does nothing) if there is no such
// logic.
func CreateInputCombLoop(netlist *ir.Netlist, builder *senexpr.Builder, logic ir.LogicByScope, orderer collab.Orderer) ([]ir.Stmt, error) {
	if logic.Empty() {
		return nil, nil
	}

	if netlist.Options.SystemC {
		logic.ForeachLogic(func(s ir.Stmt) { tagSCSensitive(s) })
	}

	dpiExportTrigger := netlist.DPIExportTrigger

	extraTriggers := 0
	firstIterationTrigger := extraTriggers
	extraTriggers++
	dpiExportTriggerIndex := -1
	if dpiExportTrigger != nil {
		dpiExportTriggerIndex = extraTriggers
		extraTriggers++
	}

	senTrees := SenTreesUsedBy(logic)
	trig, err := trigger.Create(netlist, builder, senTrees, "ico", extraTriggers, false)
	if err != nil {
		return nil, err
	}

	if dpiExportTrigger != nil {
		trig.AddDpiExportTriggerAssignment(dpiExportTrigger, dpiExportTriggerIndex)
	}

	RemapSensitivities(logic, trig.Map)

	trigToSen := map[*ir.SenTree]*ir.SenTree{}
	InvertSenMap(trigToSen, trig.Map)

	inputChanged := trig.CreateTriggerSenTree(firstIterationTrigger)
	var dpiExportTriggered *ir.SenTree
	if dpiExportTrigger != nil {
		dpiExportTriggered = trig.CreateTriggerSenTree(dpiExportTriggerIndex)
	}

	icoFunc, err := orderer.Order([]ir.LogicByScope{logic}, trigToSen, "ico", false, false,
		func(v *ir.VarScope) []*ir.SenTree {
			var out []*ir.SenTree
			if v.Scope.Top && v.NonOutput {
				out = append(out, inputChanged)
			}
			if v.WrittenDPI && dpiExportTriggered != nil {
				out = append(out, dpiExportTriggered)
			}
			return out
		})
	if err != nil {
		return nil, err
	}

	loop := loopbuilder.BuildEvalLoop(
		netlist.Top, "ico", "Input combinational", trig.Vec, trig.Dump, netlist.Options.ConvergeLimit,
		[]ir.Stmt{ir.Call{Func: trig.Func}},
		[]ir.Stmt{ir.Call{Func: icoFunc}},
		netlist.TopModuleLoc,
	)
	trig.AddFirstIterationTriggerAssignment(loop.Counter)

	return loop.Stmts, nil
}

func tagSCSensitive(s ir.Stmt) {
	var visitExpr func(ir.Expr)
	visitExpr = func(e ir.Expr) {
		switch x := e.(type) {
		case ir.VarRef:
			if !x.Write && x.Var.Scope.Top && x.Var.NonOutput {
				x.Var.SCSensitive = true
			}
		case ir.UnaryOp:
			visitExpr(x.X)
		case ir.BinaryOp:
			visitExpr(x.L)
			visitExpr(x.R)
		case ir.Sel:
			visitExpr(x.X)
		case ir.MethodCall:
			visitExpr(x.Recv)
			for _, a := range x.Args {
				visitExpr(a)
			}
		}
	}
	switch x := s.(type) {
	case ir.Assign:
		visitExpr(x.RHS)
	case ir.If:
		visitExpr(x.Cond)
		for _, t := range x.Then {
			tagSCSensitive(t)
		}
		for _, e := range x.Else {
			tagSCSensitive(e)
		}
	case ir.ExprStmt:
		visitExpr(x.X)
	}
}

// CreateEval bolts the Ico loop, the Active loop and the NBA loop together
// into `_eval`, the single entry point the rest of the simulation calls
// every timestep (spec §4.6.4, §2 "single _eval() entry point").
//
// The NBA loop's trigger-compute step clears the NBA trigger vector and then
// re-runs the Active loop; the Active loop's body, in turn, latches its own
// trigger flags into the NBA vector before invoking the Act region body, so
// an NBA update that re-triggers an Act sensitivity is picked up on the next
// NBA pass without the two loops needing to share any other state (spec
// §4.6.4 "Act/NBA coupling").
func CreateEval(netlist *ir.Netlist, icoLoop []ir.Stmt, actTrig *trigger.Kit, preTrig, nbaTrig *ir.VarScope, actFunc, nbaFunc *ir.Function) *ir.Function {
	funcp := ir.NewTopFunction(netlist.Top, "_eval", false)
	netlist.Eval = funcp

	funcp.AddStmt(icoLoop...)

	nbaDump := cloneDumpForNBA(netlist.Top, actTrig.Dump, actTrig.Vec, nbaTrig)

	activeBody := []ir.Stmt{
		ir.ExprStmt{X: ir.MethodCall{
			Recv: ir.WVar(preTrig), Name: "andNot",
			Args: []ir.Expr{ir.RVar(actTrig.Vec), ir.RVar(nbaTrig)}, IsVoid: true,
		}},
		ir.ExprStmt{X: ir.MethodCall{
			Recv: ir.WVar(nbaTrig), Name: "set", Args: []ir.Expr{ir.RVar(actTrig.Vec)}, IsVoid: true,
		}},
		ir.Call{Func: actFunc},
	}

	activeLoop := loopbuilder.BuildEvalLoop(
		netlist.Top, "act", "Active", actTrig.Vec, actTrig.Dump, netlist.Options.ConvergeLimit,
		[]ir.Stmt{ir.Call{Func: actTrig.Func}}, activeBody, netlist.TopModuleLoc,
	)

	nbaTriggerCompute := []ir.Stmt{
		ir.ExprStmt{X: ir.MethodCall{Recv: ir.WVar(nbaTrig), Name: "clear", IsVoid: true}},
	}
	nbaTriggerCompute = append(nbaTriggerCompute, activeLoop.Stmts...)

	nbaLoop := loopbuilder.BuildEvalLoop(
		netlist.Top, "nba", "NBA", nbaTrig, nbaDump, netlist.Options.ConvergeLimit,
		nbaTriggerCompute, []ir.Stmt{ir.Call{Func: nbaFunc}}, netlist.TopModuleLoc,
	)

	funcp.AddStmt(nbaLoop.Stmts...)
	netlist.EvalNBA = nbaFunc
	return funcp
}

// cloneDumpForNBA builds `_dump_triggers__nba`, the same shape as the Act
// dump function but reading nbaTrig instead of actTrig's vector, and with
// "nba" substituted for "act" in every message (spec §4.6.4, SUPPLEMENTED
// FEATURES "NBA-dump-is-a-clone-with-text-substitution").
func cloneDumpForNBA(top *ir.Scope, actDump *ir.Function, actVec, nbaTrig *ir.VarScope) *ir.Function {
	nbaDump := ir.NewSubFunction(top, "_dump_triggers__nba", actDump.Slow)
	nbaDump.Ifdef = actDump.Ifdef
	nbaDump.Body = ir.CloneStmts(actDump.Body)
	renameDumpRefs(nbaDump.Body, actVec, nbaTrig)
	return nbaDump
}

func renameDumpRefs(stmts []ir.Stmt, from, to *ir.VarScope) {
	var visitExpr func(ir.Expr) ir.Expr
	visitExpr = func(e ir.Expr) ir.Expr {
		switch x := e.(type) {
		case ir.VarRef:
			if x.Var == from {
				return ir.VarRef{Var: to, Write: x.Write}
			}
			return x
		case ir.UnaryOp:
			x.X = visitExpr(x.X)
			return x
		case ir.BinaryOp:
			x.L, x.R = visitExpr(x.L), visitExpr(x.R)
			return x
		case ir.Sel:
			x.X = visitExpr(x.X)
			return x
		case ir.MethodCall:
			x.Recv = visitExpr(x.Recv)
			for i := range x.Args {
				x.Args[i] = visitExpr(x.Args[i])
			}
			return x
		default:
			return e
		}
	}
	var visitStmt func(ir.Stmt) ir.Stmt
	visitStmt = func(s ir.Stmt) ir.Stmt {
		switch x := s.(type) {
		case ir.If:
			x.Cond = visitExpr(x.Cond)
			for i := range x.Then {
				x.Then[i] = visitStmt(x.Then[i])
			}
			for i := range x.Else {
				x.Else[i] = visitStmt(x.Else[i])
			}
			return x
		case ir.RawStmt:
			x.Text = renameWord(x.Text, "act", "nba")
			return x
		default:
			return s
		}
	}
	for i := range stmts {
		stmts[i] = visitStmt(stmts[i])
	}
}

func renameWord(text, from, to string) string {
	// Small, deliberately literal substitution mirroring VString::replaceWord
	// (whole-word only, not a general string replace) — dump messages are the
	// only text ever touched this way, and they only ever contain the region
	// tag once per line.
	out := ""
	i := 0
	for i < len(text) {
		if i+len(from) <= len(text) && text[i:i+len(from)] == from &&
			(i == 0 || !isWordByte(text[i-1])) &&
			(i+len(from) == len(text) || !isWordByte(text[i+len(from)])) {
			out += to
			i += len(from)
			continue
		}
		out += string(text[i])
		i++
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
