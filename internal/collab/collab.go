// Package collab provides reference implementations of the scheduling
// core's external collaborators (spec.md §6): breakCycles, partition,
// replicateLogic and Order.order. The spec treats these as black boxes —
// a real compiler would feed them a dependency graph built during
// elaboration — so internal/region and internal/schedule depend on them
// only through the interfaces below, never the concrete types, letting a
// graph-aware implementation be substituted later without touching the
// scheduling core itself.
package collab

import (
	"github.com/hdlsched/schedcore/internal/ir"
)

// CycleBreaker turns cyclic participants of comb into hybrid logic so the
// settle loop (internal/region.CreateSettle) can resolve them iteratively
// instead of deadlocking a single-pass evaluation (spec §4.6.1).
type CycleBreaker interface {
	BreakCycles(comb *ir.LogicByScope) ir.LogicByScope
}

// Partitioner splits clocked/comb/hybrid logic into the three IEEE regions
// (spec §4.6.2 "Pre/Act/Nba").
type Partitioner interface {
	Partition(clocked, comb, hybrid ir.LogicByScope) ir.LogicRegions
}

// Replicator clones feeder combinational logic into the regions that need a
// private copy to re-run without disturbing the original (spec §4.6.3).
type Replicator interface {
	ReplicateLogic(regions ir.LogicRegions) ir.LogicReplicas
}

// ExtraSenFn lets a caller of Order attach additional synthetic
// sensitivities to specific variables (spec §6: the per-variable "out"
// callback V3Order::order takes) — e.g. routing top-level inputs through the
// first-iteration trigger, or DPI-written variables through the
// DPI-export trigger.
type ExtraSenFn func(v *ir.VarScope) []*ir.SenTree

// Orderer produces one function's body from a set of logic lists, remapping
// each block's real sensitivity through trigToSen first (spec §6
// "Order.order"). trigToSen maps each trigger-flag SenTree a block may now
// carry back to the original sensitivity it replaced, so an implementation
// with a real dependency graph can key its analysis off the original
// signal; it may be nil. mtasks hints that the result may be split across
// worker goroutines downstream; slow marks it cold.
type Orderer interface {
	Order(lbsList []ir.LogicByScope, trigToSen map[*ir.SenTree]*ir.SenTree, name string, mtasks, slow bool, extra ExtraSenFn) (*ir.Function, error)
}

// Default is the reference implementation: deterministic, insertion-order
// scheduling with no real data-dependency analysis (SPEC_FULL.md Open
// Question 3). It satisfies all three interfaces plus Orderer so one value
// can be wired everywhere a collaborator is needed.
type Default struct {
	top *ir.Scope
}

// New creates a Default collaborator set rooted at top.
func New(top *ir.Scope) *Default { return &Default{top: top} }

// BreakCycles reclassifies any comb entry that both reads and writes the
// same variable within its own body as hybrid (spec §4.6.1: "a cyclic
// dependency" — the simplest cycle a single block can exhibit on its own,
// standing in for the cross-block cycles a real dependency graph would
// find). Reclassified entries are removed from comb in place.
//
// Per SPEC_FULL.md Open Question 2, reclassification relabels the existing
// SenTree's Kind rather than allocating a new one: SenExprBuilder's shadow
// state is keyed by sensed expression, not by SenTree identity, so reusing
// the tree is safe and keeps the original sensitivity text available for
// debug dumps.
func (d *Default) BreakCycles(comb *ir.LogicByScope) ir.LogicByScope {
	var hybrid ir.LogicByScope
	var kept ir.LogicByScope

	for _, entry := range *comb {
		if isSelfCyclic(entry.Block) {
			entry.Block.Sen.SetKind(ir.KindHybrid)
			hybrid = append(hybrid, entry)
			continue
		}
		kept = append(kept, entry)
	}
	*comb = kept
	return hybrid
}

func isSelfCyclic(block *ir.ActiveBlock) bool {
	written := map[*ir.VarScope]bool{}
	for _, stmt := range block.Body {
		collectWrites(stmt, written)
	}
	if len(written) == 0 {
		return false
	}
	for _, stmt := range block.Body {
		if readsAny(stmt, written) {
			return true
		}
	}
	return false
}

func collectWrites(s ir.Stmt, out map[*ir.VarScope]bool) {
	switch x := s.(type) {
	case ir.Assign:
		if ref, ok := x.LHS.(ir.VarRef); ok {
			out[ref.Var] = true
		}
	case ir.If:
		for _, t := range x.Then {
			collectWrites(t, out)
		}
		for _, e := range x.Else {
			collectWrites(e, out)
		}
	}
}

func readsAny(s ir.Stmt, vars map[*ir.VarScope]bool) bool {
	switch x := s.(type) {
	case ir.Assign:
		return exprReadsAny(x.RHS, vars)
	case ir.If:
		if exprReadsAny(x.Cond, vars) {
			return true
		}
		for _, t := range x.Then {
			if readsAny(t, vars) {
				return true
			}
		}
		for _, e := range x.Else {
			if readsAny(e, vars) {
				return true
			}
		}
	case ir.ExprStmt:
		return exprReadsAny(x.X, vars)
	}
	return false
}

func exprReadsAny(e ir.Expr, vars map[*ir.VarScope]bool) bool {
	switch x := e.(type) {
	case ir.VarRef:
		return !x.Write && vars[x.Var]
	case ir.UnaryOp:
		return exprReadsAny(x.X, vars)
	case ir.BinaryOp:
		return exprReadsAny(x.L, vars) || exprReadsAny(x.R, vars)
	case ir.Sel:
		return exprReadsAny(x.X, vars)
	case ir.MethodCall:
		if exprReadsAny(x.Recv, vars) {
			return true
		}
		for _, a := range x.Args {
			if exprReadsAny(a, vars) {
				return true
			}
		}
	}
	return false
}

// Partition assigns clocked logic to Nba (flip-flop semantics: updates take
// effect at the end of the timestep), and comb/hybrid logic to Act, except
// for comb entries that write a variable some clocked SenTree senses
// directly — those generate a clock edge and must be visible before the Act
// trigger computation runs, so they go to Pre (spec §4.6.2).
func (d *Default) Partition(clocked, comb, hybrid ir.LogicByScope) ir.LogicRegions {
	clockSensed := map[*ir.VarScope]bool{}
	for _, entry := range clocked {
		for _, item := range entry.Block.Sen.Items {
			if ref, ok := item.Expr.(ir.VarRef); ok {
				clockSensed[ref.Var] = true
			}
		}
	}

	var pre, act ir.LogicByScope
	for _, entry := range comb {
		if writesAnyOf(entry.Block, clockSensed) {
			pre = append(pre, entry)
		} else {
			act = append(act, entry)
		}
	}
	act = append(act, hybrid...)

	return ir.LogicRegions{Pre: pre, Act: act, Nba: clocked}
}

func writesAnyOf(block *ir.ActiveBlock, vars map[*ir.VarScope]bool) bool {
	written := map[*ir.VarScope]bool{}
	for _, stmt := range block.Body {
		collectWrites(stmt, written)
	}
	for v := range vars {
		if written[v] {
			return true
		}
	}
	return false
}

// ReplicateLogic clones Act-region comb/hybrid entries that read a
// non-output top-level variable into the Ico replica set, so the
// input-combinational loop can settle top-level inputs before Act ever
// runs (spec §4.6.3). Act and Nba replicas are left empty: this reference
// implementation schedules in one pass per region and has no cross-region
// dependency it needs a private recomputation copy for.
func (d *Default) ReplicateLogic(regions ir.LogicRegions) ir.LogicReplicas {
	var ico ir.LogicByScope
	for _, entry := range regions.Act {
		if readsTopLevelInput(entry.Block) {
			ico = append(ico, ir.LogicEntry{Scope: entry.Scope, Block: cloneBlock(entry.Block)})
		}
	}
	return ir.LogicReplicas{Ico: ico}
}

func cloneBlock(b *ir.ActiveBlock) *ir.ActiveBlock {
	return &ir.ActiveBlock{Scope: b.Scope, Sen: b.Sen, Body: ir.CloneStmts(b.Body), Loc: b.Loc}
}

func readsTopLevelInput(block *ir.ActiveBlock) bool {
	found := false
	walk := func(e ir.Expr) {
		if ref, ok := e.(ir.VarRef); ok && !ref.Write && ref.Var.Scope.Top && ref.Var.NonOutput {
			found = true
		}
	}
	var visitStmt func(ir.Stmt)
	var visitExpr func(ir.Expr)
	visitExpr = func(e ir.Expr) {
		walk(e)
		switch x := e.(type) {
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
	visitStmt = func(s ir.Stmt) {
		switch x := s.(type) {
		case ir.Assign:
			visitExpr(x.RHS)
		case ir.If:
			visitExpr(x.Cond)
			for _, t := range x.Then {
				visitStmt(t)
			}
			for _, e := range x.Else {
				visitStmt(e)
			}
		case ir.ExprStmt:
			visitExpr(x.X)
		}
	}
	for _, s := range block.Body {
		visitStmt(s)
	}
	return found
}

// Order concatenates every LogicByScope in lbsList, in the order given, each
// in its own original insertion order (SPEC_FULL.md Open Question 3), and
// appends every statement directly to a single `_eval_<name>` function; no
// per-scope sub-functions are generated.
// This reference implementation makes no ordering decisions based on
// sensitivity — it exists so a real dependency-graph implementation has
// somewhere to plug in — but it does check that every non-combinational
// block it consumes was actually remapped to a trigger-flag sensitivity
// trigToSen recognizes; a block that reaches Order still carrying its
// original sensitivity is an internal invariant violation (spec §7.1), not
// something a caller can recover from. extra is invoked for every variable
// written in the body purely so callers can observe the write-set being
// built (the reference implementation does not act on the returned
// SenTrees — wiring those into the generated sensitivity list requires the
// same graph a real implementation would have).
func (d *Default) Order(lbsList []ir.LogicByScope, trigToSen map[*ir.SenTree]*ir.SenTree, name string, mtasks, slow bool, extra ExtraSenFn) (*ir.Function, error) {
	fn := ir.NewSubFunction(d.top, "_eval_"+name, slow)
	fn.Parallel = mtasks

	for _, lbs := range lbsList {
		for _, entry := range lbs {
			sen := entry.Block.Sen
			if trigToSen != nil && !sen.HasCombo() {
				if _, ok := trigToSen[sen]; !ok {
					return nil, ir.Fatalf(entry.Block.Loc, "block reached Order without a trigger-remapped sensitivity")
				}
			}
			for _, stmt := range entry.Block.Body {
				fn.AddStmt(stmt)
				if extra != nil {
					written := map[*ir.VarScope]bool{}
					collectWrites(stmt, written)
					for v := range written {
						extra(v)
					}
				}
			}
			entry.Block.Body = nil
			entry.Scope.RemoveBlock(entry.Block)
		}
	}
	return fn, nil
}
