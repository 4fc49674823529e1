// Package senexpr implements SenExprBuilder (spec.md §4.3): given a
// sensitivity list, it produces a boolean trigger expression and maintains
// per-sensed-expression shadow ("previous value") state shared across every
// region that needs it.
package senexpr

import (
	"fmt"

	"github.com/hdlsched/schedcore/internal/ir"
)

// Builder is SenExprBuilder. A single Builder instance is shared across all
// regions within one `schedule` invocation (spec §3 Ownership & lifecycle,
// §9 "Shared mutation of m_updates"), so shadow variables for the same
// sensed expression are never duplicated.
type Builder struct {
	initFunc *ir.Function
	top      *ir.Scope

	updates    []ir.Stmt
	prev       map[string]*ir.VarScope // canonical expr form -> shadow var
	hasUpdate  map[string]bool        // dedup within the current round
	exprSeq    int                    // for composite expression shadow names

	hasEvents bool
}

// New creates a Builder that appends shadow initializers to initFunc
// (normally `_eval_initial`) and creates shadow variables in netlist's top
// scope.
func New(netlist *ir.Netlist, initFunc *ir.Function) *Builder {
	return &Builder{
		initFunc:  initFunc,
		top:       netlist.Top,
		prev:      map[string]*ir.VarScope{},
		hasUpdate: map[string]bool{},
		hasEvents: netlist.Options.HasEvents,
	}
}

// getPrev returns the shadow variable for curr, creating it (and its
// initializer) on first sight, and queues an update assignment at most once
// per round (spec §4.3 "Shadowing discipline").
func (b *Builder) getPrev(curr ir.Expr, loc ir.SourceLoc, dtype ir.DataType) *ir.VarScope {
	key := ir.CanonicalForm(curr)

	shadow, ok := b.prev[key]
	if !ok {
		name := b.shadowName(curr)
		shadow = b.top.NewVar(name, dtype)
		b.initFunc.AddStmt(ir.Assign{
			LHS: ir.WVar(shadow),
			RHS: ir.CloneExpr(curr),
			Loc: loc,
		})
		b.prev[key] = shadow
	}

	if !b.hasUpdate[key] {
		b.hasUpdate[key] = true
		b.updates = append(b.updates, ir.Assign{
			LHS: ir.WVar(shadow),
			RHS: ir.CloneExpr(curr),
			Loc: loc,
		})
	}

	return shadow
}

// shadowName picks the stable human-readable pattern for a simple variable
// reference, or a fresh unique name for a composite expression (spec §4.3,
// §6 "Generated public surface").
func (b *Builder) shadowName(curr ir.Expr) string {
	if ref, ok := curr.(ir.VarRef); ok {
		return fmt.Sprintf("__Vtrigrprev__%s__%s", ref.Var.Scope.Dotless(), ref.Var.Name)
	}
	b.exprSeq++
	return fmt.Sprintf("__Vtrigprev__expression_%d", b.exprSeq)
}

// createTerm translates a single SenItem per the table in spec §4.3,
// returning the boolean term and whether it should fire on the very first
// evaluation. An error return indicates an internal invariant violation
// (spec §7.1); it is never panicked, so callers can report it with context.
func (b *Builder) createTerm(item *ir.SenItem) (ir.Expr, bool, error) {
	curr := func() ir.Expr { return ir.CloneExpr(item.Expr) }
	prevRef := func() ir.Expr {
		shadow := b.getPrev(item.Expr, item.Loc, widthOf(item.Expr))
		return ir.RVar(shadow)
	}

	switch item.Edge {
	case ir.EdgeIllegal:
		// Already diagnosed upstream (spec §7.2); silently drop the term.
		return nil, false, nil
	case ir.EdgeChanged, ir.EdgeHybrid:
		return ir.Neq(curr(), prevRef()), true, nil
	case ir.EdgeBothEdge:
		return ir.Lsb(ir.Xor(curr(), prevRef())), false, nil
	case ir.EdgePosedge:
		return ir.Lsb(ir.And(curr(), ir.Not(prevRef()))), false, nil
	case ir.EdgeNegedge:
		return ir.Lsb(ir.And(ir.Not(curr()), prevRef())), false, nil
	case ir.EdgeEvent:
		if !b.hasEvents {
			return nil, false, ir.Fatalf(item.Loc, "event edge encountered but hasEvents is false")
		}
		isFired := ir.MethodCall{Recv: curr(), Name: "isFired", Pure: true}
		clear := ir.MethodCall{Recv: curr(), Name: "clearFired", IsVoid: true}
		enqueue := ir.RawStmt{
			Text:   "runtime.enqueueTriggeredEventForClearing(%s)",
			Nested: []ir.Stmt{ir.ExprStmt{X: curr()}},
		}
		b.updates = append(b.updates, ir.If{
			Cond: isFired,
			Then: []ir.Stmt{ir.ExprStmt{X: clear}, enqueue},
		})
		return ir.MethodCall{Recv: curr(), Name: "isFired", Pure: true}, false, nil
	default:
		return nil, false, ir.Fatalf(item.Loc, "unknown edge type %s", item.Edge)
	}
}

// widthOf is a conservative default for shadow variable types: 1 bit unless
// the sensed expression is a direct variable reference, in which case the
// shadow matches that variable's type exactly.
func widthOf(e ir.Expr) ir.DataType {
	if ref, ok := e.(ir.VarRef); ok {
		return ref.Var.Type
	}
	return ir.BitType
}

// Build returns the expression computing whether senTree has triggered, and
// whether that trigger should fire at initialization (spec §4.3: "the
// first-eval flag is the OR over items").
func (b *Builder) Build(senTree *ir.SenTree) (ir.Expr, bool, error) {
	var result ir.Expr
	fireAtInit := false
	for _, item := range senTree.Items {
		term, fires, err := b.createTerm(item)
		if err != nil {
			return nil, false, err
		}
		if term == nil {
			continue
		}
		if result == nil {
			result = term
		} else {
			result = ir.Or(result, term)
		}
		fireAtInit = fireAtInit || fires
	}
	return result, fireAtInit, nil
}

// TakeUpdates returns and clears the pending update statements, and resets
// the per-round dedup set — a "round" is delimited by this call (spec §4.3,
// §9 "re-architect as explicit: each caller of build() pairs it with
// takeUpdates() before the next trigger-kit's compute function is built").
func (b *Builder) TakeUpdates() []ir.Stmt {
	out := b.updates
	b.updates = nil
	b.hasUpdate = map[string]bool{}
	return out
}
