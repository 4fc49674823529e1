// Package classify implements the Classifier (spec.md §4.1): it partitions
// every active block into exactly one of {static, initial, final,
// combinational, clocked} by inspecting its sensitivity list.
package classify

import "github.com/hdlsched/schedcore/internal/ir"

// Classify walks every scope under netlist's top scope, examines every
// active block's SenTree, and dispatches it into the matching bucket of
// ir.LogicClasses. Empty active blocks are unlinked and destroyed first
// (spec §4.1, §3 invariant "Empty ActiveBlocks are removed before
// classification finishes").
func Classify(netlist *ir.Netlist) (ir.LogicClasses, error) {
	var classes ir.LogicClasses

	var walkErr error
	netlist.Top.Foreach(func(scope *ir.Scope) {
		if walkErr != nil {
			return
		}
		var empty []*ir.ActiveBlock
		var keep []*ir.ActiveBlock

		for _, block := range scope.Blocks {
			if block.Empty() {
				empty = append(empty, block)
				continue
			}
			keep = append(keep, block)

			sen := block.Sen
			if kind, ok := sen.SingleItemKind(); ok {
				switch kind {
				case ir.EdgeStatic:
					sen.SetKind(ir.KindStatic)
					classes.Static = append(classes.Static, ir.LogicEntry{Scope: scope, Block: block})
				case ir.EdgeInitial:
					sen.SetKind(ir.KindInitial)
					classes.Initial = append(classes.Initial, ir.LogicEntry{Scope: scope, Block: block})
				case ir.EdgeFinal:
					sen.SetKind(ir.KindFinal)
					classes.Final = append(classes.Final, ir.LogicEntry{Scope: scope, Block: block})
				case ir.EdgeCombo:
					sen.SetKind(ir.KindCombo)
					classes.Comb = append(classes.Comb, ir.LogicEntry{Scope: scope, Block: block})
				}
				continue
			}

			// Precondition check (spec §4.1): static/initial/final/combo
			// SenTrees must contain a single SenItem. A multi-item tree
			// whose first item claims one of those edges is malformed.
			if len(sen.Items) > 0 {
				switch sen.Items[0].Edge {
				case ir.EdgeStatic, ir.EdgeInitial, ir.EdgeFinal, ir.EdgeCombo:
					walkErr = ir.Fatalf(block.Loc, "%s sensitivity with additional sensitivities", sen.Items[0].Edge)
					return
				}
			}

			// Anything else must be clocked; anything that isn't is an
			// internal failure (spec §4.1: "Any SenTree not matching
			// {static, initial, final, combo} must be clocked —
			// otherwise the core signals an internal failure").
			if !isClocked(sen) {
				walkErr = ir.Fatalf(block.Loc, "sensitivity list classifies as neither a synthetic class nor clocked")
				return
			}
			sen.SetKind(ir.KindClocked)
			classes.Clocked = append(classes.Clocked, ir.LogicEntry{Scope: scope, Block: block})
		}

		scope.Blocks = keep
		for _, b := range empty {
			scope.RemoveBlock(b)
		}
	})

	if walkErr != nil {
		return ir.LogicClasses{}, walkErr
	}
	return classes, nil
}

// isClocked reports whether sen is non-empty and every item in it is a
// changed, hybrid, bothedge, posedge, negedge, event or illegal item; any
// other kind (the synthetic classes, true-level) makes it not clocked.
func isClocked(sen *ir.SenTree) bool {
	if len(sen.Items) == 0 {
		return false
	}
	for _, it := range sen.Items {
		switch it.Edge {
		case ir.EdgeChanged, ir.EdgeHybrid, ir.EdgeBothEdge, ir.EdgePosedge, ir.EdgeNegedge, ir.EdgeEvent, ir.EdgeIllegal:
			continue
		default:
			return false
		}
	}
	return true
}
