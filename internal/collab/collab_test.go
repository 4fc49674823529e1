package collab

import (
	"testing"

	"github.com/hdlsched/schedcore/internal/ir"
)

func combEntry(scope *ir.Scope, body ...ir.Stmt) ir.LogicEntry {
	sen := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgeCombo})
	sen.SetKind(ir.KindCombo)
	b := &ir.ActiveBlock{Sen: sen, Body: body}
	scope.AddBlock(b)
	return ir.LogicEntry{Scope: scope, Block: b}
}

func TestBreakCyclesMovesSelfCyclicEntriesToHybrid(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	a := netlist.Top.NewVar("a", ir.BitType)

	cyclic := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(a), RHS: ir.Not(ir.RVar(a))})
	clean := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(netlist.Top.NewVar("b", ir.BitType)), RHS: ir.RVar(a)})

	comb := ir.LogicByScope{cyclic, clean}
	d := New(netlist.Top)
	hybrid := d.BreakCycles(&comb)

	if len(hybrid) != 1 || hybrid[0].Block != cyclic.Block {
		t.Fatalf("expected exactly the self-cyclic entry to move to hybrid")
	}
	if cyclic.Block.Sen.Kind() != ir.KindHybrid {
		t.Fatalf("expected the reclassified block's SenTree to be relabeled KindHybrid")
	}
	if len(comb) != 1 || comb[0].Block != clean.Block {
		t.Fatalf("expected the clean entry to remain in comb")
	}
}

func TestBreakCyclesLeavesNonCyclicUntouched(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	a := netlist.Top.NewVar("a", ir.BitType)
	b := netlist.Top.NewVar("b", ir.BitType)
	entry := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(b), RHS: ir.RVar(a)})

	comb := ir.LogicByScope{entry}
	d := New(netlist.Top)
	hybrid := d.BreakCycles(&comb)

	if len(hybrid) != 0 {
		t.Fatalf("expected no reclassification, got %d hybrid entries", len(hybrid))
	}
	if len(comb) != 1 {
		t.Fatalf("expected the comb entry to remain, got %d", len(comb))
	}
}

func TestPartitionRoutesClockedToNbaAndCombToAct(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	clk := netlist.Top.NewVar("clk", ir.BitType)
	q := netlist.Top.NewVar("q", ir.BitType)

	clockedSen := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgePosedge, Expr: ir.RVar(clk)})
	clockedSen.SetKind(ir.KindClocked)
	clockedBlock := &ir.ActiveBlock{Sen: clockedSen, Body: []ir.Stmt{ir.Assign{LHS: ir.WVar(q), RHS: ir.ConstVal(1, 1)}}}
	netlist.Top.AddBlock(clockedBlock)
	clocked := ir.LogicByScope{{Scope: netlist.Top, Block: clockedBlock}}

	combVar := netlist.Top.NewVar("y", ir.BitType)
	comb := ir.LogicByScope{combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(combVar), RHS: ir.RVar(q)})}

	d := New(netlist.Top)
	regions := d.Partition(clocked, comb, nil)

	if len(regions.Nba) != 1 || regions.Nba[0].Block != clockedBlock {
		t.Fatalf("expected the clocked entry to land in Nba")
	}
	if len(regions.Act) != 1 {
		t.Fatalf("expected the comb entry (which does not write clk) to land in Act, got %d", len(regions.Act))
	}
	if len(regions.Pre) != 0 {
		t.Fatalf("expected nothing in Pre, got %d", len(regions.Pre))
	}
}

func TestPartitionRoutesClockEdgeWriterToPre(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	clk := netlist.Top.NewVar("clk", ir.BitType)

	clockedSen := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgePosedge, Expr: ir.RVar(clk)})
	clockedSen.SetKind(ir.KindClocked)
	clockedBlock := &ir.ActiveBlock{Sen: clockedSen}
	netlist.Top.AddBlock(clockedBlock)
	clocked := ir.LogicByScope{{Scope: netlist.Top, Block: clockedBlock}}

	comb := ir.LogicByScope{combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(clk), RHS: ir.ConstVal(0, 1)})}

	d := New(netlist.Top)
	regions := d.Partition(clocked, comb, nil)

	if len(regions.Pre) != 1 {
		t.Fatalf("expected the clk-writing comb entry to land in Pre, got %d", len(regions.Pre))
	}
	if len(regions.Act) != 0 {
		t.Fatalf("expected nothing in Act, got %d", len(regions.Act))
	}
}

func TestPartitionAppendsHybridToAct(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	hybridEntry := combEntry(netlist.Top)

	d := New(netlist.Top)
	regions := d.Partition(nil, nil, ir.LogicByScope{hybridEntry})

	if len(regions.Act) != 1 || regions.Act[0].Block != hybridEntry.Block {
		t.Fatalf("expected the hybrid entry to be appended to Act")
	}
}

func TestReplicateLogicClonesTopLevelInputReaders(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	in := netlist.Top.NewVar("in", ir.BitType)
	in.NonOutput = true
	out := netlist.Top.NewVar("out", ir.BitType)

	entry := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(out), RHS: ir.RVar(in)})
	regions := ir.LogicRegions{Act: ir.LogicByScope{entry}}

	d := New(netlist.Top)
	replicas := d.ReplicateLogic(regions)

	if len(replicas.Ico) != 1 {
		t.Fatalf("expected one Ico replica, got %d", len(replicas.Ico))
	}
	if replicas.Ico[0].Block == entry.Block {
		t.Fatalf("expected the Ico replica to be a clone, not the original block")
	}
	if len(replicas.Ico[0].Block.Body) != len(entry.Block.Body) {
		t.Fatalf("expected the clone to carry the same body length")
	}
}

func TestReplicateLogicSkipsEntriesNotReadingTopLevelInputs(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	a := netlist.Top.NewVar("a", ir.BitType)
	out := netlist.Top.NewVar("out", ir.BitType)
	entry := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(out), RHS: ir.RVar(a)})
	regions := ir.LogicRegions{Act: ir.LogicByScope{entry}}

	d := New(netlist.Top)
	replicas := d.ReplicateLogic(regions)

	if len(replicas.Ico) != 0 {
		t.Fatalf("expected no Ico replicas for a non-top-level-input reader, got %d", len(replicas.Ico))
	}
}

func TestOrderConcatenatesInOrderAndDestroysBlocks(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	a := netlist.Top.NewVar("a", ir.BitType)
	first := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(a), RHS: ir.ConstVal(0, 1)})
	second := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(a), RHS: ir.ConstVal(1, 1)})

	d := New(netlist.Top)
	fn, err := d.Order([]ir.LogicByScope{{first}, {second}}, nil, "act", false, false, nil)
	if err != nil {
		t.Fatalf("Order returned error: %v", err)
	}
	if fn.Name != "_eval_act" {
		t.Fatalf("expected function named _eval_act, got %q", fn.Name)
	}
	if len(fn.Body) != 2 {
		t.Fatalf("expected both entries' statements concatenated, got %d", len(fn.Body))
	}
	if !first.Block.Empty() || !second.Block.Empty() {
		t.Fatalf("expected consumed blocks to have their bodies cleared")
	}
	if len(netlist.Top.Blocks) != 0 {
		t.Fatalf("expected consumed blocks to be unlinked, got %d remaining", len(netlist.Top.Blocks))
	}
}

func TestOrderInvokesExtraForEveryWrittenVariable(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	a := netlist.Top.NewVar("a", ir.BitType)
	entry := combEntry(netlist.Top, ir.Assign{LHS: ir.WVar(a), RHS: ir.ConstVal(0, 1)})

	var seen []*ir.VarScope
	extra := func(v *ir.VarScope) []*ir.SenTree {
		seen = append(seen, v)
		return nil
	}

	d := New(netlist.Top)
	if _, err := d.Order([]ir.LogicByScope{{entry}}, nil, "nba", false, false, extra); err != nil {
		t.Fatalf("Order returned error: %v", err)
	}
	if len(seen) != 1 || seen[0] != a {
		t.Fatalf("expected extra to be called exactly once with the written variable, got %v", seen)
	}
}

func TestOrderRejectsNonComboEntryMissingFromTrigToSen(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	clockedSen := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgePosedge})
	clockedSen.SetKind(ir.KindClocked)
	entry := ir.LogicEntry{Scope: netlist.Top, Block: &ir.ActiveBlock{Scope: netlist.Top, Sen: clockedSen, Body: []ir.Stmt{ir.RawStmt{Text: "x"}}}}
	netlist.Top.AddBlock(entry.Block)

	d := New(netlist.Top)
	_, err := d.Order([]ir.LogicByScope{{entry}}, map[*ir.SenTree]*ir.SenTree{}, "act", false, false, nil)
	if err == nil {
		t.Fatalf("expected an error for a clocked block with no trigger-remapped sensitivity recorded")
	}
	if _, ok := err.(*ir.InternalError); !ok {
		t.Fatalf("expected *ir.InternalError, got %T", err)
	}
}

func TestOrderAcceptsEntryPresentInTrigToSen(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	clockedSen := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgeTrueLevel})
	clockedSen.SetKind(ir.KindClocked)
	entry := ir.LogicEntry{Scope: netlist.Top, Block: &ir.ActiveBlock{Scope: netlist.Top, Sen: clockedSen, Body: []ir.Stmt{ir.RawStmt{Text: "x"}}}}
	netlist.Top.AddBlock(entry.Block)

	original := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgePosedge})
	trigToSen := map[*ir.SenTree]*ir.SenTree{clockedSen: original}

	d := New(netlist.Top)
	if _, err := d.Order([]ir.LogicByScope{{entry}}, trigToSen, "act", false, false, nil); err != nil {
		t.Fatalf("Order returned error: %v", err)
	}
}
