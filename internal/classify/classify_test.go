package classify

import (
	"testing"

	"github.com/hdlsched/schedcore/internal/ir"
)

func newBlock(scope *ir.Scope, items ...*ir.SenItem) *ir.ActiveBlock {
	b := &ir.ActiveBlock{
		Sen:  ir.NewSenTree(items...),
		Body: []ir.Stmt{ir.RawStmt{Text: "// body"}},
	}
	scope.AddBlock(b)
	return b
}

func TestClassifyDispatchesSingleItemSyntheticClasses(t *testing.T) {
	tests := []struct {
		name string
		edge ir.EdgeKind
		want func(ir.LogicClasses) int
	}{
		{"static", ir.EdgeStatic, func(c ir.LogicClasses) int { return len(c.Static) }},
		{"initial", ir.EdgeInitial, func(c ir.LogicClasses) int { return len(c.Initial) }},
		{"final", ir.EdgeFinal, func(c ir.LogicClasses) int { return len(c.Final) }},
		{"combo", ir.EdgeCombo, func(c ir.LogicClasses) int { return len(c.Comb) }},
	}

	for _, tt := range tests {
		netlist := ir.NewNetlist(ir.Options{})
		newBlock(netlist.Top, &ir.SenItem{Edge: tt.edge})

		classes, err := Classify(netlist)
		if err != nil {
			t.Fatalf("%s: Classify returned error: %v", tt.name, err)
		}
		if got := tt.want(classes); got != 1 {
			t.Fatalf("%s: expected exactly 1 entry in its bucket, got %d", tt.name, got)
		}
	}
}

func TestClassifyDispatchesClocked(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	clk := netlist.Top.NewVar("clk", ir.BitType)
	newBlock(netlist.Top, &ir.SenItem{Edge: ir.EdgePosedge, Expr: ir.RVar(clk)})

	classes, err := Classify(netlist)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(classes.Clocked) != 1 {
		t.Fatalf("expected 1 clocked entry, got %d", len(classes.Clocked))
	}
	if classes.Clocked[0].Block.Sen.Kind() != ir.KindClocked {
		t.Fatalf("expected block's SenTree to be set to KindClocked")
	}
}

func TestClassifyRejectsMultiItemSyntheticSensitivity(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	clk := netlist.Top.NewVar("clk", ir.BitType)
	newBlock(netlist.Top,
		&ir.SenItem{Edge: ir.EdgeCombo},
		&ir.SenItem{Edge: ir.EdgePosedge, Expr: ir.RVar(clk)},
	)

	if _, err := Classify(netlist); err == nil {
		t.Fatalf("expected an error for a combo sensitivity with additional sensitivities")
	}
}

func TestClassifyRejectsUnclockedNonSynthetic(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	newBlock(netlist.Top, &ir.SenItem{Edge: ir.EdgeTrueLevel})

	if _, err := Classify(netlist); err == nil {
		t.Fatalf("expected an error: true-level alone is neither synthetic nor clocked")
	}
}

func TestClassifyRemovesEmptyBlocks(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	empty := &ir.ActiveBlock{Sen: ir.NewSenTree(&ir.SenItem{Edge: ir.EdgeCombo})}
	netlist.Top.AddBlock(empty)

	if _, err := Classify(netlist); err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(netlist.Top.Blocks) != 0 {
		t.Fatalf("expected empty block to be unlinked, got %d blocks remaining", len(netlist.Top.Blocks))
	}
}

func TestIsClockedAcceptsOnlyRealEdgeKinds(t *testing.T) {
	tests := []struct {
		edge ir.EdgeKind
		want bool
	}{
		{ir.EdgeChanged, true},
		{ir.EdgeHybrid, true},
		{ir.EdgeBothEdge, true},
		{ir.EdgePosedge, true},
		{ir.EdgeNegedge, true},
		{ir.EdgeEvent, true},
		{ir.EdgeIllegal, true},
		{ir.EdgeStatic, false},
		{ir.EdgeTrueLevel, false},
	}

	for _, tt := range tests {
		sen := ir.NewSenTree(&ir.SenItem{Edge: tt.edge})
		if got := isClocked(sen); got != tt.want {
			t.Fatalf("isClocked(%s) = %v, want %v", tt.edge, got, tt.want)
		}
	}
}
