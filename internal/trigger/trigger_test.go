package trigger

import (
	"reflect"
	"testing"

	"github.com/hdlsched/schedcore/internal/ir"
	"github.com/hdlsched/schedcore/internal/senexpr"
)

func clockedSenTree(expr ir.Expr) *ir.SenTree {
	t := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgePosedge, Expr: expr})
	t.SetKind(ir.KindClocked)
	return t
}

// Property 5: bit extra+i corresponds to the i-th input SenTree, and the
// produced map has exactly one entry per input SenTree.
func TestCreateIndexesBitsAfterExtraAndMapsEverySenTree(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	initFunc := ir.NewTopFunction(netlist.Top, "_eval_initial", true)
	builder := senexpr.New(netlist, initFunc)

	a := netlist.Top.NewVar("a", ir.BitType)
	b := netlist.Top.NewVar("b", ir.BitType)
	senA := clockedSenTree(ir.RVar(a))
	senB := clockedSenTree(ir.RVar(b))

	kit, err := Create(netlist, builder, []*ir.SenTree{senA, senB}, "act", 1, false)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(kit.Map) != 2 {
		t.Fatalf("expected exactly 2 entries in the SenTree map, got %d", len(kit.Map))
	}
	if kit.Vec.Type.Width != 3 { // 1 extra + 2 senTrees
		t.Fatalf("expected a 3-bit trigger vector, got %d", kit.Vec.Type.Width)
	}

	wantBit := func(sen *ir.SenTree, bit int) {
		mapped, ok := kit.Map[sen]
		if !ok {
			t.Fatalf("expected the input SenTree to be present in the map")
		}
		got := ir.CanonicalForm(mapped.Items[0].Expr)
		want := ir.CanonicalForm(trigRef(kit.Vec, bit, false))
		if got != want {
			t.Fatalf("expected SenTree mapped to bit %d, got expression %q want %q", bit, got, want)
		}
	}
	wantBit(senA, 1) // extra=1, so senA is bit 1
	wantBit(senB, 2)
}

// Property 4: the compute function writes every bit of the trigger vector on
// every call (one Assign statement targeting each bit index, unconditionally).
func TestCreateWritesEveryTriggerBitUnconditionally(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	initFunc := ir.NewTopFunction(netlist.Top, "_eval_initial", true)
	builder := senexpr.New(netlist, initFunc)

	a := netlist.Top.NewVar("a", ir.BitType)
	senA := clockedSenTree(ir.RVar(a))

	kit, err := Create(netlist, builder, []*ir.SenTree{senA}, "act", 0, false)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	written := map[int]bool{}
	for _, stmt := range kit.Func.Body {
		assign, ok := stmt.(ir.Assign)
		if !ok {
			continue
		}
		call, ok := assign.LHS.(ir.MethodCall)
		if !ok || call.Name != "at" {
			continue
		}
		idx := int(call.Args[0].(ir.Const).Val)
		written[idx] = true
	}
	for i := 0; i < 1; i++ {
		if !written[i] {
			t.Fatalf("expected bit %d to be written unconditionally by the compute function", i)
		}
	}
}

func TestCreateRejectsNonClockedNonHybridSenTree(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	initFunc := ir.NewTopFunction(netlist.Top, "_eval_initial", true)
	builder := senexpr.New(netlist, initFunc)

	unclassified := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgeCombo})

	_, err := Create(netlist, builder, []*ir.SenTree{unclassified}, "act", 0, false)
	if err == nil {
		t.Fatalf("expected an error for a SenTree that is neither clocked nor hybrid")
	}
	if _, ok := err.(*ir.InternalError); !ok {
		t.Fatalf("expected *ir.InternalError, got %T", err)
	}
}

func TestCreatePropagatesSenExprBuildError(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{HasEvents: false})
	initFunc := ir.NewTopFunction(netlist.Top, "_eval_initial", true)
	builder := senexpr.New(netlist, initFunc)

	e := netlist.Top.NewVar("e", ir.DataType{Name: "event"})
	sen := ir.NewSenTree(&ir.SenItem{Edge: ir.EdgeEvent, Expr: ir.RVar(e)})
	sen.SetKind(ir.KindClocked)

	_, err := Create(netlist, builder, []*ir.SenTree{sen}, "act", 0, false)
	if err == nil {
		t.Fatalf("expected Create to propagate senexpr.Builder.Build's error for an event edge without hasEvents")
	}
}

func TestCreateTriggerSenTreeBuildsTrueLevelSensitivity(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	initFunc := ir.NewTopFunction(netlist.Top, "_eval_initial", true)
	builder := senexpr.New(netlist, initFunc)
	a := netlist.Top.NewVar("a", ir.BitType)
	senA := clockedSenTree(ir.RVar(a))

	kit, err := Create(netlist, builder, []*ir.SenTree{senA}, "ico", 1, false)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	flag := kit.CreateTriggerSenTree(0)
	if flag.Kind() != ir.KindClocked {
		t.Fatalf("expected a trigger flag SenTree to behave like clocked input, got %s", flag.Kind())
	}
	if len(flag.Items) != 1 || flag.Items[0].Edge != ir.EdgeTrueLevel {
		t.Fatalf("expected a single true-level item, got %+v", flag.Items)
	}
}

func TestAddFirstIterationTriggerAssignmentInsertsAtHead(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	initFunc := ir.NewTopFunction(netlist.Top, "_eval_initial", true)
	builder := senexpr.New(netlist, initFunc)
	a := netlist.Top.NewVar("a", ir.BitType)
	senA := clockedSenTree(ir.RVar(a))

	kit, err := Create(netlist, builder, []*ir.SenTree{senA}, "ico", 1, true)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	counter := netlist.Top.NewVar("__VicoIterCount", ir.DataType{Name: "uint32", Width: 32})
	firstBefore := kit.Func.Body[0]

	kit.AddFirstIterationTriggerAssignment(counter)

	inserted, ok := kit.Func.Body[0].(ir.Assign)
	if !ok {
		t.Fatalf("expected the first statement to be the first-iteration trigger assignment, got %T", kit.Func.Body[0])
	}
	call, ok := inserted.LHS.(ir.MethodCall)
	if !ok || call.Name != "at" || int(call.Args[0].(ir.Const).Val) != 0 {
		t.Fatalf("expected the assignment to target trigger bit 0")
	}
	if !reflect.DeepEqual(kit.Func.Body[1], firstBefore) {
		t.Fatalf("expected the original first statement to follow the inserted assignment")
	}
}
