package split

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/hdlsched/schedcore/internal/ir"
)

func rawStmt(n int) ir.Stmt {
	nested := make([]ir.Stmt, n-1)
	for i := range nested {
		nested[i] = ir.RawStmt{Text: "// filler"}
	}
	return ir.RawStmt{Text: "// filler", Nested: nested}
}

// Property 8: outputSplitCFuncs == 0 disables splitting entirely.
func TestCheckZeroBudgetIsNoOp(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	fn := ir.NewTopFunction(netlist.Top, "_eval_static", true)
	fn.AddStmt(rawStmt(50), rawStmt(50))
	before := append([]ir.Stmt{}, fn.Body...)

	Check(fn, 0)

	if !reflect.DeepEqual(fn.Body, before) {
		t.Fatalf("expected a zero budget to leave the body untouched")
	}
	if len(fn.Scope.Funcs) != 1 {
		t.Fatalf("expected no sub-functions to be created, got %d", len(fn.Scope.Funcs)-1)
	}
}

func TestCheckEmptyBodyIsNoOp(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	fn := ir.NewTopFunction(netlist.Top, "_eval_static", true)

	Check(fn, 10)

	if len(fn.Body) != 0 {
		t.Fatalf("expected an empty function to remain empty")
	}
}

func TestCheckUnderBudgetIsNoOp(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	fn := ir.NewTopFunction(netlist.Top, "_eval_static", true)
	fn.AddStmt(rawStmt(2), rawStmt(2))
	before := append([]ir.Stmt{}, fn.Body...)

	Check(fn, 100)

	if !reflect.DeepEqual(fn.Body, before) {
		t.Fatalf("expected a function under budget to be left alone")
	}
}

// Scenario 6: splitting a 35-node _eval_static with a budget of 10 produces
// at least 3 numbered sub-functions, called in order, each within budget.
func TestCheckSplitsOverBudgetIntoNumberedSubFunctions(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	fn := ir.NewTopFunction(netlist.Top, "_eval_static", true)
	for i := 0; i < 7; i++ {
		fn.AddStmt(rawStmt(5))
	}
	if got := fn.NodeCount(); got != 35 {
		t.Fatalf("expected a 35-node body before splitting, got %d", got)
	}

	Check(fn, 10)

	if len(fn.Body) < 3 {
		t.Fatalf("expected at least 3 calls left in the original function, got %d", len(fn.Body))
	}
	for i, s := range fn.Body {
		call, ok := s.(ir.Call)
		if !ok {
			t.Fatalf("statement %d: expected a Call, got %T", i, s)
		}
		wantName := "_eval_static__" + strconv.Itoa(i)
		if call.Func.Name != wantName {
			t.Fatalf("statement %d: call targets %q, want %q", i, call.Func.Name, wantName)
		}
		if n := call.Func.NodeCount(); n > 10 {
			t.Fatalf("sub-function %q exceeds budget: %d nodes", call.Func.Name, n)
		}
		if call.Func.Slow != fn.Slow {
			t.Fatalf("sub-function %q should inherit Slow from its parent", call.Func.Name)
		}
	}
}

// Property 9: running splitCheck twice yields the same IR as running it once.
func TestCheckIsIdempotent(t *testing.T) {
	netlist := ir.NewNetlist(ir.Options{})
	fn := ir.NewTopFunction(netlist.Top, "_eval_static", true)
	for i := 0; i < 7; i++ {
		fn.AddStmt(rawStmt(5))
	}

	Check(fn, 10)
	onceBody := append([]ir.Stmt{}, fn.Body...)
	onceFuncs := len(fn.Scope.Funcs)

	Check(fn, 10)

	if !reflect.DeepEqual(fn.Body, onceBody) {
		t.Fatalf("expected a second Check call to leave the already-split body unchanged")
	}
	if len(fn.Scope.Funcs) != onceFuncs {
		t.Fatalf("expected a second Check call to create no further sub-functions, got %d more", len(fn.Scope.Funcs)-onceFuncs)
	}
}

