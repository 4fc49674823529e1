// schedinspect is a small debug tool: load a netlist fixture, run it through
// the scheduling core, and print the generated function tree in the
// debug-text form internal/ir/pretty.go produces — useful for seeing what a
// fixture actually schedules into without reaching for a real C++ emitter.
package main

import (
	"fmt"
	"os"

	"github.com/hdlsched/schedcore/internal/fixture"
	"github.com/hdlsched/schedcore/internal/ir"
	"github.com/hdlsched/schedcore/internal/schedule"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: schedinspect <fixture.yaml|fixture.json>")
		os.Exit(1)
	}

	netlist, err := fixture.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading fixture: %v\n", err)
		os.Exit(1)
	}

	summary, err := schedule.Schedule(netlist, schedule.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scheduling: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("classes: static=%d initial=%d final=%d comb=%d clocked=%d hybrid=%d\n",
		summary.Classes.Static, summary.Classes.Initial, summary.Classes.Final,
		summary.Classes.Comb, summary.Classes.Clocked, summary.Classes.Hybrid)
	fmt.Printf("regions: pre=%d act=%d nba=%d\n", summary.Regions.Pre, summary.Regions.Act, summary.Regions.Nba)
	fmt.Printf("replicas: ico=%d act=%d nba=%d\n", summary.Replicas.Ico, summary.Replicas.Act, summary.Replicas.Nba)
	fmt.Printf("hasSettle=%v hasIcoLoop=%v actTriggerBits=%d\n", summary.HasSettle, summary.HasIcoLoop, summary.ActTriggerBits)

	netlist.Top.Foreach(func(s *ir.Scope) {
		for _, f := range s.Funcs {
			fmt.Printf("\nfunc %s (scope=%s slow=%v entry=%v):\n", f.Name, s.Name, f.Slow, f.EntryPoint)
			for _, stmt := range f.Body {
				fmt.Println("  " + ir.CanonicalForm(stmtAsExpr(stmt)))
			}
		}
	})
}

// stmtAsExpr is a debug-only shim: pretty.go's CanonicalForm walks Expr, not
// Stmt, and this tool only needs a one-line-per-statement glance, not a
// faithful reprinter.
func stmtAsExpr(s ir.Stmt) ir.Expr {
	switch x := s.(type) {
	case ir.Assign:
		return x.RHS
	case ir.If:
		return x.Cond
	case ir.ExprStmt:
		return x.X
	default:
		return ir.Raw{Text: fmt.Sprintf("%T", s)}
	}
}
