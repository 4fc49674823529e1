package ir

import (
	"fmt"
	"strings"
)

// CanonicalForm renders e as a Verilog-flavored expression string. It is
// used two ways (spec §4.3, §4.4.3): as the structural-equality key for
// SenExprBuilder's shadow-variable dedup, and as the human-readable text a
// trigger dump prints next to the bit that fired. Grounded in the simple
// fmt.Fprintf-based Verilog emission style used throughout
// rmartin101-argo2verilog/src/genVerilog.go — a pretty-printer, not a parser,
// is all the core needs; a real source emitter is out of scope (spec §1).
func CanonicalForm(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case VarRef:
		if x.Var.Scope != nil {
			fmt.Fprintf(b, "%s.%s", x.Var.Scope.Dotless(), x.Var.Name)
		} else {
			b.WriteString(x.Var.Name)
		}
	case Const:
		fmt.Fprintf(b, "%d'd%d", x.Width, x.Val)
	case UnaryOp:
		fmt.Fprintf(b, "(%s ", x.Op)
		writeExpr(b, x.X)
		b.WriteString(")")
	case BinaryOp:
		b.WriteString("(")
		writeExpr(b, x.L)
		fmt.Fprintf(b, " %s ", x.Op)
		writeExpr(b, x.R)
		b.WriteString(")")
	case Sel:
		writeExpr(b, x.X)
		fmt.Fprintf(b, "[%d:%d]", x.Lsb+x.Width-1, x.Lsb)
	case MethodCall:
		writeExpr(b, x.Recv)
		fmt.Fprintf(b, ".%s(", x.Name)
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
		}
		b.WriteString(")")
	case Raw:
		b.WriteString(x.Text)
	default:
		fmt.Fprintf(b, "<%T>", x)
	}
}

// VerilogForm renders a SenTree the way "@(posedge clk or negedge rst)"
// would print, used for the per-bit debug message (spec §4.4.3).
func VerilogForm(t *SenTree) string {
	if t == nil || len(t.Items) == 0 {
		return "@(*)"
	}
	parts := make([]string, 0, len(t.Items))
	for _, it := range t.Items {
		parts = append(parts, verilogFormItem(it))
	}
	return "@(" + strings.Join(parts, " or ") + ")"
}

func verilogFormItem(it *SenItem) string {
	switch it.Edge {
	case EdgePosedge:
		return "posedge " + CanonicalForm(it.Expr)
	case EdgeNegedge:
		return "negedge " + CanonicalForm(it.Expr)
	case EdgeBothEdge:
		return "edge " + CanonicalForm(it.Expr)
	case EdgeChanged, EdgeHybrid:
		return CanonicalForm(it.Expr)
	case EdgeEvent:
		return CanonicalForm(it.Expr)
	case EdgeTrueLevel:
		return CanonicalForm(it.Expr)
	case EdgeStatic:
		return "static"
	case EdgeInitial:
		return "initial"
	case EdgeFinal:
		return "final"
	case EdgeCombo:
		return "*"
	default:
		return "?"
	}
}
