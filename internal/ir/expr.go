package ir

// Expr is the sum type for expressions (design notes §9: "use a sum type for
// expressions and statements... pattern-match rather than downcast").
type Expr interface {
	exprNode()
}

// VarRef reads or writes a variable.
type VarRef struct {
	Var   *VarScope
	Write bool
}

// Const is a literal value of the given width.
type Const struct {
	Val   uint64
	Width int
}

// UnaryOp covers "not".
type UnaryOp struct {
	Op string // "not"
	X  Expr
}

// BinaryOp covers eq/neq/and/or/xor/gt/add.
type BinaryOp struct {
	Op   string // "eq", "neq", "and", "or", "xor", "gt", "add"
	L, R Expr
}

// Sel extracts a bit range [Lsb, Lsb+Width) from X, used for lsb(xor(...))
// style edge expressions (spec §4.3 table).
type Sel struct {
	X           Expr
	Lsb, Width int
}

// MethodCall covers the handful of "hard" methods the generated code calls
// on a trigger vector or an event object: .at(i), .any(), .set(x),
// .andNot(x), .clear(), .isFired(), .clearFired().
type MethodCall struct {
	Recv    Expr
	Name    string
	Args    []Expr
	IsVoid  bool // statement-form call (set/andNot/clear/clearFired)
	Pure    bool
}

// Raw is the escape hatch for text the emitter's layer owns verbatim (design
// notes §9): preprocessor guards, inline FATAL calls. Never used for anything
// the core itself needs to reason about structurally.
type Raw struct {
	Text string
}

func (VarRef) exprNode()     {}
func (Const) exprNode()      {}
func (UnaryOp) exprNode()    {}
func (BinaryOp) exprNode()   {}
func (Sel) exprNode()        {}
func (MethodCall) exprNode() {}
func (Raw) exprNode()        {}

// Eq is structural equality over Expr, used by SenExprBuilder to dedupe
// sensed sub-expressions (spec §4.3 "Shadowing discipline": "Sensed
// expressions are compared by structural equality over the IR").
func Eq(a, b Expr) bool {
	return CanonicalForm(a) == CanonicalForm(b)
}

// ExprNodeCount counts nodes reachable from e, for FunctionSplitter budgeting.
func ExprNodeCount(e Expr) int {
	switch x := e.(type) {
	case nil:
		return 0
	case VarRef, Const, Raw:
		return 1
	case UnaryOp:
		return 1 + ExprNodeCount(x.X)
	case BinaryOp:
		return 1 + ExprNodeCount(x.L) + ExprNodeCount(x.R)
	case Sel:
		return 1 + ExprNodeCount(x.X)
	case MethodCall:
		n := 1 + ExprNodeCount(x.Recv)
		for _, a := range x.Args {
			n += ExprNodeCount(a)
		}
		return n
	default:
		return 1
	}
}

// Helper constructors mirroring the original's new AstXxx{...} call sites.

func RVar(v *VarScope) Expr { return VarRef{Var: v, Write: false} }
func WVar(v *VarScope) Expr { return VarRef{Var: v, Write: true} }

func Not(x Expr) Expr       { return UnaryOp{Op: "not", X: x} }
func Neq(l, r Expr) Expr    { return BinaryOp{Op: "neq", L: l, R: r} }
func And(l, r Expr) Expr    { return BinaryOp{Op: "and", L: l, R: r} }
func Or(l, r Expr) Expr     { return BinaryOp{Op: "or", L: l, R: r} }
func Xor(l, r Expr) Expr    { return BinaryOp{Op: "xor", L: l, R: r} }
func Gt(l, r Expr) Expr     { return BinaryOp{Op: "gt", L: l, R: r} }
func AddOp(l, r Expr) Expr  { return BinaryOp{Op: "add", L: l, R: r} }
func Lsb(x Expr) Expr       { return Sel{X: x, Lsb: 0, Width: 1} }
func ConstVal(v uint64, w int) Expr { return Const{Val: v, Width: w} }
