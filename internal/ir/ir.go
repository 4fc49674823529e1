// Package ir is the in-memory representation the scheduling core consumes and
// extends: scopes, variables, active blocks and the synthesized functions the
// core produces. It is deliberately small — elaboration, type checking and
// code emission live outside this module (see SPEC_FULL.md) — but it carries
// enough structure that every invariant in spec.md §3 is checkable.
package ir

import "fmt"

// SourceLoc is attached to nodes that can be the subject of a fatal assertion
// or a runtime convergence failure, so the message can name a file and line.
type SourceLoc struct {
	File string
	Line int
}

func (l SourceLoc) String() string {
	if l.File == "" {
		return "<generated>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// DataType is a minimal stand-in for the real type table entry. Width is in
// bits; zero means "opaque" (events, queues, etc. that are never packed into
// a trigger vector).
type DataType struct {
	Name  string
	Width int
}

var BitType = DataType{Name: "bit", Width: 1}

// TriggerVecType returns the synthetic packed-bit-vector type for a trigger
// vector of the given width (spec §4.4.1).
func TriggerVecType(width int) DataType {
	return DataType{Name: fmt.Sprintf("triggervec[%d]", width), Width: width}
}

// VarScope is a variable bound to a Scope.
type VarScope struct {
	Name       string
	Type       DataType
	Scope      *Scope
	Loc        SourceLoc
	NonOutput  bool // true for top-level inputs/inouts
	WrittenDPI bool // set by a DPI export per the netlist's dpiExportTriggerp contract
	SCSensitive bool // marked sc_sensitive when systemC option is set (§4.6 ico loop)
}

func (v *VarScope) String() string { return v.Name }

// Scope is a hierarchical container of active blocks, generated functions and
// the variables it owns.
type Scope struct {
	Name     string
	Parent   *Scope
	Top      bool
	Blocks   []*ActiveBlock
	Funcs    []*Function
	Vars     []*VarScope
	children []*Scope
}

// NewScope creates a scope parented under parent (nil for the root/top scope).
func NewScope(name string, parent *Scope) *Scope {
	s := &Scope{Name: name, Parent: parent}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// Dotless returns the scope's fully-qualified name with '.' stripped, the way
// the original emitter names sub-functions (spec §4.2).
func (s *Scope) Dotless() string {
	if s.Parent == nil || s.Parent.Parent == nil {
		return s.Name
	}
	return s.Parent.Dotless() + s.Name
}

// NewVar creates and registers a new variable owned by this scope.
func (s *Scope) NewVar(name string, t DataType) *VarScope {
	v := &VarScope{Name: name, Type: t, Scope: s}
	s.Vars = append(s.Vars, v)
	return v
}

// AddFunc registers a generated function as owned by this scope.
func (s *Scope) AddFunc(f *Function) {
	f.Scope = s
	s.Funcs = append(s.Funcs, f)
}

// AddBlock registers an active block in this scope (used by fixture loaders
// and by tests; the core itself only ever removes blocks).
func (s *Scope) AddBlock(b *ActiveBlock) {
	b.Scope = s
	s.Blocks = append(s.Blocks, b)
}

// RemoveBlock unlinks b from the scope's block list. It is a no-op if b is
// not present, matching "unlink before relink" (spec §3 Ownership & lifecycle).
func (s *Scope) RemoveBlock(b *ActiveBlock) {
	for i, cand := range s.Blocks {
		if cand == b {
			s.Blocks = append(s.Blocks[:i], s.Blocks[i+1:]...)
			return
		}
	}
}

// Foreach walks this scope and every descendant, depth first, calling fn on
// each. It is the Go analogue of AstNode::foreach<AstScope> used throughout
// the original.
func (s *Scope) Foreach(fn func(*Scope)) {
	fn(s)
	for _, c := range s.children {
		c.Foreach(fn)
	}
}

// ActiveBlock pairs a sensitivity list with a body of statements.
type ActiveBlock struct {
	Scope *Scope
	Sen   *SenTree
	Body  []Stmt
	Loc   SourceLoc
}

// Empty reports whether the block has no statements left (spec §4.1: empty
// blocks are unlinked and destroyed before classification finishes).
func (b *ActiveBlock) Empty() bool { return len(b.Body) == 0 }

// Function is a generated callable, owned by exactly one scope.
type Function struct {
	Name       string
	Scope      *Scope
	Body       []Stmt
	Slow       bool // cold path (static/initial/final/dump functions)
	EntryPoint bool
	Ifdef      string // escape-hatch preprocessor guard text, e.g. "VL_DEBUG"
	Parallel   bool   // may be realized with worker-pool parallelism downstream
}

// NodeCount is a rough proxy for the C++ core's AstNode::nodeCount: it counts
// every statement and expression node reachable from the function body, used
// by FunctionSplitter to decide when to split (spec §4.7).
func (f *Function) NodeCount() int {
	n := 0
	for _, s := range f.Body {
		n += StmtNodeCount(s)
	}
	return n
}

func (f *Function) AddStmt(s ...Stmt) { f.Body = append(f.Body, s...) }

// InsertAfterFirst inserts s as the second statement in the body, the slot
// TriggerKit.AddDpiExportTriggerAssignment targets (spec §4.4.4): right after
// the trigger computation function's first statement, so it still runs
// before any body that reads the trigger vector this round.
func (f *Function) InsertAfterFirst(s ...Stmt) {
	if len(f.Body) == 0 {
		f.Body = s
		return
	}
	out := make([]Stmt, 0, len(f.Body)+len(s))
	out = append(out, f.Body[0])
	out = append(out, s...)
	out = append(out, f.Body[1:]...)
	f.Body = out
}

// PrependStmt inserts s at the head of the function body, used by
// TriggerKit.AddFirstIterationTriggerAssignment (spec §4.4).
func (f *Function) PrependStmt(s Stmt) {
	f.Body = append([]Stmt{s}, f.Body...)
}

// LogicEntry pairs one ActiveBlock with the scope it lives in.
type LogicEntry struct {
	Scope *Scope
	Block *ActiveBlock
}

// LogicByScope is an ordered Scope->ActiveBlock multimap; iteration order is
// insertion order (spec §3, §5 Ordering guarantees).
type LogicByScope []LogicEntry

func (lbs LogicByScope) Empty() bool { return len(lbs) == 0 }

// Clone deep-copies the statement bodies (but not the scopes or var
// references) so the clone can be ordered destructively while the original
// logic is reused elsewhere — the pattern createSettle relies on (spec §4.6).
func (lbs LogicByScope) Clone() LogicByScope {
	out := make(LogicByScope, len(lbs))
	for i, e := range lbs {
		nb := &ActiveBlock{
			Scope: e.Block.Scope,
			Sen:   e.Block.Sen,
			Body:  CloneStmts(e.Block.Body),
			Loc:   e.Block.Loc,
		}
		out[i] = LogicEntry{Scope: e.Scope, Block: nb}
	}
	return out
}

// ForeachLogic calls fn on every statement in every block, in insertion
// order — used for the SystemC top-input tagging pass (spec §4.6).
func (lbs LogicByScope) ForeachLogic(fn func(Stmt)) {
	for _, e := range lbs {
		for _, s := range e.Block.Body {
			fn(s)
		}
	}
}

// LogicClasses buckets every active block by the class the Classifier
// assigns it (spec §3 Derived entities).
type LogicClasses struct {
	Static   LogicByScope
	Initial  LogicByScope
	Final    LogicByScope
	Comb     LogicByScope
	Clocked  LogicByScope
	Hybrid   LogicByScope
}

// LogicRegions buckets partitioned logic by IEEE region.
type LogicRegions struct {
	Pre LogicByScope
	Act LogicByScope
	Nba LogicByScope
}

// LogicReplicas buckets replicated combinational feeder logic.
type LogicReplicas struct {
	Ico LogicByScope
	Act LogicByScope
	Nba LogicByScope
}

// Netlist is the root of the IR.
type Netlist struct {
	Top              *Scope
	Types            *TypeTable
	Eval             *Function
	EvalNBA          *Function // remembered separately for a later liveness pass (spec §6)
	DPIExportTrigger *VarScope
	Options          Options
	TopModuleLoc     SourceLoc
}

// Options mirrors the subset of the global option bundle the core reads
// (spec §6 "Configuration recognized"). The authoritative definition with
// JSON loading and CUE validation lives in internal/config; ir.Options is the
// narrow read-only view the scheduling packages actually consume, so they do
// not depend on the config package's file-loading machinery.
type Options struct {
	OutputSplitCFuncs int
	ConvergeLimit     int
	MTasks            bool
	XInitialEdge      bool
	SystemC           bool
	Stats             bool
	DumpTreeLevel     int
	HasEvents         bool
}

// TypeTable is a minimal registry of synthesized types (trigger vectors,
// bits) so callers can intern rather than re-allocate identical DataTypes.
type TypeTable struct {
	byName map[string]DataType
}

func NewTypeTable() *TypeTable { return &TypeTable{byName: map[string]DataType{}} }

func (t *TypeTable) Intern(dt DataType) DataType {
	if existing, ok := t.byName[dt.Name]; ok {
		return existing
	}
	t.byName[dt.Name] = dt
	return dt
}

// NewTopFunction creates an entry-point function owned by the top scope
// (spec §4.2 "makeTopFunction"): dontCombine/isLoose semantics are implicit
// in Go — there is no cross-function inlining pass to disable — so only the
// fields that affect scheduling itself are modeled.
func NewTopFunction(top *Scope, name string, slow bool) *Function {
	f := &Function{Name: name, Slow: slow, EntryPoint: true}
	top.AddFunc(f)
	return f
}

// NewSubFunction creates a non-entry-point function owned by scope, used by
// orderSequentially to give each scope its own callable (spec §4.2).
func NewSubFunction(scope *Scope, name string, slow bool) *Function {
	f := &Function{Name: name, Slow: slow}
	scope.AddFunc(f)
	return f
}

// NewNetlist creates an empty netlist with a single top scope.
func NewNetlist(opts Options) *Netlist {
	top := NewScope("TOP", nil)
	top.Top = true
	return &Netlist{Top: top, Types: NewTypeTable(), Options: opts}
}
