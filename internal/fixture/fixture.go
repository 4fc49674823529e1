// Package fixture loads a declarative JSON or YAML description of an
// already-elaborated netlist — the same shape the core's internal/ir
// package holds in memory — used by the test suite and by `schedctl` when
// no real elaborator is available. It never parses Verilog/SystemVerilog
// source: spec.md §1 places parsing and elaboration out of scope, so this
// is the file format standing in for "the IR the core is handed".
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/hdlsched/schedcore/internal/ir"
)

// File is the on-disk shape: a flat variable list, a flat scope list (each
// naming its parent by name, "" meaning the top scope), and a flat list of
// active blocks naming the scope they live in.
type File struct {
	Options OptionsFile  `yaml:"options" json:"options"`
	Scopes  []ScopeFile  `yaml:"scopes" json:"scopes"`
	Vars    []VarFile    `yaml:"vars" json:"vars"`
	Blocks  []BlockFile  `yaml:"blocks" json:"blocks"`
	DPIExportTrigger string `yaml:"dpiExportTrigger" json:"dpiExportTrigger"`
}

type OptionsFile struct {
	OutputSplitCFuncs int  `yaml:"outputSplitCFuncs" json:"outputSplitCFuncs"`
	ConvergeLimit     int  `yaml:"convergeLimit" json:"convergeLimit"`
	MTasks            bool `yaml:"mtasks" json:"mtasks"`
	XInitialEdge      bool `yaml:"xInitialEdge" json:"xInitialEdge"`
	SystemC           bool `yaml:"systemC" json:"systemC"`
	Stats             bool `yaml:"stats" json:"stats"`
	DumpTreeLevel     int  `yaml:"dumpTreeLevel" json:"dumpTreeLevel"`
	HasEvents         bool `yaml:"hasEvents" json:"hasEvents"`
}

func (o OptionsFile) ToOptions() ir.Options {
	return ir.Options{
		OutputSplitCFuncs: o.OutputSplitCFuncs,
		ConvergeLimit:     o.ConvergeLimit,
		MTasks:            o.MTasks,
		XInitialEdge:      o.XInitialEdge,
		SystemC:           o.SystemC,
		Stats:             o.Stats,
		DumpTreeLevel:     o.DumpTreeLevel,
		HasEvents:         o.HasEvents,
	}
}

type ScopeFile struct {
	Name   string `yaml:"name" json:"name"`
	Parent string `yaml:"parent" json:"parent"`
}

type VarFile struct {
	Name       string `yaml:"name" json:"name"`
	Scope      string `yaml:"scope" json:"scope"`
	Width      int    `yaml:"width" json:"width"`
	NonOutput  bool   `yaml:"nonOutput" json:"nonOutput"`
	WrittenDPI bool   `yaml:"writtenDPI" json:"writtenDPI"`
}

type BlockFile struct {
	Scope string        `yaml:"scope" json:"scope"`
	Sen   []SenItemFile `yaml:"sen" json:"sen"`
	Body  []StmtFile    `yaml:"body" json:"body"`
	Line  int           `yaml:"line" json:"line"`
}

type SenItemFile struct {
	Edge string    `yaml:"edge" json:"edge"`
	Expr *ExprFile `yaml:"expr" json:"expr"`
}

// ExprFile mirrors internal/ir's Expr sum type field-for-field, so a fixture
// author writes exactly the tree the core would otherwise receive from an
// elaborator.
type ExprFile struct {
	Kind  string      `yaml:"kind" json:"kind"`
	Var   string      `yaml:"var" json:"var"`
	Write bool        `yaml:"write" json:"write"`
	Val   uint64      `yaml:"val" json:"val"`
	Width int         `yaml:"width" json:"width"`
	X     *ExprFile   `yaml:"x" json:"x"`
	L     *ExprFile   `yaml:"l" json:"l"`
	R     *ExprFile   `yaml:"r" json:"r"`
	Lsb   int         `yaml:"lsb" json:"lsb"`
	Text  string      `yaml:"text" json:"text"`
	Name  string      `yaml:"name" json:"name"` // method name, for kind "call"
	Args  []*ExprFile `yaml:"args" json:"args"`
}

type StmtFile struct {
	Kind string      `yaml:"kind" json:"kind"`
	LHS  *ExprFile   `yaml:"lhs" json:"lhs"`
	RHS  *ExprFile   `yaml:"rhs" json:"rhs"`
	Cond *ExprFile   `yaml:"cond" json:"cond"`
	Then []StmtFile  `yaml:"then" json:"then"`
	Else []StmtFile  `yaml:"else" json:"else"`
	Text string      `yaml:"text" json:"text"`
}

// Load reads path (.yaml/.yml or .json, by extension) and builds an
// *ir.Netlist from it.
func Load(path string) (*ir.Netlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing YAML fixture %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing JSON fixture %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("fixture %s: unrecognized extension %q", path, ext)
	}

	return Build(&f)
}

// Build turns a parsed File into a netlist, independent of which format it
// was read from.
func Build(f *File) (*ir.Netlist, error) {
	netlist := ir.NewNetlist(f.Options.ToOptions())

	scopes := map[string]*ir.Scope{"": netlist.Top}
	// Scopes may be listed in any order; resolve parents by repeated passes
	// rather than requiring topological order from the fixture author.
	pending := append([]ScopeFile{}, f.Scopes...)
	for len(pending) > 0 {
		progressed := false
		var next []ScopeFile
		for _, sf := range pending {
			parent, ok := scopes[sf.Parent]
			if !ok {
				next = append(next, sf)
				continue
			}
			scopes[sf.Name] = ir.NewScope(sf.Name, parent)
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("fixture scopes contain an unresolved or cyclic parent reference")
		}
		pending = next
	}

	vars := map[string]*ir.VarScope{}
	for _, vf := range f.Vars {
		scope, ok := scopes[vf.Scope]
		if !ok {
			return nil, fmt.Errorf("variable %q references unknown scope %q", vf.Name, vf.Scope)
		}
		dt := ir.DataType{Name: "bit", Width: vf.Width}
		if vf.Width == 0 {
			dt = ir.BitType
		}
		v := scope.NewVar(vf.Name, dt)
		v.NonOutput = vf.NonOutput
		v.WrittenDPI = vf.WrittenDPI
		vars[key(vf.Scope, vf.Name)] = v
		vars[vf.Name] = v // also index by bare name for single-scope fixtures
	}

	if f.DPIExportTrigger != "" {
		v, ok := vars[f.DPIExportTrigger]
		if !ok {
			return nil, fmt.Errorf("dpiExportTrigger references unknown variable %q", f.DPIExportTrigger)
		}
		netlist.DPIExportTrigger = v
	}

	for _, bf := range f.Blocks {
		scope, ok := scopes[bf.Scope]
		if !ok {
			return nil, fmt.Errorf("block references unknown scope %q", bf.Scope)
		}
		items := make([]*ir.SenItem, 0, len(bf.Sen))
		for _, sif := range bf.Sen {
			edge, ok := edgeKinds[sif.Edge]
			if !ok {
				return nil, fmt.Errorf("unknown sensitivity edge %q", sif.Edge)
			}
			var expr ir.Expr
			if sif.Expr != nil {
				e, err := buildExpr(sif.Expr, vars)
				if err != nil {
					return nil, err
				}
				expr = e
			}
			items = append(items, &ir.SenItem{Edge: edge, Expr: expr})
		}
		body, err := buildStmts(bf.Body, vars)
		if err != nil {
			return nil, err
		}
		scope.AddBlock(&ir.ActiveBlock{
			Sen:  ir.NewSenTree(items...),
			Body: body,
			Loc:  ir.SourceLoc{Line: bf.Line},
		})
	}

	return netlist, nil
}

func key(scope, name string) string { return scope + "." + name }

var edgeKinds = map[string]ir.EdgeKind{
	"static":    ir.EdgeStatic,
	"initial":   ir.EdgeInitial,
	"final":     ir.EdgeFinal,
	"combo":     ir.EdgeCombo,
	"changed":   ir.EdgeChanged,
	"hybrid":    ir.EdgeHybrid,
	"bothedge":  ir.EdgeBothEdge,
	"posedge":   ir.EdgePosedge,
	"negedge":   ir.EdgeNegedge,
	"event":     ir.EdgeEvent,
}

func buildExpr(e *ExprFile, vars map[string]*ir.VarScope) (ir.Expr, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	switch e.Kind {
	case "var":
		v, ok := vars[e.Var]
		if !ok {
			return nil, fmt.Errorf("expression references unknown variable %q", e.Var)
		}
		return ir.VarRef{Var: v, Write: e.Write}, nil
	case "const":
		return ir.Const{Val: e.Val, Width: e.Width}, nil
	case "not":
		x, err := buildExpr(e.X, vars)
		if err != nil {
			return nil, err
		}
		return ir.Not(x), nil
	case "eq", "neq", "and", "or", "xor", "gt", "add":
		l, err := buildExpr(e.L, vars)
		if err != nil {
			return nil, err
		}
		r, err := buildExpr(e.R, vars)
		if err != nil {
			return nil, err
		}
		return ir.BinaryOp{Op: e.Kind, L: l, R: r}, nil
	case "sel":
		x, err := buildExpr(e.X, vars)
		if err != nil {
			return nil, err
		}
		return ir.Sel{X: x, Lsb: e.Lsb, Width: e.Width}, nil
	case "call":
		recv, err := buildExpr(e.X, vars)
		if err != nil {
			return nil, err
		}
		args := make([]ir.Expr, 0, len(e.Args))
		for _, a := range e.Args {
			ae, err := buildExpr(a, vars)
			if err != nil {
				return nil, err
			}
			args = append(args, ae)
		}
		return ir.MethodCall{Recv: recv, Name: e.Name, Args: args}, nil
	case "raw":
		return ir.Raw{Text: e.Text}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", e.Kind)
	}
}

func buildStmts(in []StmtFile, vars map[string]*ir.VarScope) ([]ir.Stmt, error) {
	out := make([]ir.Stmt, 0, len(in))
	for _, sf := range in {
		s, err := buildStmt(sf, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func buildStmt(s StmtFile, vars map[string]*ir.VarScope) (ir.Stmt, error) {
	switch s.Kind {
	case "assign":
		lhs, err := buildExpr(s.LHS, vars)
		if err != nil {
			return nil, err
		}
		rhs, err := buildExpr(s.RHS, vars)
		if err != nil {
			return nil, err
		}
		return ir.Assign{LHS: lhs, RHS: rhs}, nil
	case "if":
		cond, err := buildExpr(s.Cond, vars)
		if err != nil {
			return nil, err
		}
		then, err := buildStmts(s.Then, vars)
		if err != nil {
			return nil, err
		}
		els, err := buildStmts(s.Else, vars)
		if err != nil {
			return nil, err
		}
		return ir.If{Cond: cond, Then: then, Else: els}, nil
	case "raw":
		return ir.RawStmt{Text: s.Text}, nil
	default:
		return nil, fmt.Errorf("unknown statement kind %q", s.Kind)
	}
}
