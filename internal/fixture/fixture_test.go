package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hdlsched/schedcore/internal/ir"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counter.yaml")
	doc := `
options:
  convergeLimit: 50
vars:
  - {name: clk, scope: "", width: 1, nonOutput: true}
  - {name: count, scope: "", width: 8}
blocks:
  - scope: ""
    sen:
      - {edge: posedge, expr: {kind: var, var: clk}}
    body:
      - kind: assign
        lhs: {kind: var, var: count, write: true}
        rhs: {kind: add, l: {kind: var, var: count}, r: {kind: const, val: 1, width: 8}}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	netlist, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if netlist.Options.ConvergeLimit != 50 {
		t.Fatalf("expected convergeLimit 50, got %d", netlist.Options.ConvergeLimit)
	}
	if len(netlist.Top.Vars) != 2 {
		t.Fatalf("expected 2 vars, got %d", len(netlist.Top.Vars))
	}
	if len(netlist.Top.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(netlist.Top.Blocks))
	}

	block := netlist.Top.Blocks[0]
	if len(block.Sen.Items) != 1 || block.Sen.Items[0].Edge != ir.EdgePosedge {
		t.Fatalf("expected single posedge sensitivity, got %+v", block.Sen.Items)
	}
	if len(block.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(block.Body))
	}
	assign, ok := block.Body[0].(ir.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", block.Body[0])
	}
	lhs, ok := assign.LHS.(ir.VarRef)
	if !ok || !lhs.Write || lhs.Var.Name != "count" {
		t.Fatalf("unexpected LHS: %+v", assign.LHS)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latch.json")
	doc := `{
		"vars": [
			{"name": "en", "scope": "", "width": 1, "nonOutput": true},
			{"name": "d", "scope": "", "width": 1, "nonOutput": true},
			{"name": "q", "scope": "", "width": 1}
		],
		"blocks": [
			{
				"scope": "",
				"sen": [{"edge": "combo"}],
				"body": [
					{
						"kind": "if",
						"cond": {"kind": "var", "var": "en"},
						"then": [
							{
								"kind": "assign",
								"lhs": {"kind": "var", "var": "q", "write": true},
								"rhs": {"kind": "var", "var": "d"}
							}
						]
					}
				]
			}
		]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	netlist, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(netlist.Top.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(netlist.Top.Blocks))
	}
	kind, ok := netlist.Top.Blocks[0].Sen.SingleItemKind()
	if !ok || kind != ir.EdgeCombo {
		t.Fatalf("expected single combo sensitivity, got %v ok=%v", kind, ok)
	}
}

func TestLoadNestedScopes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested.yaml")
	doc := `
scopes:
  - {name: sub, parent: ""}
vars:
  - {name: x, scope: sub, width: 1}
blocks:
  - scope: sub
    sen:
      - {edge: initial}
    body:
      - kind: assign
        lhs: {kind: var, var: sub.x, write: true}
        rhs: {kind: const, val: 0, width: 1}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	netlist, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(netlist.Top.Vars) != 0 {
		t.Fatalf("expected no top-level vars, got %d", len(netlist.Top.Vars))
	}
	var sub *ir.Scope
	netlist.Top.Foreach(func(s *ir.Scope) {
		if s.Name == "sub" {
			sub = s
		}
	})
	if sub == nil {
		t.Fatalf("expected a sub scope named sub")
	}
	if len(sub.Vars) != 1 || sub.Vars[0].Name != "x" {
		t.Fatalf("expected sub scope to own var x, got %+v", sub.Vars)
	}
	if len(sub.Blocks) != 1 {
		t.Fatalf("expected sub scope to own 1 block, got %d", len(sub.Blocks))
	}
}

func TestLoadUnknownVariableReferenceFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	doc := `
blocks:
  - scope: ""
    sen:
      - {edge: combo}
    body:
      - kind: assign
        lhs: {kind: var, var: ghost, write: true}
        rhs: {kind: const, val: 1, width: 1}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error referencing unknown variable %q", "ghost")
	}
}

func TestLoadUnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unrecognized extension")
	}
}
