// Package policy evaluates advisory (non-fatal) preflight rules over the
// classified logic before scheduling proceeds, adapted from the teacher's
// internal/policy/policy.go OPA rego engine. Where the teacher's engine
// reports hard lint violations, this one only ever produces advisory
// findings (severity "warning" or "info") —
// spec.md §7 reserves blocking failures for internal invariant violations
// and runtime convergence, both handled elsewhere.
package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed preflight.rego
var preflightSource string

// Input is the data passed to the preflight policy, one field per fact the
// rego rules in preflight.rego inspect.
type Input struct {
	Classes struct {
		Static  int `json:"static"`
		Initial int `json:"initial"`
		Final   int `json:"final"`
		Comb    int `json:"comb"`
		Clocked int `json:"clocked"`
		Hybrid  int `json:"hybrid"`
	} `json:"classes"`
	Regions struct {
		Pre int `json:"pre"`
		Act int `json:"act"`
		Nba int `json:"nba"`
	} `json:"regions"`
	Replicas struct {
		Ico int `json:"ico"`
		Act int `json:"act"`
		Nba int `json:"nba"`
	} `json:"replicas"`
	EventSenCount int  `json:"eventSenCount"`
	HasEvents     bool `json:"hasEvents"`
	MTasks        bool `json:"mtasks"`
	SystemC       bool `json:"systemC"`
}

// Warning is one advisory finding.
type Warning struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Engine evaluates the embedded preflight rules against an Input.
type Engine struct {
	query rego.PreparedEvalQuery
}

// New prepares the preflight policy engine. The rego source is compiled in
// directly (rego.Module with inline content) rather than read from disk at
// runtime, since there is exactly one fixed rule set — unlike the teacher's
// engine, which loads a configurable directory of *.rego files because
// end users author their own lint policies.
func New() (*Engine, error) {
	query, err := rego.New(
		rego.Module("preflight.rego", preflightSource),
		rego.Query("data.schedcore.preflight.all_warnings"),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing preflight query: %w", err)
	}
	return &Engine{query: query}, nil
}

// Evaluate runs the preflight rules against in.
func (e *Engine) Evaluate(in Input) ([]Warning, error) {
	ctx := context.Background()

	inputMap, err := structToMap(in)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating preflight rules: %w", err)
	}

	var warnings []Warning
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		items, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, it := range items {
				m, ok := it.(map[string]interface{})
				if !ok {
					continue
				}
				warnings = append(warnings, Warning{
					Rule:     getString(m, "rule"),
					Severity: getString(m, "severity"),
					Message:  getString(m, "message"),
				})
			}
		}
	}
	return warnings, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
