// Package validate is the contract guard between the config/schedule layers
// and the scheduling core — adapted from the teacher's
// internal/validator/validator.go "CRASH EARLY, CRASH LOUD" CUE validator.
//
// WHY THIS EXISTS:
// Without validation, a renamed or mistyped config/summary field silently
// becomes a Go zero value and the core behaves as if a flag was never set.
// With validation, a bad option bundle or a malformed summary fails loudly
// with a field-level CUE error instead of scheduling silently the wrong way.
package validate

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed options_schema.cue
var optionsSchemaFS embed.FS

//go:embed summary_schema.cue
var summarySchemaFS embed.FS

// OptionsValidator validates a config.Config (via its JSON form) against
// the #Options CUE schema.
type OptionsValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewOptionsValidator creates a validator with the embedded options schema.
func NewOptionsValidator() (*OptionsValidator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := optionsSchemaFS.ReadFile("options_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded options schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling options schema: %w", schema.Err())
	}

	return &OptionsValidator{ctx: ctx, schema: schema}, nil
}

// Validate checks that data conforms to #Options. Returns nil if valid, or a
// detailed error naming the offending field.
func (v *OptionsValidator) Validate(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling options to JSON: %w", err)
	}

	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling options as CUE: %w", dataValue.Err())
	}

	def := v.schema.LookupPath(cue.ParsePath("#Options"))
	if def.Err() != nil {
		return fmt.Errorf("looking up #Options definition: %w", def.Err())
	}

	unified := def.Unify(dataValue)
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("options schema validation failed: %w", err)
	}
	return nil
}

// Errors returns every individual validation failure, for callers that want
// to report more than just the first one.
func (v *OptionsValidator) Errors(data interface{}) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return []string{fmt.Sprintf("compile error: %v", dataValue.Err())}
	}
	def := v.schema.LookupPath(cue.ParsePath("#Options"))
	unified := def.Unify(dataValue)
	err = unified.Validate()
	if err == nil {
		return nil
	}
	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

// SummaryValidator validates a schedule.Summary (via its JSON form) against
// the #Summary CUE schema.
type SummaryValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewSummaryValidator creates a validator with the embedded summary schema.
func NewSummaryValidator() (*SummaryValidator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := summarySchemaFS.ReadFile("summary_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded summary schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling summary schema: %w", schema.Err())
	}

	return &SummaryValidator{ctx: ctx, schema: schema}, nil
}

// Validate checks that data conforms to #Summary.
func (v *SummaryValidator) Validate(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling summary to JSON: %w", err)
	}

	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling summary as CUE: %w", dataValue.Err())
	}

	def := v.schema.LookupPath(cue.ParsePath("#Summary"))
	if def.Err() != nil {
		return fmt.Errorf("looking up #Summary definition: %w", def.Err())
	}

	unified := def.Unify(dataValue)
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("summary schema validation failed: %w", err)
	}
	return nil
}
