// Package config loads the option bundle the scheduling core reads
// (spec.md §6 "Configuration recognized"). It follows the teacher's
// plain-JSON, no-framework config loading shape (originally
// internal/config/config.go in the vhdl-lint tool this was adapted from).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hdlsched/schedcore/internal/ir"
)

// Config is the top-level configuration for the scheduler driver. Field
// names and JSON tags mirror the option names spec.md §6 gives verbatim.
type Config struct {
	// OutputSplitCFuncs is the node-count budget FunctionSplitter enforces.
	// Zero disables splitting entirely (spec §4.7).
	OutputSplitCFuncs int `json:"outputSplitCFuncs,omitempty"`

	// ConvergeLimit bounds the NBA/Active/Settle/ICO loop iteration counts
	// (spec §4.5, §7.2).
	ConvergeLimit int `json:"convergeLimit,omitempty"`

	// MTasks enables worker-pool parallelism for the generated NBA body
	// (spec §4.6 "NBA body").
	MTasks bool `json:"mtasks,omitempty"`

	// XInitialEdge forces every trigger high on the very first evaluation
	// (spec §4.4.3).
	XInitialEdge bool `json:"xInitialEdge,omitempty"`

	// SystemC marks combinational top-level inputs sc_sensitive (spec §4.6
	// "Input-Combinational").
	SystemC bool `json:"systemC,omitempty"`

	// Stats enables per-stage statistics counters (spec §4.8).
	Stats bool `json:"stats,omitempty"`

	// DumpTreeLevel controls the final tree-validation dump verbosity
	// (spec §4.8 step 12).
	DumpTreeLevel int `json:"dumpTreeLevel,omitempty"`

	// HasEvents enables the event-edge path in SenExprBuilder (spec §4.3).
	HasEvents bool `json:"hasEvents,omitempty"`

	// MetricsAddr is loaded and saved with the rest of the file but is not
	// read by cmd/schedctl, which takes its metrics address from the
	// SCHEDCTL_METRICS_ADDR environment variable. Not part of the core's
	// Options.
	MetricsAddr string `json:"metricsAddr,omitempty"`
}

// DefaultConfig returns the conservative defaults schedule() assumes when no
// config file is present.
func DefaultConfig() *Config {
	return &Config{
		ConvergeLimit: 100,
		DumpTreeLevel: 0,
	}
}

// LoadFile loads configuration from a specific JSON file, applying defaults
// for anything left unset (mirrors config.LoadFile's
// read-then-unmarshal-then-applyDefaults shape).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a file as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ToOptions projects the loaded config onto the narrow read-only view the
// scheduling packages consume.
func (c *Config) ToOptions() ir.Options {
	return ir.Options{
		OutputSplitCFuncs: c.OutputSplitCFuncs,
		ConvergeLimit:     c.ConvergeLimit,
		MTasks:            c.MTasks,
		XInitialEdge:      c.XInitialEdge,
		SystemC:           c.SystemC,
		Stats:             c.Stats,
		DumpTreeLevel:     c.DumpTreeLevel,
		HasEvents:         c.HasEvents,
	}
}
