// =============================================================================
// schedctl - Scheduling Core Driver
// =============================================================================
//
// This tool runs the scheduling core (internal/schedule) against a
// declarative netlist fixture, the way a real compiler driver would run it
// against an elaborated design: classify active blocks, build the settle
// and input-combinational loops, partition and order Pre/Act/Nba, and bolt
// the result into a single _eval entry point.
//
// THE PIPELINE:
//   1. internal/fixture loads a JSON/YAML netlist description
//   2. internal/schedule.Schedule runs the eleven-step scheduling pipeline
//   3. internal/policy evaluates advisory preflight rules against the result
//   4. internal/validate checks the summary against its CUE schema
//   5. the summary is reported (and, if SCHEDCTL_METRICS_ADDR is set,
//      exposed to Prometheus for the lifetime of the process)
//
// WHEN INVESTIGATING AN UNEXPECTED SUMMARY:
//   Start at classification, not ordering — most surprises are a sensitivity
//   landing in the wrong LogicClasses bucket, not a partitioning mistake.
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hdlsched/schedcore/internal/config"
	"github.com/hdlsched/schedcore/internal/fixture"
	"github.com/hdlsched/schedcore/internal/policy"
	"github.com/hdlsched/schedcore/internal/schedule"
	"github.com/hdlsched/schedcore/internal/stats"
	"github.com/hdlsched/schedcore/internal/validate"
)

var log = logrus.New()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "init":
		runInit()
	case "schedule":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runSchedule(os.Args[2], "")
	case "-c", "--config":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		runSchedule(os.Args[3], os.Args[2])
	case "batch":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runBatch(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
	default:
		runSchedule(cmd, "")
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: schedctl [command] [options] <fixture>

Commands:
  init                  Create a schedctl.json configuration file
  schedule <fixture>    Schedule a single netlist fixture (JSON or YAML)
  batch <fixture...>    Schedule several netlist fixtures concurrently
  <fixture>             Shorthand for 'schedule <fixture>'

Options:
  -c, --config <file>   Use configuration from <file> instead of defaults

Environment:
  SCHEDCTL_METRICS_ADDR   If set, serve Prometheus metrics on this address
                          for the lifetime of the process (e.g. ":9108")

Configuration:
  schedctl looks for a local schedctl.json when none is given with -c. Run
  'schedctl init' to create a default one.`)
}

func runInit() {
	configPath := "schedctl.json"

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - convergeLimit / outputSplitCFuncs")
	fmt.Println("  - mtasks / systemC / xInitialEdge / hasEvents")
	fmt.Println("  - stats")
}

func loadConfig(configPath string) *config.Config {
	if configPath == "" {
		cfg, err := config.LoadFile("schedctl.json")
		if err != nil {
			log.WithError(err).Debug("no local schedctl.json, using defaults")
			return config.DefaultConfig()
		}
		return cfg
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", configPath, err)
		os.Exit(1)
	}
	return cfg
}

func runSchedule(fixturePath, configPath string) {
	runID := uuid.NewString()
	logger := log.WithField("run_id", runID)

	stopMetrics := maybeServeMetrics(logger, runID)
	defer stopMetrics()

	summary, err := scheduleOne(logger, fixturePath, loadConfig(configPath))
	if err != nil {
		logger.WithError(err).Error("scheduling failed")
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

func runBatch(fixturePaths []string) {
	runID := uuid.NewString()
	logger := log.WithField("run_id", runID)

	stopMetrics := maybeServeMetrics(logger, runID)
	defer stopMetrics()

	cfg := loadConfig("")
	summaries := make([]*schedule.Summary, len(fixturePaths))

	// Each Schedule call is single-threaded and touches only its own
	// netlist (spec §5 guarantees no cross-netlist state), so the batch
	// fans every fixture out onto its own goroutine and fails the group the
	// first time any one of them does.
	g, _ := errgroup.WithContext(context.Background())
	for i, path := range fixturePaths {
		i, path := i, path
		g.Go(func() error {
			summary, err := scheduleOne(logger.WithField("fixture", path), path, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("batch scheduling failed")
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summaries, "", "  ")
	fmt.Println(string(out))
}

func scheduleOne(logger *logrus.Entry, fixturePath string, cfg *config.Config) (*schedule.Summary, error) {
	netlist, err := fixture.Load(fixturePath)
	if err != nil {
		return nil, fmt.Errorf("loading fixture: %w", err)
	}
	optionsValidator, err := validate.NewOptionsValidator()
	if err != nil {
		return nil, fmt.Errorf("preparing options validator: %w", err)
	}
	if err := optionsValidator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	netlist.Options = cfg.ToOptions()

	policyEngine, err := policy.New()
	if err != nil {
		return nil, fmt.Errorf("preparing policy engine: %w", err)
	}
	summaryValidator, err := validate.NewSummaryValidator()
	if err != nil {
		return nil, fmt.Errorf("preparing summary validator: %w", err)
	}

	var recorder *stats.Recorder
	if cfg.Stats {
		recorder = stats.New(uuid.NewString())
	}

	logger.Info("scheduling")
	summary, err := schedule.Schedule(netlist, schedule.Options{
		Policy:           policyEngine,
		Stats:            recorder,
		SummaryValidator: summaryValidator,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range summary.Warnings {
		logger.Warn(w)
	}
	return summary, nil
}

func maybeServeMetrics(logger *logrus.Entry, runID string) func() {
	addr := os.Getenv("SCHEDCTL_METRICS_ADDR")
	if addr == "" {
		return func() {}
	}
	recorder := stats.New(runID)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Warn("metrics server stopped")
		}
	}()
	return func() { srv.Close() }
}
