// Package schedule is the top-level driver: it runs every stage in the
// fixed order spec.md §4.8 defines, wires internal/stats and
// internal/policy between stages, and validates the resulting Summary
// against internal/validate's CUE schema before returning it.
//
// Grounded directly in V3Sched.cpp's schedule() function (the eleven
// numbered steps below correspond to its eleven numbered comments).
package schedule

import (
	"fmt"

	"github.com/hdlsched/schedcore/internal/classify"
	"github.com/hdlsched/schedcore/internal/collab"
	"github.com/hdlsched/schedcore/internal/ir"
	"github.com/hdlsched/schedcore/internal/policy"
	"github.com/hdlsched/schedcore/internal/region"
	"github.com/hdlsched/schedcore/internal/senexpr"
	"github.com/hdlsched/schedcore/internal/seqemit"
	"github.com/hdlsched/schedcore/internal/split"
	"github.com/hdlsched/schedcore/internal/stats"
	"github.com/hdlsched/schedcore/internal/trigger"
	"github.com/hdlsched/schedcore/internal/validate"
)

// Summary reports the shape of the scheduled netlist: how much logic ended
// up in each bucket, and the iteration limits the generated eval loops
// enforce. It is the one value the CLI and tests inspect without walking
// ir.Netlist by hand, and is validated against internal/validate's
// #Summary CUE schema before being returned (spec §6 "Observable outputs").
type Summary struct {
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
	HasSettle      bool     `json:"hasSettle"`
	HasIcoLoop     bool     `json:"hasIcoLoop"`
	ActTriggerBits int      `json:"actTriggerBits"`
	NbaIterLimit   int      `json:"nbaIterLimit"`
	ActIterLimit   int      `json:"actIterLimit"`
	Warnings       []string `json:"-"`
}

// Options bundles the collaborators and cross-cutting services Schedule
// wires between stages. Policy/Stats/SummaryValidator may be nil, in which
// case that stage is skipped (spec §6: stats/policy are opt-in; schema
// validation failing is always fatal when a validator is supplied — the
// caller chooses whether to supply one).
type Options struct {
	Policy           *policy.Engine
	Stats            *stats.Recorder
	SummaryValidator *validate.SummaryValidator
}

func sizeOf(lbs ir.LogicByScope) int {
	n := 0
	lbs.ForeachLogic(func(s ir.Stmt) { n += ir.StmtNodeCount(s) })
	return n
}

// Schedule runs every stage of spec.md §4.8 over netlist, mutating it into
// its final scheduled form and returning a Summary of the result. Netlist
// must already carry Options.ConvergeLimit and friends (spec §6); Schedule
// never itself loads configuration.
func Schedule(netlist *ir.Netlist, opts Options) (*Summary, error) {
	addSize := func(name string, lbs ir.LogicByScope) {
		if opts.Stats != nil {
			opts.Stats.AddSize(name, sizeOf(lbs))
		}
	}
	stage := func(name string) {
		if opts.Stats != nil {
			opts.Stats.Stage(name)
		}
	}

	// Step 1: gather and classify all logic in the design.
	classes, err := classify.Classify(netlist)
	if err != nil {
		return nil, fmt.Errorf("classifying logic: %w", err)
	}
	stage("sched-gather")
	addSize("size of class: static", classes.Static)
	addSize("size of class: initial", classes.Initial)
	addSize("size of class: final", classes.Final)

	// Step 2: schedule static, initial and final logic in source order.
	seqemit.CreateStatic(netlist, classes)
	stage("sched-static")

	initFunc := seqemit.CreateInitial(netlist, classes)
	stage("sched-initial")

	seqemit.CreateFinal(netlist, classes)
	stage("sched-final")

	collaborator := collab.New(netlist.Top)

	// Step 3: break combinational cycles by introducing hybrid logic.
	classes.Hybrid = collaborator.BreakCycles(&classes.Comb)
	addSize("size of class: clocked", classes.Clocked)
	addSize("size of class: combinational", classes.Comb)
	addSize("size of class: hybrid", classes.Hybrid)
	stage("sched-break-cycles")

	builder := senexpr.New(netlist, initFunc)

	// Step 4: create the settle region that restores the combinational invariant.
	if _, err := region.CreateSettle(netlist, builder, &classes, collaborator); err != nil {
		return nil, fmt.Errorf("creating settle region: %w", err)
	}
	stage("sched-settle")

	// Step 5: partition clocked and combinational (including hybrid) logic.
	logicRegions := collaborator.Partition(classes.Clocked, classes.Comb, classes.Hybrid)
	addSize("size of region: Active Pre", logicRegions.Pre)
	addSize("size of region: Active", logicRegions.Act)
	addSize("size of region: NBA", logicRegions.Nba)
	stage("sched-partition")

	// Step 6: replicate combinational logic.
	logicReplicas := collaborator.ReplicateLogic(logicRegions)
	addSize("size of replicated logic: Input", logicReplicas.Ico)
	addSize("size of replicated logic: Active", logicReplicas.Act)
	addSize("size of replicated logic: NBA", logicReplicas.Nba)
	stage("sched-replicate")

	// Step 7: create the input-combinational loop.
	icoLoop, err := region.CreateInputCombLoop(netlist, builder, logicReplicas.Ico, collaborator)
	if err != nil {
		return nil, fmt.Errorf("creating input-combinational loop: %w", err)
	}
	stage("sched-create-ico")

	// Step 8: create the pre/act/nba triggers.
	dpiExportTrigger := netlist.DPIExportTrigger
	extraTriggers := 0
	dpiExportTriggerIndex := -1
	if dpiExportTrigger != nil {
		dpiExportTriggerIndex = extraTriggers
		extraTriggers++
	}

	senTrees := region.SenTreesUsedBy(logicRegions.Pre, logicRegions.Act, logicRegions.Nba)
	actTrig, err := trigger.Create(netlist, builder, senTrees, "act", extraTriggers, false)
	if err != nil {
		return nil, fmt.Errorf("creating act triggers: %w", err)
	}
	if dpiExportTrigger != nil {
		actTrig.AddDpiExportTriggerAssignment(dpiExportTrigger, dpiExportTriggerIndex)
	}

	preTrigVscp := netlist.Top.NewVar("__VpreTriggered", actTrig.Vec.Type)
	nbaTrigVscp := netlist.Top.NewVar("__VnbaTriggered", actTrig.Vec.Type)

	preTrigMap := cloneMapWithNewTriggerRef(actTrig.Map, preTrigVscp)
	nbaTrigMap := cloneMapWithNewTriggerRef(actTrig.Map, nbaTrigVscp)
	stage("sched-create-triggers")

	// Step 9: create the 'act' region evaluation function.
	region.RemapSensitivities(logicRegions.Pre, preTrigMap)
	region.RemapSensitivities(logicRegions.Act, actTrig.Map)
	region.RemapSensitivities(logicReplicas.Act, actTrig.Map)

	trigToSenAct := map[*ir.SenTree]*ir.SenTree{}
	region.InvertSenMap(trigToSenAct, preTrigMap)
	region.InvertSenMap(trigToSenAct, actTrig.Map)

	var dpiExportTriggered *ir.SenTree
	if dpiExportTrigger != nil {
		dpiExportTriggered = actTrig.CreateTriggerSenTree(dpiExportTriggerIndex)
	}

	actFunc, err := collaborator.Order(
		[]ir.LogicByScope{logicRegions.Pre, logicRegions.Act, logicReplicas.Act}, trigToSenAct, "act", false, false,
		func(v *ir.VarScope) []*ir.SenTree {
			if v.WrittenDPI && dpiExportTriggered != nil {
				return []*ir.SenTree{dpiExportTriggered}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("ordering act region: %w", err)
	}
	split.Check(actFunc, netlist.Options.OutputSplitCFuncs)
	stage("sched-create-act")

	// Step 10: create the 'nba' region evaluation function.
	region.RemapSensitivities(logicRegions.Nba, nbaTrigMap)
	region.RemapSensitivities(logicReplicas.Nba, nbaTrigMap)

	trigToSenNba := map[*ir.SenTree]*ir.SenTree{}
	region.InvertSenMap(trigToSenNba, nbaTrigMap)

	nbaFunc, err := collaborator.Order(
		[]ir.LogicByScope{logicRegions.Nba, logicReplicas.Nba}, trigToSenNba, "nba", netlist.Options.MTasks, false,
		func(v *ir.VarScope) []*ir.SenTree {
			if v.WrittenDPI && dpiExportTriggered != nil {
				return []*ir.SenTree{dpiExportTriggered}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("ordering nba region: %w", err)
	}
	split.Check(nbaFunc, netlist.Options.OutputSplitCFuncs)
	stage("sched-create-nba")

	// Step 11: bolt it all together to create '_eval'.
	region.CreateEval(netlist, icoLoop, actTrig, preTrigVscp, nbaTrigVscp, actFunc, nbaFunc)
	split.Check(initFunc, netlist.Options.OutputSplitCFuncs)
	netlist.DPIExportTrigger = nil

	summary := buildSummary(classes, logicRegions, logicReplicas, icoLoop, actTrig, netlist.Options.ConvergeLimit)

	if opts.Policy != nil {
		eventSenCount := 0
		for _, sen := range senTrees {
			for _, it := range sen.Items {
				if it.Edge == ir.EdgeEvent {
					eventSenCount++
				}
			}
		}
		warnings, err := opts.Policy.Evaluate(policyInput(summary, netlist.Options, eventSenCount))
		if err != nil {
			return nil, fmt.Errorf("evaluating preflight policy: %w", err)
		}
		for _, w := range warnings {
			summary.Warnings = append(summary.Warnings, w.Message)
		}
	}

	if opts.SummaryValidator != nil {
		if err := opts.SummaryValidator.Validate(summary); err != nil {
			return nil, fmt.Errorf("validating schedule summary: %w", err)
		}
	}

	return summary, nil
}

func cloneMapWithNewTriggerRef(m map[*ir.SenTree]*ir.SenTree, vscp *ir.VarScope) map[*ir.SenTree]*ir.SenTree {
	out := make(map[*ir.SenTree]*ir.SenTree, len(m))
	for orig, trig := range m {
		idx, ok := trig.Items[0].Expr.(ir.MethodCall)
		if !ok {
			out[orig] = trig
			continue
		}
		newExpr := idx
		newExpr.Recv = ir.RVar(vscp)
		out[orig] = ir.TrueLevelSenTree(newExpr)
	}
	return out
}

func buildSummary(classes ir.LogicClasses, regions ir.LogicRegions, replicas ir.LogicReplicas, icoLoop []ir.Stmt, actTrig *trigger.Kit, convergeLimit int) *Summary {
	s := &Summary{}
	s.Classes.Static = len(classes.Static)
	s.Classes.Initial = len(classes.Initial)
	s.Classes.Final = len(classes.Final)
	s.Classes.Comb = len(classes.Comb)
	s.Classes.Clocked = len(classes.Clocked)
	s.Classes.Hybrid = len(classes.Hybrid)
	s.Regions.Pre = len(regions.Pre)
	s.Regions.Act = len(regions.Act)
	s.Regions.Nba = len(regions.Nba)
	s.Replicas.Ico = len(replicas.Ico)
	s.Replicas.Act = len(replicas.Act)
	s.Replicas.Nba = len(replicas.Nba)
	s.HasSettle = !classes.Comb.Empty() || !classes.Hybrid.Empty()
	s.HasIcoLoop = len(icoLoop) > 0
	s.ActTriggerBits = len(actTrig.Map)
	s.NbaIterLimit = convergeLimit
	s.ActIterLimit = convergeLimit
	return s
}

func policyInput(s *Summary, o ir.Options, eventSenCount int) policy.Input {
	var in policy.Input
	in.Classes.Static = s.Classes.Static
	in.Classes.Initial = s.Classes.Initial
	in.Classes.Final = s.Classes.Final
	in.Classes.Comb = s.Classes.Comb
	in.Classes.Clocked = s.Classes.Clocked
	in.Classes.Hybrid = s.Classes.Hybrid
	in.Regions.Pre = s.Regions.Pre
	in.Regions.Act = s.Regions.Act
	in.Regions.Nba = s.Regions.Nba
	in.Replicas.Ico = s.Replicas.Ico
	in.Replicas.Act = s.Replicas.Act
	in.Replicas.Nba = s.Replicas.Nba
	in.EventSenCount = eventSenCount
	in.HasEvents = o.HasEvents
	in.MTasks = o.MTasks
	in.SystemC = o.SystemC
	return in
}
