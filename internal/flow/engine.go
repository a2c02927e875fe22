// Package flow infers data lineage between components. Three passes of
// descending trust produce candidate edges (declared connections, shared
// dataset names, role heuristics); deduplication keeps the strongest edge
// per component pair and the result is exposed as a queryable graph.
package flow

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/pipelens-labs/pipelens/internal/model"
)

// Engine runs the inference passes over the components of one or more
// processes.
type Engine struct {
	logger *slog.Logger
}

// Stats reports non-fatal bookkeeping from one inference run.
type Stats struct {
	// UnresolvedExplicit counts declared connections whose endpoints were
	// not present in the batch. They are dropped, never raised.
	UnresolvedExplicit int
	// Emitted counts candidate edges before deduplication.
	Emitted int
}

// NewEngine creates an inference engine. A nil logger discards.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: logger}
}

// Infer returns the deduplicated lineage edges for the given components and
// optional adapter-declared connections. Components must be in process
// encounter order; ids are content-derived, so the output is independent of
// how partial results were merged.
func (e *Engine) Infer(components []*model.Component, explicit []model.ExplicitFlow) ([]model.DataFlow, Stats) {
	var emitted []model.DataFlow
	var stats Stats

	emitted = append(emitted, e.explicitPass(components, explicit, &stats)...)
	emitted = append(emitted, e.datasetMatchPass(components)...)
	emitted = append(emitted, e.roleHeuristicPass(components)...)

	stats.Emitted = len(emitted)
	flows := dedup(emitted)

	e.logger.Debug("flow inference completed",
		"components", len(components),
		"candidates", len(emitted),
		"flows", len(flows),
		"unresolved_explicit", stats.UnresolvedExplicit)

	return flows, stats
}

// explicitPass resolves declared (source, target) name tuples to component
// ids within their owning process. Tuples referencing components outside the
// batch are dropped silently; adapter data routinely points at definitions
// that were not part of the scan.
func (e *Engine) explicitPass(components []*model.Component, explicit []model.ExplicitFlow, stats *Stats) []model.DataFlow {
	byName := make(map[string]map[string]string) // process id -> name -> component id
	for _, c := range components {
		names := byName[c.ProcessID]
		if names == nil {
			names = make(map[string]string)
			byName[c.ProcessID] = names
		}
		names[c.Name] = c.ID
	}

	var flows []model.DataFlow
	for _, t := range explicit {
		names := byName[t.ProcessID]
		srcID, srcOK := names[t.SourceName]
		dstID, dstOK := names[t.TargetName]
		if !srcOK || !dstOK {
			stats.UnresolvedExplicit++
			e.logger.Debug("dropping unresolved explicit flow",
				"source", t.SourceName, "target", t.TargetName)
			continue
		}
		flows = append(flows, model.DataFlow{
			SourceID:    srcID,
			TargetID:    dstID,
			DatasetName: t.DatasetName,
			Type:        model.ParseFlowType(t.FlowType),
			Provenance:  model.ProvenanceExplicit,
		})
	}
	return flows
}

// datasetMatchPass connects writers of a dataset name to its readers across
// the whole batch. When multiple components write the same dataset, the last
// one in process order wins and becomes the single producer; simultaneous
// writers are not modeled.
func (e *Engine) datasetMatchPass(components []*model.Component) []model.DataFlow {
	producerOf := make(map[string]*model.Component)
	consumersOf := make(map[string][]*model.Component)

	for _, c := range components {
		for _, out := range c.OutputDatasets {
			producerOf[out] = c
		}
		for _, in := range c.InputDatasets {
			consumersOf[in] = append(consumersOf[in], c)
		}
	}

	// Sorted dataset order keeps the candidate sequence, and with it the
	// dedup first-seen tiebreak, independent of map iteration.
	datasets := make([]string, 0, len(producerOf))
	for name := range producerOf {
		datasets = append(datasets, name)
	}
	sort.Strings(datasets)

	var flows []model.DataFlow
	for _, name := range datasets {
		producer := producerOf[name]
		for _, consumer := range consumersOf[name] {
			flows = append(flows, model.DataFlow{
				SourceID:    producer.ID,
				TargetID:    consumer.ID,
				DatasetName: name,
				Type:        model.FlowData,
				Provenance:  model.ProvenanceDatasetMatch,
			})
		}
	}
	return flows
}

// roleHeuristicPass is the lowest-trust fallback and always runs in addition
// to the other passes. Per process: first SOURCE feeds the first TRANSFORM,
// TRANSFORMs chain pairwise in encounter order, the last TRANSFORM feeds
// every SINK, and a LOOKUP feeds a JOIN when the lookup's name appears in
// the join's transformation text or stringified parameters.
func (e *Engine) roleHeuristicPass(components []*model.Component) []model.DataFlow {
	byProcess := make(map[string][]*model.Component)
	var processOrder []string
	for _, c := range components {
		if _, seen := byProcess[c.ProcessID]; !seen {
			processOrder = append(processOrder, c.ProcessID)
		}
		byProcess[c.ProcessID] = append(byProcess[c.ProcessID], c)
	}

	var flows []model.DataFlow
	for _, pid := range processOrder {
		flows = append(flows, e.roleHeuristicForProcess(byProcess[pid])...)
	}
	return flows
}

func (e *Engine) roleHeuristicForProcess(components []*model.Component) []model.DataFlow {
	var sources, transforms, sinks, lookups, joins []*model.Component
	for _, c := range components {
		switch c.Role {
		case model.RoleSource:
			sources = append(sources, c)
		case model.RoleTransform:
			transforms = append(transforms, c)
		case model.RoleSink:
			sinks = append(sinks, c)
		case model.RoleLookup:
			lookups = append(lookups, c)
		case model.RoleJoin:
			joins = append(joins, c)
		}
	}

	var flows []model.DataFlow
	heuristic := func(src, dst *model.Component, typ model.FlowType) {
		flows = append(flows, model.DataFlow{
			SourceID:   src.ID,
			TargetID:   dst.ID,
			Type:       typ,
			Provenance: model.ProvenanceRoleHeuristic,
		})
	}

	if len(sources) > 0 && len(transforms) > 0 {
		heuristic(sources[0], transforms[0], model.FlowData)
	}
	for i := 0; i+1 < len(transforms); i++ {
		heuristic(transforms[i], transforms[i+1], model.FlowData)
	}
	if len(transforms) > 0 {
		last := transforms[len(transforms)-1]
		for _, sink := range sinks {
			heuristic(last, sink, model.FlowData)
		}
	}

	for _, lookup := range lookups {
		for _, join := range joins {
			if strings.Contains(join.TransformationText, lookup.Name) ||
				strings.Contains(model.StringifyParameters(join.Parameters), lookup.Name) {
				heuristic(lookup, join, model.FlowLookup)
			}
		}
	}

	return flows
}

// dedup keeps exactly one edge per (source, target) pair, selecting by
// provenance priority EXPLICIT > DATASET_MATCH > ROLE_HEURISTIC with ties
// broken first-seen. Self-loops are ordinary edges here; read-back patterns
// depend on them surviving.
func dedup(flows []model.DataFlow) []model.DataFlow {
	type key struct{ src, dst string }

	best := make(map[key]int)
	var out []model.DataFlow

	for _, f := range flows {
		k := key{f.SourceID, f.TargetID}
		idx, seen := best[k]
		if !seen {
			best[k] = len(out)
			out = append(out, f)
			continue
		}
		if f.Provenance < out[idx].Provenance {
			out[idx] = f
		}
	}

	return out
}
