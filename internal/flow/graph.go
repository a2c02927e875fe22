package flow

import (
	"sort"

	"github.com/pipelens-labs/pipelens/internal/model"
)

// Graph is the queryable lineage graph over a run's inferred flows. The
// adjacency index is built once; Upstream and Downstream are single-hop
// queries, so cycles in the flow set can never loop them.
type Graph struct {
	flows []model.DataFlow
	in    map[string][]string // target id -> source ids
	out   map[string][]string // source id -> target ids
}

// NewGraph builds the adjacency index for the given flows.
func NewGraph(flows []model.DataFlow) *Graph {
	g := &Graph{
		flows: flows,
		in:    make(map[string][]string),
		out:   make(map[string][]string),
	}
	for _, f := range flows {
		g.out[f.SourceID] = append(g.out[f.SourceID], f.TargetID)
		g.in[f.TargetID] = append(g.in[f.TargetID], f.SourceID)
	}
	return g
}

// Flows returns all edges in the graph.
func (g *Graph) Flows() []model.DataFlow {
	return g.flows
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.flows)
}

// Upstream returns the ids of all components with an edge into id, sorted
// and deduplicated.
func (g *Graph) Upstream(id string) []string {
	return sortedUnique(g.in[id])
}

// Downstream returns the ids of all components id has an edge to, sorted
// and deduplicated.
func (g *Graph) Downstream(id string) []string {
	return sortedUnique(g.out[id])
}

// FlowsFrom returns the edges originating at id.
func (g *Graph) FlowsFrom(id string) []model.DataFlow {
	var out []model.DataFlow
	for _, f := range g.flows {
		if f.SourceID == id {
			out = append(out, f)
		}
	}
	return out
}

// FlowsInto returns the edges targeting id.
func (g *Graph) FlowsInto(id string) []model.DataFlow {
	var out []model.DataFlow
	for _, f := range g.flows {
		if f.TargetID == id {
			out = append(out, f)
		}
	}
	return out
}

func sortedUnique(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
