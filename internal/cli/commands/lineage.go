package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipelens-labs/pipelens/internal/flow"
	"github.com/pipelens-labs/pipelens/internal/model"
)

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	var upstreamOnly, downstreamOnly bool

	cmd := &cobra.Command{
		Use:   "lineage <component>",
		Short: "Show the direct neighbors of a component in the flow graph",
		Long: `Lineage resolves a component by name or id and prints the components
directly feeding it and directly fed by it. Neighbors are single-hop;
pipe the output back into lineage to walk further.`,
		Example: `  # Both directions for a component name
  pipelens lineage clean_orders

  # Only what feeds the component
  pipelens lineage clean_orders --upstream

  # JSON output by component id
  pipelens lineage 4f1a0b9c22d10e77 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args[0], upstreamOnly, downstreamOnly)
		},
	}

	cmd.Flags().BoolVar(&upstreamOnly, "upstream", false, "Show only upstream components")
	cmd.Flags().BoolVar(&downstreamOnly, "downstream", false, "Show only downstream components")
	return cmd
}

// lineageOutput is the JSON shape of the lineage command.
type lineageOutput struct {
	Component  componentInfo   `json:"component"`
	Upstream   []componentInfo `json:"upstream,omitempty"`
	Downstream []componentInfo `json:"downstream,omitempty"`
}

func runLineage(cmd *cobra.Command, ref string, upstreamOnly, downstreamOnly bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	scanID := filepath.Clean(cmdCtx.Cfg.RootDir)
	components, err := cmdCtx.Store.ListComponents(scanID)
	if err != nil {
		return fmt.Errorf("failed to list components: %w", err)
	}
	flows, err := cmdCtx.Store.ListFlows(scanID)
	if err != nil {
		return fmt.Errorf("failed to list flows: %w", err)
	}

	target := resolveComponent(components, ref)
	if target == nil {
		return fmt.Errorf("component not found: %s", ref)
	}

	byID := make(map[string]*model.Component, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}

	graph := flow.NewGraph(flows)
	showUp := !downstreamOnly
	showDown := !upstreamOnly

	var up, down []componentInfo
	if showUp {
		up = describeAll(graph.Upstream(target.ID), byID)
	}
	if showDown {
		down = describeAll(graph.Downstream(target.ID), byID)
	}

	if cmdCtx.Cfg.OutputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(lineageOutput{
			Component:  describe(target),
			Upstream:   up,
			Downstream: down,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, %s)\n", target.Name, target.Role, target.ID)
	if showUp {
		fmt.Fprintf(out, "Upstream (%d):\n", len(up))
		for _, c := range up {
			fmt.Fprintf(out, "  <- %s (%s)\n", c.Name, c.Role)
		}
	}
	if showDown {
		fmt.Fprintf(out, "Downstream (%d):\n", len(down))
		for _, c := range down {
			fmt.Fprintf(out, "  -> %s (%s)\n", c.Name, c.Role)
		}
	}
	return nil
}

// resolveComponent matches by id first, then by unique name.
func resolveComponent(components []*model.Component, ref string) *model.Component {
	for _, c := range components {
		if c.ID == ref {
			return c
		}
	}
	var found *model.Component
	for _, c := range components {
		if c.Name == ref {
			if found != nil {
				return nil // ambiguous
			}
			found = c
		}
	}
	return found
}

func describe(c *model.Component) componentInfo {
	return componentInfo{
		ID:      c.ID,
		Name:    c.Name,
		Role:    c.Role.String(),
		Inputs:  c.InputDatasets,
		Outputs: c.OutputDatasets,
	}
}

func describeAll(ids []string, byID map[string]*model.Component) []componentInfo {
	out := make([]componentInfo, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, describe(c))
		}
	}
	return out
}
