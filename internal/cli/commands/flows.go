package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewFlowsCommand creates the flows command.
func NewFlowsCommand() *cobra.Command {
	var provenance string

	cmd := &cobra.Command{
		Use:   "flows",
		Short: "List the inferred data flows",
		Long: `Flows lists every inferred lineage edge of the last scan with the
dataset it carries and the evidence tier it came from.`,
		Example: `  # All flows
  pipelens flows

  # Only edges backed by declared connections
  pipelens flows --provenance EXPLICIT

  # JSON output
  pipelens flows --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFlows(cmd, provenance)
		},
	}

	cmd.Flags().StringVar(&provenance, "provenance", "", "Filter by provenance (EXPLICIT|DATASET_MATCH|ROLE_HEURISTIC)")
	_ = cmd.RegisterFlagCompletionFunc("provenance", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"EXPLICIT", "DATASET_MATCH", "ROLE_HEURISTIC"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// flowInfo is the JSON shape of one lineage edge.
type flowInfo struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Dataset    string `json:"dataset,omitempty"`
	Type       string `json:"type"`
	Provenance string `json:"provenance"`
}

func runFlows(cmd *cobra.Command, provenance string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	scanID := filepath.Clean(cmdCtx.Cfg.RootDir)
	flows, err := cmdCtx.Store.ListFlows(scanID)
	if err != nil {
		return fmt.Errorf("failed to list flows: %w", err)
	}
	components, err := cmdCtx.Store.ListComponents(scanID)
	if err != nil {
		return fmt.Errorf("failed to list components: %w", err)
	}

	if provenance != "" {
		want := strings.ToUpper(strings.TrimSpace(provenance))
		filtered := flows[:0]
		for _, f := range flows {
			if f.Provenance.String() == want {
				filtered = append(filtered, f)
			}
		}
		flows = filtered
	}

	nameOf := make(map[string]string, len(components))
	for _, c := range components {
		nameOf[c.ID] = c.Name
	}
	display := func(id string) string {
		if name, ok := nameOf[id]; ok {
			return name
		}
		return id
	}

	if cmdCtx.Cfg.OutputFormat == "json" {
		infos := make([]flowInfo, 0, len(flows))
		for _, f := range flows {
			infos = append(infos, flowInfo{
				Source:     display(f.SourceID),
				Target:     display(f.TargetID),
				Dataset:    f.DatasetName,
				Type:       f.Type.String(),
				Provenance: f.Provenance.String(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	out := cmd.OutOrStdout()
	if len(flows) == 0 {
		fmt.Fprintln(out, "No flows in the inventory.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Target", "Dataset", "Type", "Provenance"})
	for _, f := range flows {
		dataset := f.DatasetName
		if dataset == "" {
			dataset = "-"
		}
		t.AppendRow(table.Row{
			display(f.SourceID), display(f.TargetID), dataset,
			f.Type.String(), f.Provenance.String(),
		})
	}
	t.Render()

	fmt.Fprintf(out, "%d flows\n", len(flows))
	return nil
}
