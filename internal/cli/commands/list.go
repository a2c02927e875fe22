package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pipelens-labs/pipelens/internal/model"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the inventoried processes and components",
		Long: `List the processes and components recorded by the last scan of the
configured root directory.

Use --output to select the format: table, json`,
		Example: `  # List the inventory as a table
  pipelens list

  # List as JSON
  pipelens list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
	return cmd
}

// listOutput is the JSON shape of the list command.
type listOutput struct {
	Processes  []processInfo `json:"processes"`
	Components int           `json:"component_count"`
}

type processInfo struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	System     string          `json:"system"`
	Type       string          `json:"type"`
	Components []componentInfo `json:"components"`
}

type componentInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Inputs  []string `json:"input_datasets,omitempty"`
	Outputs []string `json:"output_datasets,omitempty"`
}

func runList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	scanID := filepath.Clean(cmdCtx.Cfg.RootDir)
	processes, err := cmdCtx.Store.ListProcesses(scanID)
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}
	components, err := cmdCtx.Store.ListComponents(scanID)
	if err != nil {
		return fmt.Errorf("failed to list components: %w", err)
	}

	if cmdCtx.Cfg.OutputFormat == "json" {
		return listJSON(cmd, processes, components)
	}
	return listTable(cmd, processes, components)
}

func listTable(cmd *cobra.Command, processes []*model.Process, components []*model.Component) error {
	out := cmd.OutOrStdout()
	if len(processes) == 0 {
		fmt.Fprintln(out, "No processes in the inventory. Run `pipelens scan` first.")
		return nil
	}

	byProcess := make(map[string][]*model.Component)
	for _, c := range components {
		byProcess[c.ProcessID] = append(byProcess[c.ProcessID], c)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Process", "System", "Component", "Role", "Inputs", "Outputs"})

	for _, p := range processes {
		comps := byProcess[p.ID]
		if len(comps) == 0 {
			t.AppendRow(table.Row{p.Name, p.System, "", "", "", ""})
			continue
		}
		for i, c := range comps {
			name, system := "", ""
			if i == 0 {
				name, system = p.Name, p.System
			}
			t.AppendRow(table.Row{
				name, system, c.Name, c.Role.String(),
				joinOrDash(c.InputDatasets), joinOrDash(c.OutputDatasets),
			})
		}
		t.AppendSeparator()
	}
	t.Render()

	fmt.Fprintf(out, "%d processes, %d components\n", len(processes), len(components))
	return nil
}

func listJSON(cmd *cobra.Command, processes []*model.Process, components []*model.Component) error {
	byProcess := make(map[string][]componentInfo)
	for _, c := range components {
		byProcess[c.ProcessID] = append(byProcess[c.ProcessID], componentInfo{
			ID:      c.ID,
			Name:    c.Name,
			Role:    c.Role.String(),
			Inputs:  c.InputDatasets,
			Outputs: c.OutputDatasets,
		})
	}

	out := listOutput{Processes: make([]processInfo, 0, len(processes)), Components: len(components)}
	for _, p := range processes {
		out.Processes = append(out.Processes, processInfo{
			ID:         p.ID,
			Name:       p.Name,
			System:     p.System,
			Type:       p.Type,
			Components: byProcess[p.ID],
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func joinOrDash(vals []string) string {
	if len(vals) == 0 {
		return "-"
	}
	s := vals[0]
	for _, v := range vals[1:] {
		s += ", " + v
	}
	return s
}
