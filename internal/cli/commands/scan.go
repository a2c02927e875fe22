package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipelens-labs/pipelens/internal/scan"
	"github.com/pipelens-labs/pipelens/internal/state"
)

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a source tree and rebuild the inventory",
		Long: `Scan walks the source tree, parses every recognized pipeline
definition, infers data flows, and persists the result as the inventory
for that tree. Re-scanning is idempotent: unchanged definitions map onto
the same entities.`,
		Example: `  # Scan the configured root directory
  pipelens scan

  # Scan an explicit tree with 8 parallel parsers
  pipelens scan /data/pipelines --concurrency 8

  # Scan with extraction details logged
  pipelens scan -v`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args)
		},
	}
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	root := cmdCtx.Cfg.RootDir
	if len(args) > 0 {
		root = args[0]
	}

	run, err := cmdCtx.Store.BeginScan(filepath.Clean(root))
	if err != nil {
		return fmt.Errorf("failed to record scan run: %w", err)
	}

	orch := scan.New(buildAdapters(cmdCtx.Cfg), scan.Options{
		Concurrency: cmdCtx.Cfg.Concurrency,
		Hashes:      cmdCtx.Store,
		Logger:      cmdCtx.Logger,
	})

	res, err := orch.Scan(cmd.Context(), root)
	if err != nil {
		_ = cmdCtx.Store.FinishScan(run.ID, state.ScanStatusFailed, err.Error(), state.ScanRun{})
		return fmt.Errorf("scan failed: %w", err)
	}

	if err := cmdCtx.Store.SaveInventory(res.ScanID, res.Processes, res.Components, res.Flows); err != nil {
		_ = cmdCtx.Store.FinishScan(run.ID, state.ScanStatusFailed, err.Error(), state.ScanRun{})
		return fmt.Errorf("failed to persist inventory: %w", err)
	}

	if err := cmdCtx.Store.FinishScan(run.ID, state.ScanStatusCompleted, "", state.ScanRun{
		Files:      res.Report.ScannedFiles,
		Processes:  len(res.Processes),
		Components: len(res.Components),
		Flows:      len(res.Flows),
	}); err != nil {
		return fmt.Errorf("failed to record scan run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Report.Summary())
	fmt.Fprintf(out, "Processes: %d | Components: %d | Flows: %d\n",
		len(res.Processes), len(res.Components), len(res.Flows))

	if res.Stats.UnresolvedExplicit > 0 {
		fmt.Fprintf(out, "Dropped %d declared connections with unknown endpoints\n", res.Stats.UnresolvedExplicit)
	}
	for _, fe := range res.Report.FailedFiles {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s (%s): %s\n", fe.Path, fe.Adapter, fe.Message)
	}
	if cmdCtx.Cfg.Verbose {
		for _, w := range res.Report.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", w.Path, w.Message)
		}
	}

	return nil
}
