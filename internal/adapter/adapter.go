// Package adapter contains the per-format front ends that reduce legacy
// pipeline definitions to normalized units. Each adapter owns one source
// dialect; the scan orchestrator dispatches files to the first adapter that
// claims the path.
package adapter

import (
	"github.com/pipelens-labs/pipelens/internal/model"
)

// Adapter parses one source format into normalized process records.
type Adapter interface {
	// Name identifies the adapter in logs and reports.
	Name() string
	// Match reports whether the adapter handles the given file path.
	Match(path string) bool
	// Parse extracts all process definitions from one file's content.
	Parse(path string, content []byte) (*Result, error)
}

// Result is the extraction output for one file.
type Result struct {
	Processes []ProcessResult
	// Warnings are non-fatal extraction problems (truncated blocks,
	// skipped sections). The scan report collects them per file.
	Warnings []string
}

// ProcessResult is one discovered process definition in name form, before
// the model builder assigns ids.
type ProcessResult struct {
	Unit       model.ProcessUnit
	Components []model.NormalizedUnit
	// Explicit holds declared connections. ProcessID is left empty; the
	// orchestrator fills it in after the process is built.
	Explicit []model.ExplicitFlow
}
