// Package config provides configuration management for the pipelens CLI.
// Values merge from defaults, an optional pipelens.yaml, PIPELENS_*
// environment variables, and command-line flags, in ascending precedence.
package config

// GraphConfig tunes the graph-export adapter.
type GraphConfig struct {
	// Extensions lists the file extensions the adapter claims.
	Extensions []string `koanf:"extensions"`
	// LabelField is the zero-based pipe-token offset of the subgraph label
	// in a block trailer.
	LabelField int `koanf:"label_field"`
	// ExcludeLabels lists labels ignored by subgraph breadcrumb tracking.
	ExcludeLabels []string `koanf:"exclude_labels"`
	// ParameterMarker labels the parameter section inside a block.
	ParameterMarker string `koanf:"parameter_marker"`
}

// WorkflowConfig tunes the workflow-XML adapter.
type WorkflowConfig struct {
	Extensions []string `koanf:"extensions"`
}

// Config holds all CLI configuration options.
type Config struct {
	// RootDir is the source tree to scan.
	RootDir string `koanf:"root_dir"`
	// StatePath is the SQLite inventory database location.
	StatePath string `koanf:"state_path"`
	// Concurrency caps parallel file parsing; zero means one worker per CPU.
	Concurrency  int            `koanf:"concurrency"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	Graph        GraphConfig    `koanf:"graph"`
	Workflow     WorkflowConfig `koanf:"workflow"`
}

// Default configuration values.
const (
	DefaultRootDir    = "."
	DefaultStateFile  = ".pipelens/inventory.db"
	DefaultOutput     = "table"
	DefaultLabelField = 7
	DefaultParamMark  = "!fparameters"
)
