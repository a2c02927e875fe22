// Package commands implements the pipelens subcommands.
package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipelens-labs/pipelens/internal/adapter"
	"github.com/pipelens-labs/pipelens/internal/config"
	"github.com/pipelens-labs/pipelens/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Store  state.Store
}

// NewCommandContext creates a CommandContext with an opened state store.
// Returns the context and a cleanup function that must be called (typically
// via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Store:  store,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to defaults when
// no command-line load has happened (direct command construction in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		RootDir:      config.DefaultRootDir,
		StatePath:    filepath.Join(config.DefaultRootDir, config.DefaultStateFile),
		OutputFormat: config.DefaultOutput,
		Graph: config.GraphConfig{
			LabelField:      config.DefaultLabelField,
			ParameterMarker: config.DefaultParamMark,
		},
	}
}

// openStore opens the SQLite inventory store and ensures its schema.
func openStore(cfg *config.Config) (state.Store, error) {
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, err
			}
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// buildAdapters constructs the format adapters from configuration.
func buildAdapters(cfg *config.Config) []adapter.Adapter {
	return []adapter.Adapter{
		adapter.NewGraphFile(adapter.GraphFileOptions{
			Extensions:      cfg.Graph.Extensions,
			ParameterMarker: cfg.Graph.ParameterMarker,
			LabelField:      cfg.Graph.LabelField,
			ExcludeLabels:   cfg.Graph.ExcludeLabels,
		}),
		adapter.NewWorkflowXML(cfg.Workflow.Extensions),
	}
}
