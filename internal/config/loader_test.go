package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultRootDir, cfg.RootDir)
	assert.Equal(t, filepath.Join(DefaultRootDir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultLabelField, cfg.Graph.LabelField)
	assert.Equal(t, DefaultParamMark, cfg.Graph.ParameterMarker)
	assert.Equal(t, []string{".graph", ".mp"}, cfg.Graph.Extensions)
	assert.Equal(t, []string{".xml"}, cfg.Workflow.Extensions)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_FromFile(t *testing.T) {
	ResetConfig()

	cfgFile := filepath.Join(t.TempDir(), "pipelens.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
root_dir: /data/pipelines
concurrency: 8
graph:
  label_field: 5
  exclude_labels:
    - main
`), 0o644))

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)

	assert.Equal(t, "/data/pipelines", cfg.RootDir)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 5, cfg.Graph.LabelField)
	assert.Equal(t, []string{"main"}, cfg.Graph.ExcludeLabels)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultParamMark, cfg.Graph.ParameterMarker)
	assert.Equal(t, cfgFile, GetConfigFileUsed())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()

	cfgFile := filepath.Join(t.TempDir(), "pipelens.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("concurrency: 2\n"), 0o644))

	t.Setenv("PIPELENS_CONCURRENCY", "6")
	t.Setenv("PIPELENS_GRAPH__LABEL_FIELD", "3")

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Concurrency)
	assert.Equal(t, 3, cfg.Graph.LabelField)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	ResetConfig()

	t.Setenv("PIPELENS_CONCURRENCY", "6")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 0, "")
	flags.String("root", "", "")
	flags.String("state", "", "")
	require.NoError(t, flags.Parse([]string{
		"--concurrency", "12",
		"--root", "/srv/etl",
		"--state", "/var/lib/pipelens.db",
	}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Concurrency)
	assert.Equal(t, "/srv/etl", cfg.RootDir)
	assert.Equal(t, "/var/lib/pipelens.db", cfg.StatePath)
}

func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	ResetConfig()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 99, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	// Flag defaults never override config defaults.
	assert.Zero(t, cfg.Concurrency)
}

func TestLoadConfig_StatePathRelativeToRoot(t *testing.T) {
	ResetConfig()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("root", "", "")
	require.NoError(t, flags.Parse([]string{"--root", "/srv/etl"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/etl", DefaultStateFile), cfg.StatePath)
}

func TestLoadConfig_MemoryStatePathKept(t *testing.T) {
	ResetConfig()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "")
	require.NoError(t, flags.Parse([]string{"--state", ":memory:"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}
