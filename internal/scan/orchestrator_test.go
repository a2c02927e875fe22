package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelens-labs/pipelens/internal/adapter"
	"github.com/pipelens-labs/pipelens/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func defaultAdapters() []adapter.Adapter {
	return []adapter.Adapter{
		adapter.NewGraphFile(adapter.GraphFileOptions{}),
		adapter.NewWorkflowXML(nil),
	}
}

func TestScan_MixedFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "jobs/daily.graph", `
{g|GRAPH|daily|||}
{g|INPUT_FILE|read||orders|}
{g|OUTPUT_TABLE|write|orders||}
`)
	writeFile(t, dir, "flows/nightly.xml", `<workflow name="nightly">
  <action name="pull" type="extract"><output>raw</output></action>
  <action name="push" type="load"><input>raw</input></action>
  <transition from="pull" to="push" dataset="raw"/>
</workflow>`)
	writeFile(t, dir, "README.md", "not a pipeline")

	o := New(defaultAdapters(), Options{})
	res, err := o.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(dir), res.ScanID)
	assert.Equal(t, 2, res.Report.ScannedFiles)
	assert.Equal(t, 2, res.Report.ParsedFiles)
	assert.Empty(t, res.Report.FailedFiles)

	require.Len(t, res.Processes, 2)
	require.Len(t, res.Components, 4)

	// The graph pair connects via dataset matching, the workflow pair via
	// its declared transition.
	require.Len(t, res.Flows, 2)
	byProv := map[model.Provenance]int{}
	for _, f := range res.Flows {
		byProv[f.Provenance]++
	}
	assert.Equal(t, 1, byProv[model.ProvenanceDatasetMatch])
	assert.Equal(t, 1, byProv[model.ProvenanceExplicit])
}

func TestScan_FailedFileDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.graph", `{g|GRAPH|fine|||}`)
	writeFile(t, dir, "broken.xml", `<workflow name="x">`)

	o := New(defaultAdapters(), Options{})
	res, err := o.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Report.ParsedFiles)
	require.Len(t, res.Report.FailedFiles, 1)
	assert.Equal(t, "workflow-xml", res.Report.FailedFiles[0].Adapter)
	require.Len(t, res.Processes, 1)
	assert.Equal(t, "fine", res.Processes[0].Name)
}

func TestScan_EmptyTree(t *testing.T) {
	o := New(defaultAdapters(), Options{})

	res, err := o.Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, res.Report.ScannedFiles)
	assert.Empty(t, res.Processes)
	assert.Empty(t, res.Flows)
}

func TestScan_MissingRootFails(t *testing.T) {
	o := New(defaultAdapters(), Options{})

	_, err := o.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestScan_DeterministicIDsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.graph", `
{g|GRAPH|p|||}
{g|READ|r||d|}
`)

	o := New(defaultAdapters(), Options{})
	first, err := o.Scan(context.Background(), dir)
	require.NoError(t, err)
	second, err := o.Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, first.Components, 1)
	require.Len(t, second.Components, 1)
	assert.Equal(t, first.Components[0].ID, second.Components[0].ID)
	assert.Equal(t, first.Processes[0].ID, second.Processes[0].ID)
}

func TestScan_SameProcessAcrossFilesMerges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.graph", `
{g|GRAPH|shared|||}
{g|READ|r||d|}
`)
	writeFile(t, dir, "two.graph", `
{g|GRAPH|shared|||}
{g|WRITE|w|d||}
`)

	o := New(defaultAdapters(), Options{})
	res, err := o.Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Processes, 1)
	assert.Len(t, res.Processes[0].ComponentIDs, 2)
	require.Len(t, res.Components, 2)
}

type memHashes struct {
	hashes map[string]string
}

func (m *memHashes) GetContentHash(path string) (string, error) {
	return m.hashes[path], nil
}

func (m *memHashes) SetContentHash(path, hash, _ string) error {
	m.hashes[path] = hash
	return nil
}

func TestScan_ChangedFileCounting(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.graph", `{g|GRAPH|p|||}`)

	hashes := &memHashes{hashes: make(map[string]string)}
	o := New(defaultAdapters(), Options{Hashes: hashes})

	res, err := o.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.ChangedFiles)

	res, err = o.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Zero(t, res.Report.ChangedFiles)

	require.NoError(t, os.WriteFile(path, []byte(`{g|GRAPH|q|||}`), 0o644))
	res, err = o.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.ChangedFiles)
}

func TestScan_WarningsCarryFilePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "trunc.graph", `{g|GRAPH|p|||} {g|READ|r`)

	o := New(defaultAdapters(), Options{})
	res, err := o.Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, filepath.Join(dir, "trunc.graph"), res.Report.Warnings[0].Path)
}
