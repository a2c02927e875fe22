// Package scan walks a source tree, dispatches files to format adapters,
// and merges per-file extraction results into one inventory with inferred
// lineage. Files are parsed concurrently; a single failing file never aborts
// the scan.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pipelens-labs/pipelens/internal/adapter"
	"github.com/pipelens-labs/pipelens/internal/flow"
	"github.com/pipelens-labs/pipelens/internal/model"
)

// HashStore is the subset of the state store the orchestrator uses to track
// per-file content hashes between runs.
type HashStore interface {
	GetContentHash(path string) (string, error)
	SetContentHash(path, hash, kind string) error
}

// Options configures a scan run.
type Options struct {
	// Concurrency caps the number of files parsed in parallel. Zero means
	// one worker per CPU.
	Concurrency int
	// Hashes, when non-nil, is consulted to count changed files and updated
	// with the hashes of this run. Parsing itself is never skipped; the
	// deterministic ids make re-parsing idempotent.
	Hashes HashStore
	Logger *slog.Logger
}

// Orchestrator runs full scans over a source tree.
type Orchestrator struct {
	adapters []adapter.Adapter
	opts     Options
	logger   *slog.Logger
}

// FileError records one file that failed extraction.
type FileError struct {
	Path    string
	Adapter string
	Message string
}

// FileWarning records a non-fatal extraction warning with its file.
type FileWarning struct {
	Path    string
	Message string
}

// Report carries the per-run bookkeeping: what was seen, what failed, and
// how long the run took.
type Report struct {
	ScannedFiles int
	ParsedFiles  int
	ChangedFiles int
	FailedFiles  []FileError
	Warnings     []FileWarning
	Duration     time.Duration
}

// Summary returns a one-line human-readable report.
func (r *Report) Summary() string {
	return fmt.Sprintf("Files: %d matched (%d parsed, %d changed, %d failed) | Warnings: %d | Duration: %s",
		r.ScannedFiles, r.ParsedFiles, r.ChangedFiles, len(r.FailedFiles),
		len(r.Warnings), r.Duration.Round(time.Millisecond))
}

// Result is the full output of one scan run.
type Result struct {
	ScanID     string
	Processes  []*model.Process
	Components []*model.Component
	Flows      []model.DataFlow
	Stats      flow.Stats
	Report     Report
}

// New creates an orchestrator over the given adapters. Files are dispatched
// to the first adapter whose Match accepts the path.
func New(adapters []adapter.Adapter, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Orchestrator{adapters: adapters, opts: opts, logger: logger}
}

// fileResult is the extraction outcome for one file, produced by a worker
// and merged single-threaded afterwards.
type fileResult struct {
	path    string
	adapter string
	hash    string
	res     *adapter.Result
	err     error
}

// Scan walks root, parses every matched file, and builds the merged
// inventory. The scan identifier is the cleaned root path, so re-scanning
// the same tree always reproduces the same entity ids. An empty tree is a
// valid result, not an error.
func (o *Orchestrator) Scan(ctx context.Context, root string) (*Result, error) {
	start := time.Now()
	scanID := filepath.Clean(root)

	o.logger.Info("starting scan", "root", scanID)

	files, err := o.collectFiles(root)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	results := make([]fileResult, len(files))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.opts.Concurrency)

	for i, f := range files {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			results[i] = o.parseFile(f.path, f.adapter)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := o.merge(scanID, results)
	res.Report.ScannedFiles = len(files)
	res.Report.Duration = time.Since(start)

	o.logger.Info("scan completed",
		"files", res.Report.ScannedFiles,
		"parsed", res.Report.ParsedFiles,
		"failed", len(res.Report.FailedFiles),
		"processes", len(res.Processes),
		"components", len(res.Components),
		"flows", len(res.Flows),
		"duration_ms", res.Report.Duration.Milliseconds())

	return res, nil
}

type matchedFile struct {
	path    string
	adapter adapter.Adapter
}

// collectFiles walks the tree and pairs every matched file with its adapter.
// filepath.Walk visits in lexical order, which fixes the merge order and with
// it every first-seen tiebreak downstream.
func (o *Orchestrator) collectFiles(root string) ([]matchedFile, error) {
	var files []matchedFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		for _, a := range o.adapters {
			if a.Match(path) {
				files = append(files, matchedFile{path: path, adapter: a})
				break
			}
		}
		return nil
	})
	return files, err
}

func (o *Orchestrator) parseFile(path string, a adapter.Adapter) fileResult {
	fr := fileResult{path: path, adapter: a.Name()}

	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from filepath.Walk
	if err != nil {
		fr.err = err
		return fr
	}
	h := sha256.Sum256(content)
	fr.hash = hex.EncodeToString(h[:8])

	fr.res, fr.err = a.Parse(path, content)
	if fr.err != nil {
		o.logger.Debug("parse error", "path", path, "adapter", a.Name(), "error", fr.err.Error())
	}
	return fr
}

// merge folds the per-file results into one inventory, in file order.
// Processes with the same name collapse onto one entity because their ids
// collide; later files append components to the first occurrence.
func (o *Orchestrator) merge(scanID string, results []fileResult) *Result {
	out := &Result{ScanID: scanID}
	builder := model.NewBuilder(scanID)

	processes := make(map[string]*model.Process)
	var explicit []model.ExplicitFlow

	for _, fr := range results {
		if fr.err != nil {
			out.Report.FailedFiles = append(out.Report.FailedFiles, FileError{
				Path: fr.path, Adapter: fr.adapter, Message: fr.err.Error(),
			})
			continue
		}
		out.Report.ParsedFiles++
		out.Report.ChangedFiles += o.recordHash(fr)

		for _, w := range fr.res.Warnings {
			out.Report.Warnings = append(out.Report.Warnings, FileWarning{Path: fr.path, Message: w})
		}

		for _, prr := range fr.res.Processes {
			p := builder.BuildProcess(prr.Unit)
			if existing, ok := processes[p.ID]; ok {
				p = existing
			} else {
				processes[p.ID] = p
				out.Processes = append(out.Processes, p)
			}

			for _, unit := range prr.Components {
				out.Components = append(out.Components, builder.BuildComponent(p, unit))
			}
			for _, ef := range prr.Explicit {
				ef.ProcessID = p.ID
				explicit = append(explicit, ef)
			}
		}
	}

	engine := flow.NewEngine(o.logger)
	out.Flows, out.Stats = engine.Infer(out.Components, explicit)
	return out
}

// recordHash compares a file's content hash against the stored one and
// persists the new value. Returns 1 when the file is new or changed.
func (o *Orchestrator) recordHash(fr fileResult) int {
	if o.opts.Hashes == nil {
		return 0
	}
	prev, err := o.opts.Hashes.GetContentHash(fr.path)
	if err != nil {
		prev = ""
	}
	if setErr := o.opts.Hashes.SetContentHash(fr.path, fr.hash, fr.adapter); setErr != nil {
		o.logger.Debug("hash update failed", "path", fr.path, "error", setErr.Error())
	}
	if prev == fr.hash {
		return 0
	}
	return 1
}
