package adapter

import (
	"path/filepath"
	"strings"

	"github.com/pipelens-labs/pipelens/internal/model"
	"github.com/pipelens-labs/pipelens/internal/structural"
)

// GraphFileOptions configures the brace-delimited graph-definition adapter.
type GraphFileOptions struct {
	// Extensions lists file extensions this adapter claims (with dot).
	Extensions []string
	// Open and Close are the block delimiters.
	Open, Close rune
	// ParameterMarker labels the parameter section inside a block.
	ParameterMarker string
	// LabelField is the zero-based pipe-token offset of the subgraph label
	// in a block's trailer.
	LabelField int
	// ExcludeLabels lists labels that never extend the subgraph breadcrumb.
	ExcludeLabels []string
}

// DefaultGraphFileOptions returns the conventions of the observed legacy
// exports: `{...}` blocks, a "!fparameters" section, and the subgraph label
// in the 8th trailer token.
func DefaultGraphFileOptions() GraphFileOptions {
	return GraphFileOptions{
		Extensions:      []string{".graph", ".mp"},
		Open:            '{',
		Close:           '}',
		ParameterMarker: "!fparameters",
		LabelField:      7,
	}
}

// GraphFile parses the legacy bracket-based graph-definition format. A file
// is a flat stream of pipe-delimited blocks:
//
//	{graph_id|kind|name|inputs|outputs|transformation|...}
//
// Blocks sharing a graph_id belong to one graph; the block whose kind is
// GRAPH names the process. There is no real tree structure in the stream,
// so subgraph nesting is reconstructed from trailer labels via the
// hierarchy breadcrumb fold.
type GraphFile struct {
	opts    GraphFileOptions
	exclude map[string]struct{}
}

// NewGraphFile creates the adapter. Zero-valued option fields fall back to
// the defaults.
func NewGraphFile(opts GraphFileOptions) *GraphFile {
	def := DefaultGraphFileOptions()
	if len(opts.Extensions) == 0 {
		opts.Extensions = def.Extensions
	}
	if opts.Open == 0 {
		opts.Open = def.Open
	}
	if opts.Close == 0 {
		opts.Close = def.Close
	}
	if opts.ParameterMarker == "" {
		opts.ParameterMarker = def.ParameterMarker
	}
	if opts.LabelField == 0 {
		opts.LabelField = def.LabelField
	}

	exclude := make(map[string]struct{}, len(opts.ExcludeLabels))
	for _, l := range opts.ExcludeLabels {
		exclude[l] = struct{}{}
	}
	return &GraphFile{opts: opts, exclude: exclude}
}

// Name implements Adapter.
func (g *GraphFile) Name() string { return "graphfile" }

// Match implements Adapter.
func (g *GraphFile) Match(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range g.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Parse implements Adapter. Structural warnings (truncated blocks, stray
// delimiters) are collected, never fatal: partial extraction from a damaged
// export is the expected mode of operation.
func (g *GraphFile) Parse(path string, content []byte) (*Result, error) {
	blocks, structWarnings := structural.ScanBlocks(string(content), g.opts.Open, g.opts.Close)

	result := &Result{}
	for _, w := range structWarnings {
		result.Warnings = append(result.Warnings, w.String())
	}

	// Group blocks by graph id, preserving both group encounter order and
	// span order within a group. The breadcrumb fold is stateful across a
	// group's ordered span sequence, so order must survive grouping.
	var groupOrder []string
	grouped := make(map[string][]structural.Block)
	for _, b := range blocks {
		if b.GroupKey == "" {
			continue
		}
		if _, seen := grouped[b.GroupKey]; !seen {
			groupOrder = append(groupOrder, b.GroupKey)
		}
		grouped[b.GroupKey] = append(grouped[b.GroupKey], b)
	}

	for _, key := range groupOrder {
		result.Processes = append(result.Processes, g.parseGraph(key, grouped[key]))
	}
	return result, nil
}

func (g *GraphFile) parseGraph(groupKey string, blocks []structural.Block) ProcessResult {
	blocks = structural.ApplyBreadcrumbs(blocks, structural.BreadcrumbOptions{
		LabelField: g.opts.LabelField,
		Exclude:    g.exclude,
	})

	pr := ProcessResult{
		Unit: model.ProcessUnit{
			Name:   groupKey,
			System: "graphfile",
			Type:   "graph",
		},
	}

	for _, b := range blocks {
		fields := strings.Split(b.Header, "|")
		kind := headerField(fields, 1)
		name := headerField(fields, 2)

		params := decodeParams(b.Text, g.opts.ParameterMarker, g.opts.Open, g.opts.Close)

		if strings.EqualFold(kind, "GRAPH") {
			if name != "" {
				pr.Unit.Name = name
			}
			pr.Unit.Parameters = params
			continue
		}
		if name == "" {
			continue
		}

		if b.HierarchyPath != "" {
			if params == nil {
				params = make(map[string]string)
			}
			params["subgraph"] = b.HierarchyPath
		}

		pr.Components = append(pr.Components, model.NormalizedUnit{
			Name:               name,
			RoleHint:           normalizeGraphKind(kind),
			InputDatasets:      splitDatasets(headerField(fields, 3)),
			OutputDatasets:     splitDatasets(headerField(fields, 4)),
			TransformationText: headerField(fields, 5),
			Parameters:         params,
		})
	}

	return pr
}

// normalizeGraphKind maps the legacy component vocabulary onto role hints.
// Unmapped kinds pass through unchanged; the model builder turns anything
// it does not recognize into UNKNOWN.
func normalizeGraphKind(kind string) string {
	switch strings.ToUpper(kind) {
	case "INPUT_FILE", "INPUT_TABLE", "READ":
		return "SOURCE"
	case "OUTPUT_FILE", "OUTPUT_TABLE", "WRITE":
		return "SINK"
	case "LOOKUP_FILE":
		return "LOOKUP"
	case "REFORMAT", "FILTER", "SORT", "ROLLUP":
		return "TRANSFORM"
	default:
		return kind
	}
}

func decodeParams(text, marker string, open, close rune) map[string]string {
	decoded := structural.DecodeParameters(text, marker, open, close)
	if len(decoded) == 0 {
		return nil
	}
	params := make(map[string]string, len(decoded))
	for _, p := range decoded {
		if p.Name != "" {
			params[p.Name] = p.Value
		}
	}
	return params
}

func headerField(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

func splitDatasets(field string) []string {
	if field == "" {
		return nil
	}
	var out []string
	for _, name := range strings.Split(field, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
