package adapter

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pipelens-labs/pipelens/internal/model"
)

// WorkflowXML parses workflow-engine definition files. Unlike the graph
// export format, workflow XML declares its connections directly as
// transition elements, so this adapter is the main producer of explicit
// flow tuples.
type WorkflowXML struct {
	extensions []string
}

// NewWorkflowXML creates the adapter. With no extensions given it claims
// ".xml" files.
func NewWorkflowXML(extensions []string) *WorkflowXML {
	if len(extensions) == 0 {
		extensions = []string{".xml"}
	}
	return &WorkflowXML{extensions: extensions}
}

// Name implements Adapter.
func (w *WorkflowXML) Name() string { return "workflow-xml" }

// Match implements Adapter.
func (w *WorkflowXML) Match(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

type xmlWorkflow struct {
	XMLName     xml.Name        `xml:"workflow"`
	Name        string          `xml:"name,attr"`
	Actions     []xmlAction     `xml:"action"`
	Transitions []xmlTransition `xml:"transition"`
}

type xmlAction struct {
	Name    string     `xml:"name,attr"`
	Type    string     `xml:"type,attr"`
	Inputs  []string   `xml:"input"`
	Outputs []string   `xml:"output"`
	Script  string     `xml:"script"`
	Fields  []xmlField `xml:"field"`
	Params  []xmlParam `xml:"param"`
}

type xmlField struct {
	Name     string `xml:"name,attr"`
	Type     string `xml:"type,attr"`
	Nullable bool   `xml:"nullable,attr"`
	Length   string `xml:"length,attr"`
}

type xmlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlTransition struct {
	From    string `xml:"from,attr"`
	To      string `xml:"to,attr"`
	Dataset string `xml:"dataset,attr"`
	Type    string `xml:"type,attr"`
}

// Parse implements Adapter. A file holds exactly one workflow element; a
// file that does not decode is a per-file failure, left to the orchestrator
// to report.
func (w *WorkflowXML) Parse(path string, content []byte) (*Result, error) {
	var wf xmlWorkflow
	if err := xml.Unmarshal(content, &wf); err != nil {
		return nil, fmt.Errorf("decoding workflow xml: %w", err)
	}
	if wf.Name == "" {
		wf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	pr := ProcessResult{
		Unit: model.ProcessUnit{
			Name:   wf.Name,
			System: "workflow-xml",
			Type:   "workflow",
		},
	}

	result := &Result{}
	for _, a := range wf.Actions {
		if a.Name == "" {
			result.Warnings = append(result.Warnings, "skipped action without a name attribute")
			continue
		}
		pr.Components = append(pr.Components, model.NormalizedUnit{
			Name:               a.Name,
			RoleHint:           normalizeActionType(a.Type),
			InputDatasets:      trimAll(a.Inputs),
			OutputDatasets:     trimAll(a.Outputs),
			Schema:             actionSchema(a.Fields),
			TransformationText: strings.TrimSpace(a.Script),
			Parameters:         actionParams(a.Params),
		})
	}

	for _, tr := range wf.Transitions {
		if tr.From == "" || tr.To == "" {
			result.Warnings = append(result.Warnings, "skipped transition missing from/to")
			continue
		}
		pr.Explicit = append(pr.Explicit, model.ExplicitFlow{
			SourceName:  tr.From,
			TargetName:  tr.To,
			DatasetName: tr.Dataset,
			FlowType:    tr.Type,
		})
	}

	result.Processes = append(result.Processes, pr)
	return result, nil
}

// normalizeActionType maps workflow action vocabulary onto role hints.
func normalizeActionType(t string) string {
	switch strings.ToLower(t) {
	case "extract", "read", "source":
		return "SOURCE"
	case "load", "write", "sink":
		return "SINK"
	case "transform", "map", "filter":
		return "TRANSFORM"
	case "join", "merge":
		return "JOIN"
	case "lookup":
		return "LOOKUP"
	default:
		return t
	}
}

func actionSchema(fields []xmlField) model.Schema {
	if len(fields) == 0 {
		return nil
	}
	schema := make(model.Schema, 0, len(fields))
	for _, f := range fields {
		schema = append(schema, model.Field{
			Name:     f.Name,
			Type:     f.Type,
			Nullable: f.Nullable,
			Length:   f.Length,
		})
	}
	return schema
}

func actionParams(params []xmlParam) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for _, p := range params {
		if p.Name != "" {
			out[p.Name] = strings.TrimSpace(p.Value)
		}
	}
	return out
}

func trimAll(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
