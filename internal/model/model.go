// Package model defines the shared inventory representation: processes,
// components, schemas, and data-flow edges, with deterministic content-derived
// ids so that re-scans and concurrent partial results always converge on the
// same entities.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Process is one discovered pipeline/workflow/graph definition.
type Process struct {
	ID   string
	Name string
	// System is the source technology ("graphfile", "workflow-xml", ...).
	System string
	// Type classifies the definition (graph, workflow, notebook, pipeline).
	Type string
	// ComponentIDs lists child components in encounter order. The order is
	// informational only.
	ComponentIDs []string
	Parameters   map[string]string
}

// Component is one processing node within a Process. Immutable once built.
type Component struct {
	ID        string
	Name      string
	Role      Role
	ProcessID string

	InputDatasets  []string
	OutputDatasets []string

	Schema Schema
	// TransformationText is free text from the source definition, used only
	// as weak evidence by the role-heuristic inference pass.
	TransformationText string
	Parameters         map[string]string
}

// Role classifies a component's function. The set is closed; adapters map
// their own vocabulary onto it and anything unrecognized becomes RoleUnknown.
type Role int

const (
	RoleUnknown Role = iota
	RoleSource
	RoleSink
	RoleLookup
	RoleTransform
	RoleJoin
)

var roleNames = map[Role]string{
	RoleUnknown:   "UNKNOWN",
	RoleSource:    "SOURCE",
	RoleSink:      "SINK",
	RoleLookup:    "LOOKUP",
	RoleTransform: "TRANSFORM",
	RoleJoin:      "JOIN",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseRole resolves a role hint against the closed role set. Unrecognized
// hints map to RoleUnknown, never an error.
func ParseRole(hint string) Role {
	switch strings.ToUpper(strings.TrimSpace(hint)) {
	case "SOURCE":
		return RoleSource
	case "SINK":
		return RoleSink
	case "LOOKUP":
		return RoleLookup
	case "TRANSFORM":
		return RoleTransform
	case "JOIN":
		return RoleJoin
	default:
		return RoleUnknown
	}
}

// Field is one column/field of a dataset schema.
type Field struct {
	Name     string
	Type     string
	Nullable bool
	// Length holds length or precision when the source declares one.
	Length string
}

// Schema is an ordered field sequence. The core stores it pass-through;
// field extraction belongs to the format adapters.
type Schema []Field

// FlowType distinguishes data movement from lookup and control edges.
type FlowType int

const (
	FlowData FlowType = iota
	FlowLookup
	FlowControl
)

var flowTypeNames = map[FlowType]string{
	FlowData:    "DATA",
	FlowLookup:  "LOOKUP",
	FlowControl: "CONTROL",
}

func (t FlowType) String() string {
	if name, ok := flowTypeNames[t]; ok {
		return name
	}
	return "DATA"
}

// ParseFlowType resolves a flow-type hint; unrecognized hints default to
// FlowData.
func ParseFlowType(hint string) FlowType {
	switch strings.ToUpper(strings.TrimSpace(hint)) {
	case "LOOKUP":
		return FlowLookup
	case "CONTROL":
		return FlowControl
	default:
		return FlowData
	}
}

// Provenance records the evidence source of an inferred edge, ordered by
// descending trust.
type Provenance int

const (
	ProvenanceExplicit Provenance = iota
	ProvenanceDatasetMatch
	ProvenanceRoleHeuristic
)

var provenanceNames = map[Provenance]string{
	ProvenanceExplicit:      "EXPLICIT",
	ProvenanceDatasetMatch:  "DATASET_MATCH",
	ProvenanceRoleHeuristic: "ROLE_HEURISTIC",
}

func (p Provenance) String() string {
	if name, ok := provenanceNames[p]; ok {
		return name
	}
	return "ROLE_HEURISTIC"
}

// ParseProvenance resolves a provenance name back to its value; unrecognized
// names map to the weakest tier.
func ParseProvenance(name string) Provenance {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "EXPLICIT":
		return ProvenanceExplicit
	case "DATASET_MATCH":
		return ProvenanceDatasetMatch
	default:
		return ProvenanceRoleHeuristic
	}
}

// DataFlow is a directed lineage edge: data produced by the source component
// is consumed by the target component. Both endpoint ids always reference
// components present in the extraction run; edges with a dangling endpoint
// are dropped before they reach any output.
type DataFlow struct {
	SourceID string
	TargetID string
	// DatasetName is empty for role-heuristic edges.
	DatasetName string
	Type        FlowType
	Provenance  Provenance
}

// ExplicitFlow is a declared connection read directly from a source file by
// an adapter, still in name form. Names resolve within the owning process.
type ExplicitFlow struct {
	ProcessID   string
	SourceName  string
	TargetName  string
	DatasetName string
	FlowType    string
}

// hashID derives a stable id from its parts. The sha256 prefix keeps ids
// short enough for display while remaining collision-safe at inventory scale.
func hashID(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:8])
}

// ProcessIDFor derives the id of a process from the scan identifier and the
// process name. Pure function of its inputs: arrival order never matters.
func ProcessIDFor(scanID, name string) string {
	return hashID("process", scanID, name)
}

// ComponentIDFor derives the id of a component from its owning process id
// and the component name. Identical names under the same process always
// collide to one id; that is intentional for idempotent re-parsing and
// cross-run diffing.
func ComponentIDFor(processID, name string) string {
	return hashID("component", processID, name)
}

// StringifyParameters renders a parameter map as a deterministic
// "k=v, k=v" string, used as weak matching evidence by flow inference.
func StringifyParameters(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, ", ")
}
