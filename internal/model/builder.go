package model

// NormalizedUnit is the adapter-facing record for one processing node.
// Format adapters reduce whatever their source dialect looks like to this
// shape; the builder turns it into a Component.
type NormalizedUnit struct {
	Name               string
	RoleHint           string
	InputDatasets      []string
	OutputDatasets     []string
	Schema             Schema
	TransformationText string
	Parameters         map[string]string
}

// ProcessUnit describes one discovered top-level definition.
type ProcessUnit struct {
	Name       string
	System     string
	Type       string
	Parameters map[string]string
}

// Builder maps normalized units onto Process and Component instances with
// deterministic ids. A builder is scoped to one scan identifier so that the
// same definitions always produce the same process ids across runs.
type Builder struct {
	scanID string
}

// NewBuilder creates a builder for the given scan identifier (typically the
// cleaned scan root path).
func NewBuilder(scanID string) *Builder {
	return &Builder{scanID: scanID}
}

// BuildProcess creates a Process with an empty component list. Component
// ids are appended by BuildComponent in encounter order.
func (b *Builder) BuildProcess(u ProcessUnit) *Process {
	return &Process{
		ID:         ProcessIDFor(b.scanID, u.Name),
		Name:       u.Name,
		System:     u.System,
		Type:       u.Type,
		Parameters: u.Parameters,
	}
}

// BuildComponent creates an immutable Component from a normalized unit and
// appends its id to the owning process. Calling this twice with the same
// (process, unit name) yields identical ids both times; idempotence here is
// load-bearing for re-scans and incremental diffing.
func (b *Builder) BuildComponent(p *Process, u NormalizedUnit) *Component {
	c := &Component{
		ID:                 ComponentIDFor(p.ID, u.Name),
		Name:               u.Name,
		Role:               ParseRole(u.RoleHint),
		ProcessID:          p.ID,
		InputDatasets:      u.InputDatasets,
		OutputDatasets:     u.OutputDatasets,
		Schema:             u.Schema,
		TransformationText: u.TransformationText,
		Parameters:         u.Parameters,
	}
	p.ComponentIDs = append(p.ComponentIDs, c.ID)
	return c
}
