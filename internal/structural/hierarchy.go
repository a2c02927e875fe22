package structural

import "strings"

// HierarchyState threads breadcrumb accumulation through an ordered block
// sequence. Legacy graph exports have no real tree structure; the only trace
// of subgraph nesting is a positional label in each block's trailer. Folding
// this state over the blocks of one group reconstructs the nesting trail.
type HierarchyState struct {
	// Path is the dot-joined breadcrumb ("" -> "A" -> "A.B").
	Path string
	// PrevLabel is the last label that extended the path.
	PrevLabel string
}

// BreadcrumbOptions is the adapter-supplied policy for breadcrumb tracking.
type BreadcrumbOptions struct {
	// LabelField is the zero-based pipe-token offset of the parent label in
	// the block trailer. The observed graph format keeps it in the 8th token
	// (offset 7), but that is format policy, not parser policy.
	LabelField int
	// Exclude lists labels that never extend the path (e.g. the root graph
	// name itself, or engine-generated wrapper labels).
	Exclude map[string]struct{}
}

// ApplyBreadcrumbs annotates blocks with the running hierarchy path. The
// fold is stateful across the whole sequence: a label extends the path on
// the block where it first appears and stays attached to every following
// block until the label changes again. Blocks must be in original scan
// order; the caller groups them by GroupKey first.
func ApplyBreadcrumbs(blocks []Block, opts BreadcrumbOptions) []Block {
	out := make([]Block, len(blocks))
	st := HierarchyState{}
	for i, b := range blocks {
		st = st.Advance(pipeField(b.Trailer, opts.LabelField), opts.Exclude)
		b.HierarchyPath = st.Path
		out[i] = b
	}
	return out
}

// Advance returns the state after observing one parent label. Empty labels,
// excluded labels, and repeats of the previous label leave the state
// unchanged; anything else is appended to the dot-joined path.
func (s HierarchyState) Advance(label string, exclude map[string]struct{}) HierarchyState {
	if label == "" || label == s.PrevLabel {
		return s
	}
	if _, skip := exclude[label]; skip {
		return s
	}
	path := label
	if s.Path != "" {
		path = s.Path + "." + label
	}
	return HierarchyState{Path: path, PrevLabel: label}
}

// pipeField returns the idx-th pipe-delimited token of s, trimmed, or ""
// when s has fewer tokens.
func pipeField(s string, idx int) string {
	if idx < 0 {
		return ""
	}
	fields := strings.Split(s, "|")
	if idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}
