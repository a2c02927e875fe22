// Package structural recovers balanced delimiter-nested records from flat
// text without a full grammar. Legacy graph-definition exports are a stream
// of brace-delimited blocks with pipe-separated fields; this package finds
// the blocks, splits each into header/internal/trailer segments, and decodes
// positional parameter sections.
package structural

import (
	"fmt"
	"strings"
)

// Block is one maximal balanced span recovered from a scan.
type Block struct {
	// Text is the full span including the outer delimiters.
	Text string
	// Start is the byte offset of the opening delimiter in the input.
	Start int

	// Header is the interior text before the first nested sub-span.
	// When the block has no nested sub-span, Header is the whole interior.
	Header string
	// Internal is the first nested balanced sub-span, delimiters included.
	Internal string
	// Trailer is the interior text after the nested sub-span.
	Trailer string

	// GroupKey is the first pipe-delimited field of the header.
	GroupKey string

	// HierarchyPath is the dot-joined breadcrumb active when this block was
	// scanned. Set by ApplyBreadcrumbs, empty otherwise.
	HierarchyPath string
}

// Warning describes a non-fatal structural problem found during a scan.
type Warning struct {
	Offset  int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("offset %d: %s", w.Offset, w.Message)
}

// ScanBlocks returns the ordered sequence of maximal top-level balanced
// spans in text, using the given open/close delimiter pair. The scan is a
// single left-to-right pass with a depth counter; text between spans is
// skipped. An open delimiter left unmatched at end of input discards the
// partial span and produces a warning instead of an error, so a truncated
// export never poisons the blocks recovered before it.
//
// Delimiters inside quoted string literals are not distinguished from
// structural delimiters. The legacy formats this parser targets never quote
// braces, and existing extracted data depends on the quote-unaware scan.
func ScanBlocks(text string, open, close rune) ([]Block, []Warning) {
	var blocks []Block
	var warnings []Warning

	depth := 0
	start := -1

	for i, r := range text {
		switch r {
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				warnings = append(warnings, Warning{
					Offset:  i,
					Message: fmt.Sprintf("unmatched closing delimiter %q", close),
				})
				continue
			}
			depth--
			if depth == 0 {
				span := text[start : i+len(string(close))]
				blocks = append(blocks, newBlock(span, start, open, close))
				start = -1
			}
		}
	}

	if depth > 0 {
		warnings = append(warnings, Warning{
			Offset:  start,
			Message: fmt.Sprintf("unmatched opening delimiter %q at end of input; partial block discarded", open),
		})
	}

	return blocks, warnings
}

// newBlock builds a Block from a balanced span, splitting it into
// header/internal/trailer. Internal is the first nested balanced sub-span
// strictly inside the outer span; everything before it in the interior is
// the header, everything after it the trailer. A leaf block (no nesting)
// keeps its whole interior as the header.
func newBlock(span string, start int, open, close rune) Block {
	b := Block{Text: span, Start: start}

	interior := span[len(string(open)) : len(span)-len(string(close))]

	if rel := strings.IndexRune(interior, open); rel >= 0 {
		if inner, ok := balancedSpanAt(interior, rel, open, close); ok {
			b.Header = interior[:rel]
			b.Internal = inner
			b.Trailer = interior[rel+len(inner):]
		}
	}

	if b.Internal == "" {
		b.Header = interior
	}

	b.GroupKey = firstField(b.Header)
	return b
}

// balancedSpanAt re-runs the depth scan starting at the open delimiter at
// offset pos and returns the balanced span found there, nesting included.
func balancedSpanAt(text string, pos int, open, close rune) (string, bool) {
	depth := 0
	for i, r := range text[pos:] {
		switch r {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[pos : pos+i+len(string(close))], true
			}
		}
	}
	return "", false
}

// firstField returns the first pipe-delimited token of s, trimmed.
func firstField(s string) string {
	field, _, _ := strings.Cut(s, "|")
	return strings.TrimSpace(field)
}
