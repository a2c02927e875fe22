package structural

import (
	"strings"
	"unicode"
)

// Parameter is one decoded entry from a labeled parameter section.
// The legacy convention is positional: {index|type|!name|value|...}.
type Parameter struct {
	Index string
	Type  string
	Name  string
	Value string
}

// DecodeParameters extracts the delimited region following the marker token
// (e.g. "!fparameters") and decodes one Parameter per nested sub-span.
// The name token keeps its position regardless of a leading marker character
// such as '!'; a missing value field decodes as the empty string. An absent
// parameter section yields an empty list, never a failure.
func DecodeParameters(text, marker string, open, close rune) []Parameter {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return nil
	}

	region, _ := ScanBlocks(text[idx+len(marker):], open, close)
	if len(region) == 0 {
		return nil
	}

	interior := region[0].Text
	interior = interior[len(string(open)) : len(interior)-len(string(close))]

	spans, _ := ScanBlocks(interior, open, close)
	params := make([]Parameter, 0, len(spans))
	for _, span := range spans {
		params = append(params, decodeParameter(span, open, close))
	}
	return params
}

func decodeParameter(span Block, open, close rune) Parameter {
	interior := span.Text[len(string(open)) : len(span.Text)-len(string(close))]
	fields := strings.Split(interior, "|")

	var p Parameter
	p.Index = fieldAt(fields, 0)
	p.Type = fieldAt(fields, 1)
	p.Name = stripMarker(fieldAt(fields, 2))
	p.Value = fieldAt(fields, 3)
	return p
}

func fieldAt(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

// stripMarker drops a single leading marker character ('!', '@', ...) from
// a name token.
func stripMarker(name string) string {
	if name == "" {
		return name
	}
	r := rune(name[0])
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
		return name[1:]
	}
	return name
}
