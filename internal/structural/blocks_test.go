package structural

import (
	"fmt"
	"strings"
	"testing"
)

func TestScanBlocks_SingleLeaf(t *testing.T) {
	blocks, warnings := ScanBlocks("{1|NODE|read_orders|}", '{', '}')

	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "{1|NODE|read_orders|}" {
		t.Errorf("unexpected span text: %q", blocks[0].Text)
	}
	if blocks[0].Header != "1|NODE|read_orders|" {
		t.Errorf("leaf header should be the whole interior, got %q", blocks[0].Header)
	}
	if blocks[0].Internal != "" || blocks[0].Trailer != "" {
		t.Errorf("leaf block should have empty internal/trailer, got %q / %q", blocks[0].Internal, blocks[0].Trailer)
	}
	if blocks[0].GroupKey != "1" {
		t.Errorf("expected group key %q, got %q", "1", blocks[0].GroupKey)
	}
}

func TestScanBlocks_SkipsInterstitialText(t *testing.T) {
	text := "prologue {1|A|} noise \n {1|B|} epilogue"
	blocks, warnings := ScanBlocks(text, '{', '}')

	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "{1|A|}" || blocks[1].Text != "{1|B|}" {
		t.Errorf("unexpected spans: %q, %q", blocks[0].Text, blocks[1].Text)
	}
}

// Structural round-trip: N generated balanced blocks with arbitrary
// non-delimiter text between them come back as exactly N spans.
func TestScanBlocks_RoundTrip(t *testing.T) {
	var sb strings.Builder
	var want []string
	for i := 0; i < 25; i++ {
		block := fmt.Sprintf("{%d|K|n%d|{%d|inner|}|tail}", i%4, i, i)
		if i%3 == 0 {
			block = fmt.Sprintf("{%d|K|leaf%d|}", i%4, i)
		}
		want = append(want, block)
		sb.WriteString("junk |pipe| text without delimiters\n")
		sb.WriteString(block)
		sb.WriteString("  trailing, commentary; 123\n")
	}

	blocks, warnings := ScanBlocks(sb.String(), '{', '}')
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, b := range blocks {
		if strings.TrimSpace(b.Text) != want[i] {
			t.Errorf("block %d: expected %q, got %q", i, want[i], b.Text)
		}
	}
}

func TestScanBlocks_UnmatchedOpenDiscardsPartial(t *testing.T) {
	blocks, warnings := ScanBlocks("{1|A|} {1|B|} {1|truncated", '{', '}')

	if len(blocks) != 2 {
		t.Fatalf("expected 2 complete blocks, got %d", len(blocks))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if !strings.Contains(warnings[0].Message, "unmatched opening delimiter") {
		t.Errorf("unexpected warning: %s", warnings[0].Message)
	}
	for _, b := range blocks {
		if strings.Contains(b.Text, "truncated") {
			t.Errorf("partial span leaked into output: %q", b.Text)
		}
	}
}

func TestScanBlocks_UnmatchedCloseWarns(t *testing.T) {
	blocks, warnings := ScanBlocks("} {1|A|}", '{', '}')

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
}

func TestSplit_HeaderInternalTrailer(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		header   string
		internal string
		trailer  string
	}{
		{
			name:     "nested block in the middle",
			text:     "{1|G|{2|X|}|end}",
			header:   "1|G|",
			internal: "{2|X|}",
			trailer:  "|end",
		},
		{
			name:     "deeply nested internal kept whole",
			text:     "{1|G|{2|X|{3|Y|}|t}|end}",
			header:   "1|G|",
			internal: "{2|X|{3|Y|}|t}",
			trailer:  "|end",
		},
		{
			name:     "nested block at end",
			text:     "{1|G|fields|{2|X|}}",
			header:   "1|G|fields|",
			internal: "{2|X|}",
			trailer:  "",
		},
		{
			name:   "leaf block",
			text:   "{1|G|fields|}",
			header: "1|G|fields|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, warnings := ScanBlocks(tt.text, '{', '}')
			if len(warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", warnings)
			}
			if len(blocks) != 1 {
				t.Fatalf("expected 1 block, got %d", len(blocks))
			}
			b := blocks[0]
			if b.Header != tt.header {
				t.Errorf("header: expected %q, got %q", tt.header, b.Header)
			}
			if b.Internal != tt.internal {
				t.Errorf("internal: expected %q, got %q", tt.internal, b.Internal)
			}
			if b.Trailer != tt.trailer {
				t.Errorf("trailer: expected %q, got %q", tt.trailer, b.Trailer)
			}
		})
	}
}

func TestScanBlocks_AlternateDelimiters(t *testing.T) {
	blocks, warnings := ScanBlocks("<1|A|<2|B|>|t> rest <1|C|>", '<', '>')
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Internal != "<2|B|>" {
		t.Errorf("unexpected internal: %q", blocks[0].Internal)
	}
}
