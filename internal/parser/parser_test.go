package parser

import (
	"strings"
	"testing"

	"github.com/mars-analytics/rag-platform/pkg/logger"
)

func testParser() *Parser {
	return New(logger.New("parser-test", "", ""))
}

func TestPartitionTextMarkdownHeadings(t *testing.T) {
	content := "# Intro\n\nSome opening words.\n\n## Details\n\nMore text here."
	elements := partitionText(content)

	if len(elements) != 4 {
		t.Fatalf("got %d elements, want 4: %+v", len(elements), elements)
	}
	if !elements[0].Title || elements[0].Text != "Intro" {
		t.Errorf("first element = %+v, want title \"Intro\"", elements[0])
	}
	if elements[1].Title || elements[1].Text != "Some opening words." {
		t.Errorf("second element = %+v, want body", elements[1])
	}
	if !elements[2].Title || elements[2].Text != "Details" {
		t.Errorf("third element = %+v, want title \"Details\"", elements[2])
	}
}

func TestPartitionTextShortLineHeuristic(t *testing.T) {
	content := "Quarterly Report\n\nRevenue was flat against the prior quarter."
	elements := partitionText(content)

	if len(elements) != 2 {
		t.Fatalf("got %d elements, want 2: %+v", len(elements), elements)
	}
	if !elements[0].Title {
		t.Errorf("short standalone line not treated as title: %+v", elements[0])
	}
	if elements[1].Title {
		t.Errorf("sentence treated as title: %+v", elements[1])
	}
}

func TestPartitionTextSentenceNotTitle(t *testing.T) {
	elements := partitionText("This line ends with a period.\n\nAnd more text.")
	for _, e := range elements {
		if e.Title {
			t.Errorf("line ending in period classified as title: %+v", e)
		}
	}
}

func TestChunkMergesSmallSectionsIntoOneChunk(t *testing.T) {
	// Two titled sections whose combined body text is below the merge
	// threshold must end up in a single chunk.
	elements := []Element{
		title("Intro"),
		body("Short intro."),
		title("Details"),
		body("Short details."),
	}
	chunks := chunk(elements)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %#v", len(chunks), chunks)
	}
	for _, want := range []string{"Intro", "Short intro.", "Details", "Short details."} {
		if !strings.Contains(chunks[0], want) {
			t.Errorf("merged chunk missing %q: %q", want, chunks[0])
		}
	}
}

func TestChunkKeepsLargeSectionsApart(t *testing.T) {
	long := strings.Repeat("word ", 120) // well above combineUnderChars
	elements := []Element{
		title("First"),
		body(long),
		title("Second"),
		body(long),
	}
	chunks := chunk(elements)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !strings.Contains(chunks[0], "First") || strings.Contains(chunks[0], "Second") {
		t.Errorf("section boundary not respected: %q", chunks[0][:60])
	}
}

func TestChunkRespectsMaxLength(t *testing.T) {
	var elements []Element
	elements = append(elements, title("Big Section"))
	for i := 0; i < 10; i++ {
		elements = append(elements, body(strings.Repeat("x", 400)))
	}
	chunks := chunk(elements)
	if len(chunks) < 2 {
		t.Fatalf("oversized section not split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > maxChunkChars {
			t.Errorf("chunk %d has %d chars, exceeds %d", i, len(c), maxChunkChars)
		}
	}
}

func TestChunkHardSplitsOversizedElement(t *testing.T) {
	huge := strings.Repeat("y", 3*maxChunkChars)
	chunks := chunk([]Element{body(huge)})
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks for a %d-char element", len(chunks), len(huge))
	}
	for i, c := range chunks {
		if len(c) > maxChunkChars {
			t.Errorf("chunk %d has %d chars, exceeds %d", i, len(c), maxChunkChars)
		}
	}
}

func TestChunkEmptyInput(t *testing.T) {
	if got := chunk(nil); got != nil {
		t.Errorf("chunk(nil) = %#v, want nil", got)
	}
}

func TestParseAndChunkPlainText(t *testing.T) {
	p := testParser()
	content := []byte("# Report\n\n" + strings.Repeat("Findings from the field survey. ", 40))
	chunks := p.ParseAndChunk(content, "report.md", "text/markdown")
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk from markdown content")
	}
	if !strings.Contains(chunks[0], "Report") {
		t.Errorf("title missing from first chunk: %q", chunks[0])
	}
}

func TestParseAndChunkUnsupportedType(t *testing.T) {
	p := testParser()
	chunks := p.ParseAndChunk([]byte{0x00, 0x01, 0x02}, "blob.bin", "application/x-custom")
	if len(chunks) != 0 {
		t.Errorf("unsupported type produced %d chunks, want 0", len(chunks))
	}
}

func TestParseAndChunkSniffsMissingMime(t *testing.T) {
	p := testParser()
	chunks := p.ParseAndChunk([]byte("Notes\n\nPlain text with no declared type at all, long enough to matter."), "notes", "")
	if len(chunks) == 0 {
		t.Error("sniffed plain text produced no chunks")
	}
}

func TestPartitionHTML(t *testing.T) {
	html := "<html><body><h1>Overview</h1><p>Body paragraph content.</p></body></html>"
	elements, err := partitionHTML([]byte(html))
	if err != nil {
		t.Fatalf("partitionHTML: %v", err)
	}
	foundTitle := false
	for _, e := range elements {
		if e.Title && strings.Contains(e.Text, "Overview") {
			foundTitle = true
		}
	}
	if !foundTitle {
		t.Errorf("h1 not recognized as title: %+v", elements)
	}
}
