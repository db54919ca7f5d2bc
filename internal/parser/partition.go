package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/unidoc/unioffice/v2/document"
	"github.com/xuri/excelize/v2"
)

// partition splits raw file content into ordered structural elements using a
// content-type aware extractor. The declared MIME type wins; when it is
// missing or generic the type is sniffed from the content itself.
func partition(content []byte, filename, mimeType string) ([]Element, error) {
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(content).String()
	}
	// Strip parameters such as "; charset=utf-8".
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	switch {
	case mimeType == "application/pdf":
		return partitionPDF(content)
	case strings.Contains(mimeType, "wordprocessingml"):
		return partitionDocx(content)
	case strings.Contains(mimeType, "spreadsheetml"):
		return partitionXlsx(content)
	case mimeType == "text/html":
		return partitionHTML(content)
	case strings.HasPrefix(mimeType, "text/"), mimeType == "application/json":
		return partitionText(string(content)), nil
	default:
		return nil, fmt.Errorf("unsupported content type %q for file %q", mimeType, filename)
	}
}

// partitionText splits plain text or Markdown into elements. Markdown
// headings and short heading-like lines open sections; blank-line separated
// blocks become body elements.
func partitionText(content string) []Element {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var elements []Element
	var block strings.Builder

	flush := func() {
		text := strings.TrimSpace(block.String())
		block.Reset()
		if text != "" {
			elements = append(elements, body(text))
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if heading, ok := markdownHeading(trimmed); ok {
			flush()
			elements = append(elements, title(heading))
			continue
		}
		if block.Len() == 0 && looksLikeTitle(trimmed) {
			elements = append(elements, title(trimmed))
			continue
		}
		if block.Len() > 0 {
			block.WriteByte('\n')
		}
		block.WriteString(line)
	}
	flush()

	return elements
}

// markdownHeading reports whether a line is a Markdown ATX heading and
// returns its text with the marker stripped.
func markdownHeading(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	rest := strings.TrimLeft(line, "#")
	if rest == line || (rest != "" && !strings.HasPrefix(rest, " ")) {
		return "", false
	}
	text := strings.TrimSpace(rest)
	if text == "" {
		return "", false
	}
	return text, true
}

const maxTitleChars = 80

// looksLikeTitle applies the heuristics for unmarked headings: short
// standalone lines that do not end like a sentence.
func looksLikeTitle(line string) bool {
	if len(line) > maxTitleChars {
		return false
	}
	last, _ := lastRune(line)
	if last == '.' || last == ',' || last == ';' || last == ':' {
		return false
	}
	// Require at least one letter so separators and numbers stay body text.
	for _, r := range line {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func lastRune(s string) (rune, bool) {
	var last rune
	found := false
	for _, r := range s {
		last = r
		found = true
	}
	return last, found
}

// partitionPDF extracts the plain text of every page and partitions it with
// the text heuristics.
func partitionPDF(content []byte) ([]Element, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("failed to read pdf text: %w", err)
	}

	return partitionText(buf.String()), nil
}

// partitionDocx walks the paragraphs of a Word document. Paragraphs styled
// as headings or titles open sections; everything else is body text.
func partitionDocx(content []byte) ([]Element, error) {
	doc, err := document.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	defer doc.Close()

	var elements []Element
	for _, p := range doc.Paragraphs() {
		var sb strings.Builder
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		if isHeadingStyle(paragraphStyle(p)) {
			elements = append(elements, title(text))
		} else {
			elements = append(elements, body(text))
		}
	}
	return elements, nil
}

func paragraphStyle(p document.Paragraph) string {
	ppr := p.X().PPr
	if ppr == nil || ppr.PStyle == nil {
		return ""
	}
	return ppr.PStyle.ValAttr
}

func isHeadingStyle(style string) bool {
	style = strings.ToLower(style)
	return strings.Contains(style, "heading") || strings.Contains(style, "title")
}

// partitionXlsx turns each sheet into a section: the sheet name is the
// title and each row becomes one line of body text.
func partitionXlsx(content []byte) ([]Element, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	var elements []Element
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}

		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		elements = append(elements, title(sheetName))
		elements = append(elements, body(strings.Join(lines, "\n")))
	}
	return elements, nil
}

// partitionHTML converts markup to Markdown first, then reuses the text
// heuristics so HTML headings become section titles.
func partitionHTML(content []byte) ([]Element, error) {
	markdown, err := htmltomarkdown.ConvertString(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to convert html: %w", err)
	}
	return partitionText(markdown), nil
}
