package parser

import "strings"

const (
	// maxChunkChars bounds the character length of a produced chunk.
	maxChunkChars = 1024
	// combineUnderChars is the threshold below which an entire section is
	// merged into its neighbor instead of standing alone.
	combineUnderChars = 256
)

// section is a run of elements opened by a title (or the implicit leading
// section before the first title).
type section struct {
	elements []Element
}

func (s section) chars() int {
	total := 0
	for _, e := range s.elements {
		total += len(e.Text)
	}
	return total
}

// chunk joins ordered elements into retrievable units. Elements are grouped
// into sections at title boundaries, undersized sections are merged into the
// preceding section, and sections are then packed into chunks no longer than
// maxChunkChars. Oversized single elements are hard-split so no chunk ever
// exceeds the bound.
func chunk(elements []Element) []string {
	if len(elements) == 0 {
		return nil
	}

	sections := splitSections(elements)
	sections = mergeSmall(sections)

	var chunks []string
	for _, sec := range sections {
		chunks = append(chunks, packSection(sec)...)
	}
	return chunks
}

func splitSections(elements []Element) []section {
	var sections []section
	var current section
	for _, e := range elements {
		if e.Title && len(current.elements) > 0 {
			sections = append(sections, current)
			current = section{}
		}
		current.elements = append(current.elements, e)
	}
	if len(current.elements) > 0 {
		sections = append(sections, current)
	}
	return sections
}

// mergeSmall folds sections shorter than combineUnderChars into the section
// before them, so a title with a one-line body does not become its own chunk.
func mergeSmall(sections []section) []section {
	var merged []section
	for _, sec := range sections {
		if len(merged) > 0 && sec.chars() < combineUnderChars {
			last := &merged[len(merged)-1]
			last.elements = append(last.elements, sec.elements...)
			continue
		}
		merged = append(merged, sec)
	}
	return merged
}

// packSection accumulates a section's elements into chunks below
// maxChunkChars, starting a new chunk when the next element would overflow.
func packSection(sec section) []string {
	var chunks []string
	var parts []string
	length := 0

	flush := func() {
		if len(parts) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(parts, "\n\n"))
		parts = nil
		length = 0
	}

	for _, e := range sec.elements {
		for _, piece := range splitOversized(e.Text) {
			// Account for the joiner between accumulated parts.
			addition := len(piece)
			if len(parts) > 0 {
				addition += 2
			}
			if length+addition > maxChunkChars {
				flush()
				addition = len(piece)
			}
			parts = append(parts, piece)
			length += addition
		}
	}
	flush()
	return chunks
}

// splitOversized breaks a single element that alone exceeds maxChunkChars
// into pieces that fit, preferring line boundaries over mid-text cuts.
func splitOversized(text string) []string {
	if len(text) <= maxChunkChars {
		return []string{text}
	}

	var pieces []string
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxChunkChars {
			if sb.Len() > 0 {
				pieces = append(pieces, sb.String())
				sb.Reset()
			}
			pieces = append(pieces, line[:maxChunkChars])
			line = line[maxChunkChars:]
		}
		if sb.Len()+len(line)+1 > maxChunkChars {
			pieces = append(pieces, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		pieces = append(pieces, sb.String())
	}
	return pieces
}
