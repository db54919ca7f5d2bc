package artifact

import (
	"bytes"
	"fmt"

	"github.com/unidoc/unioffice/v2/presentation"
)

// slideBudget caps how many summary lines go on one content slide.
const slideBudget = 5

// renderExecutivePitch builds a pitch deck: a title slide followed by
// content slides holding up to slideBudget summary lines each.
func renderExecutivePitch(input RenderInput) ([]byte, error) {
	ppt := presentation.New()
	defer ppt.Close()

	titleSlide := ppt.AddSlide()
	titleBox := titleSlide.AddTextBox()
	titleBox.AddParagraph().AddRun().SetText(input.ProjectName)
	titleBox.AddParagraph().AddRun().SetText(fmt.Sprintf("Executive Briefing, %s", input.GeneratedAt.Format("January 2006")))

	lines := summaryLines(input.Summary)
	for start := 0; start < len(lines); start += slideBudget {
		end := start + slideBudget
		if end > len(lines) {
			end = len(lines)
		}

		slide := ppt.AddSlide()
		box := slide.AddTextBox()
		box.AddParagraph().AddRun().SetText("Highlights")
		for _, line := range lines[start:end] {
			box.AddParagraph().AddRun().SetText(line)
		}
	}

	var buf bytes.Buffer
	if err := ppt.Save(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize presentation: %w", err)
	}
	return buf.Bytes(), nil
}
