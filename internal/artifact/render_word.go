package artifact

import (
	"bytes"
	"fmt"

	"github.com/unidoc/unioffice/v2/document"
)

// renderStatusReport builds a status report document: title, metadata line,
// then one paragraph per summary line.
func renderStatusReport(input RenderInput) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePara := doc.AddParagraph()
	titlePara.SetStyle("Title")
	titlePara.AddRun().AddText(fmt.Sprintf("Status Report: %s", input.ProjectName))

	metaPara := doc.AddParagraph()
	metaPara.AddRun().AddText(fmt.Sprintf("Generated %s", input.GeneratedAt.Format("January 2, 2006")))

	headingPara := doc.AddParagraph()
	headingPara.SetStyle("Heading1")
	headingPara.AddRun().AddText("Summary")

	for _, line := range summaryLines(input.Summary) {
		doc.AddParagraph().AddRun().AddText(line)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return buf.Bytes(), nil
}
