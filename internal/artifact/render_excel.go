package artifact

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// renderRiskRegister builds a one-sheet risk register workbook. Each
// non-empty summary line becomes a numbered risk row.
func renderRiskRegister(input RenderInput) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Risk Register"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []string{"Risk ID", "Description", "Project", "Logged"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	logged := input.GeneratedAt.Format("2006-01-02")
	for i, line := range summaryLines(input.Summary) {
		row := i + 2
		values := []any{fmt.Sprintf("R-%d", i+1), line, input.ProjectName, logged}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// summaryLines splits the summary into trimmed, non-empty lines, stripping
// common bullet markers.
func summaryLines(summary string) []string {
	var lines []string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		lines = []string{"No content provided."}
	}
	return lines
}
