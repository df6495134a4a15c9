package export

import (
	"bytes"
	"fmt"

	"gofinemap/domain/susie"

	"github.com/xuri/excelize/v2"
)

// pipSheet and csSheet name the two tabs of an exported workbook
const (
	pipSheet = "PIP"
	csSheet  = "Credible Sets"
)

// FitWorkbook renders a summarized fit into a spreadsheet: one sheet of
// per-variable inclusion probabilities, one sheet of credible sets.
func FitWorkbook(result *susie.FitResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	// First sheet: marginal PIP per variable.
	if err := f.SetSheetName("Sheet1", pipSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	f.SetCellValue(pipSheet, "A1", "variable")
	f.SetCellValue(pipSheet, "B1", "pip")
	for i, pip := range result.PIP {
		row := i + 2
		f.SetCellValue(pipSheet, fmt.Sprintf("A%d", row), i)
		f.SetCellValue(pipSheet, fmt.Sprintf("B%d", row), pip)
	}

	// Second sheet: credible sets with coverage and purity.
	if _, err := f.NewSheet(csSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	headers := []string{"set", "layer", "size", "coverage", "purity", "variables"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(csSheet, cell, h)
	}
	for i, cs := range result.CredibleSets {
		row := i + 2
		values := []interface{}{
			i + 1, cs.Layer, len(cs.Variables), cs.Coverage, cs.Purity,
			fmt.Sprintf("%v", cs.Variables),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(csSheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
