package decoder

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// decodeWorkbook parses an xlsx workbook into a grid. When sheetName is empty
// the first sheet is used. Row 0 of the result is the first physical row of
// the sheet; no header detection happens at decode time.
func decodeWorkbook(data []byte, sheetName string) (Grid, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: open workbook: %v", ErrCorruptInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("%w: workbook has no sheets", ErrCorruptInput)
	}

	target := sheetName
	if target == "" {
		target = sheets[0]
	} else if !containsSheet(sheets, target) {
		return nil, "", fmt.Errorf("%w: %q", ErrSheetNotFound, target)
	}

	rows, err := f.GetRows(target)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read sheet %q: %v", ErrCorruptInput, target, err)
	}

	// excelize already returns ragged rows with trailing empty cells omitted,
	// which is exactly the Grid contract.
	grid := make(Grid, len(rows))
	for i, row := range rows {
		grid[i] = row
	}
	return grid, target, nil
}

func containsSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}
