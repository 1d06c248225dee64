package parser

// findDataBounds returns the zero-based index of the last row and column
// holding a non-empty value, or -1 for an empty sheet.
func findDataBounds(rows [][]string) (maxRow, maxCol int) {
	maxRow, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell != "" {
				if rowIdx > maxRow {
					maxRow = rowIdx
				}
				if colIdx > maxCol {
					maxCol = colIdx
				}
			}
		}
	}

	return
}
