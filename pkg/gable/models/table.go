package models

import "github.com/goccy/go-json"

// RawTable is the imported, shape-agnostic cell grid of one sheet.
// Rows and columns are 1-based and may be sparse.
type RawTable struct {
	// SheetName is the table name, usually "<excel>@<sheet>".
	SheetName string `json:"sheet_name"`
	// MaxRow is the last used row.
	MaxRow int `json:"max_row"`
	// MaxColumn is the last used column.
	MaxColumn int `json:"max_column"`
	// Heads holds the header rows (row -> column -> cell).
	Heads map[int]map[int]Cell `json:"heads"`
	// Cells holds the data rows (row -> column -> cell).
	Cells map[int]map[int]Cell `json:"cells"`
}

// NewRawTable returns an empty table with allocated grids.
func NewRawTable(name string) *RawTable {
	return &RawTable{
		SheetName: name,
		Heads:     make(map[int]map[int]Cell),
		Cells:     make(map[int]map[int]Cell),
	}
}

// Cell returns the cell at (row, col), looking at header rows first.
func (t *RawTable) Cell(row, col int) (Cell, bool) {
	if c, ok := t.Heads[row][col]; ok {
		return c, true
	}
	c, ok := t.Cells[row][col]
	return c, ok
}

// Value returns the raw text at (row, col), or "" when absent.
func (t *RawTable) Value(row, col int) string {
	c, _ := t.Cell(row, col)
	return c.Value
}

// Put stores c in the header grid when head is true, otherwise in the data
// grid. Empty cells are dropped and the bounds grow to cover c.
func (t *RawTable) Put(c Cell, head bool) {
	if c.IsEmpty() {
		return
	}
	grid := t.Cells
	if head {
		grid = t.Heads
	}
	if grid == nil {
		grid = make(map[int]map[int]Cell)
		if head {
			t.Heads = grid
		} else {
			t.Cells = grid
		}
	}
	row, ok := grid[c.Row]
	if !ok {
		row = make(map[int]Cell)
		grid[c.Row] = row
	}
	row[c.Column] = c
	if c.Row > t.MaxRow {
		t.MaxRow = c.Row
	}
	if c.Column > t.MaxColumn {
		t.MaxColumn = c.Column
	}
}

// UnmarshalJSON also accepts the legacy "sheetname" key.
func (t *RawTable) UnmarshalJSON(data []byte) error {
	var raw struct {
		SheetName string               `json:"sheet_name"`
		Legacy    string               `json:"sheetname"`
		MaxRow    int                  `json:"max_row"`
		MaxColumn int                  `json:"max_column"`
		Heads     map[int]map[int]Cell `json:"heads"`
		Cells     map[int]map[int]Cell `json:"cells"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = RawTable{
		SheetName: raw.SheetName,
		MaxRow:    raw.MaxRow,
		MaxColumn: raw.MaxColumn,
		Heads:     raw.Heads,
		Cells:     raw.Cells,
	}
	if t.SheetName == "" {
		t.SheetName = raw.Legacy
	}
	if t.Heads == nil {
		t.Heads = make(map[int]map[int]Cell)
	}
	if t.Cells == nil {
		t.Cells = make(map[int]map[int]Cell)
	}
	return nil
}
