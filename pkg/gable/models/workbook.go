package models

// Workbook groups the raw tables imported from one spreadsheet file.
type Workbook struct {
	// BookName is the workbook file name without extension.
	BookName string `json:"book_name"`
	// Sheets maps sheet name to its raw table.
	Sheets map[string]*RawTable `json:"sheets"`
}

// TableName returns the link name "<book>@<sheet>" of a sheet.
func (w Workbook) TableName(sheet string) string {
	return w.BookName + "@" + sheet
}
