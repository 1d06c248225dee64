package sheet

import "github.com/ukaji3/gable-go/pkg/gable/models"

// Layout locates the structural parts of a shaped table. Row shapes use
// Desc..Link as row numbers; KeyValue and EnumLookup use them as column
// numbers. Zero means the part is absent.
type Layout struct {
	Desc    int
	Field   int
	Type    int
	Keyword int
	Link    int
	// Value is the value column (KeyValue, EnumLookup).
	Value int
	// Index is the declared wire-index column (KeyValue).
	Index int
	// FirstDataRow is the first row holding records.
	FirstDataRow int
}

var layouts = map[models.Shape]Layout{
	models.RowRecords:       {Desc: 1, Field: 2, Type: 3, Keyword: 4, Link: 5, FirstDataRow: 6},
	models.LocalizedRecords: {Desc: 1, Field: 2, Type: 3, FirstDataRow: 6},
	models.KeyValue:         {Desc: 6, Field: 1, Type: 2, Keyword: 3, Link: 4, Value: 5, Index: 7, FirstDataRow: 2},
	models.EnumLookup:       {Desc: 3, Field: 1, Value: 2, FirstDataRow: 2},
}

// LayoutFor returns the fixed layout of shape.
func LayoutFor(shape models.Shape) Layout {
	return layouts[shape]
}

// IsHead reports whether row belongs to the header block of the layout.
func (l Layout) IsHead(row int) bool {
	return row < l.FirstDataRow
}
