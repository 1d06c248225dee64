// Package sheet interprets raw tables under one of the fixed shapes and
// resolves their fields and typed records.
package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tiendc/go-deepcopy"

	"github.com/ukaji3/gable-go/pkg/gable/models"
)

// ErrNoFields indicates a table has no exportable fields for a keyword.
var ErrNoFields = errors.New("no exportable fields")

// ErrEnumNotExportable indicates an enum lookup table was passed to a writer.
var ErrEnumNotExportable = errors.New("enum tables are not exportable")

// ErrDuplicateField indicates two exported fields share a name once the key
// marker is stripped.
var ErrDuplicateField = errors.New("duplicate field name")

// maxFieldNumber is the largest protobuf field number.
const maxFieldNumber = 1<<29 - 1

// Sheet is a raw table interpreted under a fixed shape. It owns a private
// copy of the raw table and is read-only after construction.
type Sheet struct {
	// Link is the full table name, "<excel>@<sheet>".
	Link string
	// Name is the sheet part of Link, used for output file names.
	Name   string
	Shape  models.Shape
	Layout Layout

	table *models.RawTable
}

// Column is a resolved header column of a row-shaped table.
type Column struct {
	// Column is the 1-based column number.
	Column      int
	Name        string
	IsKey       bool
	Kind        models.Kind
	TypeKey     string
	Description string
	Keyword     string
	Link        string
}

// New wraps a deep copy of raw under shape.
func New(shape models.Shape, raw *models.RawTable) (*Sheet, error) {
	if raw == nil {
		return nil, errors.New("nil raw table")
	}
	var table models.RawTable
	if err := deepcopy.Copy(&table, raw); err != nil {
		return nil, fmt.Errorf("copy raw table %q: %w", raw.SheetName, err)
	}
	return &Sheet{
		Link:   table.SheetName,
		Name:   TableName(table.SheetName),
		Shape:  shape,
		Layout: LayoutFor(shape),
		table:  &table,
	}, nil
}

// TableName returns the sheet part of a "<excel>@<sheet>" link.
func TableName(link string) string {
	if i := strings.LastIndex(link, "@"); i >= 0 {
		return link[i+1:]
	}
	return link
}

// MaxRow returns the last used row.
func (s *Sheet) MaxRow() int { return s.table.MaxRow }

// MaxColumn returns the last used column.
func (s *Sheet) MaxColumn() int { return s.table.MaxColumn }

// Cell returns the cell at (row, col).
func (s *Sheet) Cell(row, col int) (models.Cell, bool) {
	return s.table.Cell(row, col)
}

func (s *Sheet) value(row, col int) string {
	if col == 0 {
		return ""
	}
	return strings.TrimSpace(s.table.Value(row, col))
}

func (s *Sheet) lawful(row, col int) bool {
	if col == 0 {
		return false
	}
	c, ok := s.table.Cell(row, col)
	return ok && c.Lawful()
}

// ResolveHeaders returns the key and other columns exportable for keyword,
// in left-to-right order. Both are empty when either partition is empty.
// Only row shapes have headers.
func (s *Sheet) ResolveHeaders(keyword string) (keys, others []Column) {
	if s.Shape != models.RowRecords && s.Shape != models.LocalizedRecords {
		return nil, nil
	}
	l := s.Layout
	for col := 1; col <= s.table.MaxColumn; col++ {
		if !s.lawful(l.Field, col) || !s.lawful(l.Type, col) {
			continue
		}
		c := Column{
			Column:      col,
			TypeKey:     s.value(l.Type, col),
			Description: s.value(l.Desc, col),
		}
		name := s.value(l.Field, col)
		c.IsKey = strings.HasPrefix(name, "*")
		c.Name = strings.TrimLeft(name, "*")
		c.Kind = models.ParseKind(c.TypeKey)

		if s.Shape == models.RowRecords {
			kw, ok := s.table.Cell(l.Keyword, col)
			if !ok && keyword != "" {
				continue
			}
			if ok && !strings.Contains(kw.Value, keyword) {
				continue
			}
			c.Keyword = kw.Value
			c.Link = s.value(l.Link, col)
		} else if c.Kind != models.KindLoc {
			c.Kind = models.KindString
		}

		if c.IsKey {
			keys = append(keys, c)
		} else {
			others = append(others, c)
		}
	}
	if len(keys) == 0 || len(others) == 0 {
		return nil, nil
	}
	return keys, others
}

// Fields returns the field descriptors exportable for keyword. Row shapes
// get sequential indexes, key fields first. KeyValue fields carry their
// declared index. EnumLookup tables have no fields.
func (s *Sheet) Fields(keyword string) ([]models.FieldInfo, error) {
	switch s.Shape {
	case models.RowRecords, models.LocalizedRecords:
		columns, err := s.columns(keyword)
		if err != nil {
			return nil, err
		}
		fields := make([]models.FieldInfo, 0, len(columns))
		for i, c := range columns {
			fields = append(fields, c.field(int32(i+1)))
		}
		return fields, nil
	case models.KeyValue:
		rows, err := s.kvRows(keyword)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrNoFields
		}
		fields := make([]models.FieldInfo, len(rows))
		for i, r := range rows {
			fields[i] = r.field
		}
		return fields, nil
	}
	return nil, nil
}

// columns returns the exported columns for keyword, keys first. Column
// names must be unique.
func (s *Sheet) columns(keyword string) ([]Column, error) {
	keys, others := s.ResolveHeaders(keyword)
	if len(keys) == 0 {
		return nil, ErrNoFields
	}
	columns := append(append([]Column{}, keys...), others...)
	seen := make(map[string]int, len(columns))
	for _, c := range columns {
		if prev, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%s: %w %q in columns %d and %d", s.Link, ErrDuplicateField, c.Name, prev, c.Column)
		}
		seen[c.Name] = c.Column
	}
	return columns, nil
}

func (c Column) field(index int32) models.FieldInfo {
	return models.FieldInfo{
		IsKey:       c.IsKey,
		Name:        c.Name,
		Kind:        c.Kind,
		Description: c.Description,
		Link:        c.Link,
		Index:       index,
	}
}

// kvRow is a valid key-value row with its resolved field.
type kvRow struct {
	row   int
	field models.FieldInfo
}

func (s *Sheet) kvRows(keyword string) ([]kvRow, error) {
	l := s.Layout
	var rows []kvRow
	seen := make(map[int32]int)
	names := make(map[string]int)
	for row := l.FirstDataRow; row <= s.table.MaxRow; row++ {
		if !s.lawful(row, l.Field) || !s.lawful(row, l.Type) || !s.lawful(row, l.Keyword) {
			continue
		}
		if !strings.Contains(s.table.Value(row, l.Keyword), keyword) {
			continue
		}
		index := int64(row - l.FirstDataRow + 1)
		if n, err := strconv.ParseInt(s.value(row, l.Index), 10, 64); err == nil {
			index = n
		}
		if index < 1 || index > maxFieldNumber {
			return nil, fmt.Errorf("%s row %d: index %d out of range", s.Link, row, index)
		}
		if prev, ok := seen[int32(index)]; ok {
			return nil, fmt.Errorf("%s row %d: index %d already used by row %d", s.Link, row, index, prev)
		}
		seen[int32(index)] = row

		name := strings.TrimLeft(s.value(row, l.Field), "*")
		if prev, ok := names[name]; ok {
			return nil, fmt.Errorf("%s row %d: %w %q already used by row %d", s.Link, row, ErrDuplicateField, name, prev)
		}
		names[name] = row

		typeKey := s.value(row, l.Type)
		rows = append(rows, kvRow{
			row: row,
			field: models.FieldInfo{
				Name:        name,
				Kind:        models.ParseKind(typeKey),
				Description: s.value(row, l.Desc),
				Link:        s.value(row, l.Link),
				Index:       int32(index),
			},
		})
	}
	return rows, nil
}

// RowValid reports whether every key column has a value in row.
func (s *Sheet) RowValid(row int, keys []Column) bool {
	for _, k := range keys {
		if s.value(row, k.Column) == "" {
			return false
		}
	}
	return true
}
