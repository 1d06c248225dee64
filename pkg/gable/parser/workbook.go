package parser

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

const secondsPerDay = 86400

// ReadWorkbook imports every sheet of an xlsx file as a raw table laid out
// for shape. Table names are "<book>@<sheet>". Time and date serials are
// converted to seconds, permillage and permian numbers to fractions, and
// enum descriptions to their values when lk can resolve the link.
func ReadWorkbook(path string, shape models.Shape, lk *sheet.Lookup) (*models.Workbook, error) {
	if !IsWorkbook(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotWorkbook)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb := &models.Workbook{
		BookName: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Sheets:   make(map[string]*models.RawTable),
	}
	for _, name := range f.GetSheetList() {
		table, err := ReadSheet(f, name, shape, lk)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		table.SheetName = wb.TableName(name)
		wb.Sheets[name] = table
	}
	return wb, nil
}

// ReadSheet imports one sheet of an open workbook.
func ReadSheet(f *excelize.File, name string, shape models.Shape, lk *sheet.Lookup) (*models.RawTable, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	table := models.NewRawTable(name)
	maxRow, maxCol := findDataBounds(rows)
	if maxRow < 0 {
		return table, nil
	}
	table.MaxRow, table.MaxColumn = maxRow+1, maxCol+1

	r := &sheetReader{
		f:      f,
		name:   name,
		shape:  shape,
		layout: sheet.LayoutFor(shape),
		rows:   rows,
		lk:     lk,
		styles: make(map[int]*excelize.Style),
	}
	for rowIdx, row := range rows {
		rowNum := rowIdx + 1 // 1-based row index
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			colNum := colIdx + 1
			c := models.Cell{
				Row:    rowNum,
				Column: colNum,
				Value:  norm.NFC.String(r.convert(rowNum, colNum, value)),
			}
			c.BgFill, c.FontFill = r.fills(rowNum, colNum)
			table.Put(c, r.layout.IsHead(rowNum))
		}
	}
	return table, nil
}

type sheetReader struct {
	f      *excelize.File
	name   string
	shape  models.Shape
	layout sheet.Layout
	rows   [][]string
	lk     *sheet.Lookup
	styles map[int]*excelize.Style
}

func (r *sheetReader) at(row, col int) string {
	if row < 1 || col < 1 || row > len(r.rows) || col > len(r.rows[row-1]) {
		return ""
	}
	return strings.TrimSpace(r.rows[row-1][col-1])
}

// declared returns the kind and link governing a data cell, or false for
// cells that hold no typed value.
func (r *sheetReader) declared(row, col int) (models.Kind, string, bool) {
	l := r.layout
	if l.IsHead(row) {
		return models.KindUnknown, "", false
	}
	switch r.shape {
	case models.RowRecords:
		return models.ParseKind(r.at(l.Type, col)), r.at(l.Link, col), true
	case models.KeyValue:
		if col != l.Value {
			return models.KindUnknown, "", false
		}
		return models.ParseKind(r.at(row, l.Type)), r.at(row, l.Link), true
	}
	return models.KindUnknown, "", false
}

// convert turns spreadsheet-native values into their stored form.
func (r *sheetReader) convert(row, col int, value string) string {
	kind, link, ok := r.declared(row, col)
	if !ok {
		return value
	}
	switch kind {
	case models.KindPermillage, models.KindPermian:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return strconv.FormatFloat(f/kind.Scale(), 'f', -1, 64)
		}
	case models.KindTime:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return strconv.FormatInt(int64(math.Round(f*secondsPerDay)), 10)
		}
	case models.KindDate:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return strconv.FormatInt(serialToSeconds(f), 10)
		}
	case models.KindEnum:
		if v, ok := r.enumValue(link, value); ok {
			return strconv.FormatInt(v, 10)
		}
	}
	return value
}

// serialToSeconds converts a spreadsheet date serial to seconds since
// 1899-12-31.
func serialToSeconds(serial float64) int64 {
	days := math.Floor(serial)
	fraction := serial - days
	return (int64(days)-1)*secondsPerDay + int64(math.Round(fraction*secondsPerDay))
}

// enumValue maps an enum description shown in the sheet back to its value.
func (r *sheetReader) enumValue(link, text string) (int64, bool) {
	entries, ok := r.lk.Enum(link)
	if !ok {
		return 0, false
	}
	for _, e := range entries {
		if e.Description != "" && e.Description == text {
			return e.Value, true
		}
	}
	return 0, false
}

// fills reads the background and font colors of a cell.
func (r *sheetReader) fills(row, col int) (bg, font models.FillSpec) {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	id, err := r.f.GetCellStyle(r.name, cellName)
	if err != nil || id == 0 {
		return
	}
	style, ok := r.styles[id]
	if !ok {
		style, err = r.f.GetStyle(id)
		if err != nil {
			style = nil
		}
		r.styles[id] = style
	}
	if style == nil {
		return
	}
	if style.Fill.Pattern > 0 && len(style.Fill.Color) > 0 && style.Fill.Color[0] != "" {
		bg = models.Argb(normalizeArgb(style.Fill.Color[0]))
	}
	if style.Font != nil {
		switch {
		case style.Font.Color != "":
			font = models.Argb(normalizeArgb(style.Font.Color))
		case style.Font.ColorTheme != nil:
			font = models.ThemeTint(*style.Font.ColorTheme, style.Font.ColorTint)
		}
	}
	return
}

// normalizeArgb returns an 8-digit uppercase ARGB hex string.
func normalizeArgb(s string) string {
	s = strings.ToUpper(strings.TrimPrefix(s, "#"))
	if len(s) == 6 {
		return "FF" + s
	}
	return s
}

// ErrNotWorkbook indicates a path without an xlsx extension.
var ErrNotWorkbook = errors.New("not an xlsx workbook")

// IsWorkbook reports whether path names an importable workbook. Office
// lock files ("~$name.xlsx") are rejected.
func IsWorkbook(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".xlsx") && !strings.HasPrefix(base, "~$")
}
