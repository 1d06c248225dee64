// Package parser loads and saves raw tables: the .gable interchange files
// and xlsx workbooks.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/output"
)

// Ext is the extension of raw table files.
const Ext = ".gable"

// FileName returns the raw table file name "<excel>@<sheet>.gable".
func FileName(excel, sheet string) string {
	return excel + "@" + sheet + Ext
}

// SplitFileName splits "<excel>@<sheet>.gable" into its parts.
func SplitFileName(name string) (excel, sheet string, ok bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, Ext) {
		return "", "", false
	}
	base = strings.TrimSuffix(base, Ext)
	excel, sheet, ok = strings.Cut(base, "@")
	if !ok || excel == "" || sheet == "" {
		return "", "", false
	}
	return excel, sheet, true
}

// ReadRawTable loads a raw table file. The table name defaults to the
// file name without extension when the file does not carry one.
func ReadRawTable(path string) (*models.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table models.RawTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if excel, sheet, ok := SplitFileName(path); ok {
		table.SheetName = excel + "@" + sheet
	} else if table.SheetName == "" {
		table.SheetName = strings.TrimSuffix(filepath.Base(path), Ext)
	}
	return &table, nil
}

// WriteRawTable saves table as indented JSON.
func WriteRawTable(path string, table *models.RawTable) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", table.SheetName, err)
	}
	return output.WriteFile(path, data)
}

// WriteWorkbook saves every sheet of wb into dir and returns the written
// paths sorted by sheet name.
func WriteWorkbook(dir string, wb *models.Workbook) ([]string, error) {
	names := make([]string, 0, len(wb.Sheets))
	for name := range wb.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, FileName(wb.BookName, name))
		if err := WriteRawTable(path, wb.Sheets[name]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
