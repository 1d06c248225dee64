package gable

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ukaji3/gable-go/internal/logging"
	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/parser"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// ignoredDirs are never scanned for tables.
var ignoredDirs = map[string]bool{
	".git":    true,
	".vscode": true,
	"__Temps": true,
	"__Datas": true,
	"_log":    true,
}

// Workspace is the set of shaped tables found under a directory.
type Workspace struct {
	Root string
	// Sheets are ordered by file path.
	Sheets []*sheet.Sheet
	// Lookup resolves links between the sheets.
	Lookup *sheet.Lookup
}

// ShapeForPath returns the shape of a table file from the first component
// of its path relative to the workspace root.
func ShapeForPath(rel string) models.Shape {
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	switch first {
	case "kvs":
		return models.KeyValue
	case "enums":
		return models.EnumLookup
	case "localizes":
		return models.LocalizedRecords
	}
	return models.RowRecords
}

// LoadWorkspace reads every .gable file under dir. Unreadable or malformed
// files are logged and skipped.
func LoadWorkspace(ctx context.Context, dir string) (*Workspace, error) {
	logger := logging.FromContext(ctx)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", dir, ErrFileNotFound)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, _, ok := parser.SplitFileName(d.Name()); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	ws := &Workspace{Root: dir}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		raw, err := parser.ReadRawTable(path)
		if err != nil {
			logger.Error("failed to load table", "path", path, "error", err)
			continue
		}
		s, err := sheet.New(ShapeForPath(rel), raw)
		if err != nil {
			logger.Error("failed to load table", "path", path, "error", err)
			continue
		}
		ws.Sheets = append(ws.Sheets, s)
	}
	ws.Lookup = sheet.NewLookup(ws.Sheets...)
	logger.Debug("workspace loaded", "root", dir, "tables", len(ws.Sheets))
	return ws, nil
}

// Find returns the sheet whose link or name matches name.
func (w *Workspace) Find(name string) (*sheet.Sheet, bool) {
	return w.Lookup.Get(name)
}
