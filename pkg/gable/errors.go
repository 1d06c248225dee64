package gable

import (
	"errors"
	"fmt"

	"github.com/ukaji3/gable-go/pkg/gable/output"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// ErrFileNotFound indicates the input file or directory does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrNoFields indicates a table has no exportable fields for the keyword.
var ErrNoFields = sheet.ErrNoFields

// ErrEnumNotExportable indicates an enum table was passed to a data writer.
var ErrEnumNotExportable = output.ErrEnumNotExportable

// ErrOutputCollision indicates tables that would write the same output files.
var ErrOutputCollision = errors.New("output name collision")

// ErrDuplicateField indicates two exported fields share a name.
var ErrDuplicateField = sheet.ErrDuplicateField

// ExportError represents a failure to export one table in one format. An
// empty Format means the table was rejected before any format ran.
type ExportError struct {
	Table  string
	Format Format
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	msg := fmt.Sprintf("export error in table %q", e.Table)
	if e.Format != "" {
		msg += fmt.Sprintf(" (%s)", e.Format)
	}
	if e.Path != "" {
		msg += " to " + e.Path
	}
	return msg + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError.
func NewExportError(table string, format Format, path string, err error) *ExportError {
	return &ExportError{
		Table:  table,
		Format: format,
		Path:   path,
		Err:    err,
	}
}
