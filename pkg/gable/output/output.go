// Package output renders projected records as JSON, CSV, XML and YAML.
// Writers are stateless and safe for concurrent use.
package output

import (
	"errors"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// ErrEnumNotExportable indicates an enum lookup table was passed to a writer.
var ErrEnumNotExportable = sheet.ErrEnumNotExportable

// ErrNoRecords indicates a row-shaped table produced no records.
var ErrNoRecords = errors.New("no records to export")

// check rejects enum tables and empty record sets.
func check(shape models.Shape, records []sheet.Record) error {
	if shape == models.EnumLookup {
		return ErrEnumNotExportable
	}
	if len(records) == 0 {
		return ErrNoRecords
	}
	return nil
}
