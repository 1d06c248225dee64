package output

import (
	"bytes"
	"encoding/csv"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// CSV renders one header-less line per record, fields in declaration order.
// A key-value record is written as one "name,type,value" line per field.
func CSV(shape models.Shape, records []sheet.Record) ([]byte, error) {
	if err := check(shape, records); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if shape == models.KeyValue {
		for _, fv := range records[0] {
			if err := w.Write([]string{fv.Field.Name, fv.Field.Kind.String(), fv.Value.String()}); err != nil {
				return nil, err
			}
		}
	} else {
		for _, r := range records {
			line := make([]string, len(r))
			for i, fv := range r {
				line[i] = fv.Value.String()
			}
			if err := w.Write(line); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
