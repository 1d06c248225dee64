package output

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// mapping converts a record to a map so that keys are emitted sorted.
func mapping(r sheet.Record) map[string]models.Value {
	m := make(map[string]models.Value, len(r))
	for _, fv := range r {
		m[fv.Field.Name] = fv.Value
	}
	return m
}

// YAML renders records with the same structure as JSON and keys in
// lexicographic order.
func YAML(shape models.Shape, records []sheet.Record) ([]byte, error) {
	if err := check(shape, records); err != nil {
		return nil, err
	}
	var v any
	if shape == models.KeyValue {
		v = mapping(records[0])
	} else {
		maps := make([]map[string]models.Value, len(records))
		for i, r := range records {
			maps[i] = mapping(r)
		}
		v = maps
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
