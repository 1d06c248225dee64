package output

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// object marshals a record as a JSON object in field order.
type object sheet.Record

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fv := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fv.Field.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON renders row records as an array of objects and a key-value record
// as a single object, indented by two spaces.
func JSON(shape models.Shape, records []sheet.Record) ([]byte, error) {
	if err := check(shape, records); err != nil {
		return nil, err
	}
	var v any
	if shape == models.KeyValue {
		v = object(records[0])
	} else {
		objs := make([]object, len(records))
		for i, r := range records {
			objs[i] = object(r)
		}
		v = objs
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
