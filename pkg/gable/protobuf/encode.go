package protobuf

import (
	"sort"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// tableField is the field number wrapping every encoded record.
const tableField = 1

// EncodeField appends v as field num. Values whose dynamic type does not
// match kind are encoded as the kind's default, so the field is always
// present. Arrays use unpacked repeated encoding.
func EncodeField(b []byte, num int32, kind models.Kind, v models.Value) []byte {
	if kind.IsArray() {
		return encodeArray(b, num, kind, v)
	}
	switch kind {
	case models.KindInt, models.KindTime, models.KindDate, models.KindEnum:
		n, _ := v.V.(int64)
		b = AppendTag(b, num, Varint)
		return AppendVarint(b, uint64(n))
	case models.KindBoolean:
		on, _ := v.V.(bool)
		b = AppendTag(b, num, Varint)
		if on {
			return AppendVarint(b, 1)
		}
		return AppendVarint(b, 0)
	case models.KindFloat, models.KindPercentage, models.KindPermillage, models.KindPermian:
		f, _ := v.V.(float64)
		b = AppendTag(b, num, Fixed32)
		return AppendFixed32(b, float32(f))
	case models.KindVector2, models.KindVector3, models.KindVector4:
		vec, ok := v.V.(models.Vector)
		if !ok || len(vec) != kind.Arity() {
			vec = models.Zero(kind).V.(models.Vector)
		}
		b = AppendTag(b, num, Bytes)
		return AppendString(b, vec.String())
	}
	s, _ := v.V.(string)
	b = AppendTag(b, num, Bytes)
	return AppendString(b, s)
}

func encodeArray(b []byte, num int32, kind models.Kind, v models.Value) []byte {
	elem := kind.Elem()
	switch xs := v.V.(type) {
	case []int64:
		for _, x := range xs {
			b = EncodeField(b, num, elem, models.Value{Kind: elem, V: x})
		}
	case []bool:
		for _, x := range xs {
			b = EncodeField(b, num, elem, models.Value{Kind: elem, V: x})
		}
	case []float64:
		for _, x := range xs {
			b = EncodeField(b, num, elem, models.Value{Kind: elem, V: x})
		}
	case []string:
		for _, x := range xs {
			b = EncodeField(b, num, elem, models.Value{Kind: elem, V: x})
		}
	case []models.Vector:
		for _, x := range xs {
			b = EncodeField(b, num, elem, models.Value{Kind: elem, V: x})
		}
	}
	return b
}

// EncodeRecord encodes one record as a message body, one field per
// descriptor in the given order. Values are matched to descriptors by wire
// index; missing values fall back to defaults.
func EncodeRecord(fields []models.FieldInfo, rec sheet.Record) []byte {
	var b []byte
	for _, f := range fields {
		v, ok := rec.At(f.Index)
		if !ok {
			v = models.Zero(f.Kind)
		}
		b = EncodeField(b, f.Index, f.Kind, v)
	}
	return b
}

// Encode encodes records as a table message: each record is a
// length-delimited submessage under field 1. KeyValue tables produce a
// single submessage with fields in ascending index order.
func Encode(shape models.Shape, fields []models.FieldInfo, records []sheet.Record) ([]byte, error) {
	switch shape {
	case models.EnumLookup:
		return nil, sheet.ErrEnumNotExportable
	case models.KeyValue:
		sorted := append([]models.FieldInfo(nil), fields...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
		var rec sheet.Record
		if len(records) > 0 {
			rec = records[0]
		}
		b := AppendTag(nil, tableField, Bytes)
		return AppendBytes(b, EncodeRecord(sorted, rec)), nil
	}

	var b []byte
	for _, rec := range records {
		b = AppendTag(b, tableField, Bytes)
		b = AppendBytes(b, EncodeRecord(fields, rec))
	}
	return b, nil
}
