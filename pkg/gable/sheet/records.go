package sheet

import (
	"strconv"

	"github.com/ukaji3/gable-go/pkg/gable/models"
)

// FieldValue is one projected field of a record.
type FieldValue struct {
	Field models.FieldInfo
	Value models.Value
}

// Record is an ordered list of projected fields.
type Record []FieldValue

// Get returns the value of the named field.
func (r Record) Get(name string) (models.Value, bool) {
	for _, fv := range r {
		if fv.Field.Name == name {
			return fv.Value, true
		}
	}
	return models.Value{}, false
}

// At returns the value of the field with wire index index.
func (r Record) At(index int32) (models.Value, bool) {
	for _, fv := range r {
		if fv.Field.Index == index {
			return fv.Value, true
		}
	}
	return models.Value{}, false
}

// EnumEntry is one row of an enum lookup table.
type EnumEntry struct {
	Name        string
	Value       int64
	Description string
}

// Records projects the records exportable for keyword. Row shapes yield one
// record per valid data row; KeyValue yields a single aggregate record.
//
// Projection failures are handled per policy: with SkipRow the offending
// record (or key-value field) is dropped and its *ProjectionError is
// returned in skipped; with FailTable the first failure is returned as err.
func (s *Sheet) Records(keyword string, lk *Lookup, policy ProjectionPolicy) (records []Record, skipped []error, err error) {
	switch s.Shape {
	case models.RowRecords, models.LocalizedRecords:
		return s.rowRecords(keyword, lk, policy)
	case models.KeyValue:
		return s.kvRecord(keyword, lk, policy)
	}
	return nil, nil, ErrEnumNotExportable
}

func (s *Sheet) rowRecords(keyword string, lk *Lookup, policy ProjectionPolicy) ([]Record, []error, error) {
	columns, err := s.columns(keyword)
	if err != nil {
		return nil, nil, err
	}
	var keys []Column
	for _, c := range columns {
		if c.IsKey {
			keys = append(keys, c)
		}
	}

	var (
		records []Record
		skipped []error
	)
	for row := s.Layout.FirstDataRow; row <= s.table.MaxRow; row++ {
		if !s.RowValid(row, keys) {
			continue
		}
		rec := make(Record, 0, len(columns))
		var perr error
		for i, c := range columns {
			raw := s.table.Value(row, c.Column)
			v, err := Project(c.Kind, raw, lk, c.Link)
			if err != nil {
				perr = &ProjectionError{
					Sheet:  s.Link,
					Row:    row,
					Column: c.Column,
					Field:  c.Name,
					Kind:   c.Kind,
					Value:  raw,
					Err:    err,
				}
				break
			}
			rec = append(rec, FieldValue{Field: c.field(int32(i + 1)), Value: v})
		}
		if perr != nil {
			if policy == FailTable {
				return nil, nil, perr
			}
			skipped = append(skipped, perr)
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func (s *Sheet) kvRecord(keyword string, lk *Lookup, policy ProjectionPolicy) ([]Record, []error, error) {
	rows, err := s.kvRows(keyword)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoFields
	}

	var skipped []error
	rec := make(Record, 0, len(rows))
	for _, r := range rows {
		raw := s.table.Value(r.row, s.Layout.Value)
		v, err := Project(r.field.Kind, raw, lk, r.field.Link)
		if err != nil {
			perr := &ProjectionError{
				Sheet:  s.Link,
				Row:    r.row,
				Column: s.Layout.Value,
				Field:  r.field.Name,
				Kind:   r.field.Kind,
				Value:  raw,
				Err:    err,
			}
			if policy == FailTable {
				return nil, nil, perr
			}
			skipped = append(skipped, perr)
			continue
		}
		rec = append(rec, FieldValue{Field: r.field, Value: v})
	}
	return []Record{rec}, skipped, nil
}

// EnumEntries returns the rows of an enum lookup table that have a lawful
// name and an integer value.
func (s *Sheet) EnumEntries() []EnumEntry {
	if s.Shape != models.EnumLookup {
		return nil
	}
	l := s.Layout
	var entries []EnumEntry
	for row := l.FirstDataRow; row <= s.table.MaxRow; row++ {
		if !s.lawful(row, l.Field) {
			continue
		}
		n, err := strconv.ParseInt(s.value(row, l.Value), 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, EnumEntry{
			Name:        s.value(row, l.Field),
			Value:       n,
			Description: s.value(row, l.Desc),
		})
	}
	return entries
}
