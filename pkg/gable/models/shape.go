package models

import "strings"

// Shape identifies how a raw table is laid out.
type Shape int

const (
	// RowRecords is a grid with fixed header rows followed by data rows.
	RowRecords Shape = iota
	// LocalizedRecords is RowRecords without keyword and link rows.
	LocalizedRecords
	// KeyValue treats every data row as one field of a single record.
	KeyValue
	// EnumLookup holds name/value/description rows referenced by links.
	EnumLookup
)

var shapeNames = [...]string{
	RowRecords:       "normal",
	LocalizedRecords: "localize",
	KeyValue:         "kv",
	EnumLookup:       "enum",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "unknown"
	}
	return shapeNames[s]
}

// ParseShape maps a shape name to its Shape. Unknown names are RowRecords.
func ParseShape(name string) Shape {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "localize", "localizes", "localized":
		return LocalizedRecords
	case "kv", "kvs", "keyvalue":
		return KeyValue
	case "enum", "enums":
		return EnumLookup
	}
	return RowRecords
}
