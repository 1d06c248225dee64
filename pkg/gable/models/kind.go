package models

import (
	"strings"

	"github.com/goccy/go-json"
)

// Kind is the closed set of value kinds a column or key-value row can declare.
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindString
	KindBoolean
	KindFloat
	KindVector2
	KindVector3
	KindVector4
	KindIntArray
	KindStringArray
	KindBoolArray
	KindFloatArray
	KindVector2Array
	KindVector3Array
	KindVector4Array
	// KindPercentage is a float displayed ×100; the stored value is the fraction.
	KindPercentage
	// KindPermillage is a float displayed ×1000.
	KindPermillage
	// KindPermian is a float displayed ×10000.
	KindPermian
	// KindTime is seconds since midnight.
	KindTime
	// KindDate is seconds since the spreadsheet epoch.
	KindDate
	// KindEnum is an integer whose symbols live in a linked enum sheet.
	KindEnum
	// KindLoc is a key into a linked localization sheet.
	KindLoc
)

// kindKeys maps each kind to the type key authors write in the type row.
var kindKeys = map[Kind]string{
	KindInt:          "int",
	KindString:       "string",
	KindBoolean:      "bool",
	KindFloat:        "float",
	KindVector2:      "vector2",
	KindVector3:      "vector3",
	KindVector4:      "vector4",
	KindIntArray:     "int[]",
	KindStringArray:  "string[]",
	KindBoolArray:    "bool[]",
	KindFloatArray:   "float[]",
	KindVector2Array: "vector2[]",
	KindVector3Array: "vector3[]",
	KindVector4Array: "vector4[]",
	KindPercentage:   "%",
	KindPermillage:   "‰",
	KindPermian:      "‱",
	KindTime:         "time",
	KindDate:         "date",
	KindEnum:         "enum",
	KindLoc:          "loc",
}

var keyKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindKeys))
	for k, key := range kindKeys {
		m[key] = k
	}
	return m
}()

// ParseKind maps a type key to its Kind. An empty key is a string column;
// an unrecognized key yields KindUnknown.
func ParseKind(key string) Kind {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return KindString
	}
	if k, ok := keyKinds[key]; ok {
		return k
	}
	return KindUnknown
}

// String returns the type key of the kind.
func (k Kind) String() string {
	if key, ok := kindKeys[k]; ok {
		return key
	}
	return "unknown"
}

// IsArray reports whether the kind is a homogeneous array.
func (k Kind) IsArray() bool {
	switch k {
	case KindIntArray, KindStringArray, KindBoolArray, KindFloatArray,
		KindVector2Array, KindVector3Array, KindVector4Array:
		return true
	}
	return false
}

// Elem returns the element kind of an array kind, or k itself.
func (k Kind) Elem() Kind {
	switch k {
	case KindIntArray:
		return KindInt
	case KindStringArray:
		return KindString
	case KindBoolArray:
		return KindBoolean
	case KindFloatArray:
		return KindFloat
	case KindVector2Array:
		return KindVector2
	case KindVector3Array:
		return KindVector3
	case KindVector4Array:
		return KindVector4
	}
	return k
}

// IsVector reports whether the kind is a fixed-size float tuple.
func (k Kind) IsVector() bool {
	return k == KindVector2 || k == KindVector3 || k == KindVector4
}

// Arity returns the tuple length of a vector kind, 0 otherwise.
func (k Kind) Arity() int {
	switch k {
	case KindVector2:
		return 2
	case KindVector3:
		return 3
	case KindVector4:
		return 4
	}
	return 0
}

// Scale returns the display multiplier of a ratio kind, 1 otherwise.
func (k Kind) Scale() float64 {
	switch k {
	case KindPercentage:
		return 100
	case KindPermillage:
		return 1000
	case KindPermian:
		return 10000
	}
	return 1
}

// IsRatio reports whether the kind is a percentage-like float.
func (k Kind) IsRatio() bool {
	return k == KindPercentage || k == KindPermillage || k == KindPermian
}

// MarshalJSON encodes the kind as its type key.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a type key.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}
