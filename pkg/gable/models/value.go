package models

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var vectorAxes = [...]string{"x", "y", "z", "w"}

// Vector is a fixed-size float tuple (2, 3 or 4 components).
type Vector []float64

func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the vector as an object with ordered x, y, z, w keys.
func (v Vector) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range v {
		if i >= len(vectorAxes) {
			break
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(vectorAxes[i]))
		b.WriteByte(':')
		num, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		b.Write(num)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// MarshalYAML encodes the vector as a mapping with ordered axis keys.
func (v Vector) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, f := range v {
		if i >= len(vectorAxes) {
			break
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: vectorAxes[i]},
			&yaml.Node{Kind: yaml.ScalarNode, Value: formatFloat(f)},
		)
	}
	return node, nil
}

// Value is a projected, typed cell value. The dynamic type of V depends on
// Kind:
//
//	Int, Time, Date, Enum        int64
//	Boolean                      bool
//	Float, ratio kinds           float64
//	Vector2/3/4                  Vector
//	IntArray                     []int64
//	StringArray                  []string
//	BoolArray                    []bool
//	FloatArray                   []float64
//	Vector2/3/4Array             []Vector
//	String, Loc, Unknown         string
type Value struct {
	Kind Kind
	V    any
}

// Zero returns the default value of kind.
func Zero(kind Kind) Value {
	switch kind {
	case KindInt, KindTime, KindDate, KindEnum:
		return Value{Kind: kind, V: int64(0)}
	case KindBoolean:
		return Value{Kind: kind, V: false}
	case KindFloat, KindPercentage, KindPermillage, KindPermian:
		return Value{Kind: kind, V: float64(0)}
	case KindVector2, KindVector3, KindVector4:
		return Value{Kind: kind, V: make(Vector, kind.Arity())}
	case KindIntArray:
		return Value{Kind: kind, V: []int64{}}
	case KindStringArray:
		return Value{Kind: kind, V: []string{}}
	case KindBoolArray:
		return Value{Kind: kind, V: []bool{}}
	case KindFloatArray:
		return Value{Kind: kind, V: []float64{}}
	case KindVector2Array, KindVector3Array, KindVector4Array:
		return Value{Kind: kind, V: []Vector{}}
	}
	return Value{Kind: kind, V: ""}
}

// String returns the canonical text form of the value.
func (v Value) String() string {
	switch x := v.V.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case Vector:
		return x.String()
	case []int64:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	case []bool:
		parts := make([]string, len(x))
		for i, b := range x {
			parts[i] = strconv.FormatBool(b)
		}
		return strings.Join(parts, ",")
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = formatFloat(f)
		}
		return strings.Join(parts, ",")
	case []Vector:
		parts := make([]string, len(x))
		for i, vec := range x {
			parts[i] = vec.String()
		}
		return strings.Join(parts, ";")
	}
	return ""
}

// MarshalJSON encodes the underlying typed value.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.V == nil {
		return json.Marshal(Zero(v.Kind).V)
	}
	return json.Marshal(v.V)
}

// MarshalYAML encodes the underlying typed value.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.V == nil {
		return Zero(v.Kind).V, nil
	}
	return v.V, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
