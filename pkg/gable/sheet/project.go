package sheet

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/gable-go/pkg/gable/models"
)

// ProjectionPolicy decides what happens to a record whose cell cannot be
// projected to its declared kind.
type ProjectionPolicy int

const (
	// SkipRow drops the offending record and keeps exporting.
	SkipRow ProjectionPolicy = iota
	// FailTable aborts the export of the whole table.
	FailTable
)

func (p ProjectionPolicy) String() string {
	if p == FailTable {
		return "fail"
	}
	return "skip"
}

// ParsePolicy maps "skip" or "fail" to a policy. Empty means SkipRow.
func ParsePolicy(s string) (ProjectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip", "skiprow":
		return SkipRow, nil
	case "fail", "failtable":
		return FailTable, nil
	}
	return SkipRow, fmt.Errorf("unknown projection policy %q", s)
}

// ProjectionError reports a cell that does not parse as its declared kind.
type ProjectionError struct {
	Sheet  string
	Row    int
	Column int
	Field  string
	Kind   models.Kind
	Value  string
	Err    error
}

// Cell returns the A1-style reference of the failing cell.
func (e *ProjectionError) Cell() string {
	name, err := excelize.CoordinatesToCellName(e.Column, e.Row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", e.Row, e.Column)
	}
	return name
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection error in %s!%s (field %q, kind %s, value %q): %v",
		e.Sheet, e.Cell(), e.Field, e.Kind, e.Value, e.Err)
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}

var (
	errOutOfRange = errors.New("value out of range")
	errNotFinite  = errors.New("value is not finite")
	errArity      = errors.New("wrong number of vector components")
	errEnumSymbol = errors.New("unknown enum symbol")
)

// Project converts raw cell text to a typed value of kind. Enum symbols are
// resolved through lk using link; lk may be nil. Empty text yields the zero
// value of kind.
func Project(kind models.Kind, raw string, lk *Lookup, link string) (models.Value, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		if kind == models.KindString || kind == models.KindLoc || kind == models.KindUnknown {
			return models.Value{Kind: kind, V: raw}, nil
		}
		return models.Zero(kind), nil
	}

	switch kind {
	case models.KindInt, models.KindTime:
		n, err := parseInt(text, math.MinInt32, math.MaxInt32)
		return models.Value{Kind: kind, V: n}, err
	case models.KindDate:
		n, err := parseInt(text, math.MinInt64, math.MaxInt64)
		return models.Value{Kind: kind, V: n}, err
	case models.KindEnum:
		n, err := parseInt(text, math.MinInt32, math.MaxInt32)
		if err == nil {
			return models.Value{Kind: kind, V: n}, nil
		}
		if errors.Is(err, errOutOfRange) {
			return models.Value{Kind: kind, V: int64(0)}, err
		}
		if v, ok := lk.EnumValue(link, text); ok {
			return models.Value{Kind: kind, V: v}, nil
		}
		return models.Value{Kind: kind, V: int64(0)}, fmt.Errorf("%w %q in %q", errEnumSymbol, text, link)
	case models.KindBoolean:
		b, err := strconv.ParseBool(text)
		return models.Value{Kind: kind, V: b}, err
	case models.KindFloat:
		f, err := parseFloat(text)
		return models.Value{Kind: kind, V: f}, err
	case models.KindPercentage, models.KindPermillage, models.KindPermian:
		f, err := parseRatio(text)
		return models.Value{Kind: kind, V: f}, err
	case models.KindVector2, models.KindVector3, models.KindVector4:
		v, err := parseVector(text, kind.Arity())
		return models.Value{Kind: kind, V: v}, err
	case models.KindIntArray, models.KindStringArray, models.KindBoolArray, models.KindFloatArray,
		models.KindVector2Array, models.KindVector3Array, models.KindVector4Array:
		return projectArray(kind, text, lk, link)
	}
	return models.Value{Kind: kind, V: raw}, nil
}

// parseInt accepts decimal integers and integral float text such as "3.0".
func parseInt(s string, lo, hi int64) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, err
		}
		if f < float64(lo) || f > float64(hi) {
			return 0, fmt.Errorf("%w: %s", errOutOfRange, s)
		}
		n = int64(f)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s", errOutOfRange, s)
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s", errNotFinite, s)
	}
	return f, nil
}

var ratioSuffixes = []struct {
	suffix string
	scale  float64
}{
	{"%", 100},
	{"‰", 1000},
	{"‱", 10000},
}

// parseRatio returns the unscaled fraction; "50%" is 0.5.
func parseRatio(s string) (float64, error) {
	for _, r := range ratioSuffixes {
		if strings.HasSuffix(s, r.suffix) {
			f, err := parseFloat(strings.TrimSpace(strings.TrimSuffix(s, r.suffix)))
			if err != nil {
				return 0, err
			}
			return f / r.scale, nil
		}
	}
	return parseFloat(s)
}

func unwrap(s, open, close string) string {
	if strings.HasPrefix(s, open) && strings.HasSuffix(s, close) {
		return strings.TrimSpace(s[len(open) : len(s)-len(close)])
	}
	return s
}

func parseVector(s string, arity int) (models.Vector, error) {
	s = unwrap(unwrap(s, "(", ")"), "[", "]")
	parts := strings.Split(s, ",")
	if len(parts) != arity {
		return make(models.Vector, arity), fmt.Errorf("%w: expected %d, got %d", errArity, arity, len(parts))
	}
	v := make(models.Vector, arity)
	for i, p := range parts {
		f, err := parseFloat(strings.TrimSpace(p))
		if err != nil {
			return make(models.Vector, arity), err
		}
		v[i] = f
	}
	return v, nil
}

func projectArray(kind models.Kind, text string, lk *Lookup, link string) (models.Value, error) {
	zero := models.Zero(kind)
	text = unwrap(text, "[", "]")
	if text == "" {
		return zero, nil
	}
	elem := kind.Elem()
	sep := ","
	if elem.IsVector() {
		sep = ";"
	}
	parts := strings.Split(text, sep)
	items := make([]models.Value, len(parts))
	for i, p := range parts {
		v, err := Project(elem, strings.TrimSpace(p), lk, link)
		if err != nil {
			return zero, fmt.Errorf("element %d: %w", i, err)
		}
		items[i] = v
	}

	switch kind {
	case models.KindIntArray:
		out := make([]int64, len(items))
		for i, v := range items {
			out[i] = v.V.(int64)
		}
		return models.Value{Kind: kind, V: out}, nil
	case models.KindBoolArray:
		out := make([]bool, len(items))
		for i, v := range items {
			out[i] = v.V.(bool)
		}
		return models.Value{Kind: kind, V: out}, nil
	case models.KindFloatArray:
		out := make([]float64, len(items))
		for i, v := range items {
			out[i] = v.V.(float64)
		}
		return models.Value{Kind: kind, V: out}, nil
	case models.KindStringArray:
		out := make([]string, len(items))
		for i, v := range items {
			out[i] = v.V.(string)
		}
		return models.Value{Kind: kind, V: out}, nil
	}
	out := make([]models.Vector, len(items))
	for i, v := range items {
		out[i] = v.V.(models.Vector)
	}
	return models.Value{Kind: kind, V: out}, nil
}
