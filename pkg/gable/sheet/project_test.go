package sheet

import (
	"reflect"
	"testing"

	"github.com/ukaji3/gable-go/pkg/gable/models"
)

func TestProject(t *testing.T) {
	tests := []struct {
		kind     models.Kind
		input    string
		expected any
	}{
		{models.KindInt, "42", int64(42)},
		{models.KindInt, " -7 ", int64(-7)},
		{models.KindInt, "3.0", int64(3)},
		{models.KindInt, "", int64(0)},
		{models.KindTime, "3600", int64(3600)},
		{models.KindDate, "4102444800", int64(4102444800)},
		{models.KindEnum, "2", int64(2)},
		{models.KindBoolean, "TRUE", true},
		{models.KindBoolean, "0", false},
		{models.KindFloat, "1.25", 1.25},
		{models.KindPercentage, "50%", 0.5},
		{models.KindPercentage, "0.5", 0.5},
		{models.KindPermillage, "5‰", 0.005},
		{models.KindPermian, "25‱", 0.0025},
		{models.KindVector2, "1,2", models.Vector{1, 2}},
		{models.KindVector3, "(1, 2, 3)", models.Vector{1, 2, 3}},
		{models.KindVector4, "", models.Vector{0, 0, 0, 0}},
		{models.KindIntArray, "1,2,3", []int64{1, 2, 3}},
		{models.KindIntArray, "[4, 5]", []int64{4, 5}},
		{models.KindIntArray, "", []int64{}},
		{models.KindStringArray, "a, b", []string{"a", "b"}},
		{models.KindBoolArray, "true,false", []bool{true, false}},
		{models.KindFloatArray, "0.5,1", []float64{0.5, 1}},
		{models.KindVector2Array, "1,2;3,4", []models.Vector{{1, 2}, {3, 4}}},
		{models.KindString, "  keep  ", "  keep  "},
		{models.KindLoc, "greeting", "greeting"},
		{models.KindUnknown, "raw", "raw"},
	}

	for _, tt := range tests {
		got, err := Project(tt.kind, tt.input, nil, "")
		if err != nil {
			t.Errorf("Project(%v, %q) failed: %v", tt.kind, tt.input, err)
			continue
		}
		if got.Kind != tt.kind {
			t.Errorf("Project(%v, %q) kind = %v", tt.kind, tt.input, got.Kind)
		}
		if !reflect.DeepEqual(got.V, tt.expected) {
			t.Errorf("Project(%v, %q) = %#v, expected %#v", tt.kind, tt.input, got.V, tt.expected)
		}
	}
}

func TestProjectErrors(t *testing.T) {
	tests := []struct {
		kind  models.Kind
		input string
	}{
		{models.KindInt, "abc"},
		{models.KindInt, "2147483648"},
		{models.KindInt, "1.5"},
		{models.KindBoolean, "yes"},
		{models.KindFloat, "NaN"},
		{models.KindVector3, "1,2"},
		{models.KindVector2, "1,x"},
		{models.KindIntArray, "1,b"},
		{models.KindEnum, "Rare"},
	}

	for _, tt := range tests {
		if _, err := Project(tt.kind, tt.input, nil, ""); err == nil {
			t.Errorf("Project(%v, %q) expected error", tt.kind, tt.input)
		}
	}
}

func TestProjectIdempotent(t *testing.T) {
	inputs := map[models.Kind]string{
		models.KindFloat:        "0.1",
		models.KindVector3Array: "1,2,3;4,5,6",
		models.KindPermillage:   "7‰",
		models.KindStringArray:  "x,y",
	}
	for kind, input := range inputs {
		a, errA := Project(kind, input, nil, "")
		b, errB := Project(kind, input, nil, "")
		if errA != nil || errB != nil {
			t.Fatalf("Project(%v, %q) failed: %v %v", kind, input, errA, errB)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Project(%v, %q) not deterministic: %v vs %v", kind, input, a, b)
		}
	}
}

func TestProjectEnumSymbol(t *testing.T) {
	lk := NewLookup(mustSheet(t, models.EnumLookup, enumTable()))

	v, err := Project(models.KindEnum, "Rare", lk, "Enums@Quality")
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if v.V != int64(1) {
		t.Errorf("got %v, expected 1", v.V)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("fail"); err != nil || p != FailTable {
		t.Errorf("ParsePolicy(fail) = %v, %v", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != SkipRow {
		t.Errorf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePolicy("explode"); err == nil {
		t.Errorf("expected error for unknown policy")
	}
}
