package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

func fv(name string, index int32, kind models.Kind, v any) sheet.FieldValue {
	return sheet.FieldValue{
		Field: models.FieldInfo{Name: name, Kind: kind, Index: index},
		Value: models.Value{Kind: kind, V: v},
	}
}

func sampleRecords() []sheet.Record {
	return []sheet.Record{
		{fv("id", 1, models.KindInt, int64(1)), fv("name", 2, models.KindString, `a,"b`), fv("pos", 3, models.KindVector2, models.Vector{1, 2})},
		{fv("id", 1, models.KindInt, int64(2)), fv("name", 2, models.KindString, "<a & b>"), fv("pos", 3, models.KindVector2, models.Vector{0, 0.5})},
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(models.RowRecords, sampleRecords())
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, data)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d objects, expected 2", len(decoded))
	}
	if decoded[0]["name"] != `a,"b` {
		t.Errorf("name = %v", decoded[0]["name"])
	}
	if decoded[0]["id"] != float64(1) {
		t.Errorf("id = %v (type %T), expected number 1", decoded[0]["id"], decoded[0]["id"])
	}

	// keys keep declaration order
	s := string(data)
	if strings.Index(s, `"id"`) > strings.Index(s, `"name"`) || strings.Index(s, `"name"`) > strings.Index(s, `"pos"`) {
		t.Errorf("fields out of order:\n%s", s)
	}
	if !strings.Contains(s, "\n  {") {
		t.Errorf("expected two-space indentation:\n%s", s)
	}
}

func TestJSONKeyValue(t *testing.T) {
	records := []sheet.Record{{fv("level", 2, models.KindInt, int64(9)), fv("on", 1, models.KindBoolean, true)}}

	data, err := JSON(models.KeyValue, records)
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected a single object: %v\n%s", err, data)
	}
	if decoded["on"] != true {
		t.Errorf("on = %v", decoded["on"])
	}
}

func TestCSVQuoting(t *testing.T) {
	data, err := CSV(models.RowRecords, sampleRecords())
	if err != nil {
		t.Fatalf("CSV failed: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if lines[0] != `1,"a,""b","1,2"` {
		t.Errorf("first line = %s", lines[0])
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != `a,"b` {
		t.Errorf("round trip = %v", rows)
	}
}

func TestCSVKeyValue(t *testing.T) {
	records := []sheet.Record{{fv("level", 2, models.KindInt, int64(9)), fv("rate", 1, models.KindPercentage, 0.25)}}

	data, err := CSV(models.KeyValue, records)
	if err != nil {
		t.Fatalf("CSV failed: %v", err)
	}
	expected := "level,int,9\nrate,%,0.25\n"
	if string(data) != expected {
		t.Errorf("got %q, expected %q", data, expected)
	}
}

func TestXMLEscaping(t *testing.T) {
	if got := EscapeXML(`<a & b>`); got != "&lt;a &amp; b&gt;" {
		t.Errorf("EscapeXML = %s", got)
	}
	if got := EscapeXML(`"it's"`); got != "&quot;it&apos;s&quot;" {
		t.Errorf("EscapeXML = %s", got)
	}

	data, err := XML("Weapon", models.RowRecords, sampleRecords())
	if err != nil {
		t.Fatalf("XML failed: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing declaration:\n%s", s)
	}
	if strings.Count(s, "<item>") != 2 {
		t.Errorf("expected 2 items:\n%s", s)
	}
	if !strings.Contains(s, "<name>&lt;a &amp; b&gt;</name>") {
		t.Errorf("value not escaped:\n%s", s)
	}
	if !strings.HasSuffix(s, "</Weapon>\n") {
		t.Errorf("missing root close:\n%s", s)
	}
}

func TestXMLKeyValue(t *testing.T) {
	records := []sheet.Record{{fv("level", 1, models.KindInt, int64(9))}}

	data, err := XML("Config", models.KeyValue, records)
	if err != nil {
		t.Fatalf("XML failed: %v", err)
	}
	if strings.Contains(string(data), "<item>") {
		t.Errorf("key-value fields must not be wrapped:\n%s", data)
	}
	if !strings.Contains(string(data), "  <level>9</level>\n") {
		t.Errorf("missing field:\n%s", data)
	}
}

func TestXMLInvalidNames(t *testing.T) {
	tests := []struct {
		table string
		field string
		ok    bool
	}{
		{"Weapon", "hp_max", true},
		{"Weapon", "名前", true},
		{"Weapon", "hp.max-2", true},
		{"Weapon", "hp max", false},
		{"Weapon", "1st", false},
		{"Weapon", "a<b", false},
		{"My Table", "id", false},
		{"2D", "id", false},
	}

	for _, tt := range tests {
		records := []sheet.Record{{fv(tt.field, 1, models.KindInt, int64(1))}}
		_, err := XML(tt.table, models.RowRecords, records)
		if tt.ok && err != nil {
			t.Errorf("XML(%q, %q): unexpected error %v", tt.table, tt.field, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidName) {
			t.Errorf("XML(%q, %q): expected ErrInvalidName, got %v", tt.table, tt.field, err)
		}
	}
}

func TestYAMLSortedKeys(t *testing.T) {
	records := []sheet.Record{{fv("zeta", 1, models.KindInt, int64(1)), fv("alpha", 2, models.KindString, "x")}}

	data, err := YAML(models.RowRecords, records)
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}
	s := string(data)
	if strings.Index(s, "alpha") > strings.Index(s, "zeta") {
		t.Errorf("keys not sorted:\n%s", s)
	}

	var decoded []map[string]any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded[0]["zeta"] != 1 {
		t.Errorf("zeta = %v (%T)", decoded[0]["zeta"], decoded[0]["zeta"])
	}
}

func TestEnumNotExportable(t *testing.T) {
	records := sampleRecords()
	writers := map[string]func() ([]byte, error){
		"json": func() ([]byte, error) { return JSON(models.EnumLookup, records) },
		"csv":  func() ([]byte, error) { return CSV(models.EnumLookup, records) },
		"xml":  func() ([]byte, error) { return XML("E", models.EnumLookup, records) },
		"yaml": func() ([]byte, error) { return YAML(models.EnumLookup, records) },
	}
	for name, write := range writers {
		if _, err := write(); !errors.Is(err, ErrEnumNotExportable) {
			t.Errorf("%s: expected ErrEnumNotExportable, got %v", name, err)
		}
	}

	if _, err := CSV(models.RowRecords, nil); !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "Weapon.json")

	if err := WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile overwrite failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("got %q, expected second", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected no temp files, got %d entries", len(entries))
	}

	// a directory in place of the destination makes the rename fail
	blocked := filepath.Join(dir, "blocked")
	if err := os.MkdirAll(filepath.Join(blocked, "x"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(blocked, []byte("x")); err == nil {
		t.Errorf("expected error writing over a directory")
	}
	entries, _ = os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
