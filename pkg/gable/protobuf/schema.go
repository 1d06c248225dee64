package protobuf

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/iancoleman/strcase"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// SchemaOptions controls .proto rendering.
type SchemaOptions struct {
	// Package is the proto package name; empty omits the statement.
	Package string
	// Proto2 selects proto2 syntax with explicit labels and enum defaults.
	Proto2 bool
}

func (o SchemaOptions) syntax() string {
	if o.Proto2 {
		return "proto2"
	}
	return "proto3"
}

type schemaField struct {
	Label   string
	Type    string
	Name    string
	Index   int32
	Extend  string
	Comment string
}

type messageData struct {
	Syntax  string
	Package string
	Imports []string
	Name    string
	Fields  []schemaField
	Array   bool
}

type enumData struct {
	Syntax  string
	Package string
	Name    string
	Entries []enumValue
}

type enumValue struct {
	Name    string
	Value   int64
	Comment string
}

// Schema renders the .proto text describing the records of table: one
// message with a field per descriptor, plus a <Table>Array wrapper matching
// the binary layout. Enum links that lk cannot resolve still name the enum
// type but get no proto2 default.
func Schema(opts SchemaOptions, table string, fields []models.FieldInfo, lk *sheet.Lookup) (string, error) {
	data := messageData{
		Syntax:  opts.syntax(),
		Package: opts.Package,
		Name:    MessageName(table),
		Array:   true,
	}

	var enums []string
	seen := make(map[string]bool)
	for _, f := range fields {
		sf := schemaField{
			Type:    protoType(f),
			Name:    fieldName(f.Name),
			Index:   f.Index,
			Comment: comment(f.Description),
		}
		switch {
		case f.Kind.IsArray():
			sf.Label = "repeated "
		case opts.Proto2:
			sf.Label = "optional "
		}
		if f.Kind == models.KindEnum && f.Link != "" {
			if !seen[sf.Type] {
				seen[sf.Type] = true
				enums = append(enums, sf.Type)
			}
			if opts.Proto2 {
				if entries, ok := lk.Enum(f.Link); ok && len(entries) > 0 {
					sf.Extend = " [default = " + entries[0].Name + "]"
				}
			}
		}
		data.Fields = append(data.Fields, sf)
	}

	data.Imports = enums
	for _, k := range ReferencedVectors(fields) {
		data.Imports = append(data.Imports, vectorName(k))
	}
	return render("message.proto.tmpl", data)
}

// VectorSchema renders the shared message for a vector kind.
func VectorSchema(opts SchemaOptions, kind models.Kind) (string, error) {
	if !kind.IsVector() {
		return "", fmt.Errorf("%s is not a vector kind", kind)
	}
	data := messageData{
		Syntax:  opts.syntax(),
		Package: opts.Package,
		Name:    vectorName(kind),
	}
	for i, axis := range []string{"x", "y", "z", "w"}[:kind.Arity()] {
		sf := schemaField{Type: "float", Name: axis, Index: int32(i + 1)}
		if opts.Proto2 {
			sf.Label = "optional "
		}
		data.Fields = append(data.Fields, sf)
	}
	return render("message.proto.tmpl", data)
}

// EnumSchema renders an enum definition for an enum lookup table.
func EnumSchema(opts SchemaOptions, table string, entries []sheet.EnumEntry) (string, error) {
	data := enumData{
		Syntax:  opts.syntax(),
		Package: opts.Package,
		Name:    MessageName(table),
	}
	for _, e := range entries {
		data.Entries = append(data.Entries, enumValue{
			Name:    fieldName(e.Name),
			Value:   e.Value,
			Comment: comment(e.Description),
		})
	}
	return render("enum.proto.tmpl", data)
}

// ReferencedVectors returns the vector kinds used by fields, directly or
// as array elements, in Vector2, Vector3, Vector4 order.
func ReferencedVectors(fields []models.FieldInfo) []models.Kind {
	used := make(map[models.Kind]bool)
	for _, f := range fields {
		if k := f.Kind.Elem(); k.IsVector() {
			used[k] = true
		}
	}
	var out []models.Kind
	for _, k := range []models.Kind{models.KindVector2, models.KindVector3, models.KindVector4} {
		if used[k] {
			out = append(out, k)
		}
	}
	return out
}

// MessageName returns name when it is a valid proto identifier and its
// CamelCase form otherwise.
func MessageName(name string) string {
	if isIdent(name) {
		return name
	}
	return strcase.ToCamel(name)
}

func fieldName(name string) string {
	if isIdent(name) {
		return name
	}
	return strcase.ToLowerCamel(name)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func vectorName(kind models.Kind) string {
	return fmt.Sprintf("Vector%d", kind.Arity())
}

func protoType(f models.FieldInfo) string {
	switch f.Kind.Elem() {
	case models.KindInt, models.KindTime:
		return "int32"
	case models.KindDate:
		return "int64"
	case models.KindBoolean:
		return "bool"
	case models.KindFloat, models.KindPercentage, models.KindPermillage, models.KindPermian:
		return "float"
	case models.KindVector2, models.KindVector3, models.KindVector4:
		return vectorName(f.Kind.Elem())
	case models.KindEnum:
		if f.Link == "" {
			return "int32"
		}
		return MessageName(f.LinkTable())
	}
	return "string"
}

// comment flattens a description into a single-line comment.
func comment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
