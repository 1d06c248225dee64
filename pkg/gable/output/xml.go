package output

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// ErrInvalidName indicates a table or field name that is not a valid XML
// element name.
var ErrInvalidName = errors.New("invalid XML element name")

// validName reports whether s can be used as an element name: a letter or
// underscore followed by letters, digits, '-', '.' or '_'.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

// checkNames rejects element names that would produce malformed XML.
func checkNames(table string, records []sheet.Record) error {
	if !validName(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidName, table)
	}
	for _, r := range records {
		for _, fv := range r {
			if !validName(fv.Field.Name) {
				return fmt.Errorf("%w: field %q", ErrInvalidName, fv.Field.Name)
			}
		}
	}
	return nil
}

// EscapeXML escapes the five predefined XML entities.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// XML renders records under a root element named after the table. Row
// records become <item> elements; key-value fields are direct children.
// Table and field names must be valid element names.
func XML(table string, shape models.Shape, records []sheet.Record) ([]byte, error) {
	if err := check(shape, records); err != nil {
		return nil, err
	}
	if err := checkNames(table, records); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString("<" + table + ">\n")
	if shape == models.KeyValue {
		writeFields(&b, records[0], "  ")
	} else {
		for _, r := range records {
			b.WriteString("  <item>\n")
			writeFields(&b, r, "    ")
			b.WriteString("  </item>\n")
		}
	}
	b.WriteString("</" + table + ">\n")
	return []byte(b.String()), nil
}

func writeFields(b *strings.Builder, r sheet.Record, indent string) {
	for _, fv := range r {
		name := fv.Field.Name
		b.WriteString(indent)
		b.WriteString("<" + name + ">")
		b.WriteString(EscapeXML(fv.Value.String()))
		b.WriteString("</" + name + ">\n")
	}
}
