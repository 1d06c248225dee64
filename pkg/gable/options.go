// Package gable exports typed game-configuration tables to data files and
// protobuf schemas.
package gable

import (
	"fmt"
	"strings"

	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// Format represents an export format.
type Format string

const (
	// FormatJSON writes <table>.json.
	FormatJSON Format = "json"
	// FormatCSV writes a header-less <table>.csv.
	FormatCSV Format = "csv"
	// FormatXML writes <table>.xml.
	FormatXML Format = "xml"
	// FormatYAML writes <table>.yaml.
	FormatYAML Format = "yaml"
	// FormatProtobuf writes <table>.proto and <table>.bin.
	FormatProtobuf Format = "protobuf"
)

// AllFormats returns every supported format.
func AllFormats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatXML, FormatYAML, FormatProtobuf}
}

// ParseFormat maps a format name (or common alias) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "protobuf", "proto", "pb", "bin":
		return FormatProtobuf, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ParseFormats parses a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Ext returns the data file extension of the format.
func (f Format) Ext() string {
	if f == FormatProtobuf {
		return ".bin"
	}
	return "." + string(f)
}

// BuildTarget configures one export pass.
type BuildTarget struct {
	// DisplayName identifies the target in logs.
	DisplayName string
	// Keyword selects the columns and key-value rows to export.
	Keyword string
	// TargetDir receives the data files.
	TargetDir string
	// ProtoTargetDir receives .proto files. Defaults to TargetDir.
	ProtoTargetDir string
	// Formats lists the formats to write. Empty means all.
	Formats []Format
	// Proto2 selects proto2 schema syntax.
	Proto2 bool
	// ProtoPackage is the package statement of generated schemas.
	ProtoPackage string
	// Policy decides how records with unparsable cells are handled.
	Policy sheet.ProjectionPolicy
}

// DefaultBuildTarget returns a target writing every format to "out".
func DefaultBuildTarget() BuildTarget {
	return BuildTarget{
		DisplayName: "default",
		TargetDir:   "out",
		Formats:     AllFormats(),
		Policy:      sheet.SkipRow,
	}
}

// ProtoDir returns the directory for .proto files.
func (t BuildTarget) ProtoDir() string {
	if t.ProtoTargetDir != "" {
		return t.ProtoTargetDir
	}
	return t.TargetDir
}

// EnabledFormats returns the formats to write.
func (t BuildTarget) EnabledFormats() []Format {
	if len(t.Formats) == 0 {
		return AllFormats()
	}
	return t.Formats
}

// Wants reports whether the target writes format f.
func (t BuildTarget) Wants(f Format) bool {
	for _, g := range t.EnabledFormats() {
		if g == f {
			return true
		}
	}
	return false
}
