// Package models defines data structures shared by the gable table pipeline.
package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const (
	fillArgbPrefix  = "argb:"
	fillThemePrefix = "theme:"
	fillTintPrefix  = "tint:"
)

// FillSpec describes a cell or font color. It is either an explicit ARGB
// value or a theme index with a tint. The zero value means "no fill".
type FillSpec struct {
	// Argb is the hex color (e.g. FFFF0000). Empty for theme fills.
	Argb string
	// Theme is the theme color index (theme fills only).
	Theme int
	// Tint is the theme tint in [-1, 1] (theme fills only).
	Tint float64
}

// Argb returns an explicit color fill.
func Argb(hex string) FillSpec {
	return FillSpec{Argb: hex}
}

// ThemeTint returns a theme color fill.
func ThemeTint(index int, tint float64) FillSpec {
	return FillSpec{Theme: index, Tint: tint}
}

// IsZero reports whether the fill is absent.
func (f FillSpec) IsZero() bool {
	return f.Argb == "" && f.Theme == 0 && f.Tint == 0
}

// IsTheme reports whether the fill references a theme color.
func (f FillSpec) IsTheme() bool {
	return f.Argb == "" && !f.IsZero()
}

// String encodes the fill as "argb:<hex>" or "theme:<idx>,tint:<float>".
func (f FillSpec) String() string {
	switch {
	case f.Argb != "":
		return fillArgbPrefix + f.Argb
	case f.IsZero():
		return ""
	default:
		return fmt.Sprintf("%s%d,%s%s", fillThemePrefix, f.Theme, fillTintPrefix,
			strconv.FormatFloat(f.Tint, 'f', -1, 64))
	}
}

// ParseFillSpec decodes the string form produced by String.
// Unknown or malformed encodings yield the zero fill.
func ParseFillSpec(s string) FillSpec {
	switch {
	case strings.HasPrefix(s, fillArgbPrefix):
		return Argb(strings.TrimPrefix(s, fillArgbPrefix))
	case strings.HasPrefix(s, fillThemePrefix):
		parts := strings.SplitN(s, ",", 2)
		if len(parts) < 2 {
			return FillSpec{}
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(parts[0], fillThemePrefix))
		if err != nil {
			return FillSpec{}
		}
		tint, err := strconv.ParseFloat(strings.TrimPrefix(parts[1], fillTintPrefix), 64)
		if err != nil {
			return FillSpec{}
		}
		return ThemeTint(idx, tint)
	}
	return FillSpec{}
}

// Cell is one entry of a raw table grid.
type Cell struct {
	// Row is the row index (1-based).
	Row int `json:"row"`
	// Column is the column index (1-based).
	Column int `json:"column"`
	// Value is the raw cell text.
	Value string `json:"value,omitempty"`
	// BgFill is the background fill.
	BgFill FillSpec `json:"bg_fill"`
	// FontFill is the font color.
	FontFill FillSpec `json:"font_fill"`
}

// IsEmpty reports whether the cell carries neither a value nor a fill.
// Empty cells are never materialized in a RawTable.
func (c Cell) IsEmpty() bool {
	return c.Value == "" && c.BgFill.IsZero() && c.FontFill.IsZero()
}

// Lawful reports whether the cell can take part in header or field
// resolution: its trimmed value is non-empty and not a placeholder.
func (c Cell) Lawful() bool {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return false
	}
	return !strings.HasPrefix(v, "#") && v != "~"
}

// Int parses the value as a signed integer. Empty values parse as 0.
func (c Cell) Int() (int64, error) {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

// Float parses the value as a 64-bit float. Empty values parse as 0.
func (c Cell) Float() (float64, error) {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

// Bool parses the value as a boolean. Empty values parse as false.
func (c Cell) Bool() (bool, error) {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// MarshalJSON encodes the fill in its string form.
func (f FillSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes the string form of a fill.
func (f *FillSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = ParseFillSpec(s)
	return nil
}

// MarshalJSON omits empty values and fills.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row      int    `json:"row"`
		Column   int    `json:"column"`
		Value    string `json:"value,omitempty"`
		BgFill   string `json:"bg_fill,omitempty"`
		FontFill string `json:"font_fill,omitempty"`
	}{c.Row, c.Column, c.Value, c.BgFill.String(), c.FontFill.String()})
}

// UnmarshalJSON accepts string, number, boolean or null cell values.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw struct {
		Row      int             `json:"row"`
		Column   int             `json:"column"`
		Value    json.RawMessage `json:"value"`
		BgFill   FillSpec        `json:"bg_fill"`
		FontFill FillSpec        `json:"font_fill"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := scalarText(raw.Value)
	if err != nil {
		return fmt.Errorf("cell (%d,%d): %w", raw.Row, raw.Column, err)
	}
	*c = Cell{
		Row:      raw.Row,
		Column:   raw.Column,
		Value:    value,
		BgFill:   raw.BgFill,
		FontFill: raw.FontFill,
	}
	return nil
}

// scalarText renders a JSON scalar as the text a spreadsheet would show.
func scalarText(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] != '"' {
		// numbers and booleans keep their literal spelling
		return string(data), nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	return s, nil
}
