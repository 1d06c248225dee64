package sheet

import "github.com/ukaji3/gable-go/pkg/gable/models"

// Lookup is a read-only arena of shaped tables addressed by link name
// ("<excel>@<sheet>") or bare sheet name. Build it completely before
// sharing; after that it is safe for concurrent readers. A nil *Lookup
// resolves nothing.
type Lookup struct {
	sheets map[string]*Sheet
	enums  map[*Sheet][]EnumEntry
}

// NewLookup returns a lookup holding sheets.
func NewLookup(sheets ...*Sheet) *Lookup {
	lk := &Lookup{
		sheets: make(map[string]*Sheet),
		enums:  make(map[*Sheet][]EnumEntry),
	}
	for _, s := range sheets {
		lk.Add(s)
	}
	return lk
}

// Add registers s under its link and its bare name. A bare name already
// taken by another sheet is kept.
func (l *Lookup) Add(s *Sheet) {
	l.sheets[s.Link] = s
	if _, ok := l.sheets[s.Name]; !ok {
		l.sheets[s.Name] = s
	}
	if s.Shape == models.EnumLookup {
		l.enums[s] = s.EnumEntries()
	}
}

// Get resolves link to a sheet, trying the full link then its sheet part.
func (l *Lookup) Get(link string) (*Sheet, bool) {
	if l == nil || link == "" {
		return nil, false
	}
	if s, ok := l.sheets[link]; ok {
		return s, true
	}
	s, ok := l.sheets[TableName(link)]
	return s, ok
}

// Sheets returns every registered sheet once.
func (l *Lookup) Sheets() []*Sheet {
	if l == nil {
		return nil
	}
	seen := make(map[*Sheet]bool)
	var out []*Sheet
	for _, s := range l.sheets {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Enum returns the entries of the enum table link resolves to.
func (l *Lookup) Enum(link string) ([]EnumEntry, bool) {
	s, ok := l.Get(link)
	if !ok || s.Shape != models.EnumLookup {
		return nil, false
	}
	return l.enums[s], true
}

// Localization returns the localization table link resolves to.
func (l *Lookup) Localization(link string) (*Sheet, bool) {
	s, ok := l.Get(link)
	if !ok || s.Shape != models.LocalizedRecords {
		return nil, false
	}
	return s, true
}

// EnumValue resolves text to an enum value by entry name, then by
// description.
func (l *Lookup) EnumValue(link, text string) (int64, bool) {
	entries, ok := l.Enum(link)
	if !ok {
		return 0, false
	}
	for _, e := range entries {
		if e.Name == text {
			return e.Value, true
		}
	}
	for _, e := range entries {
		if e.Description != "" && e.Description == text {
			return e.Value, true
		}
	}
	return 0, false
}

// Translate returns the text of key in the named column of a localization
// table. An empty column selects the first non-key column.
func (l *Lookup) Translate(link, key, column string) (string, bool) {
	s, ok := l.Localization(link)
	if !ok {
		return "", false
	}
	keys, others := s.ResolveHeaders("")
	if len(keys) == 0 {
		return "", false
	}
	target := others[0]
	if column != "" {
		found := false
		for _, c := range others {
			if c.Name == column {
				target, found = c, true
				break
			}
		}
		if !found {
			return "", false
		}
	}
	for row := s.Layout.FirstDataRow; row <= s.table.MaxRow; row++ {
		if s.value(row, keys[0].Column) == key {
			return s.table.Value(row, target.Column), true
		}
	}
	return "", false
}
