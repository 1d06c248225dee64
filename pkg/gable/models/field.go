package models

import "strings"

// FieldInfo describes one exported column (or key-value row). It is the
// contract every writer and code generator consumes.
type FieldInfo struct {
	IsKey       bool   `json:"is_key"`
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
	Link        string `json:"link"`
	// Index is the 1-based ordinal for row shapes and the declared index
	// for key-value fields. It doubles as the protobuf field number.
	Index int32 `json:"index"`
}

// LinkTable returns the referenced table name: the part after "@", or the
// whole link when it has none.
func (f FieldInfo) LinkTable() string {
	if i := strings.LastIndex(f.Link, "@"); i >= 0 {
		return f.Link[i+1:]
	}
	return f.Link
}
