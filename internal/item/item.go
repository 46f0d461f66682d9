// Package item defines the indexable units that flow through the
// preprocessing pipeline: items, their typed multi-valued fields, the
// optional backing source object, and batches.
package item

import (
	"sort"
	"strings"
)

// FieldType is the declared data type of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeText    FieldType = "text"
	TypeInteger FieldType = "integer"
	TypeDecimal FieldType = "decimal"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
)

// IsValid reports whether t is one of the known field types.
func (t FieldType) IsValid() bool {
	switch t {
	case TypeString, TypeText, TypeInteger, TypeDecimal, TypeBoolean, TypeDate:
		return true
	default:
		return false
	}
}

// IsText reports whether values of this type are free text.
func (t FieldType) IsText() bool {
	return t == TypeString || t == TypeText
}

// String returns the type tag.
func (t FieldType) String() string {
	return string(t)
}

// Field is a typed, ordered sequence of values.
// A field with no values is a declared slot: the item's index carries the
// field but nothing has been extracted into it.
type Field struct {
	Type   FieldType `json:"type" yaml:"type"`
	Values []any     `json:"values,omitempty" yaml:"values,omitempty"`
}

// NewField creates a field of the given type holding values.
func NewField(t FieldType, values ...any) *Field {
	return &Field{Type: t, Values: values}
}

// IsEmpty reports whether the field carries no values.
func (f *Field) IsEmpty() bool {
	return f == nil || len(f.Values) == 0
}

// Item is one unit submitted to the search index.
type Item struct {
	// ID is the stable item identifier, e.g. "entity:user/1:en".
	ID string
	// Datasource is the datasource the item came from, e.g. "entity:user".
	Datasource string
	// Fields maps field identifiers to fields.
	Fields map[string]*Field
	// Source is the backing object, if the pipeline loaded one.
	Source Source
}

// New creates an empty item. An empty datasource is derived from the ID.
func New(id, datasource string) *Item {
	if datasource == "" {
		datasource = DatasourceFromID(id)
	}
	return &Item{
		ID:         id,
		Datasource: datasource,
		Fields:     make(map[string]*Field),
	}
}

// DatasourceFromID extracts the datasource prefix of a combined item ID
// ("entity:user/1:en" -> "entity:user").
func DatasourceFromID(id string) string {
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return ""
}

// Field returns the field with the given identifier.
func (it *Item) Field(id string) (*Field, bool) {
	f, ok := it.Fields[id]
	return f, ok
}

// HasField reports whether the item declares the field, with or without values.
func (it *Item) HasField(id string) bool {
	_, ok := it.Fields[id]
	return ok
}

// SetField stores f under id, replacing any existing field.
func (it *Item) SetField(id string, f *Field) {
	if it.Fields == nil {
		it.Fields = make(map[string]*Field)
	}
	it.Fields[id] = f
}

// RemoveField deletes the field with the given identifier.
func (it *Item) RemoveField(id string) {
	delete(it.Fields, id)
}

// FieldIDs returns the item's field identifiers in sorted order.
func (it *Item) FieldIDs() []string {
	ids := make([]string, 0, len(it.Fields))
	for id := range it.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
