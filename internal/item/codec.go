package item

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding used for batch files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name; an empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (use json or yaml)", s)
	}
}

// document is the on-disk batch representation.
type document struct {
	Items []itemDoc `json:"items" yaml:"items"`
}

type itemDoc struct {
	ID         string            `json:"id" yaml:"id"`
	Datasource string            `json:"datasource,omitempty" yaml:"datasource,omitempty"`
	Source     *sourceDoc        `json:"source,omitempty" yaml:"source,omitempty"`
	Fields     map[string]*Field `json:"fields" yaml:"fields"`
}

type sourceDoc struct {
	Type  string   `json:"type" yaml:"type"`
	ID    string   `json:"id,omitempty" yaml:"id,omitempty"`
	Roles []string `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// Decode reads a batch from r. Both YAML and JSON input are accepted.
// Field values are coerced to their declared types.
func Decode(r io.Reader) (*Batch, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return NewBatch(), nil
		}
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}

	batch := &Batch{Items: make([]*Item, 0, len(doc.Items))}
	seen := make(map[string]struct{}, len(doc.Items))
	for i, d := range doc.Items {
		if d.ID == "" {
			return nil, fmt.Errorf("item %d: missing id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = struct{}{}

		it := New(d.ID, d.Datasource)
		for id, f := range d.Fields {
			field, err := decodeField(f)
			if err != nil {
				return nil, fmt.Errorf("item %q field %q: %w", d.ID, id, err)
			}
			it.SetField(id, field)
		}
		it.Source = decodeSource(d.Source)
		batch.Items = append(batch.Items, it)
	}
	return batch, nil
}

func decodeField(f *Field) (*Field, error) {
	if f == nil {
		return nil, fmt.Errorf("missing field definition")
	}
	if f.Type == "" {
		f.Type = TypeString
	}
	if !f.Type.IsValid() {
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}

	values := make([]any, 0, len(f.Values))
	for _, v := range f.Values {
		if v == nil {
			continue
		}
		cv, err := Coerce(f.Type, v)
		if err != nil {
			return nil, err
		}
		values = append(values, cv)
	}
	return &Field{Type: f.Type, Values: values}, nil
}

func decodeSource(d *sourceDoc) Source {
	if d == nil || d.Type == "" {
		return nil
	}
	if d.Type == SourceTypeUser {
		return &User{UID: d.ID, RoleIDs: d.Roles}
	}
	return &Entity{EntityType: d.Type, EntityID: d.ID}
}

// Encode writes the batch to w in the given format.
func Encode(w io.Writer, b *Batch, format Format) error {
	doc := document{Items: make([]itemDoc, 0, b.Len())}
	if b != nil {
		for _, it := range b.Items {
			doc.Items = append(doc.Items, encodeItem(it))
		}
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode batch: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode batch: %w", err)
		}
		return nil
	}
}

func encodeItem(it *Item) itemDoc {
	d := itemDoc{
		ID:         it.ID,
		Datasource: it.Datasource,
		Fields:     it.Fields,
	}
	switch s := it.Source.(type) {
	case nil:
	case *User:
		roles := append([]string(nil), s.RoleIDs...)
		sort.Strings(roles)
		d.Source = &sourceDoc{Type: SourceTypeUser, ID: s.UID, Roles: roles}
	case *Entity:
		d.Source = &sourceDoc{Type: s.EntityType, ID: s.EntityID}
	default:
		d.Source = &sourceDoc{Type: s.Type()}
	}
	return d
}
