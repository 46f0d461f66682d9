// Package store writes processed batches into keyword indexes. The
// engines (bleve, SQLite FTS5) own storage; a Sink only adds and replaces
// documents.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Aman-CERP/indexprep/internal/item"
)

// Backend names a sink implementation.
type Backend string

const (
	BackendNone   Backend = "none"
	BackendBleve  Backend = "bleve"
	BackendSQLite Backend = "sqlite"
)

// ParseBackend resolves a backend name. The empty string means none.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendNone:
		return BackendNone, nil
	case BackendBleve, BackendSQLite:
		return b, nil
	default:
		return "", fmt.Errorf("unknown sink backend %q (use none, bleve or sqlite)", s)
	}
}

// Sink receives processed batches.
type Sink interface {
	// Write adds the items of a batch, replacing documents with the same id.
	Write(ctx context.Context, b *item.Batch) error

	// Count returns the number of documents in the index.
	Count(ctx context.Context) (int, error)

	// Match returns the ids of up to limit documents containing text in
	// any field.
	Match(ctx context.Context, text string, limit int) ([]string, error)

	// Close releases the index and its lock. Safe to call more than once.
	Close() error
}

// Document is the engine-neutral form of an item.
type Document struct {
	ID         string
	Datasource string
	// Fields maps field ids to their values. Multiple values are kept in
	// order.
	Fields map[string][]any
}

// DocumentFromItem converts an item, dropping empty fields.
func DocumentFromItem(it *item.Item) *Document {
	doc := &Document{
		ID:         it.ID,
		Datasource: it.Datasource,
		Fields:     make(map[string][]any, len(it.Fields)),
	}
	for id, f := range it.Fields {
		if f.IsEmpty() {
			continue
		}
		values := make([]any, len(f.Values))
		copy(values, f.Values)
		doc.Fields[id] = values
	}
	return doc
}

// FieldIDs returns the document's field ids in sorted order.
func (d *Document) FieldIDs() []string {
	ids := make([]string, 0, len(d.Fields))
	for id := range d.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Text joins the values of one field with spaces.
func (d *Document) Text(field string) string {
	values := d.Fields[field]
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = item.ToText(v)
	}
	return strings.Join(parts, " ")
}
