package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesDatasourceFromID(t *testing.T) {
	it := New("entity:user/1:en", "")
	assert.Equal(t, "entity:user", it.Datasource)

	it = New("plain-id", "")
	assert.Equal(t, "", it.Datasource)

	it = New("entity:node/3", "custom")
	assert.Equal(t, "custom", it.Datasource)
}

func TestItem_FieldAccessors(t *testing.T) {
	// Given: an item with one field
	it := New("entity:user/1", "")
	it.SetField("entity:user|name", NewField(TypeString, "alice"))

	// Then: the accessors see it
	f, ok := it.Field("entity:user|name")
	require.True(t, ok)
	assert.Equal(t, []any{"alice"}, f.Values)
	assert.True(t, it.HasField("entity:user|name"))

	// When: removing it
	it.RemoveField("entity:user|name")

	// Then: it is gone
	_, ok = it.Field("entity:user|name")
	assert.False(t, ok)
}

func TestItem_SetField_InitializesMap(t *testing.T) {
	it := &Item{ID: "x"}
	it.SetField("a", NewField(TypeInteger, int64(1)))
	assert.True(t, it.HasField("a"))
}

func TestItem_FieldIDs_Sorted(t *testing.T) {
	it := New("x", "")
	it.SetField("c", NewField(TypeString))
	it.SetField("a", NewField(TypeString))
	it.SetField("b", NewField(TypeString))

	assert.Equal(t, []string{"a", "b", "c"}, it.FieldIDs())
}

func TestField_IsEmpty(t *testing.T) {
	var nilField *Field
	assert.True(t, nilField.IsEmpty())
	assert.True(t, NewField(TypeString).IsEmpty())
	assert.False(t, NewField(TypeString, "a").IsEmpty())
}

func TestFieldType_Predicates(t *testing.T) {
	assert.True(t, TypeText.IsText())
	assert.True(t, TypeString.IsText())
	assert.False(t, TypeInteger.IsText())
	assert.False(t, FieldType("blob").IsValid())
}

func TestBatch_Retain_RemovesInOrder(t *testing.T) {
	// Given: a batch of four items
	b := NewBatch(New("a", ""), New("b", ""), New("c", ""), New("d", ""))

	// When: retaining the first and third
	removed := b.Retain([]bool{true, false, true, false})

	// Then: order is preserved and removed IDs are reported
	assert.Equal(t, []string{"a", "c"}, b.IDs())
	assert.Equal(t, []string{"b", "d"}, removed)
	assert.Equal(t, 2, b.Len())
}

func TestBatch_Get(t *testing.T) {
	b := NewBatch(New("a", ""), New("b", ""))

	it, ok := b.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", it.ID)

	_, ok = b.Get("missing")
	assert.False(t, ok)

	var nilBatch *Batch
	assert.Equal(t, 0, nilBatch.Len())
}

func TestSources(t *testing.T) {
	var s Source = &User{UID: "1", RoleIDs: []string{"editor"}}
	rh, ok := s.(RoleHolder)
	require.True(t, ok)
	assert.Equal(t, []string{"editor"}, rh.Roles())
	assert.Equal(t, SourceTypeUser, s.Type())

	s = &Entity{EntityType: "node", EntityID: "3"}
	_, ok = s.(RoleHolder)
	assert.False(t, ok)
	assert.Equal(t, "node", s.Type())
}
