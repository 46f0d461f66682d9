package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexprep/internal/item"
)

func userItem(id string, roles ...string) *item.Item {
	it := item.New("entity:user/"+id+":en", "")
	it.Source = &item.User{UID: id, RoleIDs: roles}
	return it
}

func nodeItem(id string) *item.Item {
	it := item.New("entity:node/"+id+":en", "")
	it.Source = &item.Entity{EntityType: "node", EntityID: id}
	return it
}

func TestRoleFilter_DropRule(t *testing.T) {
	tests := []struct {
		name            string
		includeSelected bool
		roles           []string
		want            bool
	}{
		{"exclude mode, has selected role", true, []string{"editor"}, false},
		{"exclude mode, lacks selected role", true, []string{"authenticated"}, true},
		{"only mode, has selected role", false, []string{"authenticated", "editor"}, true},
		{"only mode, lacks selected role", false, []string{"authenticated"}, false},
		{"only mode, no roles", false, nil, false},
		{"exclude mode, no roles", true, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRoleFilter(RoleFilterConfig{
				IncludeSelected: tt.includeSelected,
				Roles:           []string{"editor", "admin"},
			}, 0)

			assert.Equal(t, tt.want, f.Keep(userItem("1", tt.roles...)))
		})
	}
}

func TestRoleFilter_NonUserItemsAlwaysKept(t *testing.T) {
	for _, include := range []bool{true, false} {
		f := NewRoleFilter(RoleFilterConfig{IncludeSelected: include, Roles: []string{"editor"}}, 0)

		assert.True(t, f.Keep(nodeItem("1")))
		assert.True(t, f.Keep(item.New("no-source", "")))
	}
}

func TestRoleFilter_EmptyRolesExcludeModeKeepsEverything(t *testing.T) {
	f := NewRoleFilter(DefaultRoleFilterConfig(), 0)

	assert.True(t, f.Keep(userItem("1", "admin")))
	assert.True(t, f.Keep(userItem("2")))
}

func TestRoleFilter_Filter(t *testing.T) {
	// Given: users with and without the selected role and a node
	b := item.NewBatch(
		userItem("1", "authenticated"),
		userItem("2", "authenticated", "editor"),
		nodeItem("3"),
		userItem("4", "editor"),
	)
	f := NewRoleFilter(RoleFilterConfig{IncludeSelected: true, Roles: []string{"editor"}}, 0)

	// When: filtering the batch
	removed := f.Filter(b)

	// Then: editors are removed and the rest keep their order
	assert.Equal(t, []string{"entity:user/2:en", "entity:user/4:en"}, removed)
	assert.Equal(t, []string{"entity:user/1:en", "entity:node/3:en"}, b.IDs())
}

func TestRoleFilter_DoesNotModifySurvivors(t *testing.T) {
	it := userItem("1", "authenticated")
	it.SetField("name", item.NewField(item.TypeString, "alice"))
	b := item.NewBatch(it)

	NewRoleFilter(RoleFilterConfig{IncludeSelected: true, Roles: []string{"editor"}}, 0).Filter(b)

	require.Equal(t, 1, b.Len())
	assert.Equal(t, []any{"alice"}, b.Items[0].Fields["name"].Values)
}

func TestSupportsIndex(t *testing.T) {
	assert.True(t, SupportsIndex([]string{"entity:node", "entity:user"}))
	assert.False(t, SupportsIndex([]string{"entity:node"}))
	assert.False(t, SupportsIndex(nil))
}

func TestValidateRoleFilterConfig(t *testing.T) {
	assert.Empty(t, ValidateRoleFilterConfig(RoleFilterConfig{Roles: []string{"editor"}}, nil))
	assert.Empty(t, ValidateRoleFilterConfig(RoleFilterConfig{}, []string{"entity:user"}))

	errs := ValidateRoleFilterConfig(RoleFilterConfig{Roles: []string{""}}, []string{"entity:node"})
	require.Len(t, errs, 2)
	assert.Equal(t, "roles", errs[0].Option)
	assert.Contains(t, errs[1].Message, "entity:user")
}
