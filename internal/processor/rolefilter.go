package processor

import (
	"log/slog"

	"github.com/Aman-CERP/indexprep/internal/item"
)

// UserDatasource is the datasource id of user accounts.
const UserDatasource = "entity:user"

// RoleFilterConfig configures the role_filter processor.
type RoleFilterConfig struct {
	// IncludeSelected true indexes every user except those with a selected
	// role. False indexes only users with a selected role.
	IncludeSelected bool `yaml:"include_selected" json:"include_selected"`

	// Roles are the selected role ids.
	Roles []string `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// DefaultRoleFilterConfig returns a configuration that keeps every user.
func DefaultRoleFilterConfig() RoleFilterConfig {
	return RoleFilterConfig{IncludeSelected: true}
}

// ValidateRoleFilterConfig checks a role filter configuration. When
// datasources is non-empty it must contain a user datasource.
func ValidateRoleFilterConfig(cfg RoleFilterConfig, datasources []string) ValidationErrors {
	var errs ValidationErrors
	for i, r := range cfg.Roles {
		if r == "" {
			errs.add(IDRoleFilter, "roles", "role at position %d is empty", i)
		}
	}
	if len(datasources) > 0 && !SupportsIndex(datasources) {
		errs.add(IDRoleFilter, "", "index has no %s datasource", UserDatasource)
	}
	return errs
}

// SupportsIndex reports whether an index with these datasources contains
// users.
func SupportsIndex(datasources []string) bool {
	for _, ds := range datasources {
		if ds == UserDatasource {
			return true
		}
	}
	return false
}

// RoleFilter removes user items based on their roles.
type RoleFilter struct {
	weight          int
	includeSelected bool
	roles           map[string]struct{}
}

// NewRoleFilter creates a role filter.
func NewRoleFilter(cfg RoleFilterConfig, weight int) *RoleFilter {
	roles := make(map[string]struct{}, len(cfg.Roles))
	for _, r := range cfg.Roles {
		roles[r] = struct{}{}
	}
	return &RoleFilter{
		weight:          weight,
		includeSelected: cfg.IncludeSelected,
		roles:           roles,
	}
}

// ID implements Processor.
func (f *RoleFilter) ID() string { return IDRoleFilter }

// Kind implements Processor.
func (f *RoleFilter) Kind() Kind { return KindFilter }

// Weight implements Processor.
func (f *RoleFilter) Weight() int { return f.weight }

// Keep reports whether the item stays in the batch. Items whose source
// carries no roles are always kept.
func (f *RoleFilter) Keep(it *item.Item) bool {
	holder, ok := it.Source.(item.RoleHolder)
	if !ok {
		return true
	}
	return f.includeSelected != f.hasSelectedRole(holder.Roles())
}

func (f *RoleFilter) hasSelectedRole(roles []string) bool {
	for _, r := range roles {
		if _, ok := f.roles[r]; ok {
			return true
		}
	}
	return false
}

// Filter removes rejected items from the batch and returns their ids.
func (f *RoleFilter) Filter(b *item.Batch) []string {
	keep := make([]bool, b.Len())
	for i, it := range b.Items {
		keep[i] = f.Keep(it)
	}
	removed := b.Retain(keep)
	if len(removed) > 0 {
		slog.Debug("role_filter_removed",
			slog.Int("count", len(removed)))
	}
	return removed
}
