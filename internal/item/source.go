package item

// SourceTypeUser is the source type of user accounts.
const SourceTypeUser = "user"

// Source is the object an item was extracted from.
type Source interface {
	// Type returns the source's entity type, e.g. "user" or "node".
	Type() string
}

// RoleHolder is implemented by sources that belong to roles.
// Only such sources are subject to role filtering.
type RoleHolder interface {
	Roles() []string
}

// User is a user account backing an item.
type User struct {
	UID     string
	RoleIDs []string
}

// Type implements Source.
func (u *User) Type() string { return SourceTypeUser }

// Roles implements RoleHolder.
func (u *User) Roles() []string { return u.RoleIDs }

// Entity is any non-user backing object.
type Entity struct {
	EntityType string
	EntityID   string
}

// Type implements Source.
func (e *Entity) Type() string { return e.EntityType }

var (
	_ Source     = (*User)(nil)
	_ RoleHolder = (*User)(nil)
	_ Source     = (*Entity)(nil)
)
