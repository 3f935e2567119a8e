package auth

import (
	"sort"

	"inkpress/internal/models"
)

// Principal represents a user with resolved roles and permissions.
type Principal struct {
	User        *models.User
	Token       *models.AccessToken // token the request authenticated with, if any
	Roles       map[string]struct{}
	Permissions map[string]struct{}
}

// NewPrincipal builds the two name sets from a user loaded with
// Roles.Permissions and Permissions. Effective permissions are the union of
// direct grants and grants inherited through roles.
func NewPrincipal(user *models.User) Principal {
	p := Principal{
		User:        user,
		Roles:       make(map[string]struct{}, len(user.Roles)),
		Permissions: make(map[string]struct{}),
	}
	for _, perm := range user.Permissions {
		p.Permissions[perm.Name] = struct{}{}
	}
	for _, role := range user.Roles {
		p.Roles[role.Name] = struct{}{}
		for _, perm := range role.Permissions {
			p.Permissions[perm.Name] = struct{}{}
		}
	}
	return p
}

// HasRole reports whether the principal holds the named role.
func (p Principal) HasRole(name string) bool {
	_, ok := p.Roles[name]
	return ok
}

// HasPermission reports whether the principal can execute action identified by name.
func (p Principal) HasPermission(name string) bool {
	_, ok := p.Permissions[name]
	return ok
}

// RoleNames returns the role set as a slice.
func (p Principal) RoleNames() []string {
	return setToSlice(p.Roles)
}

// PermissionNames returns the effective permission set as a slice.
func (p Principal) PermissionNames() []string {
	return setToSlice(p.Permissions)
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
