package access

import "github.com/pratik-mahalle/altseo/internal/domain/user"

// Permission names an action on the admin surface
type Permission string

const (
	PermUsersRead  Permission = "users:read"
	PermUsersWrite Permission = "users:write"
	PermAuditRead  Permission = "audit:read"
)

var rolePermissions = map[string][]Permission{
	user.RoleUser:     nil,
	user.RoleOperator: {PermUsersRead, PermAuditRead},
	user.RoleAdmin:    {PermUsersRead, PermUsersWrite, PermAuditRead},
}

// PermissionsFor returns the permissions granted to a role. Unknown roles get none.
func PermissionsFor(role string) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
