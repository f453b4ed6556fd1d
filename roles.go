package session

// Role is the user's global role as carried in the credential claims
type Role string

const (
	// RoleUser is a regular member of one or more groups
	RoleUser Role = "user"
	// RoleAdmin administers the groups it belongs to
	RoleAdmin Role = "admin"
	// RoleGlobalAdmin administers every group and the user directory
	RoleGlobalAdmin Role = "global_admin"
)

// AccessRequirement is the set of roles a protected view demands.
// An empty requirement admits any authenticated session.
type AccessRequirement []Role

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleGlobalAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleUser,
		RoleAdmin,
		RoleGlobalAdmin,
	}
}

// Satisfies reports whether role meets the requirement. Matching is an
// exact membership test: global_admin does not implicitly satisfy a
// requirement that only lists admin.
func (ar AccessRequirement) Satisfies(role Role) bool {
	if len(ar) == 0 {
		return true
	}

	for _, required := range ar {
		if required == role {
			return true
		}
	}

	return false
}
