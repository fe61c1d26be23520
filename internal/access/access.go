// Package access implements the role gate: pure predicates that decide
// whether a user's role satisfies an allowed-role set. It holds no state
// and does not track identity changes; callers re-derive the current
// user before each check.
package access

import "prepkit/internal/models"

// Fixed role sets. These are part of the contract, not configurable at
// call time. There is no role hierarchy: admin is not a superset of
// content_manager unless listed.
var (
	// Administrators may view purchases and manage accounts.
	Administrators = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}

	// ContentManagers may create, update, and delete catalog entries.
	ContentManagers = []models.Role{models.RoleContentManager, models.RoleAdmin, models.RoleSuperAdmin}
)

// HasRole reports whether the user's role is a member of the allowed
// set. A nil user (unauthenticated) never passes; an empty allowed set
// denies everyone.
func HasRole(user *models.User, allowed []models.Role) bool {
	if user == nil {
		return false
	}
	for _, r := range allowed {
		if user.Role == r {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the user holds an administrator role.
func IsAdministrator(user *models.User) bool {
	return HasRole(user, Administrators)
}

// CanManageContent reports whether the user may manage catalog content.
func CanManageContent(user *models.User) bool {
	return HasRole(user, ContentManagers)
}

// RoleInSet is the role-string form of HasRole, used at the HTTP
// boundary where only the session's role snapshot is available.
func RoleInSet(role string, allowed []models.Role) bool {
	for _, r := range allowed {
		if models.Role(role) == r {
			return true
		}
	}
	return false
}
