// Package roles owns the persisted role records and the transactional
// mutation logic over them. It is the sole writer of role and
// role-permission rows.
package roles

import (
	"time"

	"github.com/gatekeep-io/gatekeep/internal/catalog"
)

// SuperadminRole is the reserved role name whose holders bypass explicit
// permission membership checks. Renaming that role revokes the bypass.
const SuperadminRole = "superadmin"

// Role is a named set of permissions. Permissions carry the catalog
// descriptions, joined at read time and never stored on the role.
type Role struct {
	ID          int64
	Name        string
	Permissions []catalog.Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionNames returns the names of the role's permissions.
func (r Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

// HasPermission reports membership by case-sensitive exact match.
func (r Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// UpdateParams carries the optional fields of an update. A nil field means
// "leave unchanged"; a non-nil empty Permissions slice clears the set.
type UpdateParams struct {
	Name        *string
	Permissions *[]catalog.Permission
}
