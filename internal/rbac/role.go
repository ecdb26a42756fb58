// AngelaMos | 2026
// role.go

package rbac

import (
	"fmt"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

// Role mirrors the roles table. The zero value is a user nobody has
// assigned a role to yet.
type Role int

const (
	RoleUnassigned Role = 0
	RoleAdmin      Role = 1
	RoleSales      Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSales:
		return "sales"
	default:
		return "unassigned"
	}
}

// ID returns the roles.id value, nil when unassigned.
func (r Role) ID() *int64 {
	if !r.Valid() {
		return nil
	}
	id := int64(r)
	return &id
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSales
}

// FromID maps a nullable users.role_id column onto a Role. Unknown ids
// grant nothing.
func FromID(id *int64) Role {
	if id == nil {
		return RoleUnassigned
	}
	switch Role(*id) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSales:
		return RoleSales
	default:
		return RoleUnassigned
	}
}

// ParseID validates a role id supplied by an administrator. A nil id
// clears the role.
func ParseID(id *int64) (Role, error) {
	if id == nil {
		return RoleUnassigned, nil
	}
	r := Role(*id)
	if !r.Valid() {
		return RoleUnassigned, fmt.Errorf(
			"unknown role id %d: %w",
			*id,
			core.ErrInvalidInput,
		)
	}
	return r, nil
}
