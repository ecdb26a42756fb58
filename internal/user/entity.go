// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

// User is created on first sign-in and never deleted. RoleID stays nil
// until an administrator assigns one.
type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	ExternalRef  *string   `db:"external_ref"`
	RoleID       *int64    `db:"role_id"`
	PasswordHash *string   `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) Role() rbac.Role {
	return rbac.FromID(u.RoleID)
}

func (u *User) IsAdmin() bool {
	return u.Role() == rbac.RoleAdmin
}

type RoleRow struct {
	ID   int64  `db:"id"   json:"id"`
	Name string `db:"name" json:"name"`
}
