// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

type Repository interface {
	Upsert(ctx context.Context, user *User) error
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	RoleIDByEmail(ctx context.Context, email string) (*int64, error)
	UpdateRole(ctx context.Context, id int64, roleID *int64) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ListAssignable(ctx context.Context) ([]User, error)
	ListRoles(ctx context.Context) ([]RoleRow, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, external_ref, role_id, password_hash,
		       created_at, updated_at`

// Upsert records a sign-in. An existing row keeps its role; user.RoleID
// only seeds the role of a row that has none.
func (r *repository) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, external_ref, role_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			external_ref = COALESCE(EXCLUDED.external_ref, users.external_ref),
			role_id = COALESCE(users.role_id, EXCLUDED.role_id),
			updated_at = NOW()
		RETURNING ` + userColumns

	err := r.db.GetContext(ctx, user, query,
		user.Name,
		user.Email,
		user.ExternalRef,
		user.RoleID,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, role_id, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	err := r.db.GetContext(ctx, user, query,
		user.Name,
		user.Email,
		user.RoleID,
		user.PasswordHash,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) RoleIDByEmail(
	ctx context.Context,
	email string,
) (*int64, error) {
	query := `SELECT role_id FROM users WHERE email = $1`

	var roleID *int64
	err := r.db.GetContext(ctx, &roleID, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("role by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("role by email: %w", err)
	}

	return roleID, nil
}

func (r *repository) UpdateRole(
	ctx context.Context,
	id int64,
	roleID *int64,
) (*User, error) {
	query := `
		UPDATE users
		SET role_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update user role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	switch {
	case params.Unassigned:
		conditions = append(conditions, "role_id IS NULL")
	case params.RoleID != nil:
		conditions = append(conditions, fmt.Sprintf("role_id = $%d", argIdx))
		args = append(args, *params.RoleID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// ListAssignable returns users that can own leads: anyone holding a role.
func (r *repository) ListAssignable(ctx context.Context) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role_id IS NOT NULL
		ORDER BY name, id`

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list assignable users: %w", err)
	}

	return users, nil
}

func (r *repository) ListRoles(ctx context.Context) ([]RoleRow, error) {
	query := `SELECT id, name FROM roles ORDER BY id`

	roles := []RoleRow{}
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
