// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/templates/crm-backend/internal/auth"
	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

// RoleCache receives the new role of a user as soon as it is written so
// the next resolution does not serve a stale value.
type RoleCache interface {
	Store(ctx context.Context, email string, role rbac.Role) error
	Invalidate(ctx context.Context, email string) error
}

type Service struct {
	repo           Repository
	cache          RoleCache
	bootstrapAdmin string
}

// NewService wires the user service. bootstrapAdmin, when set, is the
// email that receives the admin role the first time it signs in.
func NewService(
	repo Repository,
	cache RoleCache,
	bootstrapAdmin string,
) *Service {
	return &Service{
		repo:           repo,
		cache:          cache,
		bootstrapAdmin: normalizeEmail(bootstrapAdmin),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) ResolveRole(
	ctx context.Context,
	email string,
) (rbac.Role, error) {
	roleID, err := s.repo.RoleIDByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return rbac.RoleUnassigned, err
	}
	return rbac.FromID(roleID), nil
}

func (s *Service) ActorByEmail(
	ctx context.Context,
	email string,
) (rbac.Actor, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return rbac.Actor{}, err
	}
	return rbac.Actor{UserID: u.ID, Email: u.Email, Role: u.Role()}, nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id int64,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

// UpsertIdentity records a successful sign-in. The row is created on
// first sign-in; later sign-ins refresh the name and external reference
// but never touch the role.
func (s *Service) UpsertIdentity(
	ctx context.Context,
	identity auth.Identity,
) (*auth.UserInfo, error) {
	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, fmt.Errorf("upsert identity: email: %w", core.ErrInvalidInput)
	}

	u := &User{
		Name:        strings.TrimSpace(identity.Name),
		Email:       email,
		ExternalRef: identity.ExternalRef,
	}
	if u.Name == "" {
		u.Name = email
	}
	if s.bootstrapAdmin != "" && email == s.bootstrapAdmin {
		u.RoleID = rbac.RoleAdmin.ID()
	}

	if err := s.repo.Upsert(ctx, u); err != nil {
		return nil, err
	}

	s.storeRole(ctx, u)

	return toUserInfo(u), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, actor rbac.Actor) (*User, error) {
	if actor.UserID == 0 {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, actor.UserID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	actor rbac.Actor,
	params ListUsersParams,
) ([]User, int, error) {
	err := rbac.Authorize(ctx, actor, rbac.ManageUserRoles, rbac.Target{})
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return s.repo.List(ctx, params)
}

// CreateLocalUser provisions a password account for the local identity
// provider.
func (s *Service) CreateLocalUser(
	ctx context.Context,
	actor rbac.Actor,
	req CreateUserRequest,
) (*User, error) {
	err := rbac.Authorize(ctx, actor, rbac.ManageUserRoles, rbac.Target{})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := rbac.ParseID(req.RoleID); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		RoleID:       req.RoleID,
		PasswordHash: &hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.storeRole(ctx, u)

	return u, nil
}

// UpdateRole assigns or clears the role of a user. Admins cannot change
// their own role, which keeps at least the acting admin in place.
func (s *Service) UpdateRole(
	ctx context.Context,
	actor rbac.Actor,
	id int64,
	roleID *int64,
) (*User, error) {
	err := rbac.Authorize(ctx, actor, rbac.ManageUserRoles, rbac.Target{})
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	if _, err := rbac.ParseID(roleID); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	if id == actor.UserID {
		return nil, core.ForbiddenError("cannot change your own role")
	}

	u, err := s.repo.UpdateRole(ctx, id, roleID)
	if err != nil {
		return nil, err
	}

	s.storeRole(ctx, u)

	slog.InfoContext(ctx, "user role updated",
		"user_id", u.ID,
		"role", u.Role().String(),
		"by", actor.UserID,
	)

	return u, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]RoleRow, error) {
	return s.repo.ListRoles(ctx)
}

// ListStaff returns the users a lead can be assigned to. Anyone who can
// create a lead needs the list to fill the form.
func (s *Service) ListStaff(
	ctx context.Context,
	actor rbac.Actor,
) ([]User, error) {
	err := rbac.Authorize(ctx, actor, rbac.CreateRecord, rbac.Target{})
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return s.repo.ListAssignable(ctx)
}

func (s *Service) storeRole(ctx context.Context, u *User) {
	if s.cache == nil {
		return
	}
	err := s.cache.Store(ctx, u.Email, u.Role())
	if err == nil {
		return
	}
	slog.WarnContext(ctx, "role cache write failed",
		"email", u.Email,
		"error", err,
	)
	// a stale entry must not outlive a failed write
	if err := s.cache.Invalidate(ctx, u.Email); err != nil {
		slog.WarnContext(ctx, "role cache invalidate failed",
			"email", u.Email,
			"error", err,
		)
	}
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
	}
}

var _ auth.UserProvider = (*Service)(nil)
