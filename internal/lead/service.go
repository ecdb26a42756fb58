// AngelaMos | 2026
// service.go

package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

// ActorLookup finds the user behind an email for admin listings filtered
// by actor_email.
type ActorLookup interface {
	ActorByEmail(ctx context.Context, email string) (rbac.Actor, error)
}

type Service struct {
	repo   Repository
	actors ActorLookup
}

func NewService(repo Repository, actors ActorLookup) *Service {
	return &Service{repo: repo, actors: actors}
}

// Create stores a new lead. Without the reassign permission a lead can
// only be assigned to its creator.
func (s *Service) Create(
	ctx context.Context,
	actor rbac.Actor,
	req CreateLeadRequest,
) (int64, error) {
	if err := rbac.Authorize(ctx, actor, rbac.CreateRecord, rbac.Target{}); err != nil {
		return 0, fmt.Errorf("create lead: %w", err)
	}

	if err := authorizeAssignment(ctx, actor, req.AssignedTo); err != nil {
		return 0, fmt.Errorf("create lead: %w", err)
	}

	l := req.toEntity()
	if err := s.repo.Create(ctx, l); err != nil {
		return 0, err
	}

	return l.ID, nil
}

func (s *Service) List(
	ctx context.Context,
	actor rbac.Actor,
	filter ListFilter,
) ([]Lead, error) {
	scope, err := rbac.Scope(ctx, actor, rbac.ViewAllRecords, rbac.ViewAssignedLeads)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	if scope == nil && filter.ActorEmail != "" {
		scope, err = s.scopeForEmail(ctx, filter.ActorEmail)
		if err != nil {
			return nil, err
		}
	}

	return s.repo.List(ctx, scope)
}

// scopeForEmail narrows an unrestricted listing to the named user's
// leads. Administrators and unknown emails leave it unrestricted.
func (s *Service) scopeForEmail(
	ctx context.Context,
	email string,
) (*int64, error) {
	target, err := s.actors.ActorByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, core.ErrNotFound) {
		slog.DebugContext(ctx, "actor_email matched no user", "actor_email", email)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	if rbac.Can(target.Role, rbac.ViewAllRecords) {
		return nil, nil
	}

	id := target.UserID
	return &id, nil
}

func (s *Service) Get(
	ctx context.Context,
	actor rbac.Actor,
	id int64,
) (*Lead, error) {
	scope, err := rbac.Scope(ctx, actor, rbac.ViewAllRecords, rbac.ViewAssignedLeads)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}

	return s.repo.GetByID(ctx, id, scope)
}

func (s *Service) Update(
	ctx context.Context,
	actor rbac.Actor,
	id int64,
	req UpdateLeadRequest,
) (*Lead, error) {
	scope, err := rbac.Scope(ctx, actor, rbac.EditAnyRecord, rbac.EditAssignedLead)
	if err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}

	if err := authorizeAssignment(ctx, actor, req.AssignedTo); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}

	l := req.toEntity(id)
	if err := s.repo.Update(ctx, l, scope); err != nil {
		return nil, err
	}

	return l, nil
}

func (s *Service) Delete(
	ctx context.Context,
	actor rbac.Actor,
	id int64,
) (int64, error) {
	if err := rbac.Authorize(ctx, actor, rbac.DeleteRecord, rbac.Target{}); err != nil {
		return 0, fmt.Errorf("delete lead: %w", err)
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) ListStatuses(
	ctx context.Context,
	actor rbac.Actor,
) ([]Status, error) {
	if err := rbac.Authorize(ctx, actor, rbac.ViewAssignedLeads, rbac.Target{AssignedTo: &actor.UserID}); err != nil {
		return nil, fmt.Errorf("list lead statuses: %w", err)
	}

	return s.repo.ListStatuses(ctx)
}

func authorizeAssignment(
	ctx context.Context,
	actor rbac.Actor,
	assignee *int64,
) error {
	if assignee != nil && *assignee == actor.UserID {
		return nil
	}
	return rbac.Authorize(ctx, actor, rbac.ReassignLead, rbac.Target{AssignedTo: assignee})
}
