// AngelaMos | 2026
// service.go

package customer

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

// Service applies the authorization policy before every store call.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	actor rbac.Actor,
	req CustomerRequest,
) (int64, error) {
	if err := rbac.Authorize(ctx, actor, rbac.CreateRecord, rbac.Target{}); err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}

	c := req.toEntity(0)
	if err := s.repo.Create(ctx, c); err != nil {
		return 0, err
	}

	return c.ID, nil
}

func (s *Service) List(
	ctx context.Context,
	actor rbac.Actor,
) ([]Customer, error) {
	if err := rbac.Authorize(ctx, actor, rbac.ViewCustomers, rbac.Target{}); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	return s.repo.List(ctx)
}

func (s *Service) Get(
	ctx context.Context,
	actor rbac.Actor,
	id int64,
) (*Customer, error) {
	if err := rbac.Authorize(ctx, actor, rbac.ViewCustomers, rbac.Target{}); err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(
	ctx context.Context,
	actor rbac.Actor,
	id int64,
	req CustomerRequest,
) (*Customer, error) {
	if err := rbac.Authorize(ctx, actor, rbac.EditAnyRecord, rbac.Target{}); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}

	c := req.toEntity(id)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Delete(
	ctx context.Context,
	actor rbac.Actor,
	id int64,
) (int64, error) {
	if err := rbac.Authorize(ctx, actor, rbac.DeleteRecord, rbac.Target{}); err != nil {
		return 0, fmt.Errorf("delete customer: %w", err)
	}

	return s.repo.Delete(ctx, id)
}
