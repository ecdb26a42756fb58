// AngelaMos | 2026
// repository.go

package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

// Repository methods that take a scope only touch rows assigned to that
// user id; a nil scope covers every row. Rows outside the scope are
// reported as not found.
type Repository interface {
	Create(ctx context.Context, l *Lead) error
	GetByID(ctx context.Context, id int64, scope *int64) (*Lead, error)
	List(ctx context.Context, scope *int64) ([]Lead, error)
	Update(ctx context.Context, l *Lead, scope *int64) error
	Delete(ctx context.Context, id int64) (int64, error)
	ListStatuses(ctx context.Context) ([]Status, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const leadColumns = `
	l.id, l.name, l.email, l.phone, l.address,
	l.status_id, s.name AS status_name,
	l.assigned_to, u.name AS assigned_to_name,
	l.created_at`

const leadJoins = `
	LEFT JOIN lead_statuses s ON s.id = l.status_id
	LEFT JOIN users u ON u.id = l.assigned_to`

func (r *repository) Create(ctx context.Context, l *Lead) error {
	query := `
		INSERT INTO leads (name, email, phone, address, status_id, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.GetContext(ctx, l, query,
		l.Name,
		l.Email,
		l.Phone,
		l.Address,
		l.StatusID,
		l.AssignedTo,
	)
	if err != nil {
		return mapWriteError("create lead", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id int64,
	scope *int64,
) (*Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads l` + leadJoins + `
		WHERE l.id = $1 AND ($2::bigint IS NULL OR l.assigned_to = $2)`

	var l Lead
	err := r.db.GetContext(ctx, &l, query, id, scope)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get lead: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}

	return &l, nil
}

func (r *repository) List(ctx context.Context, scope *int64) ([]Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads l` + leadJoins + `
		WHERE ($1::bigint IS NULL OR l.assigned_to = $1)
		ORDER BY l.id DESC`

	leads := []Lead{}
	if err := r.db.SelectContext(ctx, &leads, query, scope); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	return leads, nil
}

// Update replaces the row and reads it back with its joined names in the
// same statement.
func (r *repository) Update(
	ctx context.Context,
	l *Lead,
	scope *int64,
) error {
	query := `
		WITH l AS (
			UPDATE leads
			SET name = $2, email = $3, phone = $4, address = $5,
			    status_id = $6, assigned_to = $7
			WHERE id = $1 AND ($8::bigint IS NULL OR assigned_to = $8)
			RETURNING *
		)
		SELECT ` + leadColumns + `
		FROM l` + leadJoins

	err := r.db.GetContext(ctx, l, query,
		l.ID,
		l.Name,
		l.Email,
		l.Phone,
		l.Address,
		l.StatusID,
		l.AssignedTo,
		scope,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update lead: %w", core.ErrNotFound)
	}
	if err != nil {
		return mapWriteError("update lead", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	query := `DELETE FROM leads WHERE id = $1 RETURNING id`

	var deleted int64
	err := r.db.GetContext(ctx, &deleted, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("delete lead: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("delete lead: %w", err)
	}

	return deleted, nil
}

func (r *repository) ListStatuses(ctx context.Context) ([]Status, error) {
	query := `SELECT id, name FROM lead_statuses ORDER BY id`

	statuses := []Status{}
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list lead statuses: %w", err)
	}

	return statuses, nil
}

func mapWriteError(op string, err error) error {
	switch {
	case core.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	case core.IsForeignKeyError(err):
		return fmt.Errorf("%s: %w", op, core.ValidationError(
			foreignKeyMessage(core.ConstraintName(err)),
		))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

const (
	statusForeignKey   = "leads_status_id_fkey"
	assigneeForeignKey = "leads_assigned_to_fkey"
)

func foreignKeyMessage(constraint string) string {
	switch constraint {
	case statusForeignKey:
		return "status_id must reference an existing lead status"
	case assigneeForeignKey:
		return "assigned_to must reference an existing user"
	default:
		return "lead references a record that does not exist"
	}
}
