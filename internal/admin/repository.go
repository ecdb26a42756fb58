// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

type StatusCount struct {
	StatusID int64  `db:"status_id" json:"status_id"`
	Status   string `db:"status"    json:"status"`
	Count    int64  `db:"count"     json:"count"`
}

type Totals struct {
	Users           int64 `db:"users"            json:"users"`
	UnassignedUsers int64 `db:"unassigned_users" json:"unassigned_users"`
	Customers       int64 `db:"customers"        json:"customers"`
	Leads           int64 `db:"leads"            json:"leads"`
	UnassignedLeads int64 `db:"unassigned_leads" json:"unassigned_leads"`
}

type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	LeadsByStatus(ctx context.Context) ([]StatusCount, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Totals(ctx context.Context) (Totals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM users WHERE role_id IS NULL) AS unassigned_users,
			(SELECT COUNT(*) FROM customers) AS customers,
			(SELECT COUNT(*) FROM leads) AS leads,
			(SELECT COUNT(*) FROM leads WHERE assigned_to IS NULL) AS unassigned_leads`

	var t Totals
	if err := r.db.GetContext(ctx, &t, query); err != nil {
		return Totals{}, fmt.Errorf("count totals: %w", err)
	}
	return t, nil
}

// LeadsByStatus includes statuses with no leads so dashboards keep a
// stable shape.
func (r *repository) LeadsByStatus(ctx context.Context) ([]StatusCount, error) {
	query := `
		SELECT s.id AS status_id, s.name AS status, COUNT(l.id) AS count
		FROM lead_statuses s
		LEFT JOIN leads l ON l.status_id = s.id
		GROUP BY s.id, s.name
		ORDER BY s.id`

	var counts []StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count leads by status: %w", err)
	}
	return counts, nil
}
