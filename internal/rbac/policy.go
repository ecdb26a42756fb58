// AngelaMos | 2026
// policy.go

package rbac

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/metrics"
)

type Action string

const (
	ViewAssignedLeads Action = "view_assigned_leads"
	ViewAllRecords    Action = "view_all_records"
	ViewCustomers     Action = "view_customers"
	CreateRecord      Action = "create_record"
	EditAssignedLead  Action = "edit_assigned_lead"
	EditAnyRecord     Action = "edit_any_record"
	ReassignLead      Action = "reassign_lead"
	DeleteRecord      Action = "delete_record"
	ManageUserRoles   Action = "manage_user_roles"
)

var grants = map[Role]map[Action]bool{
	RoleAdmin: {
		ViewAssignedLeads: true,
		ViewAllRecords:    true,
		ViewCustomers:     true,
		CreateRecord:      true,
		EditAssignedLead:  true,
		EditAnyRecord:     true,
		ReassignLead:      true,
		DeleteRecord:      true,
		ManageUserRoles:   true,
	},
	RoleSales: {
		ViewAssignedLeads: true,
		ViewCustomers:     true,
		CreateRecord:      true,
		EditAssignedLead:  true,
	},
}

// Target is the record an action applies to. AssignedTo is only
// meaningful for leads.
type Target struct {
	AssignedTo *int64
}

// Can reports whether role holds action regardless of the record.
func Can(role Role, action Action) bool {
	return grants[role][action]
}

// Allowed is the full decision: role grants plus ownership for the
// assigned-lead actions.
func Allowed(actor Actor, action Action, target Target) bool {
	if !Can(actor.Role, action) {
		return false
	}

	switch action {
	case ViewAssignedLeads, EditAssignedLead:
		if Can(actor.Role, ViewAllRecords) {
			return true
		}
		return target.AssignedTo != nil && *target.AssignedTo == actor.UserID
	default:
		return true
	}
}

// Authorize returns a wrapped core.ErrForbidden when the actor may not
// perform action on target.
func Authorize(
	ctx context.Context,
	actor Actor,
	action Action,
	target Target,
) error {
	if Allowed(actor, action, target) {
		return nil
	}

	core.AddSpanEvent(ctx, "authz.denied",
		attribute.String("action", string(action)),
		attribute.String("role", actor.Role.String()),
		attribute.Int64("user_id", actor.UserID),
	)
	metrics.RecordAuthzDenied(string(action), actor.Role.String())

	return fmt.Errorf(
		"%s as %s: %w",
		action,
		actor.Role,
		core.ErrForbidden,
	)
}

// Scope picks the row filter for a read. A nil scope means every row; a
// non-nil scope restricts to records assigned to that user.
func Scope(
	ctx context.Context,
	actor Actor,
	wide, narrow Action,
) (*int64, error) {
	if Can(actor.Role, wide) {
		return nil, nil
	}
	if Can(actor.Role, narrow) {
		id := actor.UserID
		return &id, nil
	}
	return nil, Authorize(ctx, actor, narrow, Target{})
}
