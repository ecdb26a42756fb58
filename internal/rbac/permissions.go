// AngelaMos | 2026
// permissions.go

package rbac

// Permissions is the client-facing view of the policy table. Clients use
// it to hide controls; the services enforce the same table regardless.
type Permissions struct {
	Role                string `json:"role"`
	RoleID              *int64 `json:"role_id"`
	IsAdmin             bool   `json:"is_admin"`
	SetupRequired       bool   `json:"setup_required"`
	CanViewCustomers    bool   `json:"can_view_customers"`
	CanViewAllLeads     bool   `json:"can_view_all_leads"`
	CanViewLeads        bool   `json:"can_view_leads"`
	CanCreateCustomers  bool   `json:"can_create_customers"`
	CanCreateLeads      bool   `json:"can_create_leads"`
	CanEditAnyRecord    bool   `json:"can_edit_any_record"`
	CanEditAssignedLead bool   `json:"can_edit_assigned_lead"`
	CanReassignLeads    bool   `json:"can_reassign_leads"`
	CanDeleteRecords    bool   `json:"can_delete_records"`
	CanManageUsers      bool   `json:"can_manage_users"`
}

func PermissionsFor(role Role) Permissions {
	return Permissions{
		Role:                role.String(),
		RoleID:              role.ID(),
		IsAdmin:             role == RoleAdmin,
		SetupRequired:       !role.Valid(),
		CanViewCustomers:    Can(role, ViewCustomers),
		CanViewAllLeads:     Can(role, ViewAllRecords),
		CanViewLeads:        Can(role, ViewAssignedLeads),
		CanCreateCustomers:  Can(role, CreateRecord),
		CanCreateLeads:      Can(role, CreateRecord),
		CanEditAnyRecord:    Can(role, EditAnyRecord),
		CanEditAssignedLead: Can(role, EditAssignedLead),
		CanReassignLeads:    Can(role, ReassignLead),
		CanDeleteRecords:    Can(role, DeleteRecord),
		CanManageUsers:      Can(role, ManageUserRoles),
	}
}
