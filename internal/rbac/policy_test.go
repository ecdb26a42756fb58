// AngelaMos | 2026
// policy_test.go

package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

func ptr(v int64) *int64 { return &v }

func TestCanMatchesPolicyTable(t *testing.T) {
	tests := []struct {
		action     Action
		admin      bool
		sales      bool
		unassigned bool
	}{
		{ViewAssignedLeads, true, true, false},
		{ViewAllRecords, true, false, false},
		{ViewCustomers, true, true, false},
		{CreateRecord, true, true, false},
		{EditAssignedLead, true, true, false},
		{EditAnyRecord, true, false, false},
		{ReassignLead, true, false, false},
		{DeleteRecord, true, false, false},
		{ManageUserRoles, true, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.admin, Can(RoleAdmin, tt.action))
			assert.Equal(t, tt.sales, Can(RoleSales, tt.action))
			assert.Equal(t, tt.unassigned, Can(RoleUnassigned, tt.action))
		})
	}
}

func TestUnknownRoleGrantsNothing(t *testing.T) {
	unknown := FromID(ptr(7))
	assert.Equal(t, RoleUnassigned, unknown)

	for _, action := range []Action{
		ViewAssignedLeads, ViewAllRecords, ViewCustomers, CreateRecord,
		EditAssignedLead, EditAnyRecord, ReassignLead, DeleteRecord,
		ManageUserRoles,
	} {
		assert.False(t, Can(Role(7), action), action)
	}
}

func TestAllowedAssignedLeadOwnership(t *testing.T) {
	sales := Actor{UserID: 7, Role: RoleSales}
	admin := Actor{UserID: 1, Role: RoleAdmin}

	assert.True(t, Allowed(sales, EditAssignedLead, Target{AssignedTo: ptr(7)}))
	assert.False(t, Allowed(sales, EditAssignedLead, Target{AssignedTo: ptr(9)}))
	assert.False(t, Allowed(sales, ViewAssignedLeads, Target{}))
	assert.True(t, Allowed(admin, EditAssignedLead, Target{AssignedTo: ptr(9)}))
	assert.True(t, Allowed(admin, ViewAssignedLeads, Target{}))
}

func TestAuthorizeWrapsForbidden(t *testing.T) {
	ctx := context.Background()

	err := Authorize(ctx, Actor{UserID: 7, Role: RoleSales}, DeleteRecord, Target{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = Authorize(ctx, Actor{UserID: 1, Role: RoleAdmin}, DeleteRecord, Target{})
	assert.NoError(t, err)
}

func TestScope(t *testing.T) {
	ctx := context.Background()

	scope, err := Scope(ctx, Actor{UserID: 1, Role: RoleAdmin}, ViewAllRecords, ViewAssignedLeads)
	require.NoError(t, err)
	assert.Nil(t, scope)

	scope, err = Scope(ctx, Actor{UserID: 7, Role: RoleSales}, ViewAllRecords, ViewAssignedLeads)
	require.NoError(t, err)
	require.NotNil(t, scope)
	assert.Equal(t, int64(7), *scope)

	_, err = Scope(ctx, Actor{UserID: 3}, ViewAllRecords, ViewAssignedLeads)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestParseID(t *testing.T) {
	role, err := ParseID(ptr(1))
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = ParseID(nil)
	require.NoError(t, err)
	assert.Equal(t, RoleUnassigned, role)

	_, err = ParseID(ptr(3))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestPermissionsFor(t *testing.T) {
	perms := PermissionsFor(RoleUnassigned)
	assert.True(t, perms.SetupRequired)
	assert.Nil(t, perms.RoleID)
	assert.False(t, perms.CanCreateLeads)
	assert.False(t, perms.CanViewCustomers)

	perms = PermissionsFor(RoleSales)
	assert.False(t, perms.SetupRequired)
	assert.True(t, perms.CanCreateLeads)
	assert.True(t, perms.CanEditAssignedLead)
	assert.False(t, perms.CanDeleteRecords)
	assert.False(t, perms.CanManageUsers)
	require.NotNil(t, perms.RoleID)
	assert.Equal(t, int64(2), *perms.RoleID)

	perms = PermissionsFor(RoleAdmin)
	assert.True(t, perms.IsAdmin)
	assert.True(t, perms.CanManageUsers)
	assert.True(t, perms.CanReassignLeads)
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{UserID: 3, Email: "a@x.io", Role: RoleSales})
	actor, ok := ActorFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), actor.UserID)
	assert.False(t, actor.IsAdmin())
}
